package util

import (
	"regexp"
)

var (
	nameRegex     = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	emailRegex    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	hexColorRegex = regexp.MustCompile(`^([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)
)

const MaxNameLength = 32

// IsValidName accepts alphanumeric characters and underscores, up to 32
// characters. Used for both usernames and display names.
func IsValidName(s string) bool {
	if s == "" || len(s) > MaxNameLength {
		return false
	}
	return nameRegex.MatchString(s)
}

func IsValidEmail(s string) bool {
	if s == "" {
		return false
	}
	return emailRegex.MatchString(s)
}

// IsValidNameColor accepts a 3- or 6-digit hex color code without the # prefix.
func IsValidNameColor(s string) bool {
	return hexColorRegex.MatchString(s)
}

// ValidatePassword returns the list of unmet password requirements, empty
// when the password is acceptable.
func ValidatePassword(password string) []string {
	var problems []string
	if len(password) < 8 {
		problems = append(problems, "password must be at least 8 characters")
	}
	if len(password) > 72 {
		// bcrypt truncates beyond 72 bytes
		problems = append(problems, "password must be at most 72 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		}
	}
	if !hasLetter {
		problems = append(problems, "password must contain a letter")
	}
	if !hasDigit {
		problems = append(problems, "password must contain a digit")
	}
	return problems
}

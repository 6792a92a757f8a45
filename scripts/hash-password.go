package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// Produces a bcrypt hash suitable for the users.password_hash column,
// for seeding accounts directly in SQL.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/hash-password.go <password>\n")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(hash))
}

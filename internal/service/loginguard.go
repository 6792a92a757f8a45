package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bogobit/community-server-go/internal/repository"
)

// LoginGuard enforces the sliding-window lockout over (client address,
// account name) pairs. It is consulted before credential verification runs,
// so a locked key never reaches the password check.
type LoginGuard struct {
	attempts  repository.LoginAttemptRepository
	threshold int
	window    time.Duration
}

func NewLoginGuard(attempts repository.LoginAttemptRepository, threshold int, window time.Duration) *LoginGuard {
	return &LoginGuard{
		attempts:  attempts,
		threshold: threshold,
		window:    window,
	}
}

// RecordAttempt appends one attempt record. Best-effort: a storage failure
// is logged and swallowed so that it can never block the login path itself.
func (g *LoginGuard) RecordAttempt(ctx context.Context, clientAddr, username string, succeeded bool) {
	if _, err := g.attempts.Create(ctx, clientAddr, username, succeeded); err != nil {
		log.Error().
			Err(err).
			Str("clientAddr", clientAddr).
			Str("username", username).
			Bool("succeeded", succeeded).
			Msg("failed to record login attempt")
	}
}

// IsLocked reports whether the key has reached the failure threshold inside
// the window. Attempts exactly at the window edge are excluded (strict
// comparison), and a success inside the window resets the effective count.
// Lockout lifts by itself as failures age out.
func (g *LoginGuard) IsLocked(ctx context.Context, clientAddr, username string) (bool, error) {
	since := time.Now().Add(-g.window)
	count, err := g.attempts.CountRecentFailures(ctx, clientAddr, username, since)
	if err != nil {
		return false, err
	}
	return count >= g.threshold, nil
}

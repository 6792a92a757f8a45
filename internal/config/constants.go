package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Login attempts older than this are garbage collected. Kept well above any
// sane lockout window so the sweep never races the guard.
const LoginAttemptRetention = 24 * time.Hour

// Chat settings
const (
	ChatEventBufferSize  = 64
	ChatMaxMessageLength = 2000
	ChatHistoryPageSize  = 50
)

// Comment pagination
const CommentPageSize = 20

// Default rate limiting for the authenticated API surface
const DefaultRateLimitPerMin = 120

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
	ServerRequestTimeout  = 90 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Outbound HTTP client timeout for third-party REST calls
const UpstreamClientTimeout = 30 * time.Second

// Background job intervals
const CleanupJobInterval = 10 * time.Minute

// Chat-log retention before the cleanup job deletes old messages
const ChatLogRetention = 90 * 24 * time.Hour

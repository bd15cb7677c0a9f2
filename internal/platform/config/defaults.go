package config

import "time"

// Default returns the baseline configuration. File and environment values
// overlay these; the auth durations mirror the documented lockout and token
// lifetimes and should rarely need tuning outside tests.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "logs",
			File:  "server.log",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "melodix.db",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Auth: AuthConfig{
			AccessTokenTTL:     30 * time.Minute,
			ResetTokenTTL:      60 * time.Minute,
			SessionTTL:         30 * time.Minute,
			BlacklistRetention: time.Hour,
			LockoutThreshold:   5,
			LockoutDuration:    15 * time.Minute,
			AttemptWindow:      time.Hour,
			UserCacheTTL:       5 * time.Minute,
		},
		Mail: MailConfig{
			Enabled:  false,
			Port:     587,
			From:     "no-reply@melodix.local",
			ResetURL: "http://localhost:8080/reset-password",
		},
	}
}

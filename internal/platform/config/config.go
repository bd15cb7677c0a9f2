package config

import (
	"time"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Mail     MailConfig     `yaml:"mail"`
}

type ServerConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// AuthConfig carries every tunable of the credential core. Durations use the
// yaml duration syntax (30m, 1h).
type AuthConfig struct {
	Secret             string        `yaml:"secret"`
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl"`
	ResetTokenTTL      time.Duration `yaml:"reset_token_ttl"`
	SessionTTL         time.Duration `yaml:"session_ttl"`
	BlacklistRetention time.Duration `yaml:"blacklist_retention"`
	LockoutThreshold   int           `yaml:"lockout_threshold"`
	LockoutDuration    time.Duration `yaml:"lockout_duration"`
	AttemptWindow      time.Duration `yaml:"attempt_window"`
	UserCacheTTL       time.Duration `yaml:"user_cache_ttl"`
	BcryptCost         int           `yaml:"bcrypt_cost"`
}

type MailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	From     string `yaml:"from"`
	ResetURL string `yaml:"reset_url"`
}

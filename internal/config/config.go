// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

// Package config loads Seedmap configuration.
//
// Sources are layered with koanf, later ones winning:
//
//  1. Built-in defaults (defaultConfig)
//  2. A YAML file: CONFIG_PATH, or the first of DefaultConfigPaths that exists
//  3. Environment variables (see envTransformFunc for the accepted names)
//
// The flat environment names kept from earlier deployments (PORT,
// DATABASE_URL, PGSSLMODE) still work.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	WebSocket WebSocketConfig `koanf:"websocket"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development, staging, production
	StaticDir   string        `koanf:"static_dir"`  // served at / and /public; empty disables
}

// StoreConfig selects and tunes the marker store backend.
type StoreConfig struct {
	// Driver is memory, sqlite, postgres or badger. When empty the driver is
	// postgres if DatabaseURL is set, sqlite otherwise.
	Driver      string `koanf:"driver"`
	DatabaseURL string `koanf:"database_url"`
	// PGSSLMode=require appends sslmode=require to DatabaseURL when the URL
	// does not already carry an sslmode.
	PGSSLMode  string `koanf:"pg_sslmode"`
	SQLitePath string `koanf:"sqlite_path"`
	BadgerPath string `koanf:"badger_path"`

	// BadgerGCInterval is how often value-log GC runs. Zero disables it.
	BadgerGCInterval time.Duration `koanf:"badger_gc_interval"`

	BreakerEnabled          bool          `koanf:"breaker_enabled"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerMaxRequests      uint32        `koanf:"breaker_max_requests"`
	BreakerInterval         time.Duration `koanf:"breaker_interval"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
}

// WebSocketConfig tunes live sessions.
type WebSocketConfig struct {
	// SendBuffer is the per-session outbound queue length. A session whose
	// queue is full when a broadcast arrives is treated as dead.
	SendBuffer     int           `koanf:"send_buffer"`
	MaxMessageSize int64         `koanf:"max_message_size"`
	WriteWait      time.Duration `koanf:"write_wait"`
	PongWait       time.Duration `koanf:"pong_wait"`

	// MessagesPerSecond limits inbound messages per session; 0 disables.
	MessagesPerSecond float64 `koanf:"messages_per_second"`
	MessageBurst      int     `koanf:"message_burst"`

	// StatsInterval is how often room gauges are refreshed.
	StatsInterval time.Duration `koanf:"stats_interval"`
}

// SecurityConfig holds CORS and HTTP rate limit settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Addr is the listen address for http.Server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// ResolvedDriver returns the effective store driver.
func (s *StoreConfig) ResolvedDriver() string {
	if s.Driver != "" {
		return strings.ToLower(s.Driver)
	}
	if s.DatabaseURL != "" {
		return DriverPostgres
	}
	return DriverSQLite
}

// DatabaseConfigured reports whether an external database URL is set.
// It feeds the "db" flag of the health endpoint.
func (s *StoreConfig) DatabaseConfigured() bool {
	return strings.TrimSpace(s.DatabaseURL) != ""
}

// ResolvedDSN returns DatabaseURL with the PGSSLMode rewrite applied.
func (s *StoreConfig) ResolvedDSN() string {
	dsn := strings.TrimSpace(s.DatabaseURL)
	if dsn == "" || strings.Contains(dsn, "sslmode=") {
		return dsn
	}
	if !strings.EqualFold(strings.TrimSpace(s.PGSSLMode), "require") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%ssslmode=require", dsn, sep)
}

// HasWildcardCORS reports whether any origin is allowed.
func (s *SecurityConfig) HasWildcardCORS() bool {
	for _, origin := range s.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour

	minMaxMessageSize = 1024
)

var validDrivers = map[string]bool{
	DriverMemory:   true,
	DriverSQLite:   true,
	DriverPostgres: true,
	DriverBadger:   true,
}

var validEnvironments = map[string]bool{
	"development": true,
	"staging":     true,
	"production":  true,
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateWebSocket(); err != nil {
		return err
	}
	if err := c.validateRateLimits(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if !validEnvironments[strings.ToLower(c.Server.Environment)] {
		return fmt.Errorf("ENVIRONMENT must be one of: development, staging, production")
	}
	return nil
}

func (c *Config) validateStore() error {
	driver := c.Store.ResolvedDriver()
	if !validDrivers[driver] {
		return fmt.Errorf("STORE_DRIVER must be one of: memory, sqlite, postgres, badger (got %q)", c.Store.Driver)
	}

	switch driver {
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORE_DRIVER=sqlite")
		}
	case DriverBadger:
		if c.Store.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required when STORE_DRIVER=badger")
		}
		if c.Store.BadgerGCInterval < 0 {
			return fmt.Errorf("BADGER_GC_INTERVAL must not be negative")
		}
	}

	return c.validateBreaker()
}

func (c *Config) validateBreaker() error {
	if !c.Store.BreakerEnabled {
		return nil
	}
	if c.Store.BreakerFailureThreshold == 0 {
		return fmt.Errorf("STORE_BREAKER_FAILURE_THRESHOLD must be at least 1")
	}
	if c.Store.BreakerMaxRequests == 0 {
		return fmt.Errorf("STORE_BREAKER_MAX_REQUESTS must be at least 1")
	}
	if c.Store.BreakerTimeout <= 0 {
		return fmt.Errorf("STORE_BREAKER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateWebSocket() error {
	ws := c.WebSocket
	if ws.SendBuffer < 1 {
		return fmt.Errorf("WS_SEND_BUFFER must be at least 1")
	}
	if ws.MaxMessageSize < minMaxMessageSize {
		return fmt.Errorf("WS_MAX_MESSAGE_SIZE must be at least %d bytes", minMaxMessageSize)
	}
	if ws.WriteWait <= 0 {
		return fmt.Errorf("WS_WRITE_WAIT must be positive")
	}
	// Pings go out at 90% of PongWait, which must leave room for a write.
	if ws.PongWait <= ws.WriteWait {
		return fmt.Errorf("WS_PONG_WAIT must be greater than WS_WRITE_WAIT")
	}
	if ws.MessagesPerSecond < 0 {
		return fmt.Errorf("WS_MESSAGES_PER_SECOND must not be negative")
	}
	if ws.MessagesPerSecond > 0 && ws.MessageBurst < 1 {
		return fmt.Errorf("WS_MESSAGE_BURST must be at least 1 when rate limiting is enabled")
	}
	if ws.StatsInterval <= 0 {
		return fmt.Errorf("WS_STATS_INTERVAL must be positive")
	}
	return nil
}

// validateRateLimits validates rate limiting configuration bounds.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config files searched, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/seedmap/config.yaml",
	"/etc/seedmap/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8000,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
			StaticDir:   "public",
		},
		Store: StoreConfig{
			Driver:                  "",
			SQLitePath:              "./app.db",
			BadgerPath:              "./data/markers",
			BadgerGCInterval:        10 * time.Minute,
			BreakerEnabled:          true,
			BreakerFailureThreshold: 5,
			BreakerMaxRequests:      3,
			BreakerInterval:         time.Minute,
			BreakerTimeout:          30 * time.Second,
		},
		WebSocket: WebSocketConfig{
			SendBuffer:        256,
			MaxMessageSize:    64 * 1024,
			WriteWait:         10 * time.Second,
			PongWait:          60 * time.Second,
			MessagesPerSecond: 20,
			MessageBurst:      40,
			StatsInterval:     15 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     300,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf layers defaults, the config file and the environment, then
// validates the result.
func LoadWithKoanf() (*Config, error) {
	return loadFrom(findConfigFile())
}

func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are keys that may arrive from the environment as a
// comma-separated string.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to config keys.
var envMappings = map[string]string{
	"port":         "server.port",
	"host":         "server.host",
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",
	"static_dir":   "server.static_dir",

	"store_driver":                    "store.driver",
	"database_url":                    "store.database_url",
	"pgsslmode":                       "store.pg_sslmode",
	"sqlite_path":                     "store.sqlite_path",
	"badger_path":                     "store.badger_path",
	"badger_gc_interval":              "store.badger_gc_interval",
	"store_breaker_enabled":           "store.breaker_enabled",
	"store_breaker_failure_threshold": "store.breaker_failure_threshold",
	"store_breaker_max_requests":      "store.breaker_max_requests",
	"store_breaker_interval":          "store.breaker_interval",
	"store_breaker_timeout":           "store.breaker_timeout",

	"ws_send_buffer":         "websocket.send_buffer",
	"ws_max_message_size":    "websocket.max_message_size",
	"ws_write_wait":          "websocket.write_wait",
	"ws_pong_wait":           "websocket.pong_wait",
	"ws_messages_per_second": "websocket.messages_per_second",
	"ws_message_burst":       "websocket.message_burst",
	"ws_stats_interval":      "websocket.stats_interval",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable to its config key. Unknown
// variables map to "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

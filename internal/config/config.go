// Copyright 2025 Dexaz
// SPDX-License-Identifier: Apache-2.0

// Package config loads the client configuration from a YAML file with
// environment overrides for deploy-time secrets.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend  Backend  `yaml:"backend"`
	Database Database `yaml:"database"`
	Snapshot Snapshot `yaml:"snapshot"`
	Timeouts Timeouts `yaml:"timeouts"`
	Logging  Logging  `yaml:"logging"`
}

// Backend points at the hosted REST and realtime endpoints.
type Backend struct {
	URL       string `yaml:"url"`
	APIKey    string `yaml:"api_key"`
	JWTSecret string `yaml:"jwt_secret"`
}

// Database is the optional direct Postgres connection. When URL is empty
// the app works through the REST backend only.
type Database struct {
	URL string `yaml:"url"`
}

// Snapshot configures the local offline cache.
type Snapshot struct {
	Path string `yaml:"path"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "5s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library form.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type Timeouts struct {
	Load    Duration `yaml:"load"`
	Profile Duration `yaml:"profile"`
}

type Logging struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Snapshot: Snapshot{Path: "dexaz-snapshot.db"},
		Timeouts: Timeouts{Load: Duration(5 * time.Second), Profile: Duration(3 * time.Second)},
		Logging:  Logging{Level: "info"},
	}
}

// Load reads path over the defaults, then applies environment
// overrides. A missing file is not an error; the defaults plus
// environment stand alone.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DEXAZ_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("DEXAZ_API_KEY"); v != "" {
		c.Backend.APIKey = v
	}
	if v := os.Getenv("DEXAZ_JWT_SECRET"); v != "" {
		c.Backend.JWTSecret = v
	}
	if v := os.Getenv("DEXAZ_DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("DEXAZ_SNAPSHOT_PATH"); v != "" {
		c.Snapshot.Path = v
	}
}

func (c Config) validate() error {
	if c.Backend.URL == "" && c.Database.URL == "" {
		return fmt.Errorf("config: either backend.url or database.url must be set")
	}
	if c.Backend.URL != "" && c.Backend.APIKey == "" {
		return fmt.Errorf("config: backend.api_key is required with backend.url")
	}
	return nil
}

// Logger builds the process logger at the configured level.
func (c Config) Logger() *slog.Logger {
	var level slog.Level
	switch c.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads and validates the gateway configuration from the
// environment. All required values must be present at startup; the process
// refuses to start otherwise.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/recordgate/recordgate/pkg/errors"
)

// DefaultSessionDuration is the sliding session expiry applied when
// SESSION_DURATION is not set.
const DefaultSessionDuration = 120 * time.Minute

// SessionBackend selects the session storage implementation.
type SessionBackend string

const (
	// SessionBackendMemory keeps sessions in process memory (default).
	SessionBackendMemory SessionBackend = "memory"

	// SessionBackendRedis keeps sessions in Redis for multi-instance deployments.
	SessionBackendRedis SessionBackend = "redis"
)

// Config holds the gateway configuration.
type Config struct {
	// Identity provider (OAuth2 authorization-code).
	LoginURL       string `env:"SF_LOGIN_URL"`
	CallbackURL    string `env:"SF_AUTH_CALLBACK_URL"`
	ConsumerKey    string `env:"SF_CONSUMER_KEY"`
	ConsumerSecret string `env:"SF_CONSUMER_SECRET"`

	// Record authority API version, e.g. "58.0".
	APIVersion string `env:"SF_API_VERSION"`

	// Object store.
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSRegion          string `env:"AWS_REGION"`
	S3Bucket           string `env:"AWS_S3_BUCKET"`

	// Sessions.
	SessionSecret          string         `env:"SESSION_SECRET"`
	SessionDurationMinutes int            `env:"SESSION_DURATION" envDefault:"120"`
	SessionBackend         SessionBackend `env:"SESSION_BACKEND" envDefault:"memory"`
	RedisURL               string         `env:"REDIS_URL"`

	// Listener.
	Port int `env:"PORT" envDefault:"3000"`
}

// requiredVars maps environment variable names to accessors on Config,
// in the order they are validated.
var requiredVars = []struct {
	name  string
	value func(*Config) string
}{
	{"SF_LOGIN_URL", func(c *Config) string { return c.LoginURL }},
	{"SF_AUTH_CALLBACK_URL", func(c *Config) string { return c.CallbackURL }},
	{"SF_CONSUMER_KEY", func(c *Config) string { return c.ConsumerKey }},
	{"SF_CONSUMER_SECRET", func(c *Config) string { return c.ConsumerSecret }},
	{"SF_API_VERSION", func(c *Config) string { return c.APIVersion }},
	{"AWS_ACCESS_KEY_ID", func(c *Config) string { return c.AWSAccessKeyID }},
	{"AWS_SECRET_ACCESS_KEY", func(c *Config) string { return c.AWSSecretAccessKey }},
	{"AWS_REGION", func(c *Config) string { return c.AWSRegion }},
	{"AWS_S3_BUCKET", func(c *Config) string { return c.S3Bucket }},
	{"SESSION_SECRET", func(c *Config) string { return c.SessionSecret }},
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first if present, matching the behavior of
// the deployment scripts.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on any missing required variable or inconsistent value.
func (c *Config) Validate() error {
	for _, v := range requiredVars {
		if v.value(c) == "" {
			return errors.NewConfigMissingError(fmt.Sprintf("missing %s environment variable", v.name), nil)
		}
	}

	switch c.SessionBackend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.RedisURL == "" {
			return errors.NewConfigMissingError("missing REDIS_URL environment variable (required for redis session backend)", nil)
		}
	default:
		return errors.NewConfigMissingError(fmt.Sprintf("unknown SESSION_BACKEND %q", c.SessionBackend), nil)
	}

	if c.SessionDurationMinutes <= 0 {
		return errors.NewConfigMissingError("SESSION_DURATION must be a positive number of minutes", nil)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.NewConfigMissingError("PORT must be a valid TCP port", nil)
	}
	return nil
}

// SessionDuration returns the sliding session expiry window.
func (c *Config) SessionDuration() time.Duration {
	return time.Duration(c.SessionDurationMinutes) * time.Minute
}

// SecureCookies reports whether session cookies must carry the Secure
// attribute. They must if and only if the public callback URL uses an
// encrypted transport scheme.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.CallbackURL, "https://")
}

// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Default timeouts for Redis operations.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
)

// redisKeyPrefix namespaces session keys so the gateway can share a Redis
// instance with other applications.
const redisKeyPrefix = "recordgate:session:"

// RedisStorage implements the Storage interface with a Redis backend,
// enabling horizontal scaling of the gateway. Sessions are stored as JSON
// with a per-key TTL, so DeleteExpired is a no-op: Redis evicts stale
// sessions natively, and every Store resets the TTL which implements the
// sliding expiry window.
type RedisStorage struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStorage creates Redis-backed session storage from a redis:// URL.
// Returns an error if the URL is malformed or the connection cannot be
// established.
func NewRedisStorage(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStorage, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = DefaultDialTimeout
	opts.ReadTimeout = DefaultReadTimeout
	opts.WriteTimeout = DefaultWriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		// Close the client to prevent resource leak
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStorage{client: client, ttl: ttl}, nil
}

// NewRedisStorageWithClient creates a RedisStorage with a pre-configured client.
// This is useful for testing with miniredis.
func NewRedisStorageWithClient(client redis.UniversalClient, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, ttl: ttl}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

// Store serializes the session to JSON and writes it with the sliding TTL.
func (s *RedisStorage) Store(ctx context.Context, session *Session) error {
	if session == nil {
		return fmt.Errorf("cannot store nil session")
	}
	if session.ID == "" {
		return fmt.Errorf("cannot store session with empty ID")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	if err := s.client.Set(ctx, redisKey(session.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Load retrieves and deserializes a session.
func (s *RedisStorage) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("cannot load session with empty ID")
	}

	data, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to deserialize session: %w", err)
	}
	return &session, nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (s *RedisStorage) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("cannot delete session with empty ID")
	}

	if err := s.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts sessions via the per-key TTL.
func (*RedisStorage) DeleteExpired(_ context.Context, _ time.Time) error {
	return nil
}

// Close closes the underlying Redis client.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}

// Compile-time interface compliance checks
var (
	_ Storage = (*RedisStorage)(nil)
	_ Storage = (*LocalStorage)(nil)
)

// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"time"
)

// Storage defines the minimal interface for session storage backends.
// This interface is designed to be simple and efficient, supporting both
// local in-memory storage and distributed storage backends like Redis.
type Storage interface {
	// Store creates or updates a session in the storage backend.
	// If the session already exists, it is overwritten. Implementations
	// must persist a copy so later mutations by the caller are not
	// observable until the next Store.
	Store(ctx context.Context, session *Session) error

	// Load retrieves a session by ID from the storage backend.
	// Returns ErrSessionNotFound if the session doesn't exist.
	// Expiry is enforced by the Manager, not here.
	Load(ctx context.Context, id string) (*Session, error)

	// Delete removes a session from the storage backend.
	// It is not an error if the session doesn't exist.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes all sessions that haven't been updated since
	// the given time. Backends with native TTL support may make this a no-op.
	DeleteExpired(ctx context.Context, before time.Time) error

	// Close releases resources held by the storage backend.
	Close() error
}

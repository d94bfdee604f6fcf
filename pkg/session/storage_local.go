// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// LocalStorage implements the Storage interface using an in-memory sync.Map.
// This is the default storage backend for single-instance deployments.
type LocalStorage struct {
	sessions sync.Map
}

// NewLocalStorage creates a new local in-memory storage backend.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{}
}

// Store saves a copy of the session to local storage. Storing a copy keeps
// a concurrent Load from observing fields mutated by the caller after Store
// returns, which is what makes CompleteAuth atomic for readers.
func (s *LocalStorage) Store(_ context.Context, session *Session) error {
	if session == nil {
		return fmt.Errorf("cannot store nil session")
	}
	if session.ID == "" {
		return fmt.Errorf("cannot store session with empty ID")
	}

	s.sessions.Store(session.ID, session.clone())
	return nil
}

// Load retrieves a copy of a session from local storage.
func (s *LocalStorage) Load(_ context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("cannot load session with empty ID")
	}

	val, ok := s.sessions.Load(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	session, ok := val.(*Session)
	if !ok {
		return nil, fmt.Errorf("invalid session type in storage")
	}

	return session.clone(), nil
}

// Delete removes a session from local storage.
func (s *LocalStorage) Delete(_ context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("cannot delete session with empty ID")
	}

	s.sessions.Delete(id)
	return nil
}

// DeleteExpired removes all sessions that haven't been updated since the given time.
func (s *LocalStorage) DeleteExpired(ctx context.Context, before time.Time) error {
	var toDelete []string

	// First pass: collect IDs of expired sessions
	s.sessions.Range(func(_, val any) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		if session, ok := val.(*Session); ok {
			if session.UpdatedAt.Before(before) {
				toDelete = append(toDelete, session.ID)
			}
		}
		return true
	})

	// Second pass: delete expired sessions
	for _, id := range toDelete {
		s.sessions.Delete(id)
	}

	return nil
}

// Close clears all sessions from local storage.
func (s *LocalStorage) Close() error {
	var toDelete []any
	s.sessions.Range(func(key, _ any) bool {
		toDelete = append(toDelete, key)
		return true
	})
	for _, key := range toDelete {
		s.sessions.Delete(key)
	}
	return nil
}

// Count returns the number of sessions in storage.
// This is a helper method not part of the Storage interface.
func (s *LocalStorage) Count() int {
	count := 0
	s.sessions.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

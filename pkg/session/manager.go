// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/recordgate/recordgate/pkg/logger"
)

// CookieName is the name of the session cookie.
const CookieName = "recordgate_session"

// cleanupInterval is how often the background cleanup sweeps expired
// sessions out of backends without native TTL support.
const cleanupInterval = 5 * time.Minute

// Manager owns the session lifecycle: cookie-token binding, sliding expiry,
// and the field updates performed by the OAuth flow. All mutations go
// through the Manager so that every write lands in storage as one atomic
// Store of a complete session.
type Manager struct {
	storage       Storage
	ttl           time.Duration
	secret        []byte
	secureCookies bool

	stopCh      chan struct{}
	cleanupDone chan struct{}
}

// NewManager creates a session manager and starts the cleanup worker.
//
// The secret signs cookie tokens so a client cannot fabricate a session ID.
// secureCookies must be true when the gateway is reached over HTTPS.
func NewManager(storage Storage, secret []byte, ttl time.Duration, secureCookies bool) *Manager {
	m := &Manager{
		storage:       storage,
		ttl:           ttl,
		secret:        secret,
		secureCookies: secureCookies,
		stopCh:        make(chan struct{}),
		cleanupDone:   make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Stop stops the cleanup worker and closes the storage backend.
func (m *Manager) Stop() error {
	close(m.stopCh)
	<-m.cleanupDone
	return m.storage.Close()
}

func (m *Manager) cleanupLoop() {
	defer close(m.cleanupDone)

	interval := cleanupInterval
	if m.ttl/2 < interval {
		interval = m.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if err := m.storage.DeleteExpired(ctx, time.Now().Add(-m.ttl)); err != nil {
				logger.Warnw("session cleanup failed", "error", err)
			}
			cancel()
		}
	}
}

// GetOrCreate looks up the session referenced by the request's cookie.
// If the cookie is absent, its signature is invalid, or the session has
// expired, a fresh empty session is created and stored; the second return
// value reports whether a new cookie must be set on the response.
func (m *Manager) GetOrCreate(ctx context.Context, r *http.Request) (*Session, bool, error) {
	if c, err := r.Cookie(CookieName); err == nil {
		if id, err := m.verifyToken(c.Value); err == nil {
			sess, err := m.storage.Load(ctx, id)
			switch {
			case err == nil && !m.expired(sess):
				return sess, false, nil
			case err == nil:
				// Expired sessions are treated identically to absent ones.
				if err := m.storage.Delete(ctx, id); err != nil {
					logger.Warnw("failed to delete expired session", "error", err)
				}
			case !errors.Is(err, ErrSessionNotFound):
				return nil, false, fmt.Errorf("failed to load session: %w", err)
			}
		}
	}

	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.storage.Store(ctx, sess); err != nil {
		return nil, false, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, true, nil
}

// SetCookie writes the signed session cookie to the response. It must be
// called before any header or body write.
func (m *Manager) SetCookie(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    m.signToken(sess.ID),
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secureCookies,
		// Lax lets the identity-provider redirect carry the cookie back.
		SameSite: http.SameSiteLaxMode,
	})
}

// Touch resets the inactivity expiry to now + ttl.
func (m *Manager) Touch(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now()
	return m.storage.Store(ctx, sess)
}

// SetPendingRedirect records the URL requested before authentication.
func (m *Manager) SetPendingRedirect(ctx context.Context, sess *Session, url string) error {
	sess.PendingRedirectURL = url
	sess.UpdatedAt = time.Now()
	return m.storage.Store(ctx, sess)
}

// PendingRedirect returns the recorded pending redirect, if any.
func (*Manager) PendingRedirect(sess *Session) string {
	return sess.PendingRedirectURL
}

// ClearPendingRedirect removes the pending redirect after consumption, so a
// later unrelated callback cannot reuse a stale target.
func (m *Manager) ClearPendingRedirect(ctx context.Context, sess *Session) error {
	sess.PendingRedirectURL = ""
	sess.UpdatedAt = time.Now()
	return m.storage.Store(ctx, sess)
}

// CompleteAuth records the outcome of a successful code exchange. The three
// fields are persisted in a single Store, so concurrent readers of the same
// session see either none or all of them.
func (m *Manager) CompleteAuth(ctx context.Context, sess *Session, accessToken, instanceURL, userID string) error {
	if accessToken == "" || instanceURL == "" {
		return fmt.Errorf("access token and instance URL must be set together")
	}
	sess.AccessToken = accessToken
	sess.InstanceURL = instanceURL
	sess.UserID = userID
	sess.UpdatedAt = time.Now()
	return m.storage.Store(ctx, sess)
}

func (m *Manager) expired(sess *Session) bool {
	return time.Since(sess.UpdatedAt) > m.ttl
}

// signToken derives the cookie value "<id>.<sig>" for a session ID.
func (m *Manager) signToken(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// verifyToken checks a cookie value's signature and returns the session ID.
func (m *Manager) verifyToken(token string) (string, error) {
	id, sig, ok := strings.Cut(token, ".")
	if !ok || id == "" {
		return "", ErrInvalidToken
	}

	want := hmac.New(sha256.New, m.secret)
	want.Write([]byte(id))

	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", ErrInvalidToken
	}
	if !hmac.Equal(got, want.Sum(nil)) {
		return "", ErrInvalidToken
	}
	return id, nil
}

// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

// Package session provides server-side sessions with pluggable storage
// backends and a sliding expiry window. Sessions are bound to clients by an
// opaque, HMAC-signed token carried in a cookie.
package session

import "time"

// Session is the server-side record associated with one client.
//
// A session starts empty and acquires its credential fields atomically when
// the OAuth flow completes: AccessToken, InstanceURL and UserID are set
// together or not at all. Storage backends persist and return copies, so a
// concurrent reader never observes a partial update.
type Session struct {
	// ID is the opaque token identifying the session. It is never reused.
	ID string `json:"id"`

	// PendingRedirectURL is the URL originally requested before the client
	// was sent to authenticate. Cleared once consumed.
	PendingRedirectURL string `json:"pending_redirect_url,omitempty"`

	// AccessToken is the credential obtained from the identity provider.
	AccessToken string `json:"access_token,omitempty"`

	// InstanceURL is the record authority endpoint bound to the credential.
	InstanceURL string `json:"instance_url,omitempty"`

	// UserID identifies the authenticated user at the identity provider.
	UserID string `json:"user_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Authenticated reports whether the OAuth flow has completed for this session.
func (s *Session) Authenticated() bool {
	return s.AccessToken != ""
}

// clone returns a copy of the session to prevent aliasing between the
// storage backend and callers.
func (s *Session) clone() *Session {
	c := *s
	return &c
}

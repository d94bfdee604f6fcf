// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

package oauth

import (
	"context"
	"net/http"

	"github.com/recordgate/recordgate/pkg/errors"
	"github.com/recordgate/recordgate/pkg/logger"
	"github.com/recordgate/recordgate/pkg/session"
)

// IdentityProvider is the interface Flow needs from the identity provider.
type IdentityProvider interface {
	AuthorizationURL() string
	ExchangeCode(ctx context.Context, code string) (*Identity, error)
}

// Flow is the two-step delegation state machine. The continuation between
// the two requests is the pending-redirect field persisted on the session,
// not any in-process state.
type Flow struct {
	provider IdentityProvider
	sessions *session.Manager
}

// NewFlow creates a delegation flow over the given provider and sessions.
func NewFlow(provider IdentityProvider, sessions *session.Manager) *Flow {
	return &Flow{provider: provider, sessions: sessions}
}

// Start records the full original request URL as the session's pending
// redirect and sends the client to the provider's authorization URL. It
// must be called before any write to the response body.
func (f *Flow) Start(w http.ResponseWriter, r *http.Request, sess *session.Session) error {
	if err := f.sessions.SetPendingRedirect(r.Context(), sess, requestURL(r)); err != nil {
		return err
	}
	http.Redirect(w, r, f.provider.AuthorizationURL(), http.StatusFound)
	return nil
}

// Finish exchanges the callback code, completes the session's credential
// atomically, and returns the pending redirect target. On any failure the
// session is left unchanged; in particular the pending redirect survives,
// so a retried callback with a fresh code can still succeed.
func (f *Flow) Finish(ctx context.Context, code string, sess *session.Session) (string, error) {
	if code == "" {
		return "", errors.NewAuthCodeMissingError("no authorization code in callback", nil)
	}

	pending := f.sessions.PendingRedirect(sess)
	if pending == "" {
		// A callback without a prior Start is a protocol violation.
		return "", errors.NewPendingRedirectMissingError("no pending redirect on session", nil)
	}

	ident, err := f.provider.ExchangeCode(ctx, code)
	if err != nil {
		return "", err
	}

	if err := f.sessions.CompleteAuth(ctx, sess, ident.AccessToken, ident.InstanceURL, ident.UserID); err != nil {
		return "", err
	}
	if err := f.sessions.ClearPendingRedirect(ctx, sess); err != nil {
		return "", err
	}

	logger.Infow("authenticated with identity provider", "user_id", ident.UserID)
	return pending, nil
}

// requestURL reconstructs the full URL the client requested
// (scheme + host + path + query), honoring a forwarding proxy's
// X-Forwarded-Proto.
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

// Package oauth implements the authorization-code delegation flow against
// the identity provider.
package oauth

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/recordgate/recordgate/pkg/errors"
)

// defaultHTTPTimeout bounds the code-exchange call to the identity provider.
const defaultHTTPTimeout = 30 * time.Second

// Scope is the only scope the gateway requests: API access for the
// record-authority permission checks.
const Scope = "api"

// Identity is the outcome of a successful code exchange.
type Identity struct {
	// AccessToken is the opaque credential for record-authority calls.
	AccessToken string

	// InstanceURL is the record authority endpoint the token is valid for.
	InstanceURL string

	// UserID is the authenticated user's identifier at the provider.
	UserID string
}

// Provider performs the two provider-facing operations of the flow:
// building the authorization URL and exchanging a code for a credential.
type Provider struct {
	cfg        *oauth2.Config
	httpClient *http.Client
}

// NewProvider creates a provider for an identity provider rooted at
// loginURL. The standard authorize/token endpoints are derived from it.
func NewProvider(loginURL, clientID, clientSecret, redirectURL string) *Provider {
	base := strings.TrimRight(loginURL, "/")
	return &Provider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{Scope},
			Endpoint: oauth2.Endpoint{
				AuthURL:  base + "/services/oauth2/authorize",
				TokenURL: base + "/services/oauth2/token",
				// Send client credentials in the request body for
				// consistent behavior across IDP implementations.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// AuthorizationURL returns the URL to redirect an unauthenticated client to.
func (p *Provider) AuthorizationURL() string {
	return p.cfg.AuthCodeURL("")
}

// ExchangeCode exchanges an authorization code for an access token and the
// instance endpoint bound to it. Codes are single-use by provider contract;
// a reused code fails at the provider and is surfaced as an exchange error.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if stderrors.As(err, &retrieveErr) {
			// The provider answered with an error (invalid_grant, reused
			// code, bad client credentials): an exchange failure.
			return nil, errors.NewProviderExchangeFailedError("identity provider rejected code exchange", err)
		}
		return nil, errors.NewUpstreamUnavailableError("identity provider unreachable", err)
	}

	instanceURL, _ := tok.Extra("instance_url").(string)
	identityURL, _ := tok.Extra("id").(string)
	if tok.AccessToken == "" || instanceURL == "" {
		return nil, errors.NewProviderExchangeFailedError("malformed token response from identity provider", nil)
	}

	return &Identity{
		AccessToken: tok.AccessToken,
		InstanceURL: instanceURL,
		UserID:      userIDFromIdentityURL(identityURL),
	}, nil
}

// userIDFromIdentityURL extracts the user identifier from the provider's
// identity URL, e.g. "https://login.example.com/id/00Dxx.../005xx000001Sv6A".
func userIDFromIdentityURL(identityURL string) string {
	if identityURL == "" {
		return ""
	}
	u, err := url.Parse(identityURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	return segments[len(segments)-1]
}

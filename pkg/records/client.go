// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

// Package records talks to the record authority. The gateway never
// evaluates record-level policy itself: a successful read of the owning
// record, performed with the caller's own credential, is the only
// permission signal.
package records

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/recordgate/recordgate/pkg/errors"
)

// defaultHTTPTimeout bounds record-authority calls.
const defaultHTTPTimeout = 30 * time.Second

// Credential is everything needed to act as the session's user against the
// record authority. It is derived from the session and never exposed to
// the caller in responses.
type Credential struct {
	AccessToken string
	InstanceURL string
	APIVersion  string
}

// Retriever is the interface the permission check needs from the record
// authority: a read that succeeds only if the credential's user may read
// the record.
type Retriever interface {
	Retrieve(ctx context.Context, recordType, recordID string) error
}

// Factory builds a Retriever for a request's credential.
type Factory func(Credential) Retriever

// Client is the HTTP implementation of Retriever.
type Client struct {
	httpClient *http.Client
	cred       Credential
}

// NewClient creates a record-authority client for one credential.
func NewClient(cred Credential) Retriever {
	return &Client{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		cred:       cred,
	}
}

// Retrieve reads the named record with the client's credential. A 2xx
// response means the read is allowed; any error response from the
// authority (forbidden, not found, stale owner relationship) is a denial.
// Only transport-level failures are reported as upstream errors.
func (c *Client) Retrieve(ctx context.Context, recordType, recordID string) error {
	endpoint := fmt.Sprintf("%s/services/data/v%s/sobjects/%s/%s",
		c.cred.InstanceURL,
		url.PathEscape(c.cred.APIVersion),
		url.PathEscape(recordType),
		url.PathEscape(recordID),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build record request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cred.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewUpstreamUnavailableError("record authority unreachable", err)
	}
	defer func() {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewPermissionDeniedError(
			fmt.Sprintf("record authority refused read of %s/%s (status %d)", recordType, recordID, resp.StatusCode), nil)
	}
	return nil
}

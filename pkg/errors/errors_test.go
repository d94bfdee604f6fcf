// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewKeyMismatchError("key does not start with record ID", nil)
	assert.Equal(t, "key_mismatch: key does not start with record ID", err.Error())

	cause := errors.New("connection refused")
	wrapped := NewUpstreamUnavailableError("record authority unreachable", cause)
	assert.Equal(t, "upstream_unavailable: record authority unreachable: connection refused", wrapped.Error())
	assert.Equal(t, cause, errors.Unwrap(wrapped))
}

func TestTypeChecks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"config missing", NewConfigMissingError("SF_LOGIN_URL", nil), IsConfigMissing},
		{"auth code missing", NewAuthCodeMissingError("no code in callback", nil), IsAuthCodeMissing},
		{"pending redirect missing", NewPendingRedirectMissingError("no prior start", nil), IsPendingRedirectMissing},
		{"provider exchange failed", NewProviderExchangeFailedError("invalid_grant", nil), IsProviderExchangeFailed},
		{"object not found", NewObjectNotFoundError("no such key", nil), IsObjectNotFound},
		{"metadata missing", NewMetadataMissingError("no entity id", nil), IsMetadataMissing},
		{"key mismatch", NewKeyMismatchError("prefix mismatch", nil), IsKeyMismatch},
		{"permission denied", NewPermissionDeniedError("record read refused", nil), IsPermissionDenied},
		{"upstream unavailable", NewUpstreamUnavailableError("timeout", nil), IsUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.check(tt.err))
			assert.False(t, tt.check(errors.New("unrelated")))
		})
	}
}

func TestTypeChecksThroughWrapping(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("handling download: %w", NewPermissionDeniedError("record read refused", nil))
	assert.True(t, IsPermissionDenied(err))
	assert.False(t, IsObjectNotFound(err))
}

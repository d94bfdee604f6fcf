// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

package session

import "errors"

// Common session errors
var (
	// ErrSessionNotFound is returned when a session cannot be found
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidToken is returned when a cookie token fails signature verification
	ErrInvalidToken = errors.New("invalid session token")
)

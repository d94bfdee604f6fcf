// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

// Package errors defines the typed errors used across the gateway.
package errors

import (
	"errors"
	"fmt"
)

// Error types
const (
	// ErrConfigMissing is returned when required configuration is absent at startup
	ErrConfigMissing = "config_missing"

	// ErrAuthCodeMissing is returned when a callback arrives without an authorization code
	ErrAuthCodeMissing = "auth_code_missing"

	// ErrPendingRedirectMissing is returned when a callback arrives without a prior flow start
	ErrPendingRedirectMissing = "pending_redirect_missing"

	// ErrProviderExchangeFailed is returned when the identity provider rejects or fails the code exchange
	ErrProviderExchangeFailed = "provider_exchange_failed"

	// ErrObjectNotFound is returned when the requested key is absent in the object store
	ErrObjectNotFound = "object_not_found"

	// ErrMetadataMissing is returned when the store metadata lacks the owning record fields
	ErrMetadataMissing = "metadata_missing"

	// ErrKeyMismatch is returned when the object key does not start with its owning record ID
	ErrKeyMismatch = "key_mismatch"

	// ErrPermissionDenied is returned when the record authority refuses the read
	ErrPermissionDenied = "permission_denied"

	// ErrUpstreamUnavailable is returned when an outbound call timed out or the remote was unreachable
	ErrUpstreamUnavailable = "upstream_unavailable"
)

// Error represents an error in the application
type Error struct {
	// Type is the error type
	Type string

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new error
func NewError(errorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigMissingError creates a new config missing error
func NewConfigMissingError(message string, cause error) *Error {
	return NewError(ErrConfigMissing, message, cause)
}

// NewAuthCodeMissingError creates a new auth code missing error
func NewAuthCodeMissingError(message string, cause error) *Error {
	return NewError(ErrAuthCodeMissing, message, cause)
}

// NewPendingRedirectMissingError creates a new pending redirect missing error
func NewPendingRedirectMissingError(message string, cause error) *Error {
	return NewError(ErrPendingRedirectMissing, message, cause)
}

// NewProviderExchangeFailedError creates a new provider exchange failed error
func NewProviderExchangeFailedError(message string, cause error) *Error {
	return NewError(ErrProviderExchangeFailed, message, cause)
}

// NewObjectNotFoundError creates a new object not found error
func NewObjectNotFoundError(message string, cause error) *Error {
	return NewError(ErrObjectNotFound, message, cause)
}

// NewMetadataMissingError creates a new metadata missing error
func NewMetadataMissingError(message string, cause error) *Error {
	return NewError(ErrMetadataMissing, message, cause)
}

// NewKeyMismatchError creates a new key mismatch error
func NewKeyMismatchError(message string, cause error) *Error {
	return NewError(ErrKeyMismatch, message, cause)
}

// NewPermissionDeniedError creates a new permission denied error
func NewPermissionDeniedError(message string, cause error) *Error {
	return NewError(ErrPermissionDenied, message, cause)
}

// NewUpstreamUnavailableError creates a new upstream unavailable error
func NewUpstreamUnavailableError(message string, cause error) *Error {
	return NewError(ErrUpstreamUnavailable, message, cause)
}

// isType checks whether err (or anything it wraps) is an *Error of the given type.
func isType(err error, errorType string) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == errorType
}

// IsConfigMissing checks if the error is a config missing error
func IsConfigMissing(err error) bool {
	return isType(err, ErrConfigMissing)
}

// IsAuthCodeMissing checks if the error is an auth code missing error
func IsAuthCodeMissing(err error) bool {
	return isType(err, ErrAuthCodeMissing)
}

// IsPendingRedirectMissing checks if the error is a pending redirect missing error
func IsPendingRedirectMissing(err error) bool {
	return isType(err, ErrPendingRedirectMissing)
}

// IsProviderExchangeFailed checks if the error is a provider exchange failed error
func IsProviderExchangeFailed(err error) bool {
	return isType(err, ErrProviderExchangeFailed)
}

// IsObjectNotFound checks if the error is an object not found error
func IsObjectNotFound(err error) bool {
	return isType(err, ErrObjectNotFound)
}

// IsMetadataMissing checks if the error is a metadata missing error
func IsMetadataMissing(err error) bool {
	return isType(err, ErrMetadataMissing)
}

// IsKeyMismatch checks if the error is a key mismatch error
func IsKeyMismatch(err error) bool {
	return isType(err, ErrKeyMismatch)
}

// IsPermissionDenied checks if the error is a permission denied error
func IsPermissionDenied(err error) bool {
	return isType(err, ErrPermissionDenied)
}

// IsUpstreamUnavailable checks if the error is an upstream unavailable error
func IsUpstreamUnavailable(err error) bool {
	return isType(err, ErrUpstreamUnavailable)
}

// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

// Package objstore abstracts the private object store the gateway delivers
// files from. Callers depend only on the Store interface, never on a
// specific backend.
package objstore

import (
	"context"
	"io"
)

// ObjectInfo is the per-object metadata fetched ahead of a transfer.
// It is read once per request and never cached.
type ObjectInfo struct {
	// ContentType is the stored MIME type of the object.
	ContentType string

	// ContentLength is the object size in bytes.
	ContentLength int64

	// Metadata holds the store's arbitrary key-value metadata with
	// lowercase keys.
	Metadata map[string]string
}

// Store is the read-only object store interface the delivery pipeline needs.
type Store interface {
	// StatObject returns the object's metadata without fetching its body.
	// Returns an object-not-found error if the key is absent.
	StatObject(ctx context.Context, key string) (*ObjectInfo, error)

	// GetObject opens a streaming handle to the object body. The caller
	// must close the returned reader; closing it early aborts the
	// transfer from the store.
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
}

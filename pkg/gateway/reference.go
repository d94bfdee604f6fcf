// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway exposes the HTTP surface of the download gateway and
// sequences sessions, the OAuth flow, the permission check, and delivery.
package gateway

import (
	"fmt"
	"strings"

	"github.com/recordgate/recordgate/pkg/errors"
	"github.com/recordgate/recordgate/pkg/objstore"
)

// Object metadata keys written by the upload side of the system.
// "sfdc-owner-id" is also present on stored objects but takes no part in
// the permission decision; access is delegated entirely to the record
// authority's read check.
const (
	metadataEntityID      = "sfdc-linked-entity-id"
	metadataEntityAPIName = "sfdc-linked-entity-api-name"
)

// ObjectReference ties a storage key back to the record that owns it.
type ObjectReference struct {
	// Key is the store-relative object path.
	Key string

	// RecordType and RecordID name the owning record at the record authority.
	RecordType string
	RecordID   string

	// FileName is the key with the leading "<RecordID>/" segment stripped;
	// it is what the client sees as the downloaded file's name.
	FileName string
}

// ExtractObjectReference recovers the owning record from store metadata and
// derives the display filename. It fails closed when the metadata is
// incomplete or disagrees with the key shape.
func ExtractObjectReference(info *objstore.ObjectInfo, key string) (*ObjectReference, error) {
	recordID := info.Metadata[metadataEntityID]
	recordType := info.Metadata[metadataEntityAPIName]
	if recordID == "" || recordType == "" {
		return nil, errors.NewMetadataMissingError(
			fmt.Sprintf("object %q lacks owning-record metadata", key), nil)
	}

	fileName, ok := strings.CutPrefix(key, recordID+"/")
	if !ok || fileName == "" {
		return nil, errors.NewKeyMismatchError(
			fmt.Sprintf("object key %q does not start with owning record ID", key), nil)
	}

	return &ObjectReference{
		Key:        key,
		RecordType: recordType,
		RecordID:   recordID,
		FileName:   fileName,
	}, nil
}

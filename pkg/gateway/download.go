// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/recordgate/recordgate/pkg/errors"
	"github.com/recordgate/recordgate/pkg/logger"
	"github.com/recordgate/recordgate/pkg/records"
)

// downloadFile authorizes and streams one object.
//
// The ordering is fixed: resolve metadata, check permission with the record
// authority, and only then write headers and stream. Headers cannot be
// un-sent, so no byte leaves before the check passes.
func (g *Routes) downloadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, isNew, err := g.sessions.GetOrCreate(ctx, r)
	if err != nil {
		logger.Errorw("failed to resolve session", "error", err)
		http.Error(w, "Internal server error.", http.StatusInternalServerError)
		return
	}
	if isNew {
		g.sessions.SetCookie(w, sess)
	}

	if !sess.Authenticated() {
		if err := g.flow.Start(w, r, sess); err != nil {
			logger.Errorw("failed to start authorization flow", "error", err)
			http.Error(w, "Internal server error.", http.StatusInternalServerError)
		}
		return
	}

	if err := g.sessions.Touch(ctx, sess); err != nil {
		logger.Warnw("failed to touch session", "error", err)
	}

	key, err := objectKeyFromRequest(r)
	if err != nil {
		http.Error(w, "Missing or invalid url parameter.", http.StatusBadRequest)
		return
	}

	logger.Infow("download requested", "user_id", sess.UserID, "key", key)

	info, err := g.store.StatObject(ctx, key)
	if err != nil {
		if errors.IsObjectNotFound(err) {
			http.Error(w, "File not found.", http.StatusNotFound)
			return
		}
		logger.Errorw("object metadata fetch failed", "key", key, "error", err)
		http.Error(w, "Internal server error.", http.StatusInternalServerError)
		return
	}

	ref, err := ExtractObjectReference(info, key)
	if err != nil {
		// Metadata inconsistent with the key shape: fail closed.
		logger.Errorw("object reference extraction failed", "key", key, "error", err)
		http.Error(w, "Internal server error.", http.StatusInternalServerError)
		return
	}

	retriever := g.newRetriever(records.Credential{
		AccessToken: sess.AccessToken,
		InstanceURL: sess.InstanceURL,
		APIVersion:  g.apiVersion,
	})
	if err := retriever.Retrieve(ctx, ref.RecordType, ref.RecordID); err != nil {
		if errors.IsPermissionDenied(err) {
			// Generic response: reveals neither the object's existence
			// nor the denial reason.
			logger.Infow("download denied",
				"user_id", sess.UserID, "record_type", ref.RecordType, "record_id", ref.RecordID)
			http.Error(w, "Forbidden.", http.StatusForbidden)
			return
		}
		logger.Errorw("record authority check failed", "key", key, "error", err)
		http.Error(w, "Internal server error.", http.StatusBadGateway)
		return
	}

	body, err := g.store.GetObject(ctx, key)
	if err != nil {
		logger.Errorw("object fetch failed", "key", key, "error", err)
		http.Error(w, "Internal server error.", http.StatusInternalServerError)
		return
	}
	defer func() { _ = body.Close() }()

	w.Header().Set("Content-Disposition", contentDisposition(ref.FileName))
	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(info.ContentLength, 10))

	// Incremental copy: the object is never buffered whole. A client
	// disconnect cancels ctx, which aborts the store read.
	if _, err := io.Copy(w, body); err != nil {
		logger.Warnw("download stream aborted", "key", key, "error", err)
	}
}

// objectKeyFromRequest derives the store key from the url query parameter:
// the parameter is a full URL whose path is the key.
func objectKeyFromRequest(r *http.Request) (string, error) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		return "", fmt.Errorf("missing url parameter")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url parameter: %w", err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", fmt.Errorf("url parameter has empty path")
	}
	return key, nil
}

// contentDisposition builds an attachment header with the filename quoted
// and escaped, so a crafted object key cannot inject header content.
func contentDisposition(fileName string) string {
	if d := mime.FormatMediaType("attachment", map[string]string{"filename": fileName}); d != "" {
		return d
	}
	// FormatMediaType refuses values it cannot represent; fall back to a
	// neutral name rather than interpolating the raw one.
	return `attachment; filename="download"`
}

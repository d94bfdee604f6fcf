// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"net/http"

	"github.com/recordgate/recordgate/pkg/logger"
)

// authCallback finishes the OAuth delegation flow. The identity provider
// redirects the client here with a single-use authorization code; on
// success the client is sent back to the URL it originally requested.
//
// Failure detail (provider errors in particular) goes to the server log
// only; the caller gets a generic server error.
func (g *Routes) authCallback(w http.ResponseWriter, r *http.Request) {
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

	redirect, err := g.flow.Finish(ctx, r.URL.Query().Get("code"), sess)
	if err != nil {
		logger.Errorw("authorization callback failed", "error", err)
		http.Error(w, "Authentication failed.", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}

// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/recordgate/recordgate/pkg/logger"
	"github.com/recordgate/recordgate/pkg/oauth"
	"github.com/recordgate/recordgate/pkg/objstore"
	"github.com/recordgate/recordgate/pkg/records"
	"github.com/recordgate/recordgate/pkg/session"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Config carries the collaborators the routes need.
type Config struct {
	Sessions *session.Manager
	Flow     *oauth.Flow
	Store    objstore.Store

	// NewRetriever builds a record-authority client for a request's
	// credential. Defaults to records.NewClient.
	NewRetriever records.Factory

	// APIVersion is the record authority API version, e.g. "58.0".
	APIVersion string
}

// Routes holds the handler state for the gateway endpoints.
type Routes struct {
	sessions     *session.Manager
	flow         *oauth.Flow
	store        objstore.Store
	newRetriever records.Factory
	apiVersion   string
}

// Router builds the gateway's HTTP handler.
//
// There is deliberately no global request timeout: downloads of large
// objects may legitimately outlive any fixed budget, and every outbound
// call carries its own timeout.
func Router(cfg Config) http.Handler {
	routes := &Routes{
		sessions:     cfg.Sessions,
		flow:         cfg.Flow,
		store:        cfg.Store,
		newRetriever: cfg.NewRetriever,
		apiVersion:   cfg.APIVersion,
	}
	if routes.newRetriever == nil {
		routes.newRetriever = records.NewClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		requestLogger,
	)
	r.Get("/health", healthcheck)
	r.Get("/auth/callback", routes.authCallback)
	r.Get("/download", routes.downloadFile)
	return r
}

// healthcheck reports liveness.
func healthcheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// requestLogger logs one line per request with status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Serve starts the gateway on the given address and blocks until ctx is
// canceled, then shuts down gracefully. It is assumed that the caller sets
// up appropriate signal handling.
func Serve(ctx context.Context, address string, handler http.Handler) error {
	srv := &http.Server{
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	logger.Infof("starting gateway on %s", address)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped with error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("gateway stopped")
	return nil
}

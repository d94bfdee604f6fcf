// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/recordgate/recordgate/pkg/config"
	"github.com/recordgate/recordgate/pkg/gateway"
	"github.com/recordgate/recordgate/pkg/logger"
	"github.com/recordgate/recordgate/pkg/oauth"
	"github.com/recordgate/recordgate/pkg/objstore"
	"github.com/recordgate/recordgate/pkg/records"
	"github.com/recordgate/recordgate/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the download gateway server",
	Long: `Start the download gateway. Configuration is read from the environment
(and a .env file if one is present in the working directory); the command
refuses to start when a required variable is missing.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	storage, err := newSessionStorage(ctx, cfg)
	if err != nil {
		return err
	}

	sessions := session.NewManager(storage, []byte(cfg.SessionSecret), cfg.SessionDuration(), cfg.SecureCookies())
	defer func() {
		if err := sessions.Stop(); err != nil {
			logger.Errorw("failed to stop session manager", "error", err)
		}
	}()

	provider := oauth.NewProvider(cfg.LoginURL, cfg.ConsumerKey, cfg.ConsumerSecret, cfg.CallbackURL)

	store, err := objstore.NewS3Store(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey)
	if err != nil {
		return fmt.Errorf("failed to create object store client: %w", err)
	}

	handler := gateway.Router(gateway.Config{
		Sessions:     sessions,
		Flow:         oauth.NewFlow(provider, sessions),
		Store:        store,
		NewRetriever: records.NewClient,
		APIVersion:   cfg.APIVersion,
	})

	address := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	logger.Infow("starting download gateway",
		"address", address,
		"session_backend", cfg.SessionBackend,
		"bucket", cfg.S3Bucket)

	return gateway.Serve(ctx, address, handler)
}

// newSessionStorage builds the session backend selected by SESSION_BACKEND.
func newSessionStorage(ctx context.Context, cfg *config.Config) (session.Storage, error) {
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		storage, err := session.NewRedisStorage(ctx, cfg.RedisURL, cfg.SessionDuration())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return storage, nil
	case config.SessionBackendMemory:
		return session.NewLocalStorage(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

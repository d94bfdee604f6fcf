// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

// Package app provides the entry point for the recordgate command-line application.
package app

import (
	"github.com/spf13/cobra"

	"github.com/recordgate/recordgate/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "recordgate",
	DisableAutoGenTag: true,
	Short:             "Recordgate is an authorization-gated file download gateway",
	Long: `Recordgate sits between browsers and an object store and only streams a
file after the identity provider's record API confirms the requesting user can
read the record the file is linked to. Authentication is delegated to the
identity provider via the OAuth2 authorization-code flow; the gateway itself
holds no user database.`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
}

// NewRootCmd creates a new root command for the recordgate CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")

	rootCmd.AddCommand(serveCmd)

	return rootCmd
}

// SPDX-FileCopyrightText: Copyright 2026 Recordgate Authors
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the recordgate server.
package main

import (
	"os"

	"github.com/recordgate/recordgate/cmd/recordgate/app"
	"github.com/recordgate/recordgate/pkg/logger"
)

func main() {
	// Initialize the logger
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/recruitflow/internal/config"
	"github.com/tomtom215/recruitflow/internal/store"
)

// runMigrate opens the configured store, which applies the schema, and
// closes it again.
func runMigrate(parent context.Context, out io.Writer, cfg *config.Config, timeout time.Duration) error {
	switch cfg.Database.Driver {
	case "", "memory":
		_, err := fmt.Fprintln(out, "memory store selected, nothing to migrate")
		return err
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	st, err := store.Open(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := st.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}

	_, err = fmt.Fprintf(out, "%s schema is up to date\n", cfg.Database.Driver)
	return err
}

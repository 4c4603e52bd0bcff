// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

// Package main is the RecruitFlow command line.
//
// RecruitFlow is the real-time layer of the agency platform: team and
// direct chat channels, user and global notifications, the activity feed
// and candidate stage updates, delivered over one authenticated WebSocket
// per browser tab and a small REST API.
//
// # Commands
//
//	recruitflow serve               # run the HTTP/WebSocket server
//	recruitflow token --user alice  # mint a development token
//	recruitflow migrate             # apply the message store schema
//	recruitflow version
//
// # Configuration
//
// Settings are layered with Koanf (highest priority wins): environment
// variables, then config.yaml (or the file named by --config / CONFIG_PATH),
// then built-in defaults. The minimum for a development run is:
//
//	export JWT_SECRET=$(openssl rand -base64 48)
//	recruitflow serve
//
// Optional components:
//   - DB_DRIVER=duckdb|postgres persists messages (default: memory)
//   - NATS_ENABLED=true connects the event bus; NATS_EMBEDDED=true runs an
//     in-process server
//   - INBOX_ENABLED=false disables the offline notification inbox
//
// # Signal Handling
//
// SIGINT and SIGTERM stop the supervisor tree: the HTTP server drains
// in-flight requests, the hub closes every socket and the inbox flushes its
// queue before the stores are closed.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Populated by ldflags:
//
//	go build -ldflags "-X main.version=v1.2.0 -X main.commit=$(git rev-parse HEAD)"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "recruitflow",
		Short:         "Real-time messaging and notifications for recruitment teams",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applyConfigPath(configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (overrides CONFIG_PATH)")

	root.AddCommand(
		buildServeCmd(),
		buildTokenCmd(),
		buildMigrateCmd(),
		buildVersionCmd(),
	)
	return root
}

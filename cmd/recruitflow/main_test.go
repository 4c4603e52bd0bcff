// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/recruitflow/internal/auth"
	"github.com/tomtom215/recruitflow/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			JWTSecret:      "cli-test-secret-with-more-than-32-characters",
			SessionTimeout: time.Hour,
			DefaultRole:    "member",
		},
	}
}

func TestRunToken(t *testing.T) {
	cfg := testConfig()
	manager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		opts     tokenOptions
		wantRole string
		wantName string
		wantErr  string
	}{
		{name: "defaults", opts: tokenOptions{UserID: "alice"}, wantRole: "member", wantName: "alice"},
		{name: "recruiter with name", opts: tokenOptions{UserID: "rita", Name: "Rita Hale", Role: "recruiter", TTL: time.Minute}, wantRole: "recruiter", wantName: "Rita Hale"},
		{name: "unknown role", opts: tokenOptions{UserID: "eve", Role: "root"}, wantErr: "unknown role"},
		{name: "blank user", opts: tokenOptions{UserID: "  "}, wantErr: "--user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runToken(&out, cfg, tt.opts)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("runToken() error = %v", err)
			}

			claims, err := manager.ValidateToken(strings.TrimSpace(out.String()))
			if err != nil {
				t.Fatalf("minted token does not validate: %v", err)
			}
			if claims.UserID() != tt.opts.UserID || claims.Role != tt.wantRole || claims.Name != tt.wantName {
				t.Errorf("claims = %+v", claims)
			}
		})
	}
}

func TestRunMigrateMemory(t *testing.T) {
	var out bytes.Buffer
	if err := runMigrate(context.Background(), &out, testConfig(), time.Second); err != nil {
		t.Fatalf("runMigrate() error = %v", err)
	}
	if !strings.Contains(out.String(), "nothing to migrate") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunMigrateDuckDB(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Driver = "duckdb"
	cfg.Database.Path = t.TempDir() + "/messages.duckdb"

	var out bytes.Buffer
	if err := runMigrate(context.Background(), &out, cfg, 30*time.Second); err != nil {
		t.Fatalf("runMigrate() error = %v", err)
	}
	if !strings.Contains(out.String(), "duckdb schema is up to date") {
		t.Errorf("output = %q", out.String())
	}
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "recruitflow dev") {
		t.Errorf("output = %q", out.String())
	}
}

func TestConfigFlagRejectsMissingFile(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"--config", "/nonexistent/recruitflow.yaml", "version"})
	root.SetOut(&bytes.Buffer{})

	if err := root.Execute(); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tomtom215/recruitflow/internal/auth"
	"github.com/tomtom215/recruitflow/internal/config"
	"github.com/tomtom215/recruitflow/internal/models"
)

type tokenOptions struct {
	UserID string
	Name   string
	Email  string
	Role   string
	TTL    time.Duration
}

var knownRoles = map[string]bool{"member": true, "recruiter": true, "admin": true}

func runToken(out io.Writer, cfg *config.Config, opts tokenOptions) error {
	userID := strings.TrimSpace(opts.UserID)
	if userID == "" {
		return fmt.Errorf("--user is required")
	}
	role := opts.Role
	if role == "" {
		role = cfg.Security.DefaultRole
	}
	if !knownRoles[role] {
		return fmt.Errorf("unknown role %q (want member, recruiter or admin)", role)
	}
	name := opts.Name
	if name == "" {
		name = userID
	}

	manager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return err
	}

	user := models.User{ID: userID, Name: name, Email: opts.Email, Role: role}
	var token string
	if opts.TTL > 0 {
		token, err = manager.GenerateTokenWithTTL(user, opts.TTL)
	} else {
		token, err = manager.GenerateToken(user)
	}
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	_, err = fmt.Fprintln(out, token)
	return err
}

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

//go:build integration

// Package testinfra starts a disposable Postgres container for the store
// integration tests. It builds only with the integration tag:
//
//	go test -tags integration ./internal/store/...
//
// StartPostgres skips the calling test when Docker is unavailable and
// removes the container when the test ends:
//
//	pg := testinfra.StartPostgres(t)
//	db, err := sql.Open("postgres", pg.DSN)
package testinfra

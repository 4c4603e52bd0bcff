// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

/*
Package auth verifies the JWTs issued by the recruitment platform and exposes
the caller's identity to HTTP handlers and the socket handshake.

Tokens are HS256-signed. The user ID travels in the "sub" claim; email, name,
role and avatar_url are optional profile claims used to decorate messages.

	mw := auth.NewMiddleware(jwtManager, respondAuthError)
	r.With(mw.Authenticate).Get("/api/v1/chat/channels", h.ListChannels)

	claims, ok := auth.ClaimsFromContext(r.Context())

Issuing tokens is the platform's job; GenerateToken exists for the "token"
CLI command and tests.
*/
package auth

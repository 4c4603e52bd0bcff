// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/recruitflow/internal/chat"
	"github.com/tomtom215/recruitflow/internal/inbox"
	"github.com/tomtom215/recruitflow/internal/logging"
)

// ErrHubUnavailable is reported when the socket hub is not accepting clients.
var ErrHubUnavailable = errors.New("realtime hub unavailable")

// respondServiceError maps a chat service error onto the response envelope.
func respondServiceError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrUnauthenticated):
		rw.Unauthorized("Authentication required")
	case errors.Is(err, chat.ErrValidation):
		rw.ValidationError(validationMessage(err), nil)
	case errors.Is(err, chat.ErrNotFound), errors.Is(err, inbox.ErrNotFound):
		rw.NotFound("Resource not found")
	case errors.Is(err, chat.ErrForbidden):
		rw.Forbidden("Access to this channel is denied")
	case errors.Is(err, chat.ErrConflict):
		rw.Conflict("A channel with this name already exists")
	case errors.Is(err, chat.ErrStorage), errors.Is(err, inbox.ErrStorage):
		rw.DatabaseError(err)
	default:
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Unhandled service error")
		rw.InternalError("Internal server error")
	}
}

// validationMessage strips the sentinel prefix from a chat validation error.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, chat.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(chat.ErrValidation.Error())+2:]
	}
	return msg
}

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/recruitflow/internal/validation"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20 // 1 MiB

// CreateChannelRequest is the body of POST /chat/channels.
type CreateChannelRequest struct {
	Name         string   `json:"name" validate:"required,notblank,max=80"`
	Description  string   `json:"description" validate:"max=500"`
	Type         string   `json:"type" validate:"omitempty,channeltype"`
	Participants []string `json:"participants" validate:"omitempty,max=50,dive,required"`
}

// SendMessageRequest is the body of POST /chat/channels/{id}/messages.
type SendMessageRequest struct {
	Text        string   `json:"text" validate:"required,notblank"`
	Mentions    []string `json:"mentions" validate:"omitempty,max=50,dive,required"`
	Attachments []string `json:"attachments" validate:"omitempty,max=20,dive,required"`
}

// PinMessageRequest is the body of PUT .../messages/{messageId}/pin.
// An empty body pins the message.
type PinMessageRequest struct {
	Pinned *bool `json:"pinned"`
}

// decodeAndValidate reads a JSON body into dst and validates it. On failure
// the error response has already been written and false is returned.
func decodeAndValidate(rw *ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			rw.BadRequest("Request body must be a valid JSON object")
			return false
		}
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return false
	}
	return true
}

// getIntParam extracts an integer query parameter with a default value
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package websocket

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/recruitflow/internal/authz"
	"github.com/tomtom215/recruitflow/internal/chat"
	"github.com/tomtom215/recruitflow/internal/logging"
	"github.com/tomtom215/recruitflow/internal/metrics"
	"github.com/tomtom215/recruitflow/internal/models"
	"github.com/tomtom215/recruitflow/internal/realtime"
	"github.com/tomtom215/recruitflow/internal/validation"
)

// Client to server event types.
const (
	EventUserOnline            = "user-online"
	EventJoinChannel           = "join-channel"
	EventLeaveChannel          = "leave-channel"
	EventSendMessage           = "send-message"
	EventSendNotification      = "send-notification"
	EventActivityLog           = "activity-log"
	EventCandidateStageChanged = "candidate-stage-changed"
	EventPing                  = "ping"
)

// Error codes carried by outbound error events.
const (
	CodeInvalidMessage = "INVALID_MESSAGE"
	CodeValidation     = "VALIDATION_ERROR"
	CodeRateLimited    = "RATE_LIMITED"
	CodeUnknownEvent   = "UNKNOWN_EVENT"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeConflict       = "CONFLICT"
	CodeDatabase       = "DATABASE_ERROR"
	CodeInternal       = "INTERNAL_ERROR"
)

// Session is the connection-side view the dispatcher works against.
// *Client implements it.
type Session interface {
	realtime.Conn
	Role() string
}

// ChatService is the message pipeline. *chat.Service implements it.
type ChatService interface {
	SendMessage(ctx context.Context, req chat.SendRequest) (*models.Message, error)
	Authorize(ctx context.Context, userID, channelID string) error
}

// Authorizer answers role checks. *authz.Enforcer implements it.
type Authorizer interface {
	Allowed(role, object, action string) bool
}

// EventPublisher forwards relayed events to other nodes and services.
type EventPublisher interface {
	PublishActivity(ctx context.Context, a *models.Activity) error
	PublishStageChange(ctx context.Context, s *models.StageChange) error
	PublishNotification(ctx context.Context, n *models.Notification) error
}

// inboundEvent is the client envelope: {"type": "...", "data": {...}}.
type inboundEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ErrorPayload is the data of an outbound error event.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}

type userOnlinePayload struct {
	UserID string `json:"userId" validate:"required,notblank"`
}

type channelPayload struct {
	ChannelID string `json:"channelId" validate:"required,notblank"`
}

type sendMessagePayload struct {
	ChannelID   string   `json:"channelId" validate:"required,notblank"`
	Text        string   `json:"text" validate:"required,notblank"`
	Mentions    []string `json:"mentions" validate:"omitempty,max=50,dive,required"`
	Attachments []string `json:"attachments" validate:"omitempty,max=20,dive,required"`
}

type notificationPayload struct {
	UserID  string          `json:"userId"`
	Type    string          `json:"type" validate:"required,notblank,max=64"`
	Title   string          `json:"title" validate:"required,notblank,max=200"`
	Message string          `json:"message" validate:"max=2000"`
	Link    string          `json:"link" validate:"omitempty,max=500"`
	Data    json.RawMessage `json:"data"`
}

type activityPayload struct {
	Action   string `json:"action" validate:"required,notblank,max=64"`
	Entity   string `json:"entity" validate:"max=64"`
	EntityID string `json:"entityId" validate:"max=128"`
}

type stageChangePayload struct {
	CandidateID string `json:"candidateId" validate:"required,notblank"`
	FromStage   string `json:"fromStage"`
	ToStage     string `json:"toStage" validate:"required,notblank"`
}

// Dispatcher decodes inbound socket events, validates them and routes them to
// the realtime core and the chat pipeline.
type Dispatcher struct {
	core      *realtime.Hub
	chat      ChatService
	authz     Authorizer
	publisher EventPublisher
	now       func() time.Time
}

// NewDispatcher creates a dispatcher. A nil authorizer allows every role gate.
func NewDispatcher(core *realtime.Hub, chatSvc ChatService, authorizer Authorizer) *Dispatcher {
	return &Dispatcher{
		core:  core,
		chat:  chatSvc,
		authz: authorizer,
		now:   time.Now,
	}
}

// SetPublisher installs the optional event bus publisher.
func (d *Dispatcher) SetPublisher(p EventPublisher) {
	d.publisher = p
}

// Dispatch handles one raw inbound frame from s. Failures are reported to s
// as error events and never close the connection.
func (d *Dispatcher) Dispatch(ctx context.Context, s Session, raw []byte) {
	var in inboundEvent
	if err := json.Unmarshal(raw, &in); err != nil || in.Type == "" {
		metrics.RecordInboundEvent("", "invalid_message")
		replyError(s, "", CodeInvalidMessage, "event must be a JSON object with a type")
		return
	}

	var err error
	switch in.Type {
	case EventPing:
		s.Send(realtime.Event{Type: realtime.EventPong})
	case EventUserOnline:
		err = d.handleUserOnline(s, in.Data)
	case EventJoinChannel:
		err = d.handleJoin(ctx, s, in.Data)
	case EventLeaveChannel:
		err = d.handleLeave(s, in.Data)
	case EventSendMessage:
		err = d.handleSendMessage(ctx, s, in.Data)
	case EventSendNotification:
		err = d.handleNotification(ctx, s, in.Data)
	case EventActivityLog:
		err = d.handleActivity(ctx, s, in.Data)
	case EventCandidateStageChanged:
		err = d.handleStageChange(ctx, s, in.Data)
	default:
		metrics.RecordInboundEvent(in.Type, "unknown_event")
		replyError(s, in.Type, CodeUnknownEvent, "unknown event type")
		return
	}

	if err != nil {
		code, message := errorCode(err)
		metrics.RecordInboundEvent(in.Type, strings.ToLower(code))
		logging.Ctx(ctx).Debug().
			Err(err).
			Str("event", in.Type).
			Str("user_id", s.UserID()).
			Msg("socket event rejected")
		replyError(s, in.Type, code, message)
		return
	}
	metrics.RecordInboundEvent(in.Type, "")
}

func (d *Dispatcher) handleUserOnline(s Session, data json.RawMessage) error {
	var p userOnlinePayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if p.UserID != s.UserID() {
		return errForbidden("userId does not match the authenticated user")
	}
	if !d.core.Presence.MarkOnline(s.UserID(), s.ID()) {
		return realtime.ErrUnknownConnection
	}
	return nil
}

func (d *Dispatcher) handleJoin(ctx context.Context, s Session, data json.RawMessage) error {
	var p channelPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if err := d.chat.Authorize(ctx, s.UserID(), p.ChannelID); err != nil {
		return err
	}
	return d.core.Router.Join(s.ID(), p.ChannelID)
}

func (d *Dispatcher) handleLeave(s Session, data json.RawMessage) error {
	var p channelPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	d.core.Router.Leave(s.ID(), p.ChannelID)
	return nil
}

// handleSendMessage routes socket messages through the same pipeline as
// REST. The sender is always the connection owner.
func (d *Dispatcher) handleSendMessage(ctx context.Context, s Session, data json.RawMessage) error {
	var p sendMessagePayload
	if err := decode(data, &p); err != nil {
		return err
	}
	_, err := d.chat.SendMessage(ctx, chat.SendRequest{
		ChannelID:   p.ChannelID,
		SenderID:    s.UserID(),
		Text:        p.Text,
		Mentions:    p.Mentions,
		Attachments: p.Attachments,
	})
	return err
}

func (d *Dispatcher) handleNotification(ctx context.Context, s Session, data json.RawMessage) error {
	var p notificationPayload
	if err := decode(data, &p); err != nil {
		return err
	}

	object := authz.ObjectUserNotification
	if p.UserID == "" {
		object = authz.ObjectGlobalNotification
	}
	if !d.allowed(s, object, authz.ActionSend) {
		return errForbidden("role may not send this notification")
	}

	n := models.Notification{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    p.UserID,
		Type:      p.Type,
		Title:     p.Title,
		Message:   p.Message,
		Link:      p.Link,
		Data:      p.Data,
		CreatedAt: d.now().UTC(),
	}
	if n.IsGlobal() {
		d.core.Presence.NotifyAll(n)
	} else {
		d.core.Presence.Notify(n.UserID, n)
	}

	if d.publisher != nil {
		if err := d.publisher.PublishNotification(ctx, &n); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("notification_id", n.ID).Msg("failed to publish notification")
		}
	}
	return nil
}

func (d *Dispatcher) handleActivity(ctx context.Context, s Session, data json.RawMessage) error {
	var p activityPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if !d.allowed(s, authz.ObjectActivity, authz.ActionPublish) {
		return errForbidden("role may not publish activity")
	}

	a := models.Activity{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    s.UserID(),
		Action:    p.Action,
		Entity:    p.Entity,
		EntityID:  p.EntityID,
		Payload:   data,
		CreatedAt: d.now().UTC(),
	}
	d.core.Presence.BroadcastActivity(a)

	if d.publisher != nil {
		if err := d.publisher.PublishActivity(ctx, &a); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("activity_id", a.ID).Msg("failed to publish activity")
		}
	}
	return nil
}

func (d *Dispatcher) handleStageChange(ctx context.Context, s Session, data json.RawMessage) error {
	var p stageChangePayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if !d.allowed(s, authz.ObjectActivity, authz.ActionPublish) {
		return errForbidden("role may not publish stage changes")
	}

	sc := models.StageChange{
		ID:          uuid.Must(uuid.NewV7()).String(),
		CandidateID: p.CandidateID,
		FromStage:   p.FromStage,
		ToStage:     p.ToStage,
		ChangedBy:   s.UserID(),
		Payload:     data,
		CreatedAt:   d.now().UTC(),
	}
	d.core.Presence.BroadcastStageChange(sc)

	if d.publisher != nil {
		if err := d.publisher.PublishStageChange(ctx, &sc); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("stage_change_id", sc.ID).Msg("failed to publish stage change")
		}
	}
	return nil
}

func (d *Dispatcher) allowed(s Session, object, action string) bool {
	if d.authz == nil {
		return true
	}
	return d.authz.Allowed(s.Role(), object, action)
}

// errInvalidPayload marks payloads that are not decodable JSON objects.
var errInvalidPayload = errors.New("invalid event payload")

type forbiddenError struct{ msg string }

func (e *forbiddenError) Error() string { return e.msg }

func errForbidden(msg string) error { return &forbiddenError{msg: msg} }

// decode unmarshals and validates an event payload.
func decode(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errInvalidPayload
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		return verr
	}
	return nil
}

// errorCode maps a handler error onto the outbound code and a client-safe message.
func errorCode(err error) (code, message string) {
	var verr *validation.RequestValidationError
	var ferr *forbiddenError

	switch {
	case errors.Is(err, errInvalidPayload):
		return CodeInvalidMessage, "event data is not a valid JSON object"
	case errors.As(err, &verr):
		return CodeValidation, verr.Error()
	case errors.As(err, &ferr):
		return CodeForbidden, ferr.msg
	case errors.Is(err, realtime.ErrUnknownConnection):
		return CodeInternal, "connection is not registered"
	case errors.Is(err, chat.ErrValidation):
		return CodeValidation, err.Error()
	case errors.Is(err, chat.ErrNotFound):
		return CodeNotFound, "channel or message not found"
	case errors.Is(err, chat.ErrForbidden):
		return CodeForbidden, "access to this channel is denied"
	case errors.Is(err, chat.ErrUnauthenticated):
		return CodeUnauthorized, "authentication required"
	case errors.Is(err, chat.ErrConflict):
		return CodeConflict, "conflicting update"
	case errors.Is(err, chat.ErrStorage):
		return CodeDatabase, "message could not be stored"
	default:
		return CodeInternal, "internal error"
	}
}

// replyError queues an error event to s.
func replyError(s realtime.Conn, event, code, message string) {
	s.Send(realtime.Event{
		Type: realtime.EventError,
		Data: ErrorPayload{Code: code, Message: message, Event: event},
	})
}

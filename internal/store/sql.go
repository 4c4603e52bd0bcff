// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/lib/pq"

	"github.com/tomtom215/recruitflow/internal/models"
)

// SQLStore implements Store on database/sql. Queries use $n placeholders,
// which both DuckDB and Postgres accept.
type SQLStore struct {
	db     *sql.DB
	now    func() time.Time
	stamps stampClock
}

// NewSQLStore wraps an open database handle. The caller owns schema creation
// (see Migrate).
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// DB returns the underlying handle.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// BootstrapChannels implements Store.
func (s *SQLStore) BootstrapChannels(ctx context.Context, defaults []models.NewChannel) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin bootstrap: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_channels`).Scan(&count); err != nil {
		return false, fmt.Errorf("count channels: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	for _, ch := range defaults {
		if _, err := s.insertChannel(ctx, tx, ch); err != nil {
			if errors.Is(err, ErrConflict) {
				// Another node bootstrapped concurrently.
				return false, nil
			}
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			// Another node bootstrapped concurrently.
			return false, nil
		}
		return false, fmt.Errorf("commit bootstrap: %w", err)
	}
	return len(defaults) > 0, nil
}

// ListChannels implements Store.
func (s *SQLStore) ListChannels(ctx context.Context, userID string) ([]models.Channel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.description, c.channel_type, c.created_by_id, c.created_at
		FROM chat_channels c
		WHERE c.channel_type = 'team'
		   OR EXISTS (SELECT 1 FROM chat_channel_members m WHERE m.channel_id = c.id AND m.user_id = $1)
		ORDER BY c.created_at ASC, c.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	channels := make([]models.Channel, 0)
	index := make(map[string]int)
	for rows.Next() {
		var ch models.Channel
		var chType string
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.Description, &chType, &ch.CreatedByID, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		ch.Type = models.ChannelType(chType)
		index[ch.ID] = len(channels)
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}

	if err := s.attachParticipants(ctx, userID, channels, index); err != nil {
		return nil, err
	}
	return channels, nil
}

// attachParticipants loads participant lists for the direct channels userID belongs to.
func (s *SQLStore) attachParticipants(ctx context.Context, userID string, channels []models.Channel, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.channel_id, m.user_id
		FROM chat_channel_members m
		WHERE m.channel_id IN (SELECT channel_id FROM chat_channel_members WHERE user_id = $1)
		ORDER BY m.channel_id, m.user_id`, userID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var channelID, member string
		if err := rows.Scan(&channelID, &member); err != nil {
			return fmt.Errorf("scan participant: %w", err)
		}
		if i, ok := index[channelID]; ok {
			channels[i].Participants = append(channels[i].Participants, member)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate participants: %w", err)
	}
	return nil
}

// GetChannel implements Store.
func (s *SQLStore) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	var ch models.Channel
	var chType string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, channel_type, created_by_id, created_at
		FROM chat_channels WHERE id = $1`, id).
		Scan(&ch.ID, &ch.Name, &ch.Description, &chType, &ch.CreatedByID, &ch.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	ch.Type = models.ChannelType(chType)

	if ch.IsDirect() {
		members, err := s.members(ctx, id)
		if err != nil {
			return nil, err
		}
		ch.Participants = members
	}
	return &ch, nil
}

func (s *SQLStore) members(ctx context.Context, channelID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM chat_channel_members WHERE channel_id = $1 ORDER BY user_id`, channelID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// CreateChannel implements Store.
func (s *SQLStore) CreateChannel(ctx context.Context, ch models.NewChannel) (*models.Channel, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create channel: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created, err := s.insertChannel(ctx, tx, ch)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("commit create channel: %w", err)
	}
	return created, nil
}

func (s *SQLStore) insertChannel(ctx context.Context, tx *sql.Tx, ch models.NewChannel) (*models.Channel, error) {
	created := &models.Channel{
		ID:          newID(),
		Name:        ch.Name,
		Description: ch.Description,
		Type:        ch.Type,
		CreatedByID: ch.CreatedByID,
		CreatedAt:   s.now().UTC(),
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO chat_channels (id, name, name_key, description, channel_type, created_by_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		created.ID, created.Name, nameKey(ch, created.ID), created.Description,
		string(created.Type), created.CreatedByID, created.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert channel: %w", err)
	}

	if ch.Type == models.ChannelTypeDirect {
		created.Participants = dedupe(ch.Participants)
		for _, member := range created.Participants {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO chat_channel_members (channel_id, user_id) VALUES ($1, $2)`,
				created.ID, member); err != nil {
				return nil, fmt.Errorf("insert channel member: %w", err)
			}
		}
	}
	return created, nil
}

// CreateMessage implements Store.
func (s *SQLStore) CreateMessage(ctx context.Context, msg models.NewMessage) (*models.Message, error) {
	mentions := orEmpty(msg.Mentions)
	attachments := orEmpty(msg.Attachments)

	mentionsJSON, err := json.Marshal(mentions)
	if err != nil {
		return nil, fmt.Errorf("encode mentions: %w", err)
	}
	attachmentsJSON, err := json.Marshal(attachments)
	if err != nil {
		return nil, fmt.Errorf("encode attachments: %w", err)
	}

	now := s.stamps.next(msg.ChannelID, s.now().UTC())
	m := &models.Message{
		ID:          newID(),
		ChannelID:   msg.ChannelID,
		SenderID:    msg.SenderID,
		Text:        msg.Text,
		Mentions:    mentions,
		Attachments: attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, channel_id, sender_id, message_text, mentions, attachments, is_pinned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7, $8)`,
		m.ID, m.ChannelID, m.SenderID, m.Text, string(mentionsJSON), string(attachmentsJSON), m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

const messageColumns = `
	m.id, m.channel_id, m.sender_id, m.message_text, m.mentions, m.attachments,
	m.is_pinned, m.created_at, m.updated_at,
	COALESCE(u.name, '') AS sender_name, COALESCE(u.avatar_url, '') AS sender_avatar`

// ListMessages implements Store.
func (s *SQLStore) ListMessages(ctx context.Context, channelID string, limit int) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, channel_id, sender_id, message_text, mentions, attachments,
		       is_pinned, created_at, updated_at, sender_name, sender_avatar
		FROM (
			SELECT `+messageColumns+`
			FROM chat_messages m
			LEFT JOIN chat_user_profiles u ON u.id = m.sender_id
			WHERE m.channel_id = $1
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, id ASC`, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0, limit)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// SetPinned implements Store.
func (s *SQLStore) SetPinned(ctx context.Context, channelID, messageID string, pinned bool) (*models.Message, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_messages SET is_pinned = $1, updated_at = $2 WHERE id = $3 AND channel_id = $4`,
		pinned, s.now().UTC(), messageID, channelID)
	if err != nil {
		return nil, fmt.Errorf("update pinned: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM chat_messages m
		LEFT JOIN chat_user_profiles u ON u.id = m.sender_id
		WHERE m.id = $1`, messageID)
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (*models.Message, error) {
	var m models.Message
	var mentions, attachments string
	if err := row.Scan(&m.ID, &m.ChannelID, &m.SenderID, &m.Text, &mentions, &attachments,
		&m.IsPinned, &m.CreatedAt, &m.UpdatedAt, &m.SenderName, &m.SenderAvatar); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan message: %w", err)
	}
	if err := decodeList(mentions, &m.Mentions); err != nil {
		return nil, fmt.Errorf("decode mentions: %w", err)
	}
	if err := decodeList(attachments, &m.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	return &m, nil
}

func decodeList(raw string, dst *[]string) error {
	if raw == "" {
		*dst = []string{}
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return err
	}
	*dst = orEmpty(*dst)
	return nil
}

// UpsertUser implements Store.
func (s *SQLStore) UpsertUser(ctx context.Context, u models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_user_profiles (id, email, name, role, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			avatar_url = EXCLUDED.avatar_url`,
		u.ID, u.Email, u.Name, u.Role, u.AvatarURL)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetUser implements Store.
func (s *SQLStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, role, avatar_url FROM chat_user_profiles WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// isUniqueViolation recognizes unique-constraint failures from Postgres
// (SQLSTATE 23505) and DuckDB (constraint error text).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

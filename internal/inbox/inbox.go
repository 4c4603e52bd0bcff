// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package inbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/recruitflow/internal/config"
	"github.com/tomtom215/recruitflow/internal/logging"
	"github.com/tomtom215/recruitflow/internal/metrics"
	"github.com/tomtom215/recruitflow/internal/models"
)

var (
	// ErrNotFound is returned by Ack for unknown or expired notifications.
	ErrNotFound = errors.New("inbox: notification not found")

	// ErrStorage wraps BadgerDB failures.
	ErrStorage = errors.New("inbox: storage failure")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("inbox: closed")

	// ErrNoRecipient is returned when saving a global notification.
	ErrNoRecipient = errors.New("inbox: notification has no recipient")
)

const (
	keyPrefix = "inbox:"

	// keySep separates user ID and notification ID; it cannot occur in either.
	keySep = byte(0)

	defaultTTL       = 7 * 24 * time.Hour
	defaultQueueSize = 1024
	gcInterval       = 10 * time.Minute
	gcDiscardRatio   = 0.5
)

// Inbox stores notifications addressed to users who had no live connection,
// until they are acknowledged or their TTL expires. Keys are ordered by
// notification ID (UUIDv7), so List returns them oldest first.
type Inbox struct {
	db    *badger.DB
	ttl   time.Duration
	queue chan models.Notification

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the inbox database described by cfg.
func Open(cfg *config.InboxConfig) (*Inbox, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Dur("ttl", ttl).
		Msg("notification inbox opened")

	return &Inbox{
		db:    db,
		ttl:   ttl,
		queue: make(chan models.Notification, defaultQueueSize),
	}, nil
}

func userPrefix(userID string) []byte {
	key := make([]byte, 0, len(keyPrefix)+len(userID)+1)
	key = append(key, keyPrefix...)
	key = append(key, userID...)
	return append(key, keySep)
}

func entryKey(userID, notificationID string) []byte {
	return append(userPrefix(userID), notificationID...)
}

func (b *Inbox) checkOpen() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	return nil
}

// Save stores a targeted notification with the configured TTL.
func (b *Inbox) Save(ctx context.Context, n models.Notification) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.IsGlobal() {
		return ErrNoRecipient
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(entryKey(n.UserID, n.ID), data).WithTTL(b.ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		metrics.InboxErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	metrics.InboxStored.Inc()
	return nil
}

// List returns a user's pending notifications, oldest first. It never
// returns nil.
func (b *Inbox) List(ctx context.Context, userID string) ([]models.Notification, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}

	out := []models.Notification{}
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := userPrefix(userID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			var n models.Notification
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &n)
			}); err != nil {
				logging.Warn().Err(err).Str("user_id", userID).Msg("inbox failed to unmarshal entry")
				continue
			}
			out = append(out, n)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		metrics.InboxErrors.WithLabelValues("list").Inc()
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return out, nil
}

// Ack removes one notification from a user's inbox.
func (b *Inbox) Ack(ctx context.Context, userID, notificationID string) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := entryKey(userID, notificationID)
	err := b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
	switch {
	case err == nil:
		metrics.InboxDrained.Inc()
		return nil
	case errors.Is(err, ErrNotFound):
		return err
	default:
		metrics.InboxErrors.WithLabelValues("ack").Inc()
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
}

// Enqueue queues a notification for Serve to store. It never blocks and is
// suitable as a realtime.DropHandler; a full queue drops the notification.
func (b *Inbox) Enqueue(n models.Notification) {
	if n.IsGlobal() {
		return
	}
	select {
	case b.queue <- n:
	default:
		metrics.InboxErrors.WithLabelValues("enqueue").Inc()
		logging.Warn().
			Str("user_id", n.UserID).
			Str("notification_id", n.ID).
			Msg("inbox queue full, notification dropped")
	}
}

// Serve stores queued notifications and periodically runs value log GC
// until ctx is canceled. It implements suture.Service.
func (b *Inbox) Serve(ctx context.Context) error {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.drain()
			return ctx.Err()
		case n := <-b.queue:
			b.store(ctx, n)
		case <-ticker.C:
			b.runGC()
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (b *Inbox) String() string {
	return "notification-inbox"
}

// drain stores whatever is still buffered at shutdown.
func (b *Inbox) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case n := <-b.queue:
			b.store(ctx, n)
		default:
			return
		}
	}
}

func (b *Inbox) store(ctx context.Context, n models.Notification) {
	if err := b.Save(ctx, n); err != nil {
		logging.Error().Err(err).
			Str("user_id", n.UserID).
			Str("notification_id", n.ID).
			Msg("failed to store missed notification")
	}
}

func (b *Inbox) runGC() {
	if err := b.checkOpen(); err != nil {
		return
	}
	for {
		// Repeat while GC reclaims files
		if err := b.db.RunValueLogGC(gcDiscardRatio); err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
				metrics.InboxErrors.WithLabelValues("gc").Inc()
				logging.Warn().Err(err).Msg("inbox value log GC failed")
			}
			return
		}
	}
}

// Close closes the database. Safe to call more than once.
func (b *Inbox) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

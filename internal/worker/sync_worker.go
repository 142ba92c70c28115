// Package worker drains queued snapshots into the remote store.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"viaggi/internal/amqp"
	"viaggi/internal/remote"
)

// SnapshotConsumer delivers queued snapshot messages.
type SnapshotConsumer interface {
	ConsumeSnapshots(ctx context.Context, handler func(context.Context, *amqp.SnapshotMessage) error) error
}

// SyncWorker writes each queued snapshot to the remote store, skipping
// snapshots older than one it already wrote for the same key.
type SyncWorker struct {
	remote remote.SnapshotWriter

	mu       sync.Mutex
	versions map[string]int64
}

func NewSyncWorker(w remote.SnapshotWriter) *SyncWorker {
	return &SyncWorker{remote: w, versions: map[string]int64{}}
}

// Run consumes until ctx is done or the consumer gives up.
func (w *SyncWorker) Run(ctx context.Context, c SnapshotConsumer) error {
	return c.ConsumeSnapshots(ctx, w.HandleSnapshotMessage)
}

// HandleSnapshotMessage processes one message. A returned error requeues it.
func (w *SyncWorker) HandleSnapshotMessage(ctx context.Context, msg *amqp.SnapshotMessage) error {
	w.mu.Lock()
	last := w.versions[msg.Key]
	w.mu.Unlock()
	if msg.Version <= last {
		slog.InfoContext(ctx, "Skipping stale snapshot", "version", msg.Version, "saved_version", last)
		return nil
	}

	a, err := remote.DecodeAccount(msg.Data)
	if err != nil {
		// a malformed payload will never succeed, so it must not be requeued
		slog.ErrorContext(ctx, "Dropping undecodable snapshot", "version", msg.Version, "error", err)
		return nil
	}
	if err := w.remote.Save(ctx, msg.Key, a); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	w.mu.Lock()
	if msg.Version > w.versions[msg.Key] {
		w.versions[msg.Key] = msg.Version
	}
	w.mu.Unlock()

	slog.InfoContext(ctx, "Snapshot synced to remote store",
		"version", msg.Version,
		"queued_at", msg.Timestamp)
	return nil
}

package services

import (
	"context"
	"fmt"

	"viaggi/internal/amqp"
	"viaggi/internal/core"
	"viaggi/internal/remote"
)

// DirectPersister writes each snapshot straight to the remote store.
type DirectPersister struct {
	Remote remote.SnapshotWriter
}

func (p DirectPersister) Persist(ctx context.Context, key string, _ int64, a *core.Account) error {
	return p.Remote.Save(ctx, key, a)
}

// SnapshotPublisher is satisfied by *amqp.Client.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, msg *amqp.SnapshotMessage) error
}

// QueuePersister hands snapshots to the sync worker through the queue.
type QueuePersister struct {
	Publisher SnapshotPublisher
}

func (p QueuePersister) Persist(ctx context.Context, key string, version int64, a *core.Account) error {
	data, err := remote.EncodeAccount(a)
	if err != nil {
		return err
	}
	if err := p.Publisher.PublishSnapshot(ctx, amqp.NewSnapshotMessage(key, version, data)); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

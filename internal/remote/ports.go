// Package remote defines the boundary to the store that mirrors account
// snapshots. Adapters live in the subpackages.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"viaggi/internal/core"
)

// Ports for outbound adapters.
type (
	// SnapshotReader returns the stored snapshot for key, or nil when the
	// account has never been saved.
	SnapshotReader interface {
		Fetch(ctx context.Context, key string) (*core.Account, error)
	}

	SnapshotWriter interface {
		Save(ctx context.Context, key string, a *core.Account) error
	}

	Store interface {
		SnapshotReader
		SnapshotWriter
	}
)

// DecodeAccount parses a stored payload. An empty body, null or an empty
// object all mean a new account and yield nil.
func DecodeAccount(data []byte) (*core.Account, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if len(probe) == 0 {
		return nil, nil
	}
	var a core.Account
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &a, nil
}

// EncodeAccount is the wire form written by every adapter.
func EncodeAccount(a *core.Account) ([]byte, error) {
	if a == nil {
		a = core.DefaultAccount()
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// Package backend builds the remote store and the persister selected by
// configuration.
package backend

import (
	"context"
	"time"

	"viaggi/internal/cache"
	"viaggi/internal/remote"
	"viaggi/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// RemoteResult holds the remote store and what the caller must manage.
type RemoteResult struct {
	Remote remote.Store
	// Caches with expiring entries, keyed by a log name, for the janitor.
	Caches  map[string]cache.Cleaner
	Cleanup CleanupFunc
}

// PersisterResult holds the persister the sync engine saves through.
type PersisterResult struct {
	Persister services.Persister
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateRemote(ctx context.Context, config Config) (*RemoteResult, error)
	CreatePersister(ctx context.Context, config Config, r remote.SnapshotWriter) (*PersisterResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type        BackendType
	PersistMode PersistMode

	// Apps Script specific
	Endpoint string
	Timeout  time.Duration

	// Memory specific
	SeedFile string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	GoogleRowCacheTTL        time.Duration

	// Queue persistence specific
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of remote store
type BackendType string

const (
	MemoryBackend    BackendType = "memory"
	AppScriptBackend BackendType = "appscript"
	SheetsBackend    BackendType = "sheets"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, AppScriptBackend, SheetsBackend:
		return true
	default:
		return false
	}
}

// PersistMode selects how snapshots reach the remote store.
type PersistMode string

const (
	DirectPersist PersistMode = "direct"
	QueuePersist  PersistMode = "queue"
)

func (m PersistMode) IsValid() bool {
	return m == DirectPersist || m == QueuePersist
}

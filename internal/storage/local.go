package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"viaggi/internal/currency"

	_ "modernc.org/sqlite"
)

// Slot names in the key/value table.
const (
	SlotExchangeRates = "exchange_rates"
	SlotActiveTripID  = "active_trip_id"
)

// ErrSlotEmpty is returned by Get when nothing is stored under the key.
var ErrSlotEmpty = errors.New("slot is empty")

// LocalStore is the device-local durable cache: a handful of named slots
// in a SQLite database.
type LocalStore struct {
	db *sql.DB
}

func NewLocalStore(dbPath string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection keeps writers serialised
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &LocalStore{db: db}, nil
}

func (s *LocalStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *LocalStore) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSlotEmpty
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

func (s *LocalStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// LoadRates implements currency.Cache. A missing or unreadable slot yields
// nil so the caller falls back to the bundled table.
func (s *LocalStore) LoadRates(ctx context.Context) (*currency.Snapshot, error) {
	raw, err := s.Get(ctx, SlotExchangeRates)
	if errors.Is(err, ErrSlotEmpty) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap currency.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		slog.WarnContext(ctx, "Discarding corrupt exchange rate cache", "error", err)
		return nil, nil
	}
	return &snap, nil
}

// SaveRates implements currency.Cache.
func (s *LocalStore) SaveRates(ctx context.Context, snap currency.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode rates: %w", err)
	}
	return s.Set(ctx, SlotExchangeRates, string(b))
}

// ActiveTripID returns the last selected trip, or "" when none is stored.
func (s *LocalStore) ActiveTripID(ctx context.Context) (string, error) {
	v, err := s.Get(ctx, SlotActiveTripID)
	if errors.Is(err, ErrSlotEmpty) {
		return "", nil
	}
	return v, err
}

func (s *LocalStore) SetActiveTripID(ctx context.Context, id string) error {
	if id == "" {
		return s.Delete(ctx, SlotActiveTripID)
	}
	return s.Set(ctx, SlotActiveTripID, id)
}

// ClearActiveTripIf removes the active trip slot when it points at id.
func (s *LocalStore) ClearActiveTripIf(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ? AND value = ?`, SlotActiveTripID, id); err != nil {
		return fmt.Errorf("clear active trip: %w", err)
	}
	return nil
}

// Package cache provides small in-process caches for adapter lookups.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cache is the lookup surface adapters depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Size() int
}

var _ Cache[int] = (*LRU[int])(nil)

// Cleaner is implemented by caches with expiring entries.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically evicts expired entries from registered caches.
type Janitor struct {
	mu     sync.Mutex
	caches map[string]Cleaner
	logger *slog.Logger
}

func NewJanitor(logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{caches: map[string]Cleaner{}, logger: logger}
}

// Register adds a cache under a name used in log lines.
func (j *Janitor) Register(name string, c Cleaner) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.caches[name] = c
}

// Sweep cleans every registered cache once and returns the total removed.
func (j *Janitor) Sweep() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	total := 0
	for name, c := range j.caches {
		if n := c.CleanExpired(); n > 0 {
			j.logger.Debug("Evicted expired cache entries", "cache", name, "count", n)
			total += n
		}
	}
	return total
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}

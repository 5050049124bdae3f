package cache

import (
	"context"
	"time"

	"teddy/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically purges expired entries from registered caches
type Manager struct {
	caches []Cleaner
	logger *log.Logger
}

func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{logger: logger.WithComponent(log.ComponentCache)}
}

// Register adds a cache to the manager. Not safe to call once Run has started.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// CleanAll purges every registered cache once and returns the number of entries dropped
func (m *Manager) CleanAll() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run cleans on every tick until ctx is cancelled
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanAll(); n > 0 {
				m.logger.Debug("Expired cache entries removed", log.FieldCount, n)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

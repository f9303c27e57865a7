package cache

import (
	"errors"
	"sync"
	"time"
)

// ErrCacheMiss is returned when a key is absent or expired
var ErrCacheMiss = errors.New("cache: miss")

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryService implements CacheService in process memory. It is the
// fallback when no memcache address is configured and the double used by
// tests.
type MemoryService struct {
	mu      sync.Mutex
	entries map[string]entry
}

// NewMemoryService creates a new in-memory cache service
func NewMemoryService() *MemoryService {
	return &MemoryService{entries: make(map[string]entry)}
}

// Get retrieves a value from the in-memory cache
func (m *MemoryService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, ErrCacheMiss
	}
	return e.value, nil
}

// Set stores a value with an expiration time; zero means no expiry
func (m *MemoryService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{value: value}
	if expiration > 0 {
		e.expiresAt = time.Now().Add(expiration)
	}
	m.entries[key] = e
	return nil
}

// Delete removes a value from the in-memory cache
func (m *MemoryService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

package access

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/PFEPLTechHub/document-bot/pkg/db/redis"
)

// Markers stores short-lived per-user flags such as "awaiting a rejection reason".
type Markers interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Peek(ctx context.Context, key string) (string, bool, error)
	// Take returns the value and deletes it.
	Take(ctx context.Context, key string) (string, bool, error)
	Clear(ctx context.Context, key string) error
}

type RedisMarkers struct {
	store *redis.Store
}

func NewRedisMarkers(store *redis.Store) *RedisMarkers {
	return &RedisMarkers{store: store}
}

func (m *RedisMarkers) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return m.store.SetValue(ctx, key, value, ttl)
}

func (m *RedisMarkers) Peek(ctx context.Context, key string) (string, bool, error) {
	return found(m.store.GetValue(ctx, key))
}

func (m *RedisMarkers) Take(ctx context.Context, key string) (string, bool, error) {
	return found(m.store.Take(ctx, key))
}

func (m *RedisMarkers) Clear(ctx context.Context, key string) error {
	return m.store.Del(ctx, key)
}

func found(value string, err error) (string, bool, error) {
	if errors.Is(err, redis.ErrMissing) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// MemoryMarkers keeps markers in process, for single-instance runs without redis.
type MemoryMarkers struct {
	mu     sync.Mutex
	now    func() time.Time
	values map[string]memoryMarker
}

type memoryMarker struct {
	value   string
	expires time.Time
}

func NewMemoryMarkers(now func() time.Time) *MemoryMarkers {
	if now == nil {
		now = time.Now
	}
	return &MemoryMarkers{now: now, values: make(map[string]memoryMarker)}
}

func (m *MemoryMarkers) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	marker := memoryMarker{value: value}
	if ttl > 0 {
		marker.expires = m.now().Add(ttl)
	}
	m.values[key] = marker
	return nil
}

func (m *MemoryMarkers) Peek(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.get(key)
	return value, ok, nil
}

func (m *MemoryMarkers) Take(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.get(key)
	delete(m.values, key)
	return value, ok, nil
}

func (m *MemoryMarkers) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryMarkers) get(key string) (string, bool) {
	marker, ok := m.values[key]
	if !ok {
		return "", false
	}
	if !marker.expires.IsZero() && !m.now().Before(marker.expires) {
		delete(m.values, key)
		return "", false
	}
	return marker.value, true
}

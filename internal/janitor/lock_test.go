package janitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}}
}

func (m *memStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func TestRedisLockExclusive(t *testing.T) {
	store := newMemStore()

	first, err := NewRedisLock(store, "mm:lock:janitor", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "mm:lock:janitor", time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Release(context.Background()))

	ok, err = second.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockReleaseOnlyByOwner(t *testing.T) {
	store := newMemStore()

	lock, err := NewRedisLock(store, "mm:lock:janitor", time.Minute)
	require.NoError(t, err)

	ok, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	// Simulate the TTL expiring and another replica taking over.
	store.mu.Lock()
	store.data["mm:lock:janitor"] = "someone-else"
	store.mu.Unlock()

	require.NoError(t, lock.Release(context.Background()))

	store.mu.Lock()
	_, stillHeld := store.data["mm:lock:janitor"]
	store.mu.Unlock()
	assert.True(t, stillHeld)
}

package cart

import (
	"context"
	"sync"
	"time"

	"github.com/multimart/multimart-backend/pkg/config"
	"github.com/multimart/multimart-backend/pkg/logger"
	"github.com/multimart/multimart-backend/pkg/metrics"
	"github.com/multimart/multimart-backend/pkg/redis"
)

// Manager hands out the cart store owning each browsing session. Stores are
// created lazily on first touch and reused for the session's lifetime.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store

	redisClient *redis.Client
	cfg         config.CartConfig
	metrics     *metrics.CartMetrics
	logg        *logger.Logger
}

// NewManager builds the session registry.
func NewManager(redisClient *redis.Client, cfg config.CartConfig, m *metrics.CartMetrics, logg *logger.Logger) *Manager {
	return &Manager{
		stores:      map[string]*Store{},
		redisClient: redisClient,
		cfg:         cfg,
		metrics:     m,
		logg:        logg,
	}
}

// ForSession returns the session's store, creating and restoring it on first
// use.
func (m *Manager) ForSession(ctx context.Context, sessionID string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.stores[sessionID]; ok {
		return store, nil
	}

	ttl := m.cfg.StorageTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	store, err := NewStore(ctx, StoreOptions{
		SessionID:       sessionID,
		Storage:         NewRedisStorage(m.redisClient, sessionID, ttl),
		SaveDebounce:    m.cfg.SaveDebounce,
		NotificationTTL: m.cfg.NotificationTTL,
		Metrics:         m.metrics,
		Logger:          m.logg,
	})
	if err != nil {
		return nil, err
	}
	m.stores[sessionID] = store
	return store, nil
}

// Close flushes and stops every live store.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, store := range m.stores {
		store.Close()
		delete(m.stores, id)
	}
}

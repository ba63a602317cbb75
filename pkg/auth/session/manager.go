package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sunyuchen88/guomaojiance/pkg/config"
	"github.com/sunyuchen88/guomaojiance/pkg/redis"
)

// Store holds the redis surface the manager needs.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// Manager tracks server-side login sessions keyed by JWT id, so tokens
// can be revoked before their expiry.
type Manager struct {
	store Store
	ttl   time.Duration
}

func NewManager(store Store, cfg config.JWTConfig) *Manager {
	return &Manager{store: store, ttl: cfg.SessionTTL()}
}

// Create registers a session for the given JWT id.
func (m *Manager) Create(ctx context.Context, accessID string, userID string) error {
	if m.store == nil {
		return errors.New("session store not initialized")
	}
	if accessID == "" {
		return errors.New("access id is required")
	}
	key := m.store.AccessSessionKey(accessID)
	if err := m.store.Set(ctx, key, userID, m.ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Exists reports whether the session for the JWT id is still live.
func (m *Manager) Exists(ctx context.Context, accessID string) (bool, error) {
	if m.store == nil {
		return false, errors.New("session store not initialized")
	}
	_, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("load session: %w", err)
	}
	return true, nil
}

// Revoke drops the session, invalidating the token ahead of its expiry.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if m.store == nil {
		return errors.New("session store not initialized")
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

var _ Store = (*redis.Client)(nil)

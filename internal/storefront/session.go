package storefront

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hopewellness/storefront-backend/pkg/redis"
)

// ErrNoCheckout reports that a session has no checkout id on record.
var ErrNoCheckout = errors.New("no checkout id stored for session")

// checkoutIDTTL bounds how long an abandoned checkout id survives. The
// platform expires hosted checkouts well before this.
const checkoutIDTTL = 30 * 24 * time.Hour

// SessionStore persists the single durable value a browsing session owns:
// its checkout id. Everything else in State is rebuilt from the gateway.
type SessionStore interface {
	CheckoutID(ctx context.Context, sessionID string) (string, error)
	SaveCheckoutID(ctx context.Context, sessionID, checkoutID string) error
	ClearCheckoutID(ctx context.Context, sessionID string) error
}

type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore returns a SessionStore backed by the shared redis
// client.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func (r *redisSessionStore) CheckoutID(ctx context.Context, sessionID string) (string, error) {
	id, err := r.client.Get(ctx, r.client.CheckoutIDKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoCheckout
		}
		return "", err
	}
	return id, nil
}

func (r *redisSessionStore) SaveCheckoutID(ctx context.Context, sessionID, checkoutID string) error {
	return r.client.Set(ctx, r.client.CheckoutIDKey(sessionID), checkoutID, checkoutIDTTL)
}

func (r *redisSessionStore) ClearCheckoutID(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, r.client.CheckoutIDKey(sessionID))
}

type memorySessionStore struct {
	mu  sync.Mutex
	ids map[string]string
}

// NewMemorySessionStore returns an in-process SessionStore. Suitable for
// tests and single-instance development runs.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{ids: make(map[string]string)}
}

func (m *memorySessionStore) CheckoutID(_ context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.ids[sessionID]
	if !ok || id == "" {
		return "", ErrNoCheckout
	}
	return id, nil
}

func (m *memorySessionStore) SaveCheckoutID(_ context.Context, sessionID, checkoutID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[sessionID] = checkoutID
	return nil
}

func (m *memorySessionStore) ClearCheckoutID(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ids, sessionID)
	return nil
}

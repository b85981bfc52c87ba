package storefront

import (
	"errors"
	"sync"

	"github.com/hopewellness/storefront-backend/internal/commerce"
	"github.com/hopewellness/storefront-backend/pkg/logger"
)

// Manager hands out one Store per browsing session, creating them lazily.
type Manager struct {
	gateway      commerce.Gateway
	sessions     SessionStore
	productLimit int
	logg         *logger.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

// ManagerParams configures a Manager.
type ManagerParams struct {
	Gateway      commerce.Gateway
	Sessions     SessionStore
	ProductLimit int
	Logger       *logger.Logger
}

func NewManager(params ManagerParams) (*Manager, error) {
	if params.Gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if params.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Manager{
		gateway:      params.Gateway,
		sessions:     params.Sessions,
		productLimit: params.ProductLimit,
		logg:         params.Logger,
		stores:       make(map[string]*Store),
	}, nil
}

// Store returns the session's store, creating it on first use.
func (m *Manager) Store(sessionID string) (*Store, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if store, ok := m.stores[sessionID]; ok {
		return store, nil
	}
	store, err := New(Params{
		Gateway:      m.gateway,
		Sessions:     m.sessions,
		SessionID:    sessionID,
		ProductLimit: m.productLimit,
		Logger:       m.logg,
	})
	if err != nil {
		return nil, err
	}
	m.stores[sessionID] = store
	return store, nil
}

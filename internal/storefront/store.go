package storefront

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/hopewellness/storefront-backend/internal/commerce"
	pkgerrors "github.com/hopewellness/storefront-backend/pkg/errors"
	"github.com/hopewellness/storefront-backend/pkg/logger"
)

const defaultProductLimit = 20

// Store owns the state for one browsing session. All writes go through the
// reducer under a single mutex; reads hand out snapshots.
type Store struct {
	gateway      commerce.Gateway
	sessions     SessionStore
	sessionID    string
	productLimit int
	logg         *logger.Logger

	mu    sync.Mutex
	state State

	// fetchSeq orders concurrent product fetches so a slow early response
	// cannot overwrite a later one.
	fetchSeq atomic.Uint64

	initMu sync.Mutex

	subMu   sync.Mutex
	subs    map[int]chan State
	nextSub int
}

// Params configures a Store.
type Params struct {
	Gateway      commerce.Gateway
	Sessions     SessionStore
	SessionID    string
	ProductLimit int
	Logger       *logger.Logger
}

// New validates params and returns a Store with empty state.
func New(params Params) (*Store, error) {
	if params.Gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if params.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if params.SessionID == "" {
		return nil, errors.New("session id is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	limit := params.ProductLimit
	if limit <= 0 {
		limit = defaultProductLimit
	}
	return &Store{
		gateway:      params.Gateway,
		sessions:     params.Sessions,
		sessionID:    params.SessionID,
		productLimit: limit,
		logg:         params.Logger,
		subs:         make(map[int]chan State),
	}, nil
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a channel that receives a snapshot after every state
// change. The returned func cancels the subscription. Slow subscribers drop
// intermediate snapshots rather than block the writer.
func (s *Store) Subscribe(buffer int) (<-chan State, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan State, buffer)
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()
	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (s *Store) dispatch(act action) State {
	s.mu.Lock()
	s.state = reduce(s.state, act)
	next := s.state
	s.mu.Unlock()

	s.subMu.Lock()
	for _, ch := range s.subs {
		select {
		case ch <- next:
		default:
		}
	}
	s.subMu.Unlock()
	return next
}

// InitializeSession resumes the session's checkout if a usable one is on
// record, otherwise creates a fresh one and persists its id. Calling it
// again while a live cart is loaded is a no-op, so it is safe on every page
// load. Failures are recorded in the error state; the catalog remains
// browsable either way.
func (s *Store) InitializeSession(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if cart := s.State().Cart; cart != nil && !cart.Completed() {
		return nil
	}

	ctx = s.logg.WithOperation(ctx, "initialize_session")

	checkoutID, err := s.sessions.CheckoutID(ctx, s.sessionID)
	if err != nil && !errors.Is(err, ErrNoCheckout) {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "reading stored checkout id failed, creating a new checkout")
	}
	if err == nil && checkoutID != "" {
		existing, fetchErr := s.gateway.FetchCheckout(ctx, checkoutID)
		if fetchErr == nil && existing != nil && !existing.Completed() {
			s.dispatch(action{typ: actionSetCart, cart: existing})
			return nil
		}
		// Completed, gone, or unfetchable. Any of these means the stored id
		// is no longer usable: discard it and start over with a fresh
		// checkout.
		if fetchErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", fetchErr.Error()), "stored checkout unusable, creating a new one")
		}
		if clearErr := s.sessions.ClearCheckoutID(ctx, s.sessionID); clearErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", clearErr.Error()), "clearing stale checkout id failed")
		}
	}

	checkout, err := s.gateway.CreateCheckout(ctx)
	if err != nil {
		s.dispatch(action{typ: actionSetError, err: errorMessage(err)})
		return err
	}
	if err := s.sessions.SaveCheckoutID(ctx, s.sessionID, checkout.ID); err != nil {
		// The checkout still works for this process lifetime. The next cold
		// start will create a new one.
		s.logg.Warn(s.logg.WithCheckoutID(s.logg.WithField(ctx, "error", err.Error()), checkout.ID), "persisting checkout id failed")
	}
	s.dispatch(action{typ: actionSetCart, cart: checkout})
	return nil
}

// FetchProducts loads the catalog. The loading flag is raised before the
// gateway call and always lowered afterwards. When fetches overlap, only the
// most recently started one may write products; stale responses are dropped.
func (s *Store) FetchProducts(ctx context.Context, limit int) error {
	if limit <= 0 {
		limit = s.productLimit
	}
	seq := s.fetchSeq.Add(1)

	s.dispatch(action{typ: actionClearError})
	s.dispatch(action{typ: actionSetLoading, loading: true})
	defer func() {
		if s.fetchSeq.Load() == seq {
			s.dispatch(action{typ: actionSetLoading, loading: false})
		}
	}()

	products, err := s.gateway.ListProducts(ctx, limit)
	if s.fetchSeq.Load() != seq {
		s.logg.Debug(s.logg.WithOperation(ctx, "fetch_products"), "discarding stale product response")
		return nil
	}
	if err != nil {
		s.dispatch(action{typ: actionSetError, err: errorMessage(err)})
		return err
	}
	s.dispatch(action{typ: actionSetProducts, products: products})
	return nil
}

// FetchCollections loads the collection list with products attached.
func (s *Store) FetchCollections(ctx context.Context) error {
	collections, err := s.gateway.ListCollections(ctx, true)
	if err != nil {
		s.dispatch(action{typ: actionSetError, err: errorMessage(err)})
		return err
	}
	s.dispatch(action{typ: actionSetCollections, collections: collections})
	return nil
}

// AddLineItem adds quantity units of a variant to the cart and replaces the
// cart with the gateway's authoritative result.
func (s *Store) AddLineItem(ctx context.Context, variantID string, quantity int) (*commerce.Checkout, error) {
	if quantity <= 0 {
		quantity = 1
	}
	cart, err := s.requireCart()
	if err != nil {
		return nil, err
	}
	updated, err := s.gateway.AddLineItem(ctx, cart.ID, variantID, quantity)
	if err != nil {
		s.dispatch(action{typ: actionSetError, err: errorMessage(err)})
		return nil, err
	}
	s.dispatch(action{typ: actionSetCart, cart: updated})
	return updated, nil
}

// UpdateLineItem sets a line item's quantity. A quantity of zero or less
// removes the line entirely.
func (s *Store) UpdateLineItem(ctx context.Context, lineItemID string, quantity int) (*commerce.Checkout, error) {
	if quantity <= 0 {
		return s.RemoveLineItem(ctx, lineItemID)
	}
	cart, err := s.requireCart()
	if err != nil {
		return nil, err
	}
	updated, err := s.gateway.UpdateLineItem(ctx, cart.ID, lineItemID, quantity)
	if err != nil {
		s.dispatch(action{typ: actionSetError, err: errorMessage(err)})
		return nil, err
	}
	s.dispatch(action{typ: actionSetCart, cart: updated})
	return updated, nil
}

// RemoveLineItem deletes a line item from the cart.
func (s *Store) RemoveLineItem(ctx context.Context, lineItemID string) (*commerce.Checkout, error) {
	cart, err := s.requireCart()
	if err != nil {
		return nil, err
	}
	updated, err := s.gateway.RemoveLineItem(ctx, cart.ID, lineItemID)
	if err != nil {
		s.dispatch(action{typ: actionSetError, err: errorMessage(err)})
		return nil, err
	}
	s.dispatch(action{typ: actionSetCart, cart: updated})
	return updated, nil
}

// ClearError drops the recorded error message.
func (s *Store) ClearError() {
	s.dispatch(action{typ: actionClearError})
}

func (s *Store) requireCart() (*commerce.Checkout, error) {
	cart := s.State().Cart
	if cart == nil {
		err := pkgerrors.New(pkgerrors.CodeStateConflict, "cart is not initialized for this session")
		s.dispatch(action{typ: actionSetError, err: errorMessage(err)})
		return nil, err
	}
	return cart, nil
}

func errorMessage(err error) string {
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return typed.Message()
	}
	return err.Error()
}

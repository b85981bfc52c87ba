package storefront

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hopewellness/storefront-backend/internal/commerce"
	pkgerrors "github.com/hopewellness/storefront-backend/pkg/errors"
	"github.com/hopewellness/storefront-backend/pkg/logger"
	"github.com/hopewellness/storefront-backend/pkg/money"
)

type gatewayStub struct {
	createFn func(ctx context.Context) (*commerce.Checkout, error)
	fetchFn  func(ctx context.Context, checkoutID string) (*commerce.Checkout, error)
	listFn   func(ctx context.Context, limit int) ([]commerce.Product, error)
	collFn   func(ctx context.Context, withProducts bool) ([]commerce.Collection, error)
	addFn    func(ctx context.Context, checkoutID, variantID string, quantity int) (*commerce.Checkout, error)
	updateFn func(ctx context.Context, checkoutID, lineItemID string, quantity int) (*commerce.Checkout, error)
	removeFn func(ctx context.Context, checkoutID, lineItemID string) (*commerce.Checkout, error)
}

func (g *gatewayStub) CreateCheckout(ctx context.Context) (*commerce.Checkout, error) {
	if g.createFn == nil {
		return nil, errors.New("unexpected CreateCheckout call")
	}
	return g.createFn(ctx)
}

func (g *gatewayStub) FetchCheckout(ctx context.Context, checkoutID string) (*commerce.Checkout, error) {
	if g.fetchFn == nil {
		return nil, errors.New("unexpected FetchCheckout call")
	}
	return g.fetchFn(ctx, checkoutID)
}

func (g *gatewayStub) ListProducts(ctx context.Context, limit int) ([]commerce.Product, error) {
	if g.listFn == nil {
		return nil, errors.New("unexpected ListProducts call")
	}
	return g.listFn(ctx, limit)
}

func (g *gatewayStub) ListCollections(ctx context.Context, withProducts bool) ([]commerce.Collection, error) {
	if g.collFn == nil {
		return nil, errors.New("unexpected ListCollections call")
	}
	return g.collFn(ctx, withProducts)
}

func (g *gatewayStub) AddLineItem(ctx context.Context, checkoutID, variantID string, quantity int) (*commerce.Checkout, error) {
	if g.addFn == nil {
		return nil, errors.New("unexpected AddLineItem call")
	}
	return g.addFn(ctx, checkoutID, variantID, quantity)
}

func (g *gatewayStub) UpdateLineItem(ctx context.Context, checkoutID, lineItemID string, quantity int) (*commerce.Checkout, error) {
	if g.updateFn == nil {
		return nil, errors.New("unexpected UpdateLineItem call")
	}
	return g.updateFn(ctx, checkoutID, lineItemID, quantity)
}

func (g *gatewayStub) RemoveLineItem(ctx context.Context, checkoutID, lineItemID string) (*commerce.Checkout, error) {
	if g.removeFn == nil {
		return nil, errors.New("unexpected RemoveLineItem call")
	}
	return g.removeFn(ctx, checkoutID, lineItemID)
}

func newTestStore(t *testing.T, gw commerce.Gateway) (*Store, SessionStore) {
	t.Helper()
	sessions := NewMemorySessionStore()
	store, err := New(Params{
		Gateway:   gw,
		Sessions:  sessions,
		SessionID: "session-1",
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return store, sessions
}

func lineItem(id, title string, quantity int, price string) commerce.LineItem {
	amount, _ := decimal.NewFromString(price)
	return commerce.LineItem{
		ID:       id,
		Title:    title,
		Quantity: quantity,
		Variant: &commerce.Variant{
			ID:    "variant-" + id,
			Title: title,
			Price: money.Price{Amount: amount, CurrencyCode: "USD"},
		},
	}
}

func TestInitializeSessionCreatesOnce(t *testing.T) {
	var creates int32
	gw := &gatewayStub{
		createFn: func(context.Context) (*commerce.Checkout, error) {
			atomic.AddInt32(&creates, 1)
			return &commerce.Checkout{ID: "checkout-1"}, nil
		},
	}
	store, sessions := newTestStore(t, gw)

	if err := store.InitializeSession(context.Background()); err != nil {
		t.Fatalf("first InitializeSession: %v", err)
	}
	if err := store.InitializeSession(context.Background()); err != nil {
		t.Fatalf("second InitializeSession: %v", err)
	}

	if got := atomic.LoadInt32(&creates); got != 1 {
		t.Fatalf("expected 1 checkout created, got %d", got)
	}
	state := store.State()
	if state.Cart == nil || state.Cart.ID != "checkout-1" {
		t.Fatalf("unexpected cart state: %+v", state.Cart)
	}
	id, err := sessions.CheckoutID(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("CheckoutID: %v", err)
	}
	if id != "checkout-1" {
		t.Fatalf("persisted checkout id = %q, want checkout-1", id)
	}
}

func TestInitializeSessionResumesStoredCheckout(t *testing.T) {
	gw := &gatewayStub{
		fetchFn: func(_ context.Context, checkoutID string) (*commerce.Checkout, error) {
			if checkoutID != "checkout-old" {
				t.Fatalf("fetched %q, want checkout-old", checkoutID)
			}
			return &commerce.Checkout{ID: checkoutID}, nil
		},
	}
	store, sessions := newTestStore(t, gw)
	if err := sessions.SaveCheckoutID(context.Background(), "session-1", "checkout-old"); err != nil {
		t.Fatalf("SaveCheckoutID: %v", err)
	}

	if err := store.InitializeSession(context.Background()); err != nil {
		t.Fatalf("InitializeSession: %v", err)
	}
	state := store.State()
	if state.Cart == nil || state.Cart.ID != "checkout-old" {
		t.Fatalf("expected resumed checkout, got %+v", state.Cart)
	}
}

func TestInitializeSessionReplacesCompletedCheckout(t *testing.T) {
	completedAt := time.Now().Add(-time.Hour)
	gw := &gatewayStub{
		fetchFn: func(_ context.Context, checkoutID string) (*commerce.Checkout, error) {
			return &commerce.Checkout{ID: checkoutID, CompletedAt: &completedAt}, nil
		},
		createFn: func(context.Context) (*commerce.Checkout, error) {
			return &commerce.Checkout{ID: "checkout-new"}, nil
		},
	}
	store, sessions := newTestStore(t, gw)
	if err := sessions.SaveCheckoutID(context.Background(), "session-1", "checkout-done"); err != nil {
		t.Fatalf("SaveCheckoutID: %v", err)
	}

	if err := store.InitializeSession(context.Background()); err != nil {
		t.Fatalf("InitializeSession: %v", err)
	}
	state := store.State()
	if state.Cart == nil || state.Cart.ID != "checkout-new" {
		t.Fatalf("expected fresh checkout, got %+v", state.Cart)
	}
	id, err := sessions.CheckoutID(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("CheckoutID: %v", err)
	}
	if id != "checkout-new" {
		t.Fatalf("persisted checkout id = %q, want checkout-new", id)
	}
}

func TestInitializeSessionRecreatesWhenFetchFails(t *testing.T) {
	var creates int32
	gw := &gatewayStub{
		fetchFn: func(context.Context, string) (*commerce.Checkout, error) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway timeout")
		},
		createFn: func(context.Context) (*commerce.Checkout, error) {
			atomic.AddInt32(&creates, 1)
			return &commerce.Checkout{ID: "checkout-new"}, nil
		},
	}
	store, sessions := newTestStore(t, gw)
	if err := sessions.SaveCheckoutID(context.Background(), "session-1", "checkout-stuck"); err != nil {
		t.Fatalf("SaveCheckoutID: %v", err)
	}

	if err := store.InitializeSession(context.Background()); err != nil {
		t.Fatalf("InitializeSession: %v", err)
	}
	if got := atomic.LoadInt32(&creates); got != 1 {
		t.Fatalf("expected a fresh checkout, creates = %d", got)
	}
	state := store.State()
	if state.Cart == nil || state.Cart.ID != "checkout-new" {
		t.Fatalf("expected fresh checkout in state, got %+v", state.Cart)
	}
	id, err := sessions.CheckoutID(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("CheckoutID: %v", err)
	}
	if id != "checkout-new" {
		t.Fatalf("persisted checkout id = %q, want checkout-new", id)
	}
}

func TestInitializeSessionCreateFailureSetsErrorState(t *testing.T) {
	gw := &gatewayStub{
		createFn: func(context.Context) (*commerce.Checkout, error) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "commerce gateway unavailable")
		},
	}
	store, _ := newTestStore(t, gw)

	err := store.InitializeSession(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	state := store.State()
	if state.Cart != nil {
		t.Fatalf("expected nil cart, got %+v", state.Cart)
	}
	if state.Err != "commerce gateway unavailable" {
		t.Fatalf("error state = %q", state.Err)
	}
}

func TestFetchProductsSuccess(t *testing.T) {
	gw := &gatewayStub{
		listFn: func(_ context.Context, limit int) ([]commerce.Product, error) {
			if limit != 20 {
				t.Fatalf("limit = %d, want default 20", limit)
			}
			return []commerce.Product{{ID: "p1", Title: "Sleep Gummies"}}, nil
		},
	}
	store, _ := newTestStore(t, gw)

	if err := store.FetchProducts(context.Background(), 0); err != nil {
		t.Fatalf("FetchProducts: %v", err)
	}
	state := store.State()
	if state.IsLoading {
		t.Fatal("loading flag still set after fetch")
	}
	if len(state.Products) != 1 || state.Products[0].ID != "p1" {
		t.Fatalf("unexpected products: %+v", state.Products)
	}
	if state.Err != "" {
		t.Fatalf("unexpected error state: %q", state.Err)
	}
}

func TestFetchProductsFailureKeepsPreviousProducts(t *testing.T) {
	var calls int32
	gw := &gatewayStub{
		listFn: func(context.Context, int) ([]commerce.Product, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				return []commerce.Product{{ID: "p1", Title: "Sleep Gummies"}}, nil
			}
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "network down")
		},
	}
	store, _ := newTestStore(t, gw)

	if err := store.FetchProducts(context.Background(), 5); err != nil {
		t.Fatalf("first FetchProducts: %v", err)
	}
	if err := store.FetchProducts(context.Background(), 5); err == nil {
		t.Fatal("expected error from second fetch")
	}

	state := store.State()
	if state.IsLoading {
		t.Fatal("loading flag still set after failed fetch")
	}
	if state.Err != "network down" {
		t.Fatalf("error state = %q, want network down", state.Err)
	}
	if len(state.Products) != 1 || state.Products[0].ID != "p1" {
		t.Fatalf("products changed on failure: %+v", state.Products)
	}
}

func TestFetchProductsDropsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	gw := &gatewayStub{
		listFn: func(context.Context, int) ([]commerce.Product, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				<-release
				return []commerce.Product{{ID: "stale", Title: "Stale"}}, nil
			}
			return []commerce.Product{{ID: "fresh", Title: "Fresh"}}, nil
		},
	}
	store, _ := newTestStore(t, gw)

	done := make(chan error, 1)
	go func() {
		done <- store.FetchProducts(context.Background(), 5)
	}()
	for atomic.LoadInt32(&calls) == 0 {
		time.Sleep(time.Millisecond)
	}

	if err := store.FetchProducts(context.Background(), 5); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	state := store.State()
	if len(state.Products) != 1 || state.Products[0].ID != "fresh" {
		t.Fatalf("stale response overwrote fresh products: %+v", state.Products)
	}
	if state.IsLoading {
		t.Fatal("loading flag still set")
	}
}

func TestFetchCollections(t *testing.T) {
	gw := &gatewayStub{
		collFn: func(_ context.Context, withProducts bool) ([]commerce.Collection, error) {
			if !withProducts {
				t.Fatal("expected withProducts=true")
			}
			return []commerce.Collection{{ID: "c1", Title: "Wellness"}}, nil
		},
	}
	store, _ := newTestStore(t, gw)

	if err := store.FetchCollections(context.Background()); err != nil {
		t.Fatalf("FetchCollections: %v", err)
	}
	state := store.State()
	if len(state.Collections) != 1 || state.Collections[0].ID != "c1" {
		t.Fatalf("unexpected collections: %+v", state.Collections)
	}
}

func TestAddLineItemReplacesCart(t *testing.T) {
	gw := &gatewayStub{
		createFn: func(context.Context) (*commerce.Checkout, error) {
			return &commerce.Checkout{ID: "checkout-1", LineItems: []commerce.LineItem{
				lineItem("li-stale", "Old Item", 1, "3.00"),
			}}, nil
		},
		addFn: func(_ context.Context, checkoutID, variantID string, quantity int) (*commerce.Checkout, error) {
			if checkoutID != "checkout-1" || variantID != "variant-x" || quantity != 2 {
				t.Fatalf("AddLineItem(%q, %q, %d)", checkoutID, variantID, quantity)
			}
			return &commerce.Checkout{ID: "checkout-1", LineItems: []commerce.LineItem{
				lineItem("li-1", "Sleep Gummies", 2, "10.00"),
			}}, nil
		},
	}
	store, _ := newTestStore(t, gw)
	if err := store.InitializeSession(context.Background()); err != nil {
		t.Fatalf("InitializeSession: %v", err)
	}

	updated, err := store.AddLineItem(context.Background(), "variant-x", 2)
	if err != nil {
		t.Fatalf("AddLineItem: %v", err)
	}
	state := store.State()
	if state.Cart != updated {
		t.Fatal("state cart is not the gateway result")
	}
	if len(state.Cart.LineItems) != 1 || state.Cart.LineItems[0].ID != "li-1" {
		t.Fatalf("cart was merged instead of replaced: %+v", state.Cart.LineItems)
	}
}

func TestAddLineItemWithoutCart(t *testing.T) {
	store, _ := newTestStore(t, &gatewayStub{})

	_, err := store.AddLineItem(context.Background(), "variant-x", 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if !pkgerrors.Is(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("error code = %v", err)
	}
	if store.State().Err == "" {
		t.Fatal("error state not recorded")
	}
}

func TestUpdateLineItemZeroQuantityRemoves(t *testing.T) {
	var removed bool
	gw := &gatewayStub{
		createFn: func(context.Context) (*commerce.Checkout, error) {
			return &commerce.Checkout{ID: "checkout-1"}, nil
		},
		removeFn: func(_ context.Context, checkoutID, lineItemID string) (*commerce.Checkout, error) {
			removed = true
			if lineItemID != "li-1" {
				t.Fatalf("removed %q, want li-1", lineItemID)
			}
			return &commerce.Checkout{ID: "checkout-1"}, nil
		},
	}
	store, _ := newTestStore(t, gw)
	if err := store.InitializeSession(context.Background()); err != nil {
		t.Fatalf("InitializeSession: %v", err)
	}

	if _, err := store.UpdateLineItem(context.Background(), "li-1", 0); err != nil {
		t.Fatalf("UpdateLineItem: %v", err)
	}
	if !removed {
		t.Fatal("zero quantity did not delegate to remove")
	}
}

func TestMutationFailureSetsErrorAndReturnsIt(t *testing.T) {
	gw := &gatewayStub{
		createFn: func(context.Context) (*commerce.Checkout, error) {
			return &commerce.Checkout{ID: "checkout-1", LineItems: []commerce.LineItem{
				lineItem("li-1", "Sleep Gummies", 1, "10.00"),
			}}, nil
		},
		updateFn: func(context.Context, string, string, int) (*commerce.Checkout, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already completed")
		},
	}
	store, _ := newTestStore(t, gw)
	if err := store.InitializeSession(context.Background()); err != nil {
		t.Fatalf("InitializeSession: %v", err)
	}

	_, err := store.UpdateLineItem(context.Background(), "li-1", 3)
	if err == nil {
		t.Fatal("expected error")
	}
	state := store.State()
	if state.Err != "checkout already completed" {
		t.Fatalf("error state = %q", state.Err)
	}
	if len(state.Cart.LineItems) != 1 {
		t.Fatalf("cart mutated on failure: %+v", state.Cart.LineItems)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	gw := &gatewayStub{
		listFn: func(context.Context, int) ([]commerce.Product, error) {
			return []commerce.Product{{ID: "p1", Title: "Sleep Gummies"}}, nil
		},
	}
	store, _ := newTestStore(t, gw)
	updates, cancel := store.Subscribe(8)
	defer cancel()

	if err := store.FetchProducts(context.Background(), 5); err != nil {
		t.Fatalf("FetchProducts: %v", err)
	}

	var sawProducts bool
	deadline := time.After(time.Second)
	for !sawProducts {
		select {
		case snapshot := <-updates:
			if len(snapshot.Products) == 1 {
				sawProducts = true
			}
		case <-deadline:
			t.Fatal("no snapshot with products arrived")
		}
	}
}

package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hopewellness/storefront-backend/api/middleware"
	"github.com/hopewellness/storefront-backend/internal/commerce"
	"github.com/hopewellness/storefront-backend/internal/storefront"
	"github.com/hopewellness/storefront-backend/pkg/config"
	"github.com/hopewellness/storefront-backend/pkg/logger"
	"github.com/hopewellness/storefront-backend/pkg/money"
)

type stubGateway struct {
	createFn func(ctx context.Context) (*commerce.Checkout, error)
	fetchFn  func(ctx context.Context, checkoutID string) (*commerce.Checkout, error)
	listFn   func(ctx context.Context, limit int) ([]commerce.Product, error)
	collFn   func(ctx context.Context, withProducts bool) ([]commerce.Collection, error)
	addFn    func(ctx context.Context, checkoutID, variantID string, quantity int) (*commerce.Checkout, error)
	updateFn func(ctx context.Context, checkoutID, lineItemID string, quantity int) (*commerce.Checkout, error)
	removeFn func(ctx context.Context, checkoutID, lineItemID string) (*commerce.Checkout, error)
}

func (g *stubGateway) CreateCheckout(ctx context.Context) (*commerce.Checkout, error) {
	if g.createFn == nil {
		return nil, errors.New("unexpected CreateCheckout call")
	}
	return g.createFn(ctx)
}

func (g *stubGateway) FetchCheckout(ctx context.Context, checkoutID string) (*commerce.Checkout, error) {
	if g.fetchFn == nil {
		return nil, errors.New("unexpected FetchCheckout call")
	}
	return g.fetchFn(ctx, checkoutID)
}

func (g *stubGateway) ListProducts(ctx context.Context, limit int) ([]commerce.Product, error) {
	if g.listFn == nil {
		return nil, errors.New("unexpected ListProducts call")
	}
	return g.listFn(ctx, limit)
}

func (g *stubGateway) ListCollections(ctx context.Context, withProducts bool) ([]commerce.Collection, error) {
	if g.collFn == nil {
		return nil, errors.New("unexpected ListCollections call")
	}
	return g.collFn(ctx, withProducts)
}

func (g *stubGateway) AddLineItem(ctx context.Context, checkoutID, variantID string, quantity int) (*commerce.Checkout, error) {
	if g.addFn == nil {
		return nil, errors.New("unexpected AddLineItem call")
	}
	return g.addFn(ctx, checkoutID, variantID, quantity)
}

func (g *stubGateway) UpdateLineItem(ctx context.Context, checkoutID, lineItemID string, quantity int) (*commerce.Checkout, error) {
	if g.updateFn == nil {
		return nil, errors.New("unexpected UpdateLineItem call")
	}
	return g.updateFn(ctx, checkoutID, lineItemID, quantity)
}

func (g *stubGateway) RemoveLineItem(ctx context.Context, checkoutID, lineItemID string) (*commerce.Checkout, error) {
	if g.removeFn == nil {
		return nil, errors.New("unexpected RemoveLineItem call")
	}
	return g.removeFn(ctx, checkoutID, lineItemID)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: config.AppEnvDev},
		Catalog: config.CatalogConfig{
			ProductFetchLimit: 20,
			PageSize:          12,
		},
	}
}

func newTestManager(t *testing.T, gw commerce.Gateway) *storefront.Manager {
	t.Helper()
	manager, err := storefront.NewManager(storefront.ManagerParams{
		Gateway:  gw,
		Sessions: storefront.NewMemorySessionStore(),
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return manager
}

func newSessionRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(middleware.WithSessionID(req.Context(), "session-1"))
}

func catalogProduct(id, title, productType, price string) commerce.Product {
	amount, _ := decimal.NewFromString(price)
	return commerce.Product{
		ID:          id,
		Title:       title,
		ProductType: productType,
		Variants: []commerce.Variant{{
			ID:    "variant-" + id,
			Price: money.Price{Amount: amount, CurrencyCode: "USD"},
		}},
	}
}

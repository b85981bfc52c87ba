package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hopewellness/storefront-backend/internal/commerce"
	"github.com/hopewellness/storefront-backend/internal/storefront"
	"github.com/hopewellness/storefront-backend/pkg/config"
	"github.com/hopewellness/storefront-backend/pkg/logger"
)

type noopGateway struct{}

func (noopGateway) CreateCheckout(context.Context) (*commerce.Checkout, error) {
	return &commerce.Checkout{ID: "checkout-1"}, nil
}
func (noopGateway) FetchCheckout(_ context.Context, id string) (*commerce.Checkout, error) {
	return &commerce.Checkout{ID: id}, nil
}
func (noopGateway) ListProducts(context.Context, int) ([]commerce.Product, error) {
	return nil, nil
}
func (noopGateway) ListCollections(context.Context, bool) ([]commerce.Collection, error) {
	return nil, nil
}
func (noopGateway) AddLineItem(_ context.Context, id, _ string, _ int) (*commerce.Checkout, error) {
	return &commerce.Checkout{ID: id}, nil
}
func (noopGateway) UpdateLineItem(_ context.Context, id, _ string, _ int) (*commerce.Checkout, error) {
	return &commerce.Checkout{ID: id}, nil
}
func (noopGateway) RemoveLineItem(_ context.Context, id, _ string) (*commerce.Checkout, error) {
	return &commerce.Checkout{ID: id}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	manager, err := storefront.NewManager(storefront.ManagerParams{
		Gateway:  noopGateway{},
		Sessions: storefront.NewMemorySessionStore(),
		Logger:   logg,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	cfg := &config.Config{
		App:     config.AppConfig{Env: config.AppEnvDev},
		Catalog: config.CatalogConfig{ProductFetchLimit: 20, PageSize: 12},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	return NewRouter(cfg, logg, nil, manager, prometheus.NewRegistry())
}

func TestRouterHealthLive(t *testing.T) {
	router := newTestRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if env := resp.Header().Get("X-Storefront-Env"); env != config.AppEnvDev {
		t.Fatalf("env header = %q", env)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRouterMintsSessionID(t *testing.T) {
	router := newTestRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/session/init", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("X-Session-Id") == "" {
		t.Fatal("no session id issued")
	}
}

func TestRouterReusesProvidedSessionID(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	req.Header.Set("X-Session-Id", "session-abc")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("X-Session-Id"); got != "session-abc" {
		t.Fatalf("session id = %q, want session-abc", got)
	}
}

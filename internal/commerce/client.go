package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/hopewellness/storefront-backend/pkg/config"
	pkgerrors "github.com/hopewellness/storefront-backend/pkg/errors"
	"github.com/hopewellness/storefront-backend/pkg/logger"
	"github.com/hopewellness/storefront-backend/pkg/metrics"
)

const (
	accessTokenHeader    = "X-Storefront-Access-Token"
	idempotencyKeyHeader = "Idempotency-Key"

	opCreateCheckout  = "create_checkout"
	opFetchCheckout   = "fetch_checkout"
	opListProducts    = "list_products"
	opListCollections = "list_collections"
	opAddLineItem     = "add_line_item"
	opUpdateLineItem  = "update_line_item"
	opRemoveLineItem  = "remove_line_item"
)

var (
	errAccessTokenRequired = errors.New("gateway access token is required")
	errBaseURLRequired     = errors.New("gateway base url is required")
	errLoggerRequired      = errors.New("gateway logger is required")
)

// Client talks to the hosted platform's storefront REST API with
// centralized auth, logging, retry, idempotency, and error mapping.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	accessToken   string
	retryAttempts uint64
	retryBase     time.Duration
	logger        *logger.Logger
	metrics       *metrics.GatewayMetrics
}

var _ Gateway = (*Client)(nil)

// NewClient initializes the gateway wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.GatewayConfig, logg *logger.Logger, gm *metrics.GatewayMetrics) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = 100 * time.Millisecond
	}

	c := &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		accessToken:   accessToken,
		retryAttempts: uint64(attempts),
		retryBase:     retryBase,
		logger:        logg,
		metrics:       gm,
	}

	logg.Info(ctx, "commerce gateway client initialized")
	return c, nil
}

// CreateCheckout opens a fresh, empty checkout session.
func (c *Client) CreateCheckout(ctx context.Context) (*Checkout, error) {
	var resp checkoutEnvelope
	if err := c.call(ctx, opCreateCheckout, http.MethodPost, "/checkouts", nil, &resp, false); err != nil {
		return nil, err
	}
	return resp.Checkout, nil
}

// FetchCheckout loads an existing checkout by id. A completed checkout is
// returned as-is; resuming it is the caller's decision.
func (c *Client) FetchCheckout(ctx context.Context, checkoutID string) (*Checkout, error) {
	if strings.TrimSpace(checkoutID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout id is required")
	}
	var resp checkoutEnvelope
	path := "/checkouts/" + checkoutID
	if err := c.call(ctx, opFetchCheckout, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Checkout, nil
}

// ListProducts returns up to limit products in catalog order.
func (c *Client) ListProducts(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product limit must be positive")
	}
	var resp productsEnvelope
	path := "/products?limit=" + strconv.Itoa(limit)
	if err := c.call(ctx, opListProducts, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// ListCollections returns merchandising collections, optionally with their
// member products embedded.
func (c *Client) ListCollections(ctx context.Context, withProducts bool) ([]Collection, error) {
	var resp collectionsEnvelope
	path := "/collections"
	if withProducts {
		path += "?with_products=true"
	}
	if err := c.call(ctx, opListCollections, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Collections, nil
}

// AddLineItem appends a variant to the checkout. The gateway merges into an
// existing line for the same variant per its own rules.
func (c *Client) AddLineItem(ctx context.Context, checkoutID, variantID string, quantity int) (*Checkout, error) {
	if strings.TrimSpace(checkoutID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout id is required")
	}
	if strings.TrimSpace(variantID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	body := lineItemRequest{VariantID: variantID, Quantity: quantity}
	var resp checkoutEnvelope
	path := "/checkouts/" + checkoutID + "/line_items"
	if err := c.call(ctx, opAddLineItem, http.MethodPost, path, body, &resp, false); err != nil {
		return nil, err
	}
	return resp.Checkout, nil
}

// UpdateLineItem sets a line item's quantity.
func (c *Client) UpdateLineItem(ctx context.Context, checkoutID, lineItemID string, quantity int) (*Checkout, error) {
	if strings.TrimSpace(checkoutID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout id is required")
	}
	if strings.TrimSpace(lineItemID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item id is required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	body := lineItemRequest{Quantity: quantity}
	var resp checkoutEnvelope
	path := "/checkouts/" + checkoutID + "/line_items/" + lineItemID
	if err := c.call(ctx, opUpdateLineItem, http.MethodPut, path, body, &resp, false); err != nil {
		return nil, err
	}
	return resp.Checkout, nil
}

// RemoveLineItem deletes a line item from the checkout.
func (c *Client) RemoveLineItem(ctx context.Context, checkoutID, lineItemID string) (*Checkout, error) {
	if strings.TrimSpace(checkoutID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout id is required")
	}
	if strings.TrimSpace(lineItemID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line item id is required")
	}
	var resp checkoutEnvelope
	path := "/checkouts/" + checkoutID + "/line_items/" + lineItemID
	if err := c.call(ctx, opRemoveLineItem, http.MethodDelete, path, nil, &resp, false); err != nil {
		return nil, err
	}
	return resp.Checkout, nil
}

type checkoutEnvelope struct {
	Checkout *Checkout `json:"checkout"`
}

type productsEnvelope struct {
	Products []Product `json:"products"`
}

type collectionsEnvelope struct {
	Collections []Collection `json:"collections"`
}

type lineItemRequest struct {
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// call runs one gateway request. Idempotent reads are retried with
// fibonacci backoff on retryable failures; mutations get a single attempt
// plus an idempotency key so the platform can dedupe on its side.
func (c *Client) call(ctx context.Context, op, method, path string, body, out any, idempotent bool) error {
	start := time.Now()
	c.log(ctx, "request", op, map[string]any{"method": method, "path": path})

	attempt := func(ctx context.Context) error {
		err := c.do(ctx, method, path, body, out)
		if err != nil && idempotent && pkgerrors.Retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	}

	var err error
	if idempotent && c.retryAttempts > 1 {
		backoff := retry.WithMaxRetries(c.retryAttempts-1, retry.NewFibonacci(c.retryBase))
		err = retry.Do(ctx, backoff, attempt)
	} else {
		err = attempt(ctx)
	}

	c.observe(op, time.Since(start), err)
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return err
	}

	c.log(ctx, "response", op, map[string]any{"duration_ms": time.Since(start).Milliseconds()})
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(accessTokenHeader, c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set(idempotencyKeyHeader, uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gateway unreachable")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return c.mapStatusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway response")
	}
	return nil
}

func (c *Client) mapStatusError(resp *http.Response) error {
	code := domainCodeForStatus(resp.StatusCode)
	message := fmt.Sprintf("gateway returned %d", resp.StatusCode)

	var payload struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && len(payload.Errors) > 0 && payload.Errors[0].Message != "" {
		message = payload.Errors[0].Message
	}

	return pkgerrors.New(code, message)
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound, http.StatusGone:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func (c *Client) observe(op string, duration time.Duration, err error) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveDuration(op, duration)
	if err != nil {
		c.metrics.IncFailure(op)
		return
	}
	c.metrics.IncSuccess(op)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("gateway %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("gateway %s", phase))
	}
}

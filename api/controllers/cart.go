package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hopewellness/storefront-backend/api/responses"
	"github.com/hopewellness/storefront-backend/api/validators"
	"github.com/hopewellness/storefront-backend/internal/commerce"
	"github.com/hopewellness/storefront-backend/internal/storefront"
	pkgerrors "github.com/hopewellness/storefront-backend/pkg/errors"
	"github.com/hopewellness/storefront-backend/pkg/logger"
	"github.com/hopewellness/storefront-backend/pkg/money"
)

type cartResponse struct {
	CheckoutID  string             `json:"checkout_id,omitempty"`
	WebURL      string             `json:"web_url,omitempty"`
	Items       []cartItemResponse `json:"items"`
	Subtotal    string             `json:"subtotal"`
	ItemCount   int                `json:"item_count"`
	HiddenItems int                `json:"hidden_items,omitempty"`
	Completed   bool               `json:"completed"`
}

type cartItemResponse struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Quantity  int         `json:"quantity"`
	VariantID string      `json:"variant_id"`
	Price     money.Price `json:"price"`
	LineTotal string      `json:"line_total"`
	ImageSrc  string      `json:"image_src,omitempty"`
}

// CartShow returns the session's cart view.
func CartShow(manager *storefront.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, _, err := resolveStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store.CartSummary(r.Context())))
	}
}

type addItemRequest struct {
	VariantID string `json:"variant_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1"`
}

// CartAddItem adds a variant to the cart. Quantity defaults to one.
func CartAddItem(manager *storefront.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, _, err := resolveStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := store.AddLineItem(r.Context(), payload.VariantID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store.CartSummary(r.Context())))
	}
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// CartUpdateItem sets a line item's quantity; zero removes it.
func CartUpdateItem(manager *storefront.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, _, err := resolveStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineItemID := chi.URLParam(r, "lineItemID")
		if lineItemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line item id is required"))
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := store.UpdateLineItem(r.Context(), lineItemID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store.CartSummary(r.Context())))
	}
}

// CartRemoveItem deletes a line item from the cart.
func CartRemoveItem(manager *storefront.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, _, err := resolveStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lineItemID := chi.URLParam(r, "lineItemID")
		if lineItemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "line item id is required"))
			return
		}

		if _, err := store.RemoveLineItem(r.Context(), lineItemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store.CartSummary(r.Context())))
	}
}

func newCartResponse(summary storefront.CartSummary) cartResponse {
	resp := cartResponse{
		Items:       make([]cartItemResponse, 0, len(summary.Items)),
		Subtotal:    summary.Subtotal.StringFixed(2),
		ItemCount:   summary.ItemCount,
		HiddenItems: summary.HiddenItems,
	}
	if summary.Checkout != nil {
		resp.CheckoutID = summary.Checkout.ID
		resp.WebURL = summary.Checkout.WebURL
		resp.Completed = summary.Checkout.Completed()
	}
	for _, item := range summary.Items {
		resp.Items = append(resp.Items, newCartItemResponse(item))
	}
	return resp
}

func newCartItemResponse(item commerce.LineItem) cartItemResponse {
	resp := cartItemResponse{
		ID:       item.ID,
		Title:    item.Title,
		Quantity: item.Quantity,
	}
	if item.Variant != nil {
		resp.VariantID = item.Variant.ID
		resp.Price = item.Variant.Price
		resp.LineTotal = item.Variant.Price.Amount.Mul(decimal.NewFromInt(int64(item.Quantity))).StringFixed(2)
		if item.Variant.Image != nil {
			resp.ImageSrc = item.Variant.Image.Src
		}
	}
	return resp
}

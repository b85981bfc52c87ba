package storefront

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/hopewellness/storefront-backend/internal/commerce"
)

// IsValidLineItem reports whether a line item is renderable. Items missing
// an id, title, or variant, with a non-positive quantity, or with a
// non-positive price are hidden from views but never removed from the
// checkout itself.
func IsValidLineItem(item commerce.LineItem) bool {
	if item.ID == "" || item.Title == "" {
		return false
	}
	if item.Variant == nil {
		return false
	}
	if item.Quantity <= 0 {
		return false
	}
	return item.Variant.Price.IsPositive()
}

// ValidLineItems filters items down to the renderable ones, preserving order.
func ValidLineItems(items []commerce.LineItem) []commerce.LineItem {
	valid := make([]commerce.LineItem, 0, len(items))
	for _, item := range items {
		if IsValidLineItem(item) {
			valid = append(valid, item)
		}
	}
	return valid
}

// Subtotal sums price times quantity over the valid line items.
func Subtotal(items []commerce.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if !IsValidLineItem(item) {
			continue
		}
		line := item.Variant.Price.Amount.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total
}

// ItemCount sums quantities over the valid line items.
func ItemCount(items []commerce.LineItem) int {
	count := 0
	for _, item := range items {
		if !IsValidLineItem(item) {
			continue
		}
		count += item.Quantity
	}
	return count
}

// CartSummary is the render-ready view of a cart.
type CartSummary struct {
	Checkout    *commerce.Checkout
	Items       []commerce.LineItem
	Subtotal    decimal.Decimal
	ItemCount   int
	HiddenItems int
}

// CartSummary builds the view of the current cart: valid items only, with
// subtotal and count computed over them. Malformed items stay in the
// underlying checkout and are logged so the data problem is visible.
func (s *Store) CartSummary(ctx context.Context) CartSummary {
	state := s.State()
	summary := CartSummary{Checkout: state.Cart, Subtotal: decimal.Zero}
	if state.Cart == nil {
		return summary
	}
	summary.Items = ValidLineItems(state.Cart.LineItems)
	summary.Subtotal = Subtotal(state.Cart.LineItems)
	summary.ItemCount = ItemCount(state.Cart.LineItems)
	summary.HiddenItems = len(state.Cart.LineItems) - len(summary.Items)
	if summary.HiddenItems > 0 {
		ctx = s.logg.WithCheckoutID(ctx, state.Cart.ID)
		ctx = s.logg.WithField(ctx, "hidden_items", summary.HiddenItems)
		s.logg.Warn(ctx, "hiding malformed line items from cart view")
	}
	return summary
}

package commerce

import "context"

// Gateway is the hosted commerce platform's client surface. It is the only
// external collaborator of the storefront: products, checkout sessions,
// inventory, and payment all live behind it. Every mutation returns a full
// replacement Checkout; callers must never assume partial success.
type Gateway interface {
	CreateCheckout(ctx context.Context) (*Checkout, error)
	FetchCheckout(ctx context.Context, checkoutID string) (*Checkout, error)
	ListProducts(ctx context.Context, limit int) ([]Product, error)
	ListCollections(ctx context.Context, withProducts bool) ([]Collection, error)
	AddLineItem(ctx context.Context, checkoutID, variantID string, quantity int) (*Checkout, error)
	UpdateLineItem(ctx context.Context, checkoutID, lineItemID string, quantity int) (*Checkout, error)
	RemoveLineItem(ctx context.Context, checkoutID, lineItemID string) (*Checkout, error)
}

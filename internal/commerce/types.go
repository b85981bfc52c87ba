package commerce

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hopewellness/storefront-backend/pkg/money"
)

// Image is an opaque URL the gateway serves product media from.
type Image struct {
	Src string `json:"src"`
}

// Variant is one purchasable option of a product. Price arrives in any of
// the gateway's wire shapes and is normalized during decode.
type Variant struct {
	ID     string      `json:"id"`
	Title  string      `json:"title,omitempty"`
	SKU    string      `json:"sku,omitempty"`
	Price  money.Price `json:"price"`
	Weight float64     `json:"weight,omitempty"`
	Image  *Image      `json:"image,omitempty"`
}

// Product is a catalog entry. A product with no variants is browsable but
// not purchasable.
type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ProductType string    `json:"productType,omitempty"`
	Images      []Image   `json:"images"`
	Variants    []Variant `json:"variants"`
}

// RepresentativePrice is the first variant's normalized price, used for
// catalog-level filtering, sorting, and list display.
func (p Product) RepresentativePrice() decimal.Decimal {
	if len(p.Variants) == 0 {
		return decimal.Zero
	}
	return p.Variants[0].Price.Amount
}

// LineItem is one variant-plus-quantity entry inside a checkout. The
// gateway assigns the id; variant data is referenced, not owned.
type LineItem struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Quantity int      `json:"quantity"`
	Variant  *Variant `json:"variant"`
}

// Checkout is the gateway-issued cart/session object. The gateway is
// authoritative for line items and totals; the storefront never patches a
// checkout locally.
type Checkout struct {
	ID          string      `json:"id"`
	LineItems   []LineItem  `json:"lineItems"`
	TotalPrice  money.Price `json:"totalPrice"`
	WebURL      string      `json:"webUrl"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}

// Completed reports whether the checkout has already been paid for and can
// no longer be mutated or resumed.
func (c *Checkout) Completed() bool {
	return c != nil && c.CompletedAt != nil
}

// Collection groups products for merchandising pages.
type Collection struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Products    []Product `json:"products,omitempty"`
}

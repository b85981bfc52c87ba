// Package catalog derives the product view a shopper sees: filter, sort,
// paginate. Everything here is pure; timing concerns live in the Debouncer.
package catalog

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hopewellness/storefront-backend/internal/commerce"
)

type SortKey string

const (
	SortNameAsc   SortKey = "name"
	SortPriceAsc  SortKey = "price-low"
	SortPriceDesc SortKey = "price-high"
)

// CategoryAll matches every product type.
const CategoryAll = "all"

// DefaultPageSize is the catalog grid size when none is configured.
const DefaultPageSize = 12

// FilterSpec describes one catalog query. Zero values are unconstrained:
// empty search matches everything, empty category behaves like CategoryAll,
// nil price bounds are open-ended.
type FilterSpec struct {
	Search   string
	Category string
	Sort     SortKey
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Page     int
	PageSize int
}

// View is the derived, never-stored result of applying a FilterSpec.
type View struct {
	Products     []commerce.Product
	Page         int
	PageSize     int
	TotalMatched int
	TotalPages   int
}

// Apply filters, sorts, and paginates the product list. The sort is stable:
// products that compare equal keep their original relative order.
func Apply(products []commerce.Product, spec FilterSpec) View {
	matched := filter(products, spec)
	sortProducts(matched, spec.Sort)

	pageSize := spec.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := spec.Page
	if page < 1 {
		page = 1
	}

	totalPages := (len(matched) + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	return View{
		Products:     matched[start:end],
		Page:         page,
		PageSize:     pageSize,
		TotalMatched: len(matched),
		TotalPages:   totalPages,
	}
}

func filter(products []commerce.Product, spec FilterSpec) []commerce.Product {
	search := strings.ToLower(strings.TrimSpace(spec.Search))
	category := strings.TrimSpace(spec.Category)

	matched := make([]commerce.Product, 0, len(products))
	for _, product := range products {
		if !matchesSearch(product, search) {
			continue
		}
		if !matchesCategory(product, category) {
			continue
		}
		if !withinPriceBounds(product.RepresentativePrice(), spec.MinPrice, spec.MaxPrice) {
			continue
		}
		matched = append(matched, product)
	}
	return matched
}

func matchesSearch(product commerce.Product, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(product.Title), search) ||
		strings.Contains(strings.ToLower(product.Description), search)
}

func matchesCategory(product commerce.Product, category string) bool {
	if category == "" || strings.EqualFold(category, CategoryAll) {
		return true
	}
	return product.ProductType == category
}

func withinPriceBounds(price decimal.Decimal, min, max *decimal.Decimal) bool {
	if min != nil && price.LessThan(*min) {
		return false
	}
	if max != nil && price.GreaterThan(*max) {
		return false
	}
	return true
}

func sortProducts(products []commerce.Product, key SortKey) {
	switch key {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].RepresentativePrice().LessThan(products[j].RepresentativePrice())
		})
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].RepresentativePrice().GreaterThan(products[j].RepresentativePrice())
		})
	default:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Title < products[j].Title
		})
	}
}

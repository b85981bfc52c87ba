package controllers

import (
	"net/http"

	"github.com/hopewellness/storefront-backend/api/responses"
	"github.com/hopewellness/storefront-backend/api/validators"
	"github.com/hopewellness/storefront-backend/internal/catalog"
	"github.com/hopewellness/storefront-backend/internal/commerce"
	"github.com/hopewellness/storefront-backend/internal/storefront"
	"github.com/hopewellness/storefront-backend/pkg/config"
	"github.com/hopewellness/storefront-backend/pkg/logger"
)

type productsResponse struct {
	Products     []productResponse `json:"products"`
	Page         int               `json:"page"`
	PageSize     int               `json:"page_size"`
	TotalMatched int               `json:"total_matched"`
	TotalPages   int               `json:"total_pages"`
	Error        string            `json:"error,omitempty"`
}

type productResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	ProductType string            `json:"product_type,omitempty"`
	Price       string            `json:"price"`
	Images      []string          `json:"images,omitempty"`
	Variants    []variantResponse `json:"variants,omitempty"`
}

type variantResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Price    string `json:"price"`
	ImageSrc string `json:"image_src,omitempty"`
}

// ProductsIndex serves the catalog grid. Products are fetched from the
// gateway on first use per session and cached in session state; pass
// refresh=true to force a refetch. Filtering, sorting, and pagination all
// happen in-process against the cached list.
func ProductsIndex(manager *storefront.Manager, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, _, err := resolveStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		spec, err := filterSpecFromQuery(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		refresh, err := validators.ParseQueryBool(r, "refresh", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if refresh || len(store.State().Products) == 0 {
			if fetchErr := store.FetchProducts(r.Context(), cfg.Catalog.ProductFetchLimit); fetchErr != nil && len(store.State().Products) == 0 {
				responses.WriteError(r.Context(), logg, w, fetchErr)
				return
			}
		}

		state := store.State()
		view := catalog.Apply(state.Products, spec)
		responses.WriteSuccess(w, newProductsResponse(view, state.Err))
	}
}

func filterSpecFromQuery(r *http.Request, cfg *config.Config) (catalog.FilterSpec, error) {
	spec := catalog.FilterSpec{
		Search:   validators.ParseQueryString(r, "search"),
		Category: validators.ParseQueryString(r, "category"),
		Sort:     catalog.SortKey(validators.ParseQueryString(r, "sort")),
		PageSize: cfg.Catalog.PageSize,
	}
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
	if err != nil {
		return catalog.FilterSpec{}, err
	}
	spec.Page = page

	pageSize, err := validators.ParseQueryInt(r, "page_size", spec.PageSize, 1, 100)
	if err != nil {
		return catalog.FilterSpec{}, err
	}
	spec.PageSize = pageSize

	if spec.MinPrice, err = validators.ParseQueryDecimal(r, "min_price"); err != nil {
		return catalog.FilterSpec{}, err
	}
	if spec.MaxPrice, err = validators.ParseQueryDecimal(r, "max_price"); err != nil {
		return catalog.FilterSpec{}, err
	}
	return spec, nil
}

func newProductsResponse(view catalog.View, errMsg string) productsResponse {
	resp := productsResponse{
		Products:     make([]productResponse, 0, len(view.Products)),
		Page:         view.Page,
		PageSize:     view.PageSize,
		TotalMatched: view.TotalMatched,
		TotalPages:   view.TotalPages,
		Error:        errMsg,
	}
	for _, product := range view.Products {
		resp.Products = append(resp.Products, newProductResponse(product))
	}
	return resp
}

func newProductResponse(product commerce.Product) productResponse {
	resp := productResponse{
		ID:          product.ID,
		Title:       product.Title,
		Description: product.Description,
		ProductType: product.ProductType,
		Price:       product.RepresentativePrice().StringFixed(2),
	}
	for _, image := range product.Images {
		resp.Images = append(resp.Images, image.Src)
	}
	for _, variant := range product.Variants {
		vr := variantResponse{
			ID:    variant.ID,
			Title: variant.Title,
			Price: variant.Price.Amount.StringFixed(2),
		}
		if variant.Image != nil {
			vr.ImageSrc = variant.Image.Src
		}
		resp.Variants = append(resp.Variants, vr)
	}
	return resp
}

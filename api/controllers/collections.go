package controllers

import (
	"net/http"

	"github.com/hopewellness/storefront-backend/api/responses"
	"github.com/hopewellness/storefront-backend/internal/commerce"
	"github.com/hopewellness/storefront-backend/internal/storefront"
	"github.com/hopewellness/storefront-backend/pkg/logger"
)

type collectionResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Products    []productResponse `json:"products,omitempty"`
}

// CollectionsIndex serves merchandising collections with their products.
func CollectionsIndex(manager *storefront.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, _, err := resolveStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if len(store.State().Collections) == 0 {
			if fetchErr := store.FetchCollections(r.Context()); fetchErr != nil {
				responses.WriteError(r.Context(), logg, w, fetchErr)
				return
			}
		}

		state := store.State()
		payload := make([]collectionResponse, 0, len(state.Collections))
		for _, collection := range state.Collections {
			payload = append(payload, newCollectionResponse(collection))
		}
		responses.WriteSuccess(w, payload)
	}
}

func newCollectionResponse(collection commerce.Collection) collectionResponse {
	resp := collectionResponse{
		ID:          collection.ID,
		Title:       collection.Title,
		Description: collection.Description,
	}
	for _, product := range collection.Products {
		resp.Products = append(resp.Products, newProductResponse(product))
	}
	return resp
}

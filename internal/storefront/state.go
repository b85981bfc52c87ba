package storefront

import "github.com/hopewellness/storefront-backend/internal/commerce"

// State is the single source of truth a storefront session renders from.
// Only the Store mutates it; views receive copies.
type State struct {
	Products    []commerce.Product
	Collections []commerce.Collection
	Cart        *commerce.Checkout
	IsLoading   bool
	Err         string
}

type actionType string

const (
	actionSetLoading     actionType = "SET_LOADING"
	actionSetProducts    actionType = "SET_PRODUCTS"
	actionSetCollections actionType = "SET_COLLECTIONS"
	actionSetCart        actionType = "SET_CART"
	actionSetError       actionType = "SET_ERROR"
	actionClearError     actionType = "CLEAR_ERROR"
)

type action struct {
	typ         actionType
	loading     bool
	products    []commerce.Product
	collections []commerce.Collection
	cart        *commerce.Checkout
	err         string
}

// reduce is the pure state transition. Loading products and cart success
// both clear the loading flag; errors clear it too so a failed fetch never
// leaves the UI stuck.
func reduce(state State, act action) State {
	switch act.typ {
	case actionSetLoading:
		state.IsLoading = act.loading
	case actionSetProducts:
		state.Products = act.products
		state.IsLoading = false
	case actionSetCollections:
		state.Collections = act.collections
	case actionSetCart:
		state.Cart = act.cart
	case actionSetError:
		state.Err = act.err
		state.IsLoading = false
	case actionClearError:
		state.Err = ""
	}
	return state
}

package storefront

import (
	"testing"

	"github.com/hopewellness/storefront-backend/internal/commerce"
)

func TestReduceTransitions(t *testing.T) {
	var state State

	state = reduce(state, action{typ: actionSetLoading, loading: true})
	if !state.IsLoading {
		t.Fatal("loading flag not set")
	}

	products := []commerce.Product{{ID: "p1", Title: "Sleep Gummies"}}
	state = reduce(state, action{typ: actionSetProducts, products: products})
	if len(state.Products) != 1 {
		t.Fatalf("products = %+v", state.Products)
	}
	if state.IsLoading {
		t.Fatal("setting products did not clear loading")
	}

	state = reduce(state, action{typ: actionSetLoading, loading: true})
	state = reduce(state, action{typ: actionSetError, err: "boom"})
	if state.Err != "boom" {
		t.Fatalf("err = %q", state.Err)
	}
	if state.IsLoading {
		t.Fatal("setting error did not clear loading")
	}
	if len(state.Products) != 1 {
		t.Fatal("error wiped products")
	}

	state = reduce(state, action{typ: actionClearError})
	if state.Err != "" {
		t.Fatalf("err = %q after clear", state.Err)
	}

	cart := &commerce.Checkout{ID: "checkout-1"}
	state = reduce(state, action{typ: actionSetCart, cart: cart})
	if state.Cart != cart {
		t.Fatal("cart not replaced")
	}

	collections := []commerce.Collection{{ID: "c1"}}
	state = reduce(state, action{typ: actionSetCollections, collections: collections})
	if len(state.Collections) != 1 {
		t.Fatalf("collections = %+v", state.Collections)
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	before := State{Err: "old"}
	after := reduce(before, action{typ: actionClearError})
	if before.Err != "old" {
		t.Fatal("reduce mutated its input")
	}
	if after.Err != "" {
		t.Fatal("reduce did not apply the action")
	}
}

package controllers

import (
	"net/http"

	"github.com/hopewellness/storefront-backend/api/middleware"
	"github.com/hopewellness/storefront-backend/api/responses"
	"github.com/hopewellness/storefront-backend/internal/storefront"
	pkgerrors "github.com/hopewellness/storefront-backend/pkg/errors"
	"github.com/hopewellness/storefront-backend/pkg/logger"
)

type sessionResponse struct {
	SessionID  string `json:"session_id"`
	CheckoutID string `json:"checkout_id,omitempty"`
	WebURL     string `json:"web_url,omitempty"`
	Completed  bool   `json:"completed"`
	Error      string `json:"error,omitempty"`
}

func resolveStore(r *http.Request, manager *storefront.Manager) (*storefront.Store, string, error) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "missing session id")
	}
	store, err := manager.Store(sessionID)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving session store")
	}
	return store, sessionID, nil
}

// SessionInit resumes or creates the session's checkout. Gateway failures
// are reported inside the payload so the storefront still renders; the
// catalog does not depend on a live cart.
func SessionInit(manager *storefront.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, sessionID, err := resolveStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.InitializeSession(r.Context()); err != nil && logg != nil {
			logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "session initialization failed")
		}
		responses.WriteSuccess(w, newSessionResponse(sessionID, store))
	}
}

// SessionShow returns the current session view without side effects.
func SessionShow(manager *storefront.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, sessionID, err := resolveStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(sessionID, store))
	}
}

// SessionClearError dismisses the session's recorded error, the way a
// client dismisses an error banner.
func SessionClearError(manager *storefront.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, sessionID, err := resolveStore(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.ClearError()
		responses.WriteSuccess(w, newSessionResponse(sessionID, store))
	}
}

func newSessionResponse(sessionID string, store *storefront.Store) sessionResponse {
	state := store.State()
	resp := sessionResponse{SessionID: sessionID, Error: state.Err}
	if state.Cart != nil {
		resp.CheckoutID = state.Cart.ID
		resp.WebURL = state.Cart.WebURL
		resp.Completed = state.Cart.Completed()
	}
	return resp
}

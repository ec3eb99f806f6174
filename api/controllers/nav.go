package controllers

import (
	"net/http"

	"github.com/telemart/storefront-gateway/api/middleware"
	"github.com/telemart/storefront-gateway/api/responses"
	"github.com/telemart/storefront-gateway/api/validators"
	"github.com/telemart/storefront-gateway/internal/nav"
	pkgerrors "github.com/telemart/storefront-gateway/pkg/errors"
	"github.com/telemart/storefront-gateway/pkg/logger"
)

type visitRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

type resetRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

type historyView struct {
	History   []string `json:"history"`
	CanGoBack bool     `json:"can_go_back"`
}

// RecordVisit appends a resolved URL to the user's navigation history. The
// webview reports the URL it actually landed on, after redirects.
func RecordVisit(store *nav.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload visitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := store.Visit(r.Context(), user.ID, payload.URL)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, historyView{History: history, CanGoBack: len(history) >= 2})
	}
}

// NavigateBack pops the history and tells the webview where to go, or that
// native back should take over.
func NavigateBack(store *nav.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		result, err := store.Back(r.Context(), user.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ResetHistory collapses the history to the given URL.
func ResetHistory(store *nav.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload resetRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.Reset(r.Context(), user.ID, payload.URL); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, historyView{History: []string{payload.URL}, CanGoBack: false})
	}
}

// GetHistory returns the user's current navigation history.
func GetHistory(store *nav.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		history, err := store.History(r.Context(), user.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, historyView{History: history, CanGoBack: len(history) >= 2})
	}
}

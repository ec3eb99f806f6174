package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/telemart/storefront-gateway/api/middleware"
	"github.com/telemart/storefront-gateway/api/responses"
	"github.com/telemart/storefront-gateway/api/validators"
	"github.com/telemart/storefront-gateway/internal/cart"
	"github.com/telemart/storefront-gateway/internal/notify"
	"github.com/telemart/storefront-gateway/internal/upstream"
	pkgerrors "github.com/telemart/storefront-gateway/pkg/errors"
	"github.com/telemart/storefront-gateway/pkg/logger"
)

type cartView struct {
	Items   []upstream.LineItem `json:"items"`
	Summary *cart.Summary       `json:"summary"`
	Loaded  bool                `json:"loaded"`
	Syncing bool                `json:"syncing"`
}

type addItemRequest struct {
	ProductID     int                  `json:"product_id" validate:"required,min=1"`
	Quantity      int                  `json:"quantity" validate:"required,min=1"`
	VariationID   int                  `json:"variation_id" validate:"omitempty,min=1"`
	Name          string               `json:"name"`
	Price         string               `json:"price" validate:"required,price"`
	ImageURL      string               `json:"image_url"`
	StockQuantity *int                 `json:"stock_quantity"`
	StockStatus   upstream.StockStatus `json:"stock_status"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// GetCart renders the user's cart with its price summary.
func GetCart(manager *cart.Manager, toasts *notify.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := userCart(r, manager, toasts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, logg, store)
	}
}

// AddCartItem merges a line into the cart and responds with the new state.
func AddCartItem(manager *cart.Manager, toasts *notify.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := userCart(r, manager, toasts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.AddItem(upstream.LineItem{
			ProductID:     payload.ProductID,
			Quantity:      payload.Quantity,
			VariationID:   payload.VariationID,
			Name:          payload.Name,
			Price:         payload.Price,
			ImageURL:      payload.ImageURL,
			StockQuantity: payload.StockQuantity,
			StockStatus:   payload.StockStatus,
		})
		writeCart(w, r, logg, store)
	}
}

// UpdateCartItem sets a line's quantity; zero removes the line.
func UpdateCartItem(manager *cart.Manager, toasts *notify.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := strconv.Atoi(chi.URLParam(r, "productID"))
		if err != nil || productID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := userCart(r, manager, toasts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.UpdateQuantity(productID, payload.Quantity)
		writeCart(w, r, logg, store)
	}
}

// RemoveCartItem drops a line entirely.
func RemoveCartItem(manager *cart.Manager, toasts *notify.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := strconv.Atoi(chi.URLParam(r, "productID"))
		if err != nil || productID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
			return
		}

		store, err := userCart(r, manager, toasts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.RemoveItem(productID)
		writeCart(w, r, logg, store)
	}
}

// ClearCart empties the cart.
func ClearCart(manager *cart.Manager, toasts *notify.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := userCart(r, manager, toasts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.Clear()
		writeCart(w, r, logg, store)
	}
}

func userCart(r *http.Request, manager *cart.Manager, toasts *notify.Registry) (*cart.Store, error) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	launch := middleware.LaunchFromContext(r.Context())
	return manager.StoreFor(r.Context(), user.ID, launch, toasts.For(user.ID)), nil
}

func writeCart(w http.ResponseWriter, r *http.Request, logg *logger.Logger, store *cart.Store) {
	items := store.Items()
	summary, err := cart.Summarize(items, nil)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, cartView{
		Items:   items,
		Summary: summary,
		Loaded:  store.Loaded(),
		Syncing: store.Syncing(),
	})
}

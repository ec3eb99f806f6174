package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/telemart/storefront-gateway/api/responses"
	"github.com/telemart/storefront-gateway/internal/upstream"
	pkgerrors "github.com/telemart/storefront-gateway/pkg/errors"
	"github.com/telemart/storefront-gateway/pkg/logger"
)

// Orders is the slice of the upstream client the order views use.
type Orders interface {
	GetMyOrders(ctx context.Context) ([]upstream.Order, error)
	GetOrderByID(ctx context.Context, id int) (*upstream.Order, error)
}

// ListMyOrders returns the caller's order history.
func ListMyOrders(orders Orders, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := orders.GetMyOrders(launched(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetOrder returns one of the caller's orders by id.
func GetOrder(orders Orders, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil || id <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id"))
			return
		}

		order, err := orders.GetOrderByID(launched(r), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

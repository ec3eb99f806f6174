package controllers

import (
	"net/http"

	"github.com/telemart/storefront-gateway/api/middleware"
	"github.com/telemart/storefront-gateway/api/responses"
	"github.com/telemart/storefront-gateway/api/validators"
	"github.com/telemart/storefront-gateway/internal/cart"
	checkoutsvc "github.com/telemart/storefront-gateway/internal/checkout"
	"github.com/telemart/storefront-gateway/internal/notify"
	pkgerrors "github.com/telemart/storefront-gateway/pkg/errors"
	"github.com/telemart/storefront-gateway/pkg/logger"
)

// SubmitCheckout validates the form and places the order from the cart.
func SubmitCheckout(svc checkoutsvc.Service, manager *cart.Manager, toasts *notify.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		user, ok := middleware.UserFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var form checkoutsvc.Form
		if err := validators.DecodeJSONBody(r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		queue := toasts.For(user.ID)
		store := manager.StoreFor(r.Context(), user.ID, middleware.LaunchFromContext(r.Context()), queue)

		result, err := svc.Submit(launched(r), user.ID, form, store, queue)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type couponView struct {
	Coupon  any `json:"coupon"`
	Summary any `json:"summary"`
}

// ApplyCoupon validates a coupon code and returns the discounted summary for
// the user's current cart.
func ApplyCoupon(svc checkoutsvc.Service, manager *cart.Manager, toasts *notify.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := middleware.UserFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload applyCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store := manager.StoreFor(r.Context(), user.ID, middleware.LaunchFromContext(r.Context()), toasts.For(user.ID))

		coupon, summary, err := svc.ApplyCoupon(launched(r), user.ID, payload.Code, store.Items())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, couponView{Coupon: coupon, Summary: summary})
	}
}

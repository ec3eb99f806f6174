package controllers

import (
	"context"
	"net/http"

	"github.com/telemart/storefront-gateway/api/responses"
	"github.com/telemart/storefront-gateway/api/validators"
	"github.com/telemart/storefront-gateway/internal/upstream"
	"github.com/telemart/storefront-gateway/pkg/logger"
)

// Profile is the slice of the upstream client the profile views use.
type Profile interface {
	GetMe(ctx context.Context) (*upstream.Customer, error)
	UpdateMe(ctx context.Context, update upstream.CustomerUpdate) (*upstream.Customer, error)
	RegisterUser(ctx context.Context) (*upstream.Customer, error)
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,ruphone"`
	City      *string `json:"city" validate:"omitempty,max=120"`
}

// GetMe returns the caller's customer profile.
func GetMe(profile Profile, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customer, err := profile.GetMe(launched(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

// UpdateMe applies a partial profile update.
func UpdateMe(profile Profile, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateProfileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		update := upstream.CustomerUpdate{
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
		}
		if payload.Phone != nil || payload.City != nil {
			update.Billing = &upstream.BillingUpdate{
				Phone: payload.Phone,
				City:  payload.City,
			}
		}

		customer, err := profile.UpdateMe(launched(r), update)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, customer)
	}
}

// Register provisions a backend customer for a first-time Telegram user.
func Register(profile Profile, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customer, err := profile.RegisterUser(launched(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, customer)
	}
}

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/telemart/storefront-gateway/api/responses"
	pkgerrors "github.com/telemart/storefront-gateway/pkg/errors"
	"github.com/telemart/storefront-gateway/pkg/logger"
	"github.com/telemart/storefront-gateway/pkg/telegram"
)

const initDataHeader = "X-Telegram-Init-Data"

// TelegramAuth validates the launch string carried on every request and
// seeds the context with the authenticated user and the raw string, which
// downstream calls re-attach when talking to the backend.
func TelegramAuth(validator *telegram.Validator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(initDataHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "launch data is required"))
				return
			}

			data, err := validator.Validate(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, authError(err))
				return
			}

			ctx := WithUser(r.Context(), data.User)
			ctx = WithLaunch(ctx, data.Raw)
			if logg != nil {
				ctx = logg.WithUserID(ctx, data.User.ID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authError(err error) error {
	switch {
	case errors.Is(err, telegram.ErrExpired):
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "launch data expired")
	case errors.Is(err, telegram.ErrMissingHash), errors.Is(err, telegram.ErrInvalidSignature):
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "launch data rejected")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "launch data invalid")
	}
}

package checkout

import (
	"context"
	"strconv"
	"time"

	"github.com/telemart/storefront-gateway/internal/cart"
	"github.com/telemart/storefront-gateway/internal/notify"
	"github.com/telemart/storefront-gateway/internal/upstream"
	pkgerrors "github.com/telemart/storefront-gateway/pkg/errors"
	"github.com/telemart/storefront-gateway/pkg/logger"
)

// Form is the checkout submission. Phone and first name are the only hard
// requirements; everything else passes through to the backend as-is.
type Form struct {
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name" validate:"max=100"`
	Phone        string `json:"phone" validate:"required,ruphone"`
	City         string `json:"city" validate:"max=120"`
	CustomerNote string `json:"customer_note" validate:"max=1000"`
	CouponCode   string `json:"coupon_code" validate:"max=64"`
}

// Result is what the webview renders on the success screen. Haptic tells the
// client to fire its success feedback.
type Result struct {
	Order   *upstream.Order `json:"order"`
	Summary *cart.Summary   `json:"summary"`
	Haptic  string          `json:"haptic"`
}

// Navigator is the slice of the navigation store checkout resets.
type Navigator interface {
	Reset(ctx context.Context, userID int64, current string) error
}

// Backend is the slice of the upstream client checkout calls.
type Backend interface {
	CreateOrder(ctx context.Context, payload upstream.OrderPayload) (*upstream.Order, error)
	ValidateCoupon(ctx context.Context, code string) (*upstream.CouponValidation, error)
}

// Guard is the slice of the redis client used for double-submit locking and
// coupon attempt counting. Optional; without it both protections are off.
type Guard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	CounterKey(name string) string
	LockKey(name string) string
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Backend Backend
	Nav     Navigator
	Guard   Guard
	Logger  *logger.Logger
}

// Service turns a validated form plus the user's cart into a placed order.
type Service interface {
	Submit(ctx context.Context, userID int64, form Form, store *cart.Store, toasts *notify.Store) (*Result, error)
	ApplyCoupon(ctx context.Context, userID int64, code string, items []upstream.LineItem) (*upstream.CouponValidation, *cart.Summary, error)
}

type service struct {
	backend Backend
	nav     Navigator
	guard   Guard
	logg    *logger.Logger
}

// NewService builds a checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout backend is required")
	}
	return &service{
		backend: params.Backend,
		nav:     params.Nav,
		guard:   params.Guard,
		logg:    params.Logger,
	}, nil
}

const (
	successURL = "/order-success"

	submitLockTTL       = 10 * time.Second
	couponAttemptLimit  = 10
	couponAttemptWindow = time.Minute
)

// Submit places the order from the cart's current items. On success the cart
// is cleared and the navigation history collapses to the success screen, so
// back cannot re-enter the completed flow. Failure leaves the cart intact
// and queues an error toast.
func (s *service) Submit(ctx context.Context, userID int64, form Form, store *cart.Store, toasts *notify.Store) (*Result, error) {
	items := store.Items()
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	release, err := s.lockSubmit(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	var coupon *upstream.CouponValidation
	if form.CouponCode != "" {
		validated, err := s.backend.ValidateCoupon(ctx, form.CouponCode)
		if err != nil {
			return nil, err
		}
		if !validated.Valid {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon rejected").
				WithDetails(map[string]string{"coupon_code": validated.Message})
		}
		coupon = validated
	}

	summary, err := cart.Summarize(items, coupon)
	if err != nil {
		return nil, err
	}

	payload := upstream.OrderPayload{
		LineItems:    orderLines(items),
		CustomerNote: form.CustomerNote,
		CouponCode:   form.CouponCode,
		Billing: &upstream.OrderBilling{
			FirstName: form.FirstName,
			LastName:  form.LastName,
			Phone:     form.Phone,
			City:      form.City,
		},
	}

	order, err := s.backend.CreateOrder(ctx, payload)
	if err != nil {
		if toasts != nil {
			toasts.Notify("Could not place your order.", notify.KindError)
		}
		return nil, err
	}

	store.Clear()
	if s.nav != nil {
		if navErr := s.nav.Reset(ctx, userID, successURL); navErr != nil && s.logg != nil {
			s.logg.Warn(ctx, "post-checkout nav reset failed: "+navErr.Error())
		}
	}
	if toasts != nil {
		toasts.Notify("Order placed.", notify.KindSuccess)
	}

	return &Result{Order: order, Summary: summary, Haptic: "success"}, nil
}

// ApplyCoupon validates a code against the backend and recomputes the cart
// summary with it applied. An invalid code still returns the validation
// outcome; callers surface its message inline. Attempts are counted per
// user so codes cannot be enumerated through this endpoint.
func (s *service) ApplyCoupon(ctx context.Context, userID int64, code string, items []upstream.LineItem) (*upstream.CouponValidation, *cart.Summary, error) {
	if code == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if err := s.countCouponAttempt(ctx, userID); err != nil {
		return nil, nil, err
	}

	validated, err := s.backend.ValidateCoupon(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	summary, err := cart.Summarize(items, validated)
	if err != nil {
		return nil, nil, err
	}
	return validated, summary, nil
}

// lockSubmit takes a short-lived per-user lock so a double-tapped submit
// cannot create two orders. Guard outages fail open; placing an order is
// never blocked on redis availability.
func (s *service) lockSubmit(ctx context.Context, userID int64) (func(), error) {
	if s.guard == nil {
		return func() {}, nil
	}
	key := s.guard.LockKey("checkout:" + strconv.FormatInt(userID, 10))
	ok, err := s.guard.SetNX(ctx, key, 1, submitLockTTL)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "checkout lock unavailable: "+err.Error())
		}
		return func() {}, nil
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an order is already being placed")
	}
	return func() {
		if err := s.guard.Del(ctx, key); err != nil && s.logg != nil {
			s.logg.Warn(ctx, "checkout lock release failed: "+err.Error())
		}
	}, nil
}

// countCouponAttempt bumps the per-user validation counter, starting its
// window on the first attempt. Fails open like the submit lock.
func (s *service) countCouponAttempt(ctx context.Context, userID int64) error {
	if s.guard == nil {
		return nil
	}
	key := s.guard.CounterKey("coupon_attempts:" + strconv.FormatInt(userID, 10))
	count, err := s.guard.Incr(ctx, key)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "coupon attempt counter unavailable: "+err.Error())
		}
		return nil
	}
	if count == 1 {
		if _, err := s.guard.Expire(ctx, key, couponAttemptWindow); err != nil && s.logg != nil {
			s.logg.Warn(ctx, "coupon attempt window not set: "+err.Error())
		}
	}
	if count > couponAttemptLimit {
		return pkgerrors.New(pkgerrors.CodeRateLimited, "too many coupon attempts")
	}
	return nil
}

func orderLines(items []upstream.LineItem) []upstream.OrderLineItemCreate {
	lines := make([]upstream.OrderLineItemCreate, 0, len(items))
	for _, item := range items {
		lines = append(lines, upstream.OrderLineItemCreate{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			VariationID: item.VariationID,
		})
	}
	return lines
}

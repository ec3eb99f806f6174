package cart

import (
	"github.com/shopspring/decimal"

	"github.com/telemart/storefront-gateway/internal/upstream"
	pkgerrors "github.com/telemart/storefront-gateway/pkg/errors"
)

// Summary is the price breakdown shown on the cart and checkout views. The
// backend re-verifies every figure at order creation; these are display
// values only.
type Summary struct {
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

// Summarize computes the subtotal of the given lines and applies an optional
// validated coupon. Unparsable prices are rejected rather than silently
// treated as zero.
func Summarize(items []upstream.LineItem, coupon *upstream.CouponValidation) (*Summary, error) {
	subtotal := decimal.Zero
	for _, item := range items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unparsable line price")
		}
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	discount := decimal.Zero
	if coupon != nil && coupon.Valid && coupon.Amount != "" {
		amount, err := decimal.NewFromString(coupon.Amount)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unparsable coupon amount")
		}
		switch coupon.DiscountType {
		case "percent":
			discount = subtotal.Mul(amount).Div(decimal.NewFromInt(100))
		default:
			// fixed_cart and any unrecognized type behave as a flat amount.
			discount = amount
		}
		if discount.GreaterThan(subtotal) {
			discount = subtotal
		}
	}

	total := subtotal.Sub(discount)
	return &Summary{
		Subtotal: subtotal.StringFixed(2),
		Discount: discount.StringFixed(2),
		Total:    total.StringFixed(2),
	}, nil
}

// Package pricing computes the authoritative charge for a checkout: line item
// totals, voucher discounts scoped by activity kind, and the tolerance used
// when reconciling a client-submitted amount. All money is decimal.
package pricing

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/maplewood-arts/registration-api/internal/models"
)

// tolerance absorbs floating-point rounding when comparing a client-submitted
// total against the server-computed one.
var tolerance = decimal.New(1, -2) // 0.01

var hundred = decimal.NewFromInt(100)

// Voucher usability errors. The messages are user-facing.
var (
	ErrVoucherInactive    = errors.New("This voucher is no longer active")
	ErrVoucherNotYetValid = errors.New("This voucher is not yet valid")
	ErrVoucherExpired     = errors.New("This voucher has expired")
	ErrVoucherExhausted   = errors.New("This voucher has reached its maximum number of uses")
)

// LineItem is one registration's contribution to a checkout total. Kind is
// the activity's catalog kind, used for voucher scoping; donations count
// toward the discountable base.
type LineItem struct {
	ActivityID string
	Kind       string
	Cost       decimal.Decimal
	Donation   decimal.Decimal
}

// Total is cost plus donation.
func (li LineItem) Total() decimal.Decimal {
	return li.Cost.Add(li.Donation)
}

// Subtotal sums all line item totals.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range items {
		sum = sum.Add(li.Total())
	}
	return sum
}

// ValidateVoucher reports whether the voucher is usable at the given instant.
// This runs standalone for pre-checkout UX and again at commit time, since
// times_used and the clock both move.
func ValidateVoucher(v models.Voucher, now time.Time) error {
	if !v.Active {
		return ErrVoucherInactive
	}
	if v.ValidFrom != nil && v.ValidFrom.After(now) {
		return ErrVoucherNotYetValid
	}
	if v.ValidUntil != nil && v.ValidUntil.Before(now) {
		return ErrVoucherExpired
	}
	if v.MaxUses != nil && v.TimesUsed >= *v.MaxUses {
		return ErrVoucherExhausted
	}
	return nil
}

// Discount computes the voucher's discount over the given line items. A nil
// voucher yields zero. When AppliesTo is set only items of that kind feed the
// discountable base; a fixed-amount discount never exceeds that base.
func Discount(v *models.Voucher, items []LineItem) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}

	discountable := decimal.Zero
	for _, li := range items {
		if v.AppliesTo != "" && !strings.EqualFold(li.Kind, v.AppliesTo) {
			continue
		}
		discountable = discountable.Add(li.Total())
	}

	switch {
	case v.Percentage != nil:
		return discountable.Mul(decimal.NewFromInt(int64(*v.Percentage))).Div(hundred)
	case v.Amount != nil:
		if v.Amount.GreaterThan(discountable) {
			return discountable
		}
		return *v.Amount
	}
	return decimal.Zero
}

// ExpectedTotal is the authoritative amount to charge: the subtotal less the
// voucher discount, floored at zero. Items outside the voucher's scope are
// still charged in full.
func ExpectedTotal(items []LineItem, v *models.Voucher) decimal.Decimal {
	total := Subtotal(items).Sub(Discount(v, items))
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// WithinTolerance reports whether two amounts differ by at most 0.01.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}

package notifier

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Item is one paid registration line in a confirmation.
type Item struct {
	StudentName  string
	ActivityName string
	Cost         decimal.Decimal
	Donation     decimal.Decimal
}

// Confirmation is the payload sent after a payment commits. It is built from
// already-durable state; sending it is best-effort.
type Confirmation struct {
	RecipientEmail   string
	RecipientName    string
	ConfirmationCode string
	Items            []Item
	TotalAmount      decimal.Decimal
	PaymentMethod    string
	TransactionID    string
}

type Notifier interface {
	PaymentConfirmation(ctx context.Context, c Confirmation) error
}

// Multi fans a confirmation out to several sinks and reports every failure.
type Multi []Notifier

func (m Multi) PaymentConfirmation(ctx context.Context, c Confirmation) error {
	var errs []error
	for _, n := range m {
		if err := n.PaymentConfirmation(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

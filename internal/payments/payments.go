// Package payments turns a checkout submission into a durable Payment record,
// atomically and exactly once. The client's amount is reconciled against the
// server-computed total before anything is written; notification happens only
// after the commit and never rolls it back.
package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/maplewood-arts/registration-api/internal/catalog"
	"github.com/maplewood-arts/registration-api/internal/models"
	"github.com/maplewood-arts/registration-api/internal/notifier"
	"github.com/maplewood-arts/registration-api/internal/pricing"
	"github.com/maplewood-arts/registration-api/internal/shortcode"
)

var defaultGenerate = shortcode.Generate

// Method is how the checkout is funded.
type Method string

const (
	MethodPayPal Method = "paypal"
	MethodCheck  Method = "check"
	MethodNone   Method = "none"
)

const maxShortCodeAttempts = 5

var (
	// ErrNotFound means at least one requested registration does not exist.
	ErrNotFound = errors.New("some registrations not found")
	// ErrShortCodeExhausted means no unique short code was found within the
	// retry budget; the whole attempt rolls back.
	ErrShortCodeExhausted = errors.New("failed to generate unique short code")
)

// ValidationError rejects malformed input before any database access.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// MismatchError rejects a client total that disagrees with the authoritative
// one. It names both values so support can see what happened.
type MismatchError struct {
	Expected decimal.Decimal
	Received decimal.Decimal
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("Total amount mismatch. Expected: %s, Received: %s",
		e.Expected.StringFixed(2), e.Received.String())
}

// CheckoutRequest is one commit-payment submission.
type CheckoutRequest struct {
	RegistrationIDs []uint
	Method          Method
	PayPalOrderID   string
	PayPalPayerID   string
	TotalAmount     decimal.Decimal
	TotalDefined    bool
	VoucherID       *uint
}

// Receipt describes a committed payment.
type Receipt struct {
	Message           string
	PaymentID         uint
	ShortCode         string
	TransactionID     string
	Amount            decimal.Decimal
	RegistrationCount int
	Method            Method
}

type Service struct {
	db       *gorm.DB
	cat      *catalog.Catalog
	notifier notifier.Notifier

	// generateCode is swapped in tests to force collisions.
	generateCode func() string
}

func NewService(db *gorm.DB, cat *catalog.Catalog, n notifier.Notifier) *Service {
	return &Service{db: db, cat: cat, notifier: n}
}

func (s *Service) validate(req CheckoutRequest) error {
	if len(req.RegistrationIDs) == 0 {
		return &ValidationError{Reason: "Registration IDs are required"}
	}
	switch req.Method {
	case MethodPayPal:
		if req.PayPalOrderID == "" || req.PayPalPayerID == "" || !req.TotalDefined {
			return &ValidationError{Reason: "Invalid PayPal payment data"}
		}
	case MethodCheck:
	case MethodNone:
		// Activities can be naturally free or made free by a voucher; either
		// way the submitted total must be exactly zero.
		if !req.TotalAmount.IsZero() {
			return &ValidationError{Reason: "Free registration requires total amount to be $0"}
		}
	default:
		return &ValidationError{Reason: "Invalid payment method"}
	}
	return nil
}

// Process runs the full checkout: validate, load, reconcile, record, link,
// then notify. Every rejection before the insert leaves the database
// untouched; any error inside the transaction rolls the whole attempt back.
func (s *Service) Process(ctx context.Context, req CheckoutRequest) (*Receipt, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	var receipt Receipt
	var regs []models.Registration

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id IN ?", req.RegistrationIDs).Order("id").Find(&regs).Error; err != nil {
			return err
		}
		// Never silently proceed with a subset.
		if len(regs) != len(req.RegistrationIDs) {
			return ErrNotFound
		}

		items := make([]pricing.LineItem, len(regs))
		for i, r := range regs {
			items[i] = pricing.LineItem{
				ActivityID: r.Activity,
				Kind:       s.cat.Kind(r.Activity),
				Cost:       r.Cost,
				Donation:   r.Donation,
			}
		}

		// Re-verify the voucher at commit time: times_used and the clock may
		// have moved since the pre-checkout validation. An unusable voucher
		// simply contributes no discount.
		var voucher *models.Voucher
		if req.VoucherID != nil {
			var v models.Voucher
			err := tx.First(&v, *req.VoucherID).Error
			switch {
			case err == nil:
				if pricing.ValidateVoucher(v, time.Now()) == nil {
					voucher = &v
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
			default:
				return err
			}
		}

		expected := pricing.ExpectedTotal(items, voucher)
		if !pricing.WithinTolerance(expected, req.TotalAmount) {
			return &MismatchError{Expected: expected, Received: req.TotalAmount}
		}

		code, err := s.uniqueShortCode(tx)
		if err != nil {
			return err
		}

		payment := models.Payment{
			TransactionID: transactionID(req),
			Amount:        req.TotalAmount,
			ShortCode:     code,
		}
		if voucher != nil {
			payment.VoucherID = &voucher.ID
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		// Usage counting stays consistent with the commit it funded: a
		// rolled-back attempt never increments.
		if voucher != nil {
			if err := tx.Model(&models.Voucher{}).Where("id = ?", voucher.ID).
				UpdateColumn("times_used", gorm.Expr("times_used + 1")).Error; err != nil {
				return err
			}
		}

		// Linking the payment is what makes the seats permanent; linked rows
		// are no longer subject to the reservation expiry.
		if err := tx.Model(&models.Registration{}).
			Where("id IN ?", req.RegistrationIDs).
			Update("payment_id", payment.ID).Error; err != nil {
			return err
		}

		receipt = Receipt{
			Message:           successMessage(req.Method),
			PaymentID:         payment.ID,
			ShortCode:         payment.ShortCode,
			TransactionID:     payment.TransactionID,
			Amount:            payment.Amount,
			RegistrationCount: len(regs),
			Method:            req.Method,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Money and seats are durable; a failed notification is only logged.
	if s.notifier != nil {
		if err := s.notifier.PaymentConfirmation(ctx, s.buildConfirmation(ctx, regs, receipt)); err != nil {
			log.Printf("Failed to send payment confirmation for %s: %v", receipt.ShortCode, err)
		}
	}

	return &receipt, nil
}

func (s *Service) uniqueShortCode(tx *gorm.DB) (string, error) {
	generate := s.generateCode
	if generate == nil {
		generate = defaultGenerate
	}

	for attempt := 0; attempt < maxShortCodeAttempts; attempt++ {
		code := generate()
		var count int64
		if err := tx.Model(&models.Payment{}).Where("short_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", ErrShortCodeExhausted
}

func transactionID(req CheckoutRequest) string {
	switch req.Method {
	case MethodNone:
		return fmt.Sprintf("FREE-%d", time.Now().UnixMilli())
	case MethodCheck:
		return fmt.Sprintf("CHECK-%d", time.Now().UnixMilli())
	default:
		return req.PayPalOrderID
	}
}

func successMessage(m Method) string {
	switch m {
	case MethodNone:
		return "Registration completed successfully"
	case MethodCheck:
		return "Registration submitted - awaiting check payment"
	default:
		return "Payment processed successfully"
	}
}

// buildConfirmation assembles the notification payload from committed state.
// The contact on the first linked registration receives the email.
func (s *Service) buildConfirmation(ctx context.Context, regs []models.Registration, receipt Receipt) notifier.Confirmation {
	c := notifier.Confirmation{
		ConfirmationCode: receipt.ShortCode,
		TotalAmount:      receipt.Amount,
		PaymentMethod:    string(receipt.Method),
		TransactionID:    receipt.TransactionID,
	}

	for _, r := range regs {
		var student models.Student
		if err := s.db.WithContext(ctx).First(&student, r.StudentID).Error; err == nil {
			c.Items = append(c.Items, notifier.Item{
				StudentName:  student.Firstname + " " + student.Lastname,
				ActivityName: s.cat.Name(r.Activity),
				Cost:         r.Cost,
				Donation:     r.Donation,
			})
		}

		if c.RecipientEmail == "" && r.ContactID != nil {
			var contact models.Contact
			if err := s.db.WithContext(ctx).First(&contact, *r.ContactID).Error; err == nil {
				c.RecipientEmail = contact.Email
				c.RecipientName = contact.Firstname + " " + contact.Lastname
			}
		}
	}
	return c
}

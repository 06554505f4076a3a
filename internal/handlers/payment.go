package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/maplewood-arts/registration-api/internal/config"
	"github.com/maplewood-arts/registration-api/internal/payments"
)

type PaymentHandler struct {
	svc *payments.Service
	cfg *config.Config
}

func NewPaymentHandler(svc *payments.Service, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{svc: svc, cfg: cfg}
}

type ProcessPaymentRequest struct {
	Body struct {
		RegistrationIDs []uint   `json:"registrationIds"`
		PaymentMethod   string   `json:"paymentMethod" enum:"paypal,check,none" doc:"How the checkout is funded"`
		PaypalOrderID   string   `json:"paypalOrderId,omitempty"`
		PaypalPayerID   string   `json:"paypalPayerId,omitempty"`
		TotalAmount     *float64 `json:"totalAmount"`
		VoucherID       *uint    `json:"voucherId,omitempty"`
	}
}

type ProcessPaymentResponse struct {
	Body struct {
		Message           string  `json:"message"`
		PaymentID         uint    `json:"paymentId"`
		ShortCode         string  `json:"shortCode"`
		TransactionID     string  `json:"transactionId"`
		Amount            float64 `json:"amount"`
		RegistrationCount int     `json:"registrationCount"`
		PaymentMethod     string  `json:"paymentMethod"`
	}
}

// HandleProcess is the commit-payment entry point. All business decisions
// live in the payments service; this maps its outcomes onto HTTP statuses.
func (h *PaymentHandler) HandleProcess(ctx context.Context, input *ProcessPaymentRequest) (*ProcessPaymentResponse, error) {
	b := input.Body

	req := payments.CheckoutRequest{
		RegistrationIDs: b.RegistrationIDs,
		Method:          payments.Method(b.PaymentMethod),
		PayPalOrderID:   b.PaypalOrderID,
		PayPalPayerID:   b.PaypalPayerID,
		VoucherID:       b.VoucherID,
	}
	if b.TotalAmount != nil {
		req.TotalAmount = decimal.NewFromFloat(*b.TotalAmount)
		req.TotalDefined = true
	}

	receipt, err := h.svc.Process(ctx, req)
	if err != nil {
		var verr *payments.ValidationError
		var mismatch *payments.MismatchError
		switch {
		case errors.As(err, &verr):
			return nil, huma.Error400BadRequest(verr.Reason)
		case errors.As(err, &mismatch):
			return nil, huma.Error400BadRequest(mismatch.Error())
		case errors.Is(err, payments.ErrNotFound):
			return nil, huma.Error404NotFound("Some registrations not found")
		default:
			log.Printf("Error processing payment: %v", err)
			return nil, huma.Error500InternalServerError("Failed to process payment")
		}
	}

	res := &ProcessPaymentResponse{}
	res.Body.Message = receipt.Message
	res.Body.PaymentID = receipt.PaymentID
	res.Body.ShortCode = receipt.ShortCode
	res.Body.TransactionID = receipt.TransactionID
	res.Body.Amount = receipt.Amount.InexactFloat64()
	res.Body.RegistrationCount = receipt.RegistrationCount
	res.Body.PaymentMethod = string(receipt.Method)
	return res, nil
}

type PayPalConfigResponse struct {
	Body struct {
		ClientID string `json:"clientId"`
		Currency string `json:"currency"`
	}
}

func (h *PaymentHandler) HandlePayPalConfig(ctx context.Context, _ *struct{}) (*PayPalConfigResponse, error) {
	if h.cfg.PayPalClientID == "" {
		return nil, huma.Error500InternalServerError("PayPal configuration not found")
	}
	res := &PayPalConfigResponse{}
	res.Body.ClientID = h.cfg.PayPalClientID
	res.Body.Currency = h.cfg.Currency
	return res, nil
}

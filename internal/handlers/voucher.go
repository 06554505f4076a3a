package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"

	"github.com/maplewood-arts/registration-api/internal/models"
	"github.com/maplewood-arts/registration-api/internal/pricing"
)

type VoucherHandler struct {
	db *gorm.DB
}

func NewVoucherHandler(db *gorm.DB) *VoucherHandler {
	return &VoucherHandler{db: db}
}

type ValidateVoucherRequest struct {
	Body struct {
		Code string `json:"code" doc:"Voucher code to validate"`
	}
}

type VoucherInfo struct {
	ID          uint     `json:"id"`
	Code        string   `json:"code"`
	Description string   `json:"description,omitempty"`
	Percentage  *int     `json:"percentage,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	AppliesTo   string   `json:"appliesTo,omitempty"`
}

type ValidateVoucherResponse struct {
	Body struct {
		Valid   bool         `json:"valid"`
		Voucher *VoucherInfo `json:"voucher,omitempty"`
		Message string       `json:"message"`
	}
}

// HandleValidate is the pre-checkout voucher check. It is read-only: only a
// committed payment ever moves times_used. The same checks run again inside
// the payment transaction.
func (h *VoucherHandler) HandleValidate(ctx context.Context, input *ValidateVoucherRequest) (*ValidateVoucherResponse, error) {
	if input.Body.Code == "" {
		return nil, huma.Error400BadRequest("Voucher code is required")
	}

	var voucher models.Voucher
	err := h.db.WithContext(ctx).
		Where("UPPER(code) = UPPER(?)", input.Body.Code).
		First(&voucher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Invalid voucher code")
		}
		return nil, huma.Error500InternalServerError("Failed to validate voucher")
	}

	if err := pricing.ValidateVoucher(voucher, time.Now()); err != nil {
		// Each usability failure has its own user-facing message.
		return nil, huma.Error400BadRequest(err.Error())
	}

	info := &VoucherInfo{
		ID:          voucher.ID,
		Code:        voucher.Code,
		Description: voucher.Description,
		Percentage:  voucher.Percentage,
		AppliesTo:   voucher.AppliesTo,
	}
	if voucher.Amount != nil {
		amount := voucher.Amount.InexactFloat64()
		info.Amount = &amount
	}

	res := &ValidateVoucherResponse{}
	res.Body.Valid = true
	res.Body.Voucher = info
	res.Body.Message = "Voucher code is valid"
	return res, nil
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment is created exactly once per successful checkout and owns the
// authoritative amount charged. TransactionID is the PayPal order id or a
// synthetic FREE-<ms>/CHECK-<ms> token so every payment stays traceable.
type Payment struct {
	gorm.Model
	TransactionID string          `json:"transaction_id" gorm:"size:50"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(10,2)"`
	VoucherID     *uint           `json:"voucher_id"`
	Voucher       *Voucher        `json:"voucher,omitempty" gorm:"foreignKey:VoucherID"`
	ShortCode     string          `json:"short_code" gorm:"size:6;uniqueIndex"`
	RefundedAt    *time.Time      `json:"refunded_at"`
	ChequeNumber  string          `json:"cheque_number" gorm:"size:20"`
	Note          string          `json:"note" gorm:"size:255"`
}

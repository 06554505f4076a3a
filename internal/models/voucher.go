package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Voucher grants either a percentage discount or a fixed amount, never both.
// AppliesTo optionally restricts the discount to one activity kind.
type Voucher struct {
	gorm.Model
	Code        string           `json:"code" gorm:"size:50;uniqueIndex"`
	Description string           `json:"description"`
	Percentage  *int             `json:"percentage"`
	Amount      *decimal.Decimal `json:"amount" gorm:"type:decimal(10,2)"`
	AppliesTo   string           `json:"applies_to" gorm:"size:16"`
	ValidFrom   *time.Time       `json:"valid_from"`
	ValidUntil  *time.Time       `json:"valid_until"`
	MaxUses     *int             `json:"max_uses"`
	TimesUsed   int              `json:"times_used" gorm:"not null;default:0"`
	Active      bool             `json:"active" gorm:"not null;default:true"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Registration links a student to an activity from the catalog. Activity ids
// are stored lower-case; a student can hold at most one registration per
// activity.
//
// A registration counts against capacity while it is not cancelled and either
// has a payment or holds a reservation younger than the soft-hold window.
type Registration struct {
	gorm.Model
	Activity       string          `json:"activity" gorm:"size:50;uniqueIndex:idx_activity_student"`
	StudentID      uint            `json:"student_id" gorm:"uniqueIndex:idx_activity_student"`
	Student        Student         `json:"student" gorm:"foreignKey:StudentID"`
	ContactID      *uint           `json:"contact_id"`
	Contact        *Contact        `json:"contact,omitempty" gorm:"foreignKey:ContactID"`
	PaymentID      *uint           `json:"payment_id"`
	Payment        *Payment        `json:"payment,omitempty" gorm:"foreignKey:PaymentID"`
	Cost           decimal.Decimal `json:"cost" gorm:"type:decimal(10,2)"`
	Donation       decimal.Decimal `json:"donation" gorm:"type:decimal(10,2)"`
	Note           string          `json:"note" gorm:"size:255"`
	Answer         string          `json:"answer" gorm:"size:120"`
	TermsAgreement bool            `json:"terms_agreement"`
	ReservedAt     *time.Time      `json:"reserved_at"`
	CancelledAt    *time.Time      `json:"cancelled_at"`
	RemindedAt     *time.Time      `json:"reminded_at"`
}

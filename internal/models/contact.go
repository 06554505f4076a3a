package models

import (
	"gorm.io/gorm"
)

// Contact identity is the (firstname, lastname, email) triple.
type Contact struct {
	gorm.Model
	Firstname string `json:"firstname" gorm:"size:100;uniqueIndex:idx_contact_identity"`
	Lastname  string `json:"lastname" gorm:"size:100;uniqueIndex:idx_contact_identity"`
	Email     string `json:"email" gorm:"size:255;uniqueIndex:idx_contact_identity"`
	Phone     string `json:"phone" gorm:"size:20"`
	Address   string `json:"address" gorm:"size:255"`
	City      string `json:"city" gorm:"size:100"`
	State     string `json:"state" gorm:"size:2"`
	Zip       string `json:"zip" gorm:"size:10"`
}

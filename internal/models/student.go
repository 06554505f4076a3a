package models

import (
	"gorm.io/gorm"
)

// Student identity is the (firstname, lastname, dob) triple. Inserting a
// duplicate resolves to the existing row instead of erroring.
type Student struct {
	gorm.Model
	Firstname string `json:"firstname" gorm:"size:100;uniqueIndex:idx_student_identity"`
	Lastname  string `json:"lastname" gorm:"size:100;uniqueIndex:idx_student_identity"`
	DOB       string `json:"dob" gorm:"size:10;uniqueIndex:idx_student_identity"`
}

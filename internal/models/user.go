package models

import (
	"gorm.io/gorm"
)

// User is a backstage (office) account established through the OAuth login
// flow. Public registration and checkout never require one.
type User struct {
	gorm.Model
	SubjectID string `gorm:"uniqueIndex"`
	Username  string
	Email     string
	Avatar    string
}

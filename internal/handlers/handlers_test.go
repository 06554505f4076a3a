package handlers

import (
	"errors"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/maplewood-arts/registration-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Student{},
		&models.Contact{},
		&models.Registration{},
		&models.Payment{},
		&models.Voucher{},
		&models.User{},
		&models.APIKey{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected status %d error, got nil", want)
	}
	var se huma.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected a status error, got %v", err)
	}
	if se.GetStatus() != want {
		t.Errorf("expected status %d, got %d: %v", want, se.GetStatus(), err)
	}
}

func intPtr(v int) *int { return &v }

func decimalFromFloat(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

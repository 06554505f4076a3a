package database

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/maplewood-arts/registration-api/internal/config"
	"github.com/maplewood-arts/registration-api/internal/models"
)

// Connect opens the configured database and migrates the schema. SQLite is
// the default for local runs and tests; production points DATABASE_DRIVER at
// postgres.
func Connect(cfg *config.Config) *gorm.DB {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	default:
		dialector = sqlite.Open(cfg.DatabaseDSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Student{},
		&models.Contact{},
		&models.Payment{},
		&models.Voucher{},
		&models.Registration{},
		&models.User{},
		&models.APIKey{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	return db
}

package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/jobboard-api/internal/models"
)

// Migrate creates or updates the tables owned by the assessment subsystem.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.Assessment{},
		&models.Attempt{},
		&models.Certificate{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

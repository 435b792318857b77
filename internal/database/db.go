package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"routecrm-go/internal/config"
	"routecrm-go/internal/models"
)

// Connect opens the PostgreSQL connection. The returned handle is passed to
// whatever needs it; there is no package-level singleton.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Route{},
		&models.ServiceLog{},
		&models.Invoice{},
		&models.Category{},
		&models.Account{},
		&models.Transaction{},
		&models.LinkedItem{},
		&models.DeletedTransaction{},
		&models.CategorizationRule{},
	)
}

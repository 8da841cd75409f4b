package db

import (
	"github.com/ikkim/talentbase-backend/internal/app/model"
	"github.com/ikkim/talentbase-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table owned by the identity backend.
func Models() []interface{} {
	return []interface{}{
		&model.Account{},
		&model.PendingRegistration{},
		&model.CredentialToken{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

func MigrateDB(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

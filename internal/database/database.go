package database

import (
	"fmt"

	"github.com/keyward/core/internal/config"
	"github.com/keyward/core/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a MySQL connection and optionally runs auto-migration.
func Connect(cfg *config.AppConfig, autoMigrate bool) (*gorm.DB, error) {
	db, err := openDB(cfg, resolveLogLevel(cfg))
	if err != nil {
		return nil, err
	}

	if autoMigrate {
		if err := migrate(db); err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}
	return db, nil
}

func resolveLogLevel(cfg *config.AppConfig) logger.LogLevel {
	if cfg.IsDev() {
		return logger.Info
	}
	return logger.Warn
}

func openDB(cfg *config.AppConfig, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:               cfg.DSNValue(),
		DefaultStringSize: 191,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, nil
}

// migrate runs GORM auto-migration for all models.
func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.AccountModel{},
		&models.AccountSession{},
		&models.APIToken{},
		&models.ApplicationModel{},
		&models.AppUserModel{},
		&models.AppSessionModel{},
		&models.BlacklistModel{},
		&models.WebhookModel{},
		&models.ActivityModel{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() == "mysql" {
		// Rows migrated from older deployments may still carry VARCHAR columns.
		if err := db.Exec("ALTER TABLE `activities` MODIFY COLUMN `metadata` LONGTEXT NULL").Error; err != nil {
			return err
		}
	}

	return nil
}

package app

import (
	"fmt"
	"sync"

	"alternanceetmoi.fr/reports/config"
	"alternanceetmoi.fr/reports/models"
	"alternanceetmoi.fr/reports/utils"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db     *gorm.DB
	onceDB sync.Once
)

func DB() *gorm.DB {
	onceDB.Do(func() {
		cfg := config.Get()

		dsn := fmt.Sprintf(
			"postgres://%[4]s:%[5]s@%[1]s:%[2]d/%[3]s",
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
			cfg.DBUser,
			cfg.DBPass,
		)

		logLevel := logger.Warn

		if utils.IsDebug() {
			logLevel = logger.Info
		}

		database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			SkipDefaultTransaction: true,
			PrepareStmt:            true,
			Logger:                 logger.Default.LogMode(logLevel),
		})
		if err != nil {
			zap.S().Fatalf("Could not connect to PostgreSQL: %v", err)
		}

		db = database

		if cfg.DBAutoMigrate {
			if err := Migrate(); err != nil {
				zap.S().Fatalf("Could not migrate models: %v", err)
			}
		}
	})

	return db
}

// Migrate creates or updates the application tables.
func Migrate() error {
	if err := DB().Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto").Error; err != nil {
		zap.S().Warnf("Could not load pgcrypto extension: %v", err)
	}

	return DB().AutoMigrate(
		&models.Report{},
		&models.Account{},
	)
}

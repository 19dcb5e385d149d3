package postgres

import (
	"fmt"

	"github.com/PFEPLTechHub/document-bot/internal/config"
	"github.com/PFEPLTechHub/document-bot/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func DSN(cfg config.Config) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s search_path=public",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.SSLMode)
}

// InitDB opens the connection and migrates the bot's tables.
func InitDB(cfg config.Config) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Warn)
	if log.IsLevelEnabled(log.DebugLevel) {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Invitation{},
		&models.Request{},
		&models.UploadSession{},
		&models.File{},
		&models.History{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("Connected to postgres")
	return db, nil
}

package db

import (
	"github.com/codrzexl/UniHub/internal/logger"
	"github.com/codrzexl/UniHub/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(dsn string) {
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.L().Fatal("failed to connect to database", zap.Error(err))
	}

	logger.L().Info("database connection established")

	Migrate(DB)
}

// Migrate runs auto-migration for all models. Split out so tests can run it
// against their own database handle.
func Migrate(conn *gorm.DB) {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Doubt{},
		&models.Answer{},
		&models.Vote{},
		&models.Note{},
		&models.Event{},
		&models.RSVP{},
	)
	if err != nil {
		logger.L().Fatal("failed to migrate database", zap.Error(err))
	}
}

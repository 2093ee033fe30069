package db

import (
	"time"

	"github.com/pkg/errors"
	"github.com/ridecrew/ridecrew/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "database handle")
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

func Migrate(db *gorm.DB) error {
	models := []interface{}{
		&models.User{},
		&models.Group{},
		&models.GroupMembership{},
		&models.Activity{},
		&models.GroupActivity{},
	}

	migrator := db.Migrator()

	for _, model := range models {
		if !migrator.HasTable(model) {
			log.WithField("model", model).Debug("creating table")
			if err := db.AutoMigrate(model); err != nil {
				return errors.Wrapf(err, "migrate %T", model)
			}
		}
	}

	return nil
}

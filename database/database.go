package database

import (
	"errors"
	"fmt"
	"time"

	"contesthub/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to PostgreSQL. Unique violations come back as gorm.ErrDuplicatedKey.
func Open(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), Config(log))
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// Config is the gorm configuration shared by the postgres and test dialectors
func Config(log *logrus.Logger) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

// Migrate creates or updates the tables and their unique indexes
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Contest{},
		&models.Registration{},
		&models.Submission{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Populate makes sure the configured admin account exists with the Admin role
func Populate(db *gorm.DB, adminEmail string, log logrus.FieldLogger) error {
	if adminEmail == "" {
		return nil
	}

	var admin models.User
	err := db.Where("email = ?", adminEmail).First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		admin = models.User{Email: adminEmail, Name: "Admin", Role: models.RoleAdmin}
		if err := db.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		log.WithField("email", adminEmail).Info("Default admin user created")
	case err != nil:
		return err
	case admin.Role != models.RoleAdmin:
		if err := db.Model(&admin).Update("role", models.RoleAdmin).Error; err != nil {
			return fmt.Errorf("failed to promote admin user: %w", err)
		}
		log.WithField("email", adminEmail).Info("Existing user promoted to admin")
	}
	return nil
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

package config

import (
	"errors"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var PostgresDB *gorm.DB

// PostgresConfigured reports whether a Postgres URI is present.
func PostgresConfigured() bool { return postgresURI() != "" }

func postgresURI() string {
	if uri := os.Getenv("POSTGRES_URI"); uri != "" {
		return uri
	}
	return os.Getenv("DATABASE_URL")
}

// InitPostgres opens the pooled gorm connection used by the lead ledger and
// the pgvector catalog.
func InitPostgres(log *logrus.Logger) error {
	uri := postgresURI()
	if uri == "" {
		return errors.New("POSTGRES_URI (or DATABASE_URL) environment variable is not set")
	}

	level := gormlogger.Warn
	if log != nil && log.IsLevelEnabled(logrus.DebugLevel) {
		level = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(uri), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	// Connection Pooling settings
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	PostgresDB = db
	return nil
}

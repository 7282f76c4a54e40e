package database

import (
	"fmt"
	"time"

	"chenil/internal/config"
	"chenil/internal/middleware"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var readReplica *gorm.DB

// GetReadDB returns the read-replica connection, or nil when none is
// configured. Callers fall back to the primary.
func GetReadDB() *gorm.DB {
	return readReplica
}

// ConnectReadReplica opens the optional read-only connection. With no
// DB_READ_HOST configured it is a no-op.
func ConnectReadReplica(cfg *config.Config) error {
	if cfg.DBReadHost == "" || cfg.DBDriver == "sqlite" {
		return nil
	}

	port := cfg.DBReadPort
	if port == "" {
		port = cfg.DBPort
	}
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBReadHost,
		port,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		sslMode,
	)

	gormLogger := &CustomGormLogger{
		logger: middleware.Logger,
		Config: logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return fmt.Errorf("failed to connect to read replica: %w", err)
	}

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	middleware.Logger.Info("Read replica connected successfully")
	readReplica = db
	return nil
}

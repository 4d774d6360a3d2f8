package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thabzzzzz/hardwarestorefront-sub000/config"
	"github.com/thabzzzzz/hardwarestorefront-sub000/models"
)

const (
	maxRetries     = 10
	retryDelay     = 5 * time.Second
	dbMaxOpenConns = 20
	dbMaxIdleConns = 5
	dbConnMaxLife  = 30 * time.Minute
)

// Open connects to Postgres, retrying while the server comes up.
func Open(ctx context.Context, cfg config.PostgresConfig, log *slog.Logger) (*gorm.DB, error) {
	dsn := cfg.ConnectionString()
	dial := func() (*gorm.DB, error) {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(dbMaxOpenConns)
		sqlDB.SetMaxIdleConns(dbMaxIdleConns)
		sqlDB.SetConnMaxLifetime(dbConnMaxLife)
		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("ping: %w", err)
		}
		return db, nil
	}

	db, err := connect(ctx, dial, maxRetries, retryDelay, log.With("host", cfg.Host, "dbname", cfg.DBName))
	if err != nil {
		return nil, err
	}
	log.Info("connected to postgres", "host", cfg.Host, "dbname", cfg.DBName)
	return db, nil
}

func connect(ctx context.Context, dial func() (*gorm.DB, error), attempts int, delay time.Duration, log *slog.Logger) (*gorm.DB, error) {
	var err error
	for i := 0; i < attempts; i++ {
		var db *gorm.DB
		db, err = dial()
		if err == nil {
			return db, nil
		}
		log.Warn("failed to connect to postgres", "attempt", i+1, "max_attempts", attempts, "error", err)
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("connect to postgres after %d attempts: %w", attempts, err)
}

// Migrate creates or updates every catalog table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Category{},
		&models.Vendor{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Price{},
		&models.StockLevel{},
		&models.Image{},
		&models.ImportLock{},
	)
}

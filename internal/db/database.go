package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/avdeev/storefront/internal/config"
	"github.com/avdeev/storefront/internal/models"
)

func configurePool(sqlDB *sql.DB) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

// Open connects to postgres when DATABASE_URL is set, otherwise to the
// local sqlite file at DB_PATH, and migrates the storefront tables.
func Open(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	var dial gorm.Dialector
	if cfg.DATABASE_URL != "" {
		dial = postgres.Open(cfg.DATABASE_URL)
	} else {
		dial = sqlite.Open(cfg.DB_PATH)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		PrepareStmt: true,
		NowFunc:     func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	if cfg.DATABASE_URL != "" {
		configurePool(sqlDB)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Item{},
		&models.CartLine{},
		&models.RefreshToken{},
	); err != nil {
		return fmt.Errorf("migrate tables: %w", err)
	}
	return nil
}

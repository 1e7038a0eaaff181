package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shops_api/internal/models"
)

const sqlitePrefix = "sqlite:"

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

func dialector(dsn string) gorm.Dialector {
	if path, ok := strings.CutPrefix(dsn, sqlitePrefix); ok {
		return sqlite.Open(path)
	}
	return postgres.Open(dsn)
}

// Open connects to postgres, or to sqlite when the DSN starts with "sqlite:".
func Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	isSQLite := strings.HasPrefix(dsn, sqlitePrefix)
	db, err := gorm.Open(dialector(dsn), &gorm.Config{
		PrepareStmt: !isSQLite,
		NowFunc:     func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if isSQLite {
		sqlDB.SetMaxOpenConns(1)
	} else {
		configurePool(sqlDB)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// shopEmailIndex keeps emails unique regardless of case while the column
// holds them as supplied. gorm tags cannot express an expression index.
const shopEmailIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_shops_email_lower ON shops (lower(email))`

// AutoMigrate creates the store tables plus any extra models the caller owns.
func AutoMigrate(db *gorm.DB, extra ...any) error {
	if err := db.AutoMigrate(append(models.All(), extra...)...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec(shopEmailIndex).Error; err != nil {
		return fmt.Errorf("auto migrate: shop email index: %w", err)
	}
	return nil
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

package database

import (
	"context"
	"database/sql"
	"fmt"

	"healthcore/common/config"
	"healthcore/common/startup"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// NewPostgresDB opens a pool and waits until the server answers a ping.
func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	if err := startup.WaitFor(ctx, "postgres", startup.DefaultAttempts, db.PingContext, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Close closes db when it is non-nil.
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}

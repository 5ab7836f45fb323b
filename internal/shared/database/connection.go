package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"starforge-server/internal/shared/config"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

type Executor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Open opens (creating if needed) the local snapshot database. Scenario
// state never leaves the machine; the file is the whole persistence story.
func Open() (*DB, error) {
	cfg := config.GlobalConfig
	logger := slog.With("component", "database", "operation", "open")
	logger.Debug("Opening snapshot database")

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.Store.Path)

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("Failed to open snapshot database", "error", err, "path", cfg.Store.Path)
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Store.MaxOpenConns)

	logger.Debug("Testing snapshot database with ping")
	if err := sqlDB.Ping(); err != nil {
		logger.Error("Failed to ping snapshot database", "error", err, "path", cfg.Store.Path)
		if closeErr := sqlDB.Close(); closeErr != nil {
			logger.Error("Failed to close database after ping failure", "close_error", closeErr, "ping_error", err)
		}
		return nil, fmt.Errorf("failed to ping snapshot database: %w", err)
	}

	logger.Info("Snapshot database ready", "path", cfg.Store.Path)

	return &DB{sqlDB}, nil
}

// Package repository persists the stock cache, daily OHLC history, and user
// strategy/filter definitions in postgres.
package repository

import (
	"context"
	"errors"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sentinel errors shared by the repository methods.
var (
	ErrStockNotFound = errors.New("stock not found in cache")
	ErrNoHistory     = errors.New("no history found for symbol")
)

// Database wraps the connection pool behind the persistence methods.
type Database struct {
	pool *pgxpool.Pool
}

// NewDatabase opens a pool against dbURL, registers the decimal codec, and
// verifies connectivity.
func NewDatabase(ctx context.Context, dbURL string) (*Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal for numeric columns.
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Database{pool: pool}, nil
}

// Close releases the connection pool.
func (db *Database) Close() {
	db.pool.Close()
}

// Ping verifies database connectivity.
func (db *Database) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Migrate creates the schema when it does not exist yet.
func (db *Database) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS stock_cache (
			symbol         TEXT PRIMARY KEY,
			name           TEXT NOT NULL DEFAULT '',
			price          NUMERIC NOT NULL DEFAULT 0,
			open           NUMERIC,
			high           NUMERIC,
			low            NUMERIC,
			close          NUMERIC,
			volume         BIGINT NOT NULL DEFAULT 0,
			change_percent NUMERIC NOT NULL DEFAULT 0,
			last_fetched   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS stock_history (
			symbol     TEXT NOT NULL,
			date       TEXT NOT NULL,
			open       NUMERIC,
			high       NUMERIC,
			low        NUMERIC,
			close      NUMERIC,
			volume     BIGINT NOT NULL DEFAULT 0,
			fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (symbol, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_symbol_date ON stock_history (symbol, date)`,
		`CREATE TABLE IF NOT EXISTS user_strategies (
			name       TEXT PRIMARY KEY,
			definition JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS user_filters (
			name       TEXT PRIMARY KEY,
			definition JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Info describes the cache for the UI status bar.
type Info struct {
	SizeBytes  int64 `json:"size_bytes"`
	StockCount int   `json:"stock_count"`
}

// GetInfo returns the database size and the number of cached stocks.
func (db *Database) GetInfo(ctx context.Context) (Info, error) {
	var info Info
	err := db.pool.QueryRow(ctx,
		`SELECT pg_database_size(current_database()), (SELECT count(*) FROM stock_cache)`,
	).Scan(&info.SizeBytes, &info.StockCount)
	if err != nil {
		return Info{}, fmt.Errorf("query db info: %w", err)
	}
	return info, nil
}

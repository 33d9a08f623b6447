package db

import (
	"context"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/garageops/workshop-notify/internal/config"
	"github.com/jmoiron/sqlx"
)

// NewMySQL opens the settings/templates/preferences store.
func NewMySQL(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	return open("mysql", cfg, 5*time.Second)
}

// NewClickHouse opens the dispatch audit store.
func NewClickHouse(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	return open("clickhouse", cfg, 3*time.Second)
}

func open(driver string, cfg config.DatabaseConfig, defaultPing time.Duration) (*sqlx.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%s: empty DSN", driver)
	}
	conn, err := sqlx.Open(driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = defaultPing
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s ping: %w", driver, err)
	}

	return conn, nil
}

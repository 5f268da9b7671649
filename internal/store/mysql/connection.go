// Package mysql holds the relational side of persistence: the append-only
// scrape log and the settings key/value table.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Config identifies the MySQL/MariaDB instance.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// Open initializes the connection pool and verifies it with a ping.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables this process owns when they do not exist
// yet. Schema evolution beyond that is handled outside the service.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scrape_logs (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			adapter_name VARCHAR(64) NOT NULL,
			status VARCHAR(16) NOT NULL,
			resources_count INT NOT NULL DEFAULT 0,
			error_message TEXT,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			started_at DATETIME(3) NOT NULL,
			finished_at DATETIME(3) NOT NULL,
			INDEX idx_scrape_logs_started_at (started_at)
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			` + "`key`" + ` VARCHAR(128) PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME(3) NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

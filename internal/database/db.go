// Package database opens the optional MySQL store that keeps the portal's
// own records (the bill audit trail). Everything else lives in the backend.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// The audit trail is low volume.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const billEventsDDL = `CREATE TABLE IF NOT EXISTS bill_events (
	id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
	bill_id       VARCHAR(64)   NOT NULL,
	event_type    VARCHAR(32)   NOT NULL,
	tenant_id     VARCHAR(64)   NULL,
	billing_month CHAR(7)       NULL,
	total_amount  DECIMAL(14,2) NOT NULL DEFAULT 0,
	status        VARCHAR(16)   NULL,
	actor_id      VARCHAR(64)   NULL,
	occurred_at   DATETIME(3)   NOT NULL,
	INDEX idx_bill_events_bill (bill_id, occurred_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// Migrate creates the tables the portal owns.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, billEventsDDL); err != nil {
		return fmt.Errorf("create bill_events: %w", err)
	}
	return nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Listing tables are written by the listing CRUD service and users by the
// identity provider. They are created here so a fresh database (or a
// sqlite file used in development) is usable on its own.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) PRIMARY KEY,
		username VARCHAR(191) NOT NULL DEFAULT '',
		email VARCHAR(191) NOT NULL DEFAULT ''
	)`,
	listingTable("hostels", "VARCHAR(64)", "TEXT", "DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP"),
	listingTable("messes", "VARCHAR(64)", "TEXT", "DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP"),
	listingTable("gyms", "VARCHAR(64)", "TEXT", "DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP"),
	`CREATE TABLE IF NOT EXISTS bookings (
		id VARCHAR(36) PRIMARY KEY,
		student_id VARCHAR(64) NOT NULL,
		owner_id VARCHAR(64) NOT NULL,
		service_type VARCHAR(16) NOT NULL,
		service_id VARCHAR(64) NOT NULL,
		check_in_date DATETIME NULL,
		start_date DATETIME NULL,
		duration VARCHAR(64) NOT NULL DEFAULT '',
		additional_requirements TEXT,
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		payment_status VARCHAR(16) NOT NULL DEFAULT 'unpaid',
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_bookings_owner_status (owner_id, status),
		INDEX idx_bookings_student (student_id)
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT ''
	)`,
	listingTable("hostels", "TEXT", "TEXT", "DATETIME DEFAULT CURRENT_TIMESTAMP"),
	listingTable("messes", "TEXT", "TEXT", "DATETIME DEFAULT CURRENT_TIMESTAMP"),
	listingTable("gyms", "TEXT", "TEXT", "DATETIME DEFAULT CURRENT_TIMESTAMP"),
	`CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		service_type TEXT NOT NULL,
		service_id TEXT NOT NULL,
		check_in_date DATETIME NULL,
		start_date DATETIME NULL,
		duration TEXT NOT NULL DEFAULT '',
		additional_requirements TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		payment_status TEXT NOT NULL DEFAULT 'unpaid',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_owner_status ON bookings(owner_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_student ON bookings(student_id)`,
}

func listingTable(name, idType, textType, tsType string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id %s PRIMARY KEY,
		owner_id %s NOT NULL,
		name %s NOT NULL,
		price BIGINT NOT NULL DEFAULT 0,
		capacity INT NOT NULL DEFAULT 0,
		images %s,
		address %s,
		created_at %s,
		updated_at %s
	)`, name, idType, idType, textType, textType, textType, tsType, tsType)
}

// Migrate creates the tables used by the booking core if they do not exist.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	stmts := mysqlSchema
	if driver == DriverSQLite {
		stmts = sqliteSchema
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

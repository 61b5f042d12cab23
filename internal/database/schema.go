package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Migrate creates the accounts and tickets tables if they do not exist.
// DDL differs per driver only in the auto-increment primary key spelling.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	var idCol string
	switch db.DriverName() {
	case "mysql":
		idCol = "BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY"
	case "sqlite3":
		idCol = "INTEGER PRIMARY KEY AUTOINCREMENT"
	default: // postgres
		idCol = "BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS accounts (
			id %s,
			username VARCHAR(200) NOT NULL UNIQUE,
			password_hash VARCHAR(200) NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			create_time TIMESTAMP NOT NULL
		)`, idCol),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tickets (
			id %s,
			submitter_id BIGINT NULL,
			subject VARCHAR(500) NOT NULL,
			description TEXT NOT NULL,
			category VARCHAR(200) NOT NULL,
			status VARCHAR(50) NOT NULL DEFAULT 'open',
			response TEXT NULL,
			attachment VARCHAR(500) NULL,
			create_time TIMESTAMP NOT NULL
		)`, idCol),
	}

	// MySQL has no CREATE INDEX IF NOT EXISTS; the small table scans the
	// admin listing performs are acceptable there without the index.
	if db.DriverName() != "mysql" {
		statements = append(statements,
			`CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets (status)`,
			`CREATE INDEX IF NOT EXISTS idx_tickets_submitter ON tickets (submitter_id)`,
		)
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	return nil
}

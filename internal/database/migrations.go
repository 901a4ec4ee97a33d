package database

import (
	"context"
	"fmt"
)

// RunMigrations creates the database schema. Every statement is idempotent.
func RunMigrations(ctx context.Context, db PGXDB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			member_id TEXT PRIMARY KEY,
			member_name TEXT NOT NULL,
			total_balance BIGINT NOT NULL DEFAULT 0,
			document JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS purchase_requests (
			id TEXT PRIMARY KEY,
			seq BIGSERIAL,
			member_id TEXT NOT NULL,
			item TEXT NOT NULL,
			amount BIGINT NOT NULL CHECK (amount > 0),
			from_sub_account TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			auto_approved BOOLEAN NOT NULL DEFAULT FALSE,
			requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			resolved_at TIMESTAMPTZ,
			resolved_by TEXT NOT NULL DEFAULT '',
			denied_reason TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE INDEX IF NOT EXISTS idx_purchase_requests_member_id ON purchase_requests(member_id)`,
		`CREATE INDEX IF NOT EXISTS idx_purchase_requests_status ON purchase_requests(status)`,

		`CREATE TABLE IF NOT EXISTS interest_runs (
			member_id TEXT NOT NULL,
			run_date DATE NOT NULL,
			amount BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (member_id, run_date)
		)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

// CleanupTables truncates all tables. Used by integration tests that run
// outside a rolled-back transaction.
func CleanupTables(ctx context.Context, db PGXDB) error {
	for _, table := range []string{"accounts", "purchase_requests", "interest_runs"} {
		if _, err := db.Exec(ctx, "TRUNCATE TABLE "+table); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

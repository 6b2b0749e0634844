// pkg/db/schema.go
package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// schema is written in the subset of DDL accepted by both PostgreSQL and SQLite.
// The {{...}} placeholders are filled per dialect by schemaFor.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS balances (
		user_id    BIGINT PRIMARY KEY,
		balance    {{money}} NOT NULL DEFAULT '0'{{check balance >= 0}},
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS financial_requests (
		id                     VARCHAR(36) PRIMARY KEY,
		user_id                BIGINT NOT NULL REFERENCES balances (user_id),
		kind                   VARCHAR(16) NOT NULL,
		amount                 {{money}} NOT NULL{{check amount > 0}},
		payment_method         VARCHAR(64) NOT NULL,
		purse                  TEXT,
		network                VARCHAR(64),
		selected_bonus_percent {{percent}},
		promo_code             VARCHAR(64),
		promo_bonus_percent    {{percent}},
		total_bonus_percent    {{percent}},
		bonus_amount           {{money}},
		final_total            {{money}},
		status                 VARCHAR(16) NOT NULL,
		admin_note             TEXT,
		rejection_reason       TEXT,
		decided_by             BIGINT,
		decided_at             TIMESTAMP,
		created_at             TIMESTAMP NOT NULL,
		updated_at             TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_financial_requests_user ON financial_requests (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_financial_requests_status ON financial_requests (status, created_at)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id            VARCHAR(36) PRIMARY KEY,
		user_id       BIGINT NOT NULL REFERENCES balances (user_id),
		request_id    VARCHAR(36) NOT NULL REFERENCES financial_requests (id),
		direction     VARCHAR(8) NOT NULL,
		amount        {{money}} NOT NULL,
		balance_after {{money}} NOT NULL,
		reason        TEXT NOT NULL,
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_user ON ledger_entries (user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS promo_codes (
		code       VARCHAR(64) PRIMARY KEY,
		percent    {{percent}} NOT NULL{{check percent > 0}},
		active     BOOLEAN NOT NULL DEFAULT TRUE,
		expires_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL
	)`,
}

var checkClauses = []string{"balance >= 0", "amount > 0", "percent > 0"}

// schemaFor renders the schema for a driver. SQLite gives NUMERIC columns a
// floating point affinity, so money and percents are kept as decimal text there
// and range checks are left to the application.
func schemaFor(driver string) []string {
	pairs := []string{}
	if driver == DriverSQLite {
		pairs = append(pairs, "{{money}}", "TEXT", "{{percent}}", "TEXT")
		for _, c := range checkClauses {
			pairs = append(pairs, "{{check "+c+"}}", "")
		}
	} else {
		pairs = append(pairs, "{{money}}", "NUMERIC(20, 4)", "{{percent}}", "NUMERIC(10, 4)")
		for _, c := range checkClauses {
			pairs = append(pairs, "{{check "+c+"}}", " CHECK ("+c+")")
		}
	}
	replacer := strings.NewReplacer(pairs...)

	stmts := make([]string, len(schema))
	for i, stmt := range schema {
		stmts[i] = replacer.Replace(stmt)
	}
	return stmts
}

// Migrate creates the tables and indexes the repositories rely on.
func Migrate(ctx context.Context, database *sqlx.DB) error {
	for _, stmt := range schemaFor(database.DriverName()) {
		if _, err := database.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Package repository implements the issue document store on top of SQL
// databases (via sqlx) and MongoDB.
package repository

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Supported SQL driver names.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS projects (
	name TEXT PRIMARY KEY,
	created_on TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS issues (
	id TEXT PRIMARY KEY,
	project TEXT NOT NULL REFERENCES projects(name),
	issue_title TEXT NOT NULL,
	issue_text TEXT NOT NULL,
	created_by TEXT NOT NULL,
	assigned_to TEXT NOT NULL DEFAULT '',
	status_text TEXT NOT NULL DEFAULT '',
	open BOOLEAN NOT NULL DEFAULT TRUE,
	created_on TIMESTAMPTZ NOT NULL,
	updated_on TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_issues_project ON issues(project);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS projects (
	name TEXT PRIMARY KEY,
	created_on DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS issues (
	id TEXT PRIMARY KEY,
	project TEXT NOT NULL REFERENCES projects(name),
	issue_title TEXT NOT NULL,
	issue_text TEXT NOT NULL,
	created_by TEXT NOT NULL,
	assigned_to TEXT NOT NULL DEFAULT '',
	status_text TEXT NOT NULL DEFAULT '',
	open BOOLEAN NOT NULL DEFAULT 1,
	created_on DATETIME NOT NULL,
	updated_on DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_issues_project ON issues(project);
`

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// OpenSQL connects to the database and applies pool settings suited to the
// driver. SQLite is limited to a single connection since it serializes
// writers anyway.
func OpenSQL(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
		return db, nil
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	schema := postgresSchema
	if db.DriverName() == DriverSQLite {
		schema = sqliteSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

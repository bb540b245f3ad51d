package database

import (
	"context"
	"database/sql"
	"fmt"

	"todo-api/pkg/logger"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		category_id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS todo_items (
		todo_id     BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		action      TEXT NOT NULL,
		done        BOOLEAN NOT NULL DEFAULT FALSE,
		category_id BIGINT NOT NULL REFERENCES categories (category_id)
	)`,
	`CREATE INDEX IF NOT EXISTS todo_items_category_id_idx ON todo_items (category_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		category_id INTEGER PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS todo_items (
		todo_id     INTEGER PRIMARY KEY,
		action      TEXT NOT NULL,
		done        BOOLEAN NOT NULL DEFAULT 0,
		category_id INTEGER NOT NULL REFERENCES categories (category_id)
	)`,
	`CREATE INDEX IF NOT EXISTS todo_items_category_id_idx ON todo_items (category_id)`,
}

// MigrateOrCreateSchema creates the categories and todo_items tables if they
// do not exist. It is not a migration system: existing tables are left as is.
func MigrateOrCreateSchema(ctx context.Context, db *sql.DB, driver string) error {
	stmts := postgresSchema
	if driver == DriverSQLite {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	logger.Info(ctx, "Schema ensured", "driver", driver)
	return nil
}

// Package dbtest opens throwaway SQLite databases with the service schema.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"todo-api/internal/config"
	"todo-api/internal/database"
	"todo-api/internal/models"
)

// New returns a migrated SQLite database in a temp dir, closed at test end.
func New(t testing.TB) *sql.DB {
	t.Helper()
	cfg := config.Default()
	cfg.DBDriver = database.DriverSQLite
	cfg.DatabaseURL = "file:" + filepath.Join(t.TempDir(), "todo.db")
	cfg.DBPoolSize = 4

	ctx := context.Background()
	db, err := database.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.MigrateOrCreateSchema(ctx, db, database.DriverSQLite); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// InsertCategory adds a category row.
func InsertCategory(t testing.TB, db *sql.DB, c models.Category) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO categories (category_id, name, description) VALUES (?, ?, ?)`,
		c.CategoryID, c.Name, c.Description)
	if err != nil {
		t.Fatalf("insert category %d: %v", c.CategoryID, err)
	}
}

// InsertItem adds a todo row.
func InsertItem(t testing.TB, db *sql.DB, it models.ToDoItem) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO todo_items (todo_id, action, done, category_id) VALUES (?, ?, ?, ?)`,
		it.TodoID, it.Action, it.Done, it.CategoryID)
	if err != nil {
		t.Fatalf("insert item %d: %v", it.TodoID, err)
	}
}

// CountItems returns the number of todo rows.
func CountItems(t testing.TB, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM todo_items`).Scan(&n); err != nil {
		t.Fatalf("count items: %v", err)
	}
	return n
}

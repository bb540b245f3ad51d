package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"todo-api/internal/config"
	"todo-api/internal/database"
	"todo-api/internal/database/dbtest"
	"todo-api/internal/models"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		driver, in, want string
	}{
		{database.DriverPostgres, "a = $1 AND b = $2", "a = $1 AND b = $2"},
		{database.DriverPgx, "a = $1", "a = $1"},
		{database.DriverSQLite, "a = $1 AND b = $12", "a = ? AND b = ?"},
		{database.DriverSQLite, "VALUES ($1,$2)", "VALUES (?,?)"},
		{database.DriverSQLite, "no params", "no params"},
	}
	for _, tt := range tests {
		if got := database.Rebind(tt.driver, tt.in); got != tt.want {
			t.Errorf("Rebind(%s, %q) = %q, want %q", tt.driver, tt.in, got, tt.want)
		}
	}
}

func TestOpenRequiresURL(t *testing.T) {
	cfg := config.Default()
	if _, err := database.Open(context.Background(), cfg); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestSchemaEnforcesCategoryForeignKey(t *testing.T) {
	db := dbtest.New(t)
	_, err := db.Exec(`INSERT INTO todo_items (todo_id, action, done, category_id) VALUES (1, 'x', 0, 99)`)
	if err == nil {
		t.Fatal("insert with unknown category should fail")
	}
}

func TestOpenSQLiteEnforcesForeignKeys(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		dsn  string
	}{
		{"plain file", "file:" + filepath.Join(dir, "plain.db")},
		{"bare path", filepath.Join(dir, "bare.db")},
		{"other params", "file:" + filepath.Join(dir, "params.db") + "?_busy_timeout=1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cfg := config.Default()
			cfg.DBDriver = database.DriverSQLite
			cfg.DatabaseURL = tt.dsn
			db, err := database.Open(ctx, cfg)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer db.Close()
			if err := database.MigrateOrCreateSchema(ctx, db, database.DriverSQLite); err != nil {
				t.Fatalf("migrate: %v", err)
			}
			if _, err := db.Exec(`INSERT INTO categories (category_id, name) VALUES (1, 'Home')`); err != nil {
				t.Fatal(err)
			}
			if _, err := db.Exec(`INSERT INTO todo_items (todo_id, action, done, category_id) VALUES (5, 'orphan', 0, 77)`); err == nil {
				t.Fatal("insert with unknown category should fail")
			}
			var n int
			if err := db.QueryRow(`SELECT COUNT(*) FROM todo_items`).Scan(&n); err != nil || n != 0 {
				t.Fatalf("rows = %d, %v; want 0", n, err)
			}
		})
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	if err := database.MigrateOrCreateSchema(context.Background(), db, database.DriverSQLite); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestSessionLazyAcquireAndRelease(t *testing.T) {
	db := dbtest.New(t)
	dbtest.InsertCategory(t, db, models.Category{CategoryID: 1, Name: "Home"})
	ctx := context.Background()

	s := database.NewSession(db)
	if s.Acquired() {
		t.Fatal("session should not hold a connection before use")
	}
	rows, err := s.QueryContext(ctx, `SELECT name FROM categories`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	rows.Close()
	if !s.Acquired() {
		t.Fatal("session should hold a connection after use")
	}
	if got := db.Stats().InUse; got != 1 {
		t.Fatalf("in use = %d, want 1", got)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := db.Stats().InUse; got != 0 {
		t.Fatalf("in use after close = %d, want 0", got)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := s.ExecContext(ctx, `SELECT 1`); !errors.Is(err, database.ErrSessionClosed) {
		t.Fatalf("use after close err = %v", err)
	}
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"todo-api/internal/config"
	"todo-api/pkg/logger"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres" // lib/pq
	DriverPgx      = "pgx"      // jackc/pgx stdlib
	DriverSQLite   = "sqlite3"  // mattn/go-sqlite3
)

// Open opens the connection pool described by cfg and verifies it with a ping.
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}
	dsn := cfg.DatabaseURL
	if cfg.DBDriver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}
	db, err := sql.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	db.SetMaxOpenConns(cfg.DBPoolSize)
	db.SetMaxIdleConns(max(1, cfg.DBPoolSize/2))
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.DBDriver, err)
	}
	logger.Info(ctx, "Database pool initialized", "driver", cfg.DBDriver, "max_open", cfg.DBPoolSize)
	return db, nil
}

// sqliteDSN turns on foreign key enforcement, which go-sqlite3 leaves off
// unless the DSN asks for it. An explicit _foreign_keys or _fk wins.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

// Rebind rewrites $N placeholders to ? for drivers that only accept the latter.
func Rebind(driver, query string) string {
	if driver != DriverSQLite {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && isDigit(query[i+1]) {
			b.WriteByte('?')
			for i+1 < len(query) && isDigit(query[i+1]) {
				i++
			}
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

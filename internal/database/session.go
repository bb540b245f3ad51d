package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

// ErrSessionClosed is returned by a Session used after Close.
var ErrSessionClosed = errors.New("database session closed")

// Querier is the subset of *sql.DB, *sql.Conn and *sql.Tx the repositories use.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Session is a request-scoped store handle. It checks out one pooled
// connection on first use and returns it on Close. Requests served entirely
// from cache never touch the pool.
type Session struct {
	db *sql.DB

	mu     sync.Mutex
	conn   *sql.Conn
	closed bool
}

// NewSession returns a session over db. The caller must Close it.
func NewSession(db *sql.DB) *Session {
	return &Session{db: db}
}

func (s *Session) acquire(ctx context.Context) (*sql.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.conn == nil {
		conn, err := s.db.Conn(ctx)
		if err != nil {
			return nil, err
		}
		s.conn = conn
	}
	return s.conn, nil
}

// ExecContext runs a statement on the session's connection.
func (s *Session) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn.ExecContext(ctx, query, args...)
}

// QueryContext runs a query on the session's connection.
func (s *Session) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	conn, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn.QueryContext(ctx, query, args...)
}

// Acquired reports whether a connection is currently checked out.
func (s *Session) Acquired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Close returns the connection to the pool. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

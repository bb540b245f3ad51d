package repository

import (
	"context"
	"errors"
	"fmt"

	"todo-api/internal/database"
	"todo-api/internal/models"
)

// ErrNotFound is returned when no todo row matches the requested id.
var ErrNotFound = errors.New("todo not found")

const selectViews = `SELECT t.todo_id, t.action, t.done, t.category_id, c.category_id, c.name, c.description
	FROM todo_items t
	INNER JOIN categories c ON c.category_id = t.category_id`

const syncIdentitySQL = `SELECT setval(pg_get_serial_sequence('todo_items', 'todo_id'),
	GREATEST((SELECT MAX(todo_id) FROM todo_items), 1))`

// Todos reads and writes todo_items through a request-scoped Querier.
type Todos struct {
	q      database.Querier
	driver string
}

// NewTodos returns a repository bound to q. driver selects placeholder style.
func NewTodos(q database.Querier, driver string) *Todos {
	return &Todos{q: q, driver: driver}
}

func (r *Todos) rebind(query string) string {
	return database.Rebind(r.driver, query)
}

// List returns every todo joined with its category, ordered by id.
func (r *Todos) List(ctx context.Context) ([]models.ToDoItemView, error) {
	rows, err := r.q.QueryContext(ctx, selectViews+` ORDER BY t.todo_id`)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()
	views := []models.ToDoItemView{}
	for rows.Next() {
		var it models.ToDoItem
		var cat models.Category
		if err := rows.Scan(&it.TodoID, &it.Action, &it.Done, &it.CategoryID, &cat.CategoryID, &cat.Name, &cat.Description); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		views = append(views, models.NewToDoItemView(it, cat))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return views, nil
}

// Get returns the view for id, or ErrNotFound.
func (r *Todos) Get(ctx context.Context, id int64) (*models.ToDoItemView, error) {
	rows, err := r.q.QueryContext(ctx, r.rebind(selectViews+` WHERE t.todo_id = $1`), id)
	if err != nil {
		return nil, fmt.Errorf("get todo %d: %w", id, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get todo %d: %w", id, err)
		}
		return nil, ErrNotFound
	}
	var it models.ToDoItem
	var cat models.Category
	if err := rows.Scan(&it.TodoID, &it.Action, &it.Done, &it.CategoryID, &cat.CategoryID, &cat.Name, &cat.Description); err != nil {
		return nil, fmt.Errorf("scan todo %d: %w", id, err)
	}
	v := models.NewToDoItemView(it, cat)
	return &v, nil
}

// Create inserts item. A non-zero TodoID is stored verbatim; zero lets the
// store assign one, which is written back into item.
func (r *Todos) Create(ctx context.Context, item *models.ToDoItem) error {
	var (
		query string
		args  []any
	)
	explicit := item.TodoID != 0
	if explicit {
		query = `INSERT INTO todo_items (todo_id, action, done, category_id) VALUES ($1, $2, $3, $4) RETURNING todo_id`
		args = []any{item.TodoID, item.Action, item.Done, item.CategoryID}
	} else {
		query = `INSERT INTO todo_items (action, done, category_id) VALUES ($1, $2, $3) RETURNING todo_id`
		args = []any{item.Action, item.Done, item.CategoryID}
	}
	if err := r.insertReturningID(ctx, query, args, &item.TodoID); err != nil {
		return err
	}
	if explicit {
		return r.syncIdentity(ctx)
	}
	return nil
}

// insertReturningID runs an INSERT ... RETURNING todo_id and releases its rows
// before returning, so the caller can reuse a single-connection session.
func (r *Todos) insertReturningID(ctx context.Context, query string, args []any, id *int64) error {
	rows, err := r.q.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(id); err != nil {
			return fmt.Errorf("create todo: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

// syncIdentity moves the Postgres identity sequence past explicitly inserted
// ids so a later store-assigned id cannot collide with them. SQLite already
// assigns max(rowid)+1.
func (r *Todos) syncIdentity(ctx context.Context) error {
	if r.driver != database.DriverPostgres && r.driver != database.DriverPgx {
		return nil
	}
	_, err := r.q.ExecContext(ctx, syncIdentitySQL)
	if err != nil {
		return fmt.Errorf("sync todo id sequence: %w", err)
	}
	return nil
}

// Update overwrites the scalar fields of the row whose id is item.TodoID.
// It returns ErrNotFound, and changes nothing, when no such row exists.
func (r *Todos) Update(ctx context.Context, item *models.ToDoItem) error {
	res, err := r.q.ExecContext(ctx,
		r.rebind(`UPDATE todo_items SET todo_id = $1, action = $2, done = $3, category_id = $4 WHERE todo_id = $5`),
		item.TodoID, item.Action, item.Done, item.CategoryID, item.TodoID)
	if err != nil {
		return fmt.Errorf("update todo %d: %w", item.TodoID, err)
	}
	return expectOneRow(res.RowsAffected())
}

// Delete removes the row with id, or returns ErrNotFound.
func (r *Todos) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, r.rebind(`DELETE FROM todo_items WHERE todo_id = $1`), id)
	if err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	return expectOneRow(res.RowsAffected())
}

// Count returns the number of todo rows.
func (r *Todos) Count(ctx context.Context) (int, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT COUNT(*) FROM todo_items`)
	if err != nil {
		return 0, fmt.Errorf("count todos: %w", err)
	}
	defer rows.Close()
	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, fmt.Errorf("count todos: %w", err)
		}
	}
	return n, rows.Err()
}

func expectOneRow(n int64, err error) error {
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

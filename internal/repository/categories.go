package repository

import (
	"context"
	"fmt"

	"todo-api/internal/database"
	"todo-api/internal/models"
)

// Categories reads the categories lookup table.
type Categories struct {
	q      database.Querier
	driver string
}

func NewCategories(q database.Querier, driver string) *Categories {
	return &Categories{q: q, driver: driver}
}

// List returns all categories ordered by id.
func (r *Categories) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT category_id, name, description FROM categories ORDER BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	cats := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.CategoryID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// Ensure inserts cat unless a category with its id already exists.
// It reports whether a row was added.
func (r *Categories) Ensure(ctx context.Context, cat models.Category) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		database.Rebind(r.driver, `INSERT INTO categories (category_id, name, description) VALUES ($1, $2, $3) ON CONFLICT (category_id) DO NOTHING`),
		cat.CategoryID, cat.Name, cat.Description)
	if err != nil {
		return false, fmt.Errorf("ensure category %d: %w", cat.CategoryID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

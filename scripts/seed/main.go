// Seed adds the default categories and a batch of todos to the database.
// Run from project root: go run ./scripts/seed -n 1000
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"todo-api/internal/config"
	"todo-api/internal/database"
	"todo-api/internal/models"
	"todo-api/internal/repository"
)

var categories = []models.Category{
	{CategoryID: 1, Name: "Home", Description: "Things to do around the house"},
	{CategoryID: 2, Name: "Work", Description: "Office and project tasks"},
	{CategoryID: 3, Name: "Errands", Description: "Shopping and appointments"},
}

func main() {
	total := flag.Int("n", 1000, "number of todos to insert")
	batchSize := flag.Int("batch", 500, "todos per transaction")
	flag.Parse()

	_ = godotenv.Load()
	ctx := context.Background()
	cfg := config.Get()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "DB connection failed:", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.MigrateOrCreateSchema(ctx, db, cfg.DBDriver); err != nil {
		fmt.Fprintln(os.Stderr, "Schema failed:", err)
		os.Exit(1)
	}

	cats := repository.NewCategories(db, cfg.DBDriver)
	for _, c := range categories {
		if _, err := cats.Ensure(ctx, c); err != nil {
			fmt.Fprintln(os.Stderr, "Category insert failed:", err)
			os.Exit(1)
		}
	}

	start := time.Now()
	for done := 0; done < *total; {
		n := min(*batchSize, *total-done)
		if err := insertBatch(ctx, db, cfg.DBDriver, done, n); err != nil {
			fmt.Fprintln(os.Stderr, "Insert failed:", err)
			os.Exit(1)
		}
		done += n
		fmt.Printf("\rInserted %d / %d", done, *total)
	}
	fmt.Printf("\nDone: %d todos in %v\n", *total, time.Since(start))
}

func insertBatch(ctx context.Context, db *sql.DB, driver string, offset, n int) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	todos := repository.NewTodos(tx, driver)
	for i := 0; i < n; i++ {
		seq := offset + i + 1
		item := models.ToDoItem{
			Action:     fmt.Sprintf("Todo %d", seq),
			Done:       seq%4 == 0,
			CategoryID: categories[seq%len(categories)].CategoryID,
		}
		if err := todos.Create(ctx, &item); err != nil {
			return err
		}
	}
	return tx.Commit()
}

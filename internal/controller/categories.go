package controller

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"todo-api/internal/models"
	"todo-api/internal/repository"
)

// CategoryController serves the read-only category lookup.
type CategoryController struct {
	db     *sql.DB
	driver string
}

func NewCategoryController(db *sql.DB, driver string) *CategoryController {
	return &CategoryController{db: db, driver: driver}
}

// GetCategories lists every category, so clients can pick a CategoryId.
func (h *CategoryController) GetCategories(c *gin.Context) {
	cats, err := repository.NewCategories(querier(c, h.db), h.driver).List(c.Request.Context())
	if err != nil {
		internalError(c, "GetCategories failed", err)
		return
	}
	views := make([]models.CategoryView, 0, len(cats))
	for _, cat := range cats {
		views = append(views, models.NewCategoryView(cat))
	}
	c.JSON(http.StatusOK, views)
}

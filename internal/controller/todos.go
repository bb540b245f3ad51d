package controller

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"todo-api/internal/cache"
	"todo-api/internal/database"
	"todo-api/internal/metrics"
	"todo-api/internal/middleware"
	"todo-api/internal/models"
	"todo-api/internal/repository"
	"todo-api/pkg/logger"
)

const jsonContentType = "application/json; charset=utf-8"

// EventPublisher receives a ToDoEvent after each committed write.
type EventPublisher interface {
	Publish(ctx context.Context, ev *models.ToDoEvent) error
}

// TodoOptions configures a TodoController.
type TodoOptions struct {
	DB                *sql.DB
	Driver            string
	Cache             *cache.Cache
	Events            EventPublisher
	Metrics           *metrics.Metrics
	ListEmptyNotFound bool
}

// TodoController serves the /todos endpoints.
type TodoController struct {
	opts  TodoOptions
	reads singleflight.Group
	// writes counts committed writes; reads never join a flight started
	// before the latest one.
	writes atomic.Uint64
}

func NewTodoController(opts TodoOptions) *TodoController {
	return &TodoController{opts: opts}
}

type listResult struct {
	body  []byte
	count int
}

// GetTodos returns every todo with its category. An empty table answers 404
// unless ListEmptyNotFound is off.
func (h *TodoController) GetTodos(c *gin.Context) {
	ctx := c.Request.Context()
	b, ver, ok := h.opts.Cache.GetList(ctx)
	if ok {
		h.opts.Metrics.ObserveCache("list", true)
		c.Data(http.StatusOK, jsonContentType, b)
		return
	}
	h.opts.Metrics.ObserveCache("list", false)

	repo := h.todos(c)
	v, err, _ := h.reads.Do(h.flightKey("list", ver), func() (any, error) {
		views, err := repo.List(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(views)
		if err != nil {
			return nil, err
		}
		return listResult{body: b, count: len(views)}, nil
	})
	if err != nil {
		internalError(c, "GetTodos failed", err)
		return
	}
	res := v.(listResult)
	if res.count == 0 {
		if h.opts.ListEmptyNotFound {
			notFound(c)
			return
		}
		c.Data(http.StatusOK, jsonContentType, res.body)
		return
	}
	h.opts.Cache.SetList(ctx, ver, res.body)
	c.Data(http.StatusOK, jsonContentType, res.body)
}

// GetTodo returns one todo with its category.
func (h *TodoController) GetTodo(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := parseID(c)
	if !ok {
		return
	}
	cached, ver, hit := h.opts.Cache.GetItem(ctx, id)
	if hit {
		h.opts.Metrics.ObserveCache("item", true)
		c.Data(http.StatusOK, jsonContentType, cached)
		return
	}
	h.opts.Metrics.ObserveCache("item", false)

	repo := h.todos(c)
	v, err, _ := h.reads.Do(h.flightKey("item:"+strconv.FormatInt(id, 10), ver), func() (any, error) {
		view, err := repo.Get(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(view)
	})
	if errors.Is(err, repository.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		internalError(c, "GetTodo failed", err, "id", id)
		return
	}
	b := v.([]byte)
	h.opts.Cache.SetItem(ctx, id, ver, b)
	c.Data(http.StatusOK, jsonContentType, b)
}

// CreateTodo inserts the submitted todo, keeping a caller-supplied id, and
// returns the stored entity without its category.
func (h *TodoController) CreateTodo(c *gin.Context) {
	ctx := c.Request.Context()
	body, ok := bindView(c)
	if !ok {
		return
	}
	item := body.Item()
	if err := h.todos(c).Create(ctx, &item); err != nil {
		internalError(c, "CreateTodo failed", err, "id", item.TodoID)
		return
	}
	h.afterWrite(c, models.EventCreated, item.TodoID, &item)
	c.JSON(http.StatusOK, item)
}

// UpdateTodo overwrites the todo named by the id in the body.
func (h *TodoController) UpdateTodo(c *gin.Context) {
	ctx := c.Request.Context()
	body, ok := bindView(c)
	if !ok {
		return
	}
	item := body.Item()
	err := h.todos(c).Update(ctx, &item)
	if errors.Is(err, repository.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		internalError(c, "UpdateTodo failed", err, "id", item.TodoID)
		return
	}
	h.afterWrite(c, models.EventUpdated, item.TodoID, &item)
	c.Status(http.StatusOK)
}

// DeleteTodo removes the todo with the path id.
func (h *TodoController) DeleteTodo(c *gin.Context) {
	ctx := c.Request.Context()
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := h.todos(c).Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		internalError(c, "DeleteTodo failed", err, "id", id)
		return
	}
	h.afterWrite(c, models.EventDeleted, id, nil)
	c.Status(http.StatusOK)
}

func (h *TodoController) flightKey(name string, ver cache.Version) string {
	return name + "@" + strconv.FormatUint(h.writes.Load(), 10) + ":" + ver.String()
}

func (h *TodoController) todos(c *gin.Context) *repository.Todos {
	return repository.NewTodos(querier(c, h.opts.DB), h.opts.Driver)
}

// afterWrite runs once the store has committed. Neither step can fail the request.
func (h *TodoController) afterWrite(c *gin.Context, eventType string, id int64, item *models.ToDoItem) {
	ctx := c.Request.Context()
	h.writes.Add(1)
	h.opts.Cache.Invalidate(ctx, id)
	if h.opts.Events == nil {
		return
	}
	ev := &models.ToDoEvent{
		Type:       eventType,
		TodoID:     id,
		Item:       item,
		RequestID:  c.GetString(middleware.RequestIDKey),
		OccurredAt: time.Now().UTC(),
	}
	if err := h.opts.Events.Publish(ctx, ev); err != nil {
		logger.Warn(ctx, "Publish todo event failed", "error", err, "type", eventType, "id", id)
	}
}

func internalError(c *gin.Context, msg string, err error, args ...any) {
	if isContextErr(err) && c.Request.Context().Err() != nil {
		c.AbortWithStatus(499)
		return
	}
	logger.Error(c.Request.Context(), msg, append([]any{"error", err}, args...)...)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func querier(c *gin.Context, db *sql.DB) database.Querier {
	if s := middleware.Session(c); s != nil {
		return s
	}
	return db
}

func bindView(c *gin.Context) (models.ToDoItemView, bool) {
	var body models.ToDoItemView
	if err := c.ShouldBindJSON(&body); err != nil {
		resp := gin.H{"error": "Invalid Data"}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			resp["fields"] = fields
		} else {
			resp["details"] = err.Error()
		}
		c.JSON(http.StatusBadRequest, resp)
		return body, false
	}
	return body, true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid todo id"})
		return 0, false
	}
	return id, true
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"todo-api/internal/cache"
	"todo-api/internal/config"
	"todo-api/internal/controller"
	"todo-api/internal/metrics"
	"todo-api/internal/middleware"
)

// Deps are the collaborators the router wires into handlers. Cache, Events
// and Metrics may be nil.
type Deps struct {
	Config  *config.Config
	DB      *sql.DB
	Cache   *cache.Cache
	Events  controller.EventPublisher
	Metrics *metrics.Metrics
}

func Router(d Deps) *gin.Engine {
	gin.SetMode(d.Config.GinMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Metrics(d.Metrics),
		middleware.CORS(),
	)

	// Health for load balancers and K8s probes
	router.GET("/health", controller.Health)
	router.GET("/ready", controller.Ready(d.DB, d.Cache))
	router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	todos := controller.NewTodoController(controller.TodoOptions{
		DB:                d.DB,
		Driver:            d.Config.DBDriver,
		Cache:             d.Cache,
		Events:            d.Events,
		Metrics:           d.Metrics,
		ListEmptyNotFound: d.Config.ListEmptyNotFound,
	})
	categories := controller.NewCategoryController(d.DB, d.Config.DBDriver)

	api := router.Group("")
	api.Use(middleware.DBSession(d.DB))
	{
		api.GET("/todos", todos.GetTodos)
		api.GET("/todos/:id", todos.GetTodo)
		api.GET("/categories", categories.GetCategories)
	}

	// Writes need a bearer token when JWT_SECRET is set
	writes := api.Group("")
	writes.Use(middleware.Auth(d.Config.JWTSecret))
	{
		writes.POST("/todos", todos.CreateTodo)
		writes.PUT("/todos", todos.UpdateTodo)
		writes.DELETE("/todos/:id", todos.DeleteTodo)
	}

	return router
}

package controller

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"todo-api/internal/cache"
)

// Health returns 200 if the process is alive. Used by load balancers.
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Ready returns a handler answering 200 once the database, and the cache
// when one is configured, respond to a ping. Used by K8s readiness probes.
func Ready(db *sql.DB, rc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database ping failed"})
			return
		}
		if err := rc.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis ping failed"})
			return
		}
		c.String(http.StatusOK, "OK")
	}
}

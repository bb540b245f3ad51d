package middleware

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"todo-api/internal/database"
	"todo-api/pkg/logger"
)

const sessionKey = "db_session"

// DBSession gives each request its own store session and releases it when
// the handler chain returns, whether normally or by panic.
func DBSession(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := database.NewSession(db)
		defer func() {
			if err := s.Close(); err != nil {
				logger.Warn(c.Request.Context(), "Release db session failed", "error", err)
			}
		}()
		c.Set(sessionKey, s)
		c.Next()
	}
}

// Session returns the request's store session, or nil outside DBSession.
func Session(c *gin.Context) *database.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*database.Session); ok {
			return s
		}
	}
	return nil
}

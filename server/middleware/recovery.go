package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/lifemap/memorymap/errors"
	"github.com/lifemap/memorymap/logger"
)

// Recovery turns a handler panic into a logged 500 with the error envelope.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithContext(c.Request.Context()).Error("Panic recovered", logger.Fields(
					logger.FieldError, fmt.Sprintf("%v", rec),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				))
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					apperrors.New(apperrors.ErrCodeInternal, "Internal server error", http.StatusInternalServerError).ToResponse())
			}
		}()
		c.Next()
	}
}

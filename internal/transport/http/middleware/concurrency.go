package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "go-gin-mock-users/internal/transport/http/response"
)

// ConcurrencyLimit caps in-flight requests. Waiting requests give up when
// their context ends. Streams on streamRoutes do not hold a slot.
func ConcurrencyLimit(limit int64, streamRoutes ...string) gin.HandlerFunc {
	sem := semaphore.NewWeighted(limit)
	return func(c *gin.Context) {
		if longLived(c, streamRoutes) {
			c.Next()
			return
		}
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeServiceUnavailable, "server busy"))
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}

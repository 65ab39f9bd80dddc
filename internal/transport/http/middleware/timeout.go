package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	resp "go-gin-mock-users/internal/transport/http/response"
)

// longLived reports whether c is a stream that must not be bounded: one of
// the given route patterns, or any request asking for an event stream.
func longLived(c *gin.Context, routes []string) bool {
	return slices.Contains(routes, c.FullPath()) ||
		strings.Contains(c.GetHeader("Accept"), "text/event-stream")
}

// Timeout bounds the request context. Streams on streamRoutes are exempt.
func Timeout(d time.Duration, streamRoutes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if longLived(c, streamRoutes) {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeTimeout, "timeout"))
		}
	}
}

package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-gin-mock-users/internal/core/server"
	mdw "go-gin-mock-users/internal/transport/http/middleware"
)

const streamRoute = "/api/v1/users/stream"

// NewAPIEngine builds the user-facing mock API under /api/v1.
func NewAPIEngine(l *zap.Logger, corsOrigins []string, reg *Registry) *gin.Engine {
	r := server.NewRouter(l, server.Options{CORSOrigins: corsOrigins, Recovery: mdw.PanicResponse})

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300, streamRoute),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second, streamRoute),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	reg.MountAllAPI(api)

	return r
}

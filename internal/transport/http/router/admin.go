package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-mock-users/internal/core/auth"
	"go-gin-mock-users/internal/core/server"
	mdw "go-gin-mock-users/internal/transport/http/middleware"
)

// NewAdminEngine builds the operator API under /admin/v1. Only the token
// route is reachable without an admin JWT.
func NewAdminEngine(l *zap.Logger, corsOrigins []string, jwter *auth.JWTer, reg *Registry) *gin.Engine {
	r := server.NewRouter(l, server.Options{CORSOrigins: corsOrigins, Recovery: mdw.PanicResponse})

	r.Use(
		mdw.RequestID(),
		mdw.RateLimitPerIP(20, 40),
		mdw.ConcurrencyLimit(50),
		mdw.MaxBodyBytes(64<<10),
		mdw.Timeout(10*time.Second),
		mdw.Metrics(),
		mdw.AccessLog(l),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	public := r.Group("/admin/v1")
	protected := r.Group("/admin/v1")
	protected.Use(mdw.AuthJWT(jwter, "admin"))

	reg.MountAllAdmin(public, protected)

	return r
}

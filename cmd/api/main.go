package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go-gin-mock-users/internal/core/auth"
	"go-gin-mock-users/internal/core/cache"
	"go-gin-mock-users/internal/core/config"
	"go-gin-mock-users/internal/core/logger"
	"go-gin-mock-users/internal/core/server"
	"go-gin-mock-users/internal/feature/user"
	"go-gin-mock-users/internal/transport/http/handler"
	"go-gin-mock-users/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.FromConfig(cfg.Log)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logger.ToWriter(log.Named("gin"), zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(log.Named("gin"), zapcore.ErrorLevel)

	store := mustStore(cfg, log)
	viewCache := openCache(cfg, log)
	if viewCache != nil {
		defer viewCache.Close()
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}
	reg := router.NewRegistry(
		handler.NewUserHandler(store, viewCache, time.Duration(cfg.Redis.TTLSec)*time.Second, log.Named("users")),
		handler.NewAdminHandler(store, jwter, cfg.Admin, log.Named("admin")),
	)

	// The admin console shares the in-memory store, so both listeners live
	// in this process.
	apiSrv := server.BuildServer(
		server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port),
		router.NewAPIEngine(log, cfg.App.HTTP.CORSOrigins, reg),
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)
	// SSE responses outlive any write deadline.
	apiSrv.WriteTimeout = 0
	servers := []*http.Server{apiSrv}
	httpErrLog, err := logger.ToStdLogger(log.Named("http"), zapcore.WarnLevel)
	if err != nil {
		log.Fatal("http error log", zap.Error(err))
	}

	base := server.HumanURL(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	log.Info("mock user api starting",
		zap.String("addr", apiSrv.Addr),
		zap.String("open", base),
		zap.String("health", base+"/health"),
		zap.String("api_v1", base+"/api/v1/users"),
		zap.Duration("latency", cfg.Mock.Latency()),
		zap.Float64("failure_rate", cfg.Mock.FailureRate),
	)

	switch {
	case cfg.App.Admin.Port <= 0:
		log.Info("admin api disabled")
	case cfg.JWT.Secret == "":
		log.Warn("jwt.secret is empty; admin api not started")
	default:
		adminSrv := server.BuildServer(
			server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port),
			router.NewAdminEngine(log, cfg.App.HTTP.CORSOrigins, jwter, reg),
			5*time.Second, 10*time.Second, 60*time.Second,
		)
		servers = append(servers, adminSrv)
		adminBase := server.HumanURL(cfg.App.Admin.Host, cfg.App.Admin.Port)
		log.Info("admin api starting", zap.String("addr", adminSrv.Addr), zap.String("admin_v1", adminBase+"/admin/v1"))
		if cfg.Admin.PasswordHash == "" {
			log.Warn("admin.password_hash is empty; admin login disabled")
		}
	}

	for _, srv := range servers {
		srv.ErrorLog = httpErrLog
		go func(srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal("listen FAILED", zap.String("addr", srv.Addr), zap.Error(err))
			}
		}(srv)
	}
	log.Info("mock user api started SUCCESS")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		_ = srv.Shutdown(ctx)
	}
	log.Info("mock user api stopped gracefully")
}

func mustStore(cfg *config.Config, l *zap.Logger) *user.Store {
	strategy, err := user.ParseIDStrategy(cfg.Mock.IDStrategy)
	if err != nil {
		l.Fatal("mock config", zap.Error(err))
	}
	seed := cfg.Mock.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return user.NewStore(user.Options{
		Latency:     cfg.Mock.Latency(),
		FailureRate: cfg.Mock.FailureRate,
		Rand:        rand.New(rand.NewSource(seed)),
		Logger:      l.Named("mock"),
		IDStrategy:  strategy,
		Observer:    user.NewPromObserver(prometheus.DefaultRegisterer),
	})
}

// openCache returns nil when redis is not configured or not reachable; views
// are then computed per request.
func openCache(cfg *config.Config, l *zap.Logger) *cache.Cache {
	if cfg.Redis.Addr == "" {
		return nil
	}
	c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		l.Warn("redis unreachable, view cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = c.Close()
		return nil
	}
	l.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	return c
}

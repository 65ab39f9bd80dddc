package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-mock-users/internal/core/cache"
	"go-gin-mock-users/internal/domain"
	"go-gin-mock-users/internal/feature/user"
	"go-gin-mock-users/internal/transport/http/ez"
)

// UserHandler serves the mock user API, the REST shape a real backend
// would later take over.
type UserHandler struct {
	store    *user.Store
	cache    *cache.Cache // nil disables view caching
	cacheTTL time.Duration
	log      *zap.Logger
}

func NewUserHandler(store *user.Store, c *cache.Cache, ttl time.Duration, l *zap.Logger) *UserHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserHandler{store: store, cache: c, cacheTTL: ttl, log: l}
}

type listOut struct {
	Total int           `json:"total"`
	Items []domain.User `json:"items"`
}

// MountAPI registers the /users routes on api.
func (h *UserHandler) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api)

	// GET /users runs a simulated refresh first; it may fail.
	ez.RegisterAction(e, ez.Action[struct{}, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (listOut, error) {
			if err := h.store.FetchUsers(c.Request.Context()); err != nil {
				return listOut{}, fetchErr(err)
			}
			users := h.store.Users()
			return listOut{Total: len(users), Items: users}, nil
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, user.Snapshot]{
		Method: http.MethodGet,
		Path:   "/users/state",
		Binder: ez.BindNone,
		Handler: func(*gin.Context, *struct{}) (user.Snapshot, error) {
			return h.store.Snapshot(), nil
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, []domain.User]{
		Method: http.MethodGet,
		Path:   "/users/active",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.User, error) {
			return cachedView(h, c, "active", h.store.ActiveUsers)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, domain.ByRole]{
		Method: http.MethodGet,
		Path:   "/users/by-role",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (domain.ByRole, error) {
			return cachedView(h, c, "by-role", h.store.UsersByRole)
		},
	})

	api.GET("/users/stream", h.stream)

	ez.RegisterAction(e, ez.Action[struct{}, domain.User]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (domain.User, error) {
			u, ok := h.store.GetUser(c.Param("id"))
			if !ok {
				return domain.User{}, ez.NotFound("user not found")
			}
			return u, nil
		},
	})

	ez.RegisterAction(e, ez.Action[domain.NewUser, domain.Result]{
		Method: http.MethodPost,
		Path:   "/users",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *domain.NewUser) (domain.Result, error) {
			return h.store.CreateUser(c.Request.Context(), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[domain.UserPatch, domain.Result]{
		Method: http.MethodPatch,
		Path:   "/users/:id",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *domain.UserPatch) (domain.Result, error) {
			return h.store.UpdateUser(c.Request.Context(), c.Param("id"), *in)
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, domain.Result]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (domain.Result, error) {
			return h.store.DeleteUser(c.Request.Context(), c.Param("id"))
		},
	})
}

func (h *UserHandler) key(view string) string {
	if h.cache == nil {
		return ""
	}
	return h.cache.Key(h.store.Instance(), view, h.store.Version())
}

// cachedView serves a derived view, through redis when configured. Keys
// carry the store instance and version so a cached view never outlives a
// mutation or leaks across processes.
func cachedView[T any](h *UserHandler, c *gin.Context, name string, compute func() T) (T, error) {
	out, err := cache.GetOrLoadJSON(h.cache, c.Request.Context(), h.key(name), h.cacheTTL,
		func(context.Context) (T, error) { return compute(), nil })
	if err != nil {
		return out, ez.Internal("load view failed", err)
	}
	return out, nil
}

func fetchErr(err error) error {
	switch {
	case errors.Is(err, user.ErrFetchFailed):
		return ez.Unavailable(user.FetchErrorMessage, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ez.Timeout(err)
	}
	return ez.Internal("fetch users failed", err)
}

// stream pushes a "snapshot" event now and after every store change until
// the client goes away. Slow clients miss intermediate snapshots.
func (h *UserHandler) stream(c *gin.Context) {
	ch := make(chan user.Snapshot, 16)
	unsub := h.store.Subscribe(func(s user.Snapshot) {
		select {
		case ch <- s:
		default:
		}
	})
	defer unsub()

	h.log.Debug("stream opened", zap.String("ip", c.ClientIP()))
	c.Header("Cache-Control", "no-cache")
	c.SSEvent("snapshot", h.store.Snapshot())
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case s := <-ch:
			c.SSEvent("snapshot", s)
			return true
		}
	})
	h.log.Debug("stream closed", zap.String("ip", c.ClientIP()))
}

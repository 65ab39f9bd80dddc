package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-mock-users/internal/core/auth"
	"go-gin-mock-users/internal/core/config"
	"go-gin-mock-users/internal/domain"
	"go-gin-mock-users/internal/feature/user"
	"go-gin-mock-users/internal/transport/http/ez"
	mdw "go-gin-mock-users/internal/transport/http/middleware"
	"go-gin-mock-users/pkg/utils"
)

// AdminHandler is the operator console: token login, seed reset, counters.
type AdminHandler struct {
	store *user.Store
	jwter *auth.JWTer
	cred  config.Admin
	log   *zap.Logger
}

func NewAdminHandler(store *user.Store, jwter *auth.JWTer, cred config.Admin, l *zap.Logger) *AdminHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &AdminHandler{store: store, jwter: jwter, cred: cred, log: l}
}

type tokenIn struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenOut struct {
	Token string `json:"token"`
}

type statsOut struct {
	Total    int            `json:"total"`
	ByRole   map[string]int `json:"byRole"`
	ByStatus map[string]int `json:"byStatus"`
	Version  uint64         `json:"version"`
	Loading  bool           `json:"loading"`
	Error    *string        `json:"error"`
}

// MountAdmin registers the login route on public and everything else on
// protected, which the engine guards with AuthJWT("admin").
func (h *AdminHandler) MountAdmin(public, protected *gin.RouterGroup) {
	ez.RegisterAction(ez.New(public), ez.Action[tokenIn, tokenOut]{
		Method: http.MethodPost,
		Path:   "/auth/token",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *tokenIn) (tokenOut, error) {
			if h.cred.PasswordHash == "" {
				return tokenOut{}, ez.Forbidden("admin login disabled")
			}
			if strings.TrimSpace(in.Username) != h.cred.Username || !utils.CheckPassword(in.Password, h.cred.PasswordHash) {
				h.log.Warn("admin login rejected", zap.String("username", in.Username), zap.String("ip", c.ClientIP()))
				return tokenOut{}, ez.Unauthorized("invalid credentials")
			}
			tok, err := h.jwter.Issue(h.cred.Username, string(domain.RoleAdmin))
			if err != nil {
				return tokenOut{}, ez.Internal("issue token failed", err)
			}
			return tokenOut{Token: tok}, nil
		},
	})

	e := ez.New(protected)

	ez.RegisterAction(e, ez.Action[struct{}, statsOut]{
		Method: http.MethodGet,
		Path:   "/users/stats",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  []string{string(domain.RoleAdmin)},
		Handler: func(*gin.Context, *struct{}) (statsOut, error) {
			snap := h.store.Snapshot()
			out := statsOut{
				Total:    len(snap.Users),
				ByRole:   map[string]int{},
				ByStatus: map[string]int{},
				Version:  h.store.Version(),
				Loading:  snap.Loading,
				Error:    snap.Error,
			}
			for _, u := range snap.Users {
				out.ByRole[string(u.Role)]++
				out.ByStatus[string(u.Status)]++
			}
			return out, nil
		},
	})

	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/reset",
		Binder: ez.BindNone,
		Auth:   true,
		Roles:  []string{string(domain.RoleAdmin)},
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			h.store.Reset()
			h.log.Info("users reset to seed", zap.String("by", c.GetString(mdw.KeyUserID)))
			return gin.H{"version": h.store.Version(), "total": len(h.store.Users())}, nil
		},
	})
}

package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-gin-mock-users/internal/core/auth"
	"go-gin-mock-users/internal/core/config"
	"go-gin-mock-users/internal/feature/user"
	"go-gin-mock-users/internal/transport/http/handler"
	resp "go-gin-mock-users/internal/transport/http/response"
	"go-gin-mock-users/pkg/utils"
)

func init() { gin.SetMode(gin.TestMode) }

type neverFail struct{}

func (neverFail) Float64() float64 { return 1 }

func newStore() *user.Store {
	return user.NewStore(user.Options{FailureRate: user.DefaultFailureRate, Rand: neverFail{}})
}

func request(t *testing.T, h http.Handler, method, path, body, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func code(m map[string]any) int { return int(m["code"].(float64)) }

func TestAPIEngine(t *testing.T) {
	store := newStore()
	reg := NewRegistry(handler.NewUserHandler(store, nil, time.Second, zap.NewNop()))
	r := NewAPIEngine(zap.NewNop(), nil, reg)

	w, body := request(t, r, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["ok"])

	w, body = request(t, r, http.MethodGet, "/api/v1/users", "", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, resp.CodeOK, code(body))

	w, _ = request(t, r, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mockusers_http_requests_total")
}

func TestAPIEngine_CORSPreflight(t *testing.T) {
	reg := NewRegistry(handler.NewUserHandler(newStore(), nil, time.Second, nil))
	r := NewAPIEngine(zap.NewNop(), []string{"http://localhost:5173"}, reg)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users/usr_001", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPIEngine_PanicIsRecovered(t *testing.T) {
	reg := NewRegistry(panicModule{})
	r := NewAPIEngine(zap.NewNop(), nil, reg)

	w, body := request(t, r, http.MethodGet, "/api/v1/boom", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, resp.CodeServerError, code(body))
}

type panicModule struct{}

func (panicModule) MountAPI(g *gin.RouterGroup) {
	g.GET("/boom", func(*gin.Context) { panic("boom") })
}

func TestAdminEngine(t *testing.T) {
	hash, err := utils.HashPassword("s3cret")
	require.NoError(t, err)

	store := newStore()
	jwter := &auth.JWTer{Secret: []byte("test"), Issuer: "mock-users", TTL: time.Minute}
	admin := handler.NewAdminHandler(store, jwter, config.Admin{Username: "admin", PasswordHash: hash}, nil)
	r := NewAdminEngine(zap.NewNop(), nil, jwter, NewRegistry(admin))

	_, body := request(t, r, http.MethodGet, "/admin/v1/users/stats", "", "")
	assert.Equal(t, resp.CodeUnauthorized, code(body))

	_, body = request(t, r, http.MethodPost, "/admin/v1/auth/token", `{"username":"admin","password":"nope"}`, "")
	assert.Equal(t, resp.CodeUnauthorized, code(body))

	_, body = request(t, r, http.MethodPost, "/admin/v1/auth/token", `{"username":"admin","password":"s3cret"}`, "")
	require.Equal(t, resp.CodeOK, code(body))
	token := body["data"].(map[string]any)["token"].(string)
	require.NotEmpty(t, token)

	_, body = request(t, r, http.MethodGet, "/admin/v1/users/stats", "", token)
	require.Equal(t, resp.CodeOK, code(body))
	stats := body["data"].(map[string]any)
	assert.Equal(t, 3.0, stats["total"])
	assert.Equal(t, map[string]any{"admin": 1.0, "user": 2.0}, stats["byRole"])
	assert.Equal(t, map[string]any{"active": 2.0, "inactive": 1.0}, stats["byStatus"])

	_, _ = store.DeleteUser(context.Background(), "usr_001")
	_, body = request(t, r, http.MethodPost, "/admin/v1/users/reset", "", token)
	require.Equal(t, resp.CodeOK, code(body))
	assert.Equal(t, 3.0, body["data"].(map[string]any)["total"])
	assert.Len(t, store.Users(), 3)
}

func TestAdminEngine_LoginDisabledWithoutHash(t *testing.T) {
	jwter := &auth.JWTer{Secret: []byte("test"), Issuer: "mock-users", TTL: time.Minute}
	admin := handler.NewAdminHandler(newStore(), jwter, config.Admin{Username: "admin"}, nil)
	r := NewAdminEngine(zap.NewNop(), nil, jwter, NewRegistry(admin))

	_, body := request(t, r, http.MethodPost, "/admin/v1/auth/token", `{"username":"admin","password":""}`, "")
	assert.Equal(t, resp.CodeForbidden, code(body))
}

func TestAdminEngine_EmptySecretRejectsEmptyKeyTokens(t *testing.T) {
	store := newStore()
	jwter := &auth.JWTer{Issuer: "mock-users", TTL: time.Minute}
	admin := handler.NewAdminHandler(store, jwter, config.Admin{Username: "admin"}, nil)
	r := NewAdminEngine(zap.NewNop(), nil, jwter, NewRegistry(admin))

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UID:  "attacker",
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "mock-users",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte{})
	require.NoError(t, err)

	_, _ = store.DeleteUser(context.Background(), "usr_001")
	_, body := request(t, r, http.MethodPost, "/admin/v1/users/reset", "", forged)
	assert.Equal(t, resp.CodeUnauthorized, code(body))
	assert.Len(t, store.Users(), 2)
}

type prioMod struct {
	name  string
	prio  int
	order *[]string
}

func (m prioMod) MountAPI(*gin.RouterGroup) { *m.order = append(*m.order, m.name) }
func (m prioMod) Priority() int             { return m.prio }

func TestRegistry_MountsByPriority(t *testing.T) {
	var order []string
	reg := NewRegistry(
		prioMod{name: "late", prio: 200, order: &order},
		prioMod{name: "early", prio: 10, order: &order},
	)
	reg.MountAllAPI(gin.New().Group(""))
	assert.Equal(t, []string{"early", "late"}, order)
}

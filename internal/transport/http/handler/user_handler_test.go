package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-gin-mock-users/internal/core/cache"
	"go-gin-mock-users/internal/domain"
	"go-gin-mock-users/internal/feature/user"
	resp "go-gin-mock-users/internal/transport/http/response"
)

func init() { gin.SetMode(gin.TestMode) }

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

type envelope[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

func setup(t *testing.T, r float64) (*gin.Engine, *user.Store) {
	t.Helper()
	store := user.NewStore(user.Options{FailureRate: user.DefaultFailureRate, Rand: fixedRand(r)})
	e := gin.New()
	NewUserHandler(store, nil, time.Second, nil).MountAPI(e.Group("/api/v1"))
	return e, store
}

func call[T any](t *testing.T, h http.Handler, method, path, body string) envelope[T] {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func idsOf(us []domain.User) []string {
	out := []string{}
	for _, u := range us {
		out = append(out, u.ID)
	}
	return out
}

func TestListUsers(t *testing.T) {
	h, _ := setup(t, 0.99)

	out := call[listOut](t, h, http.MethodGet, "/api/v1/users", "")
	require.Equal(t, resp.CodeOK, out.Code)
	assert.Equal(t, 3, out.Data.Total)
	assert.Equal(t, []string{"usr_001", "usr_002", "usr_003"}, idsOf(out.Data.Items))
	assert.Equal(t, "Alex Chen", out.Data.Items[0].Name)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), out.Data.Items[0].CreatedAt.UTC())
}

func TestListUsers_SimulatedFailure(t *testing.T) {
	h, store := setup(t, 0.01)

	out := call[struct{}](t, h, http.MethodGet, "/api/v1/users", "")
	assert.Equal(t, resp.CodeServiceUnavailable, out.Code)
	assert.Equal(t, user.FetchErrorMessage, out.Msg)

	state := call[user.Snapshot](t, h, http.MethodGet, "/api/v1/users/state", "")
	require.NotNil(t, state.Data.Error)
	assert.Equal(t, user.FetchErrorMessage, *state.Data.Error)
	assert.False(t, state.Data.Loading)
	assert.Len(t, state.Data.Users, 3)
	assert.Len(t, store.Users(), 3)
}

func TestCreateGetUpdateDelete(t *testing.T) {
	h, _ := setup(t, 0.99)

	created := call[domain.Result](t, h, http.MethodPost, "/api/v1/users",
		`{"name":"Casey Morgan","email":"casey@example.com","role":"admin","status":"active",
		  "preferences":{"theme":"light","notifications":true,"language":"de"},
		  "stats":{"projectsCreated":1,"tasksCompleted":2,"hoursLogged":3}}`)
	require.Equal(t, resp.CodeOK, created.Code)
	require.True(t, created.Data.Success)
	require.NotNil(t, created.Data.User)
	assert.Equal(t, "usr_004", created.Data.User.ID)
	assert.False(t, created.Data.User.CreatedAt.IsZero())

	got := call[domain.User](t, h, http.MethodGet, "/api/v1/users/usr_004", "")
	require.Equal(t, resp.CodeOK, got.Code)
	assert.Equal(t, "Casey Morgan", got.Data.Name)
	assert.Equal(t, domain.Stats{ProjectsCreated: 1, TasksCompleted: 2, HoursLogged: 3}, got.Data.Stats)

	upd := call[domain.Result](t, h, http.MethodPatch, "/api/v1/users/usr_001", `{"status":"inactive"}`)
	require.Equal(t, resp.CodeOK, upd.Code)
	assert.True(t, upd.Data.Success)
	assert.Nil(t, upd.Data.User)

	alex := call[domain.User](t, h, http.MethodGet, "/api/v1/users/usr_001", "")
	assert.Equal(t, domain.StatusInactive, alex.Data.Status)
	assert.Equal(t, "alex.chen@example.com", alex.Data.Email)

	del := call[domain.Result](t, h, http.MethodDelete, "/api/v1/users/usr_002", "")
	assert.True(t, del.Data.Success)

	missing := call[struct{}](t, h, http.MethodGet, "/api/v1/users/usr_002", "")
	assert.Equal(t, resp.CodeNotFound, missing.Code)
}

func TestUpdateAndDeleteUnknownStillSucceed(t *testing.T) {
	h, store := setup(t, 0.99)

	upd := call[domain.Result](t, h, http.MethodPatch, "/api/v1/users/usr_999", `{"name":"Ghost"}`)
	assert.Equal(t, resp.CodeOK, upd.Code)
	assert.True(t, upd.Data.Success)

	del := call[domain.Result](t, h, http.MethodDelete, "/api/v1/users/usr_999", "")
	assert.True(t, del.Data.Success)
	assert.Len(t, store.Users(), 3)
}

func TestPatchMalformedBody(t *testing.T) {
	h, _ := setup(t, 0.99)

	out := call[struct{}](t, h, http.MethodPatch, "/api/v1/users/usr_001", `{"status":`)
	assert.Equal(t, resp.CodeBadRequest, out.Code)
}

func TestDerivedViews(t *testing.T) {
	h, store := setup(t, 0.99)

	active := call[[]domain.User](t, h, http.MethodGet, "/api/v1/users/active", "")
	assert.Equal(t, []string{"usr_001", "usr_002"}, idsOf(active.Data))

	byRole := call[domain.ByRole](t, h, http.MethodGet, "/api/v1/users/by-role", "")
	assert.Equal(t, []string{"usr_001"}, idsOf(byRole.Data.Admin))
	assert.Equal(t, []string{"usr_002", "usr_003"}, idsOf(byRole.Data.User))

	_, _ = store.DeleteUser(context.Background(), "usr_001")

	active = call[[]domain.User](t, h, http.MethodGet, "/api/v1/users/active", "")
	assert.Equal(t, []string{"usr_002"}, idsOf(active.Data))
	byRole = call[domain.ByRole](t, h, http.MethodGet, "/api/v1/users/by-role", "")
	assert.Empty(t, byRole.Data.Admin)
}

func TestStreamPushesSnapshots(t *testing.T) {
	h, store := setup(t, 0.99)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/users/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	sc := bufio.NewScanner(res.Body)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	next := func() user.Snapshot {
		t.Helper()
		for sc.Scan() {
			line := sc.Text()
			if data, ok := strings.CutPrefix(line, "data:"); ok {
				var snap user.Snapshot
				require.NoError(t, json.Unmarshal([]byte(data), &snap))
				return snap
			}
		}
		t.Fatalf("stream ended: %v", sc.Err())
		return user.Snapshot{}
	}

	first := next()
	assert.Len(t, first.Users, 3)

	_, _ = store.CreateUser(context.Background(), domain.NewUser{Name: "Casey", Role: domain.RoleUser})
	second := next()
	require.Len(t, second.Users, 4)
	assert.Equal(t, "usr_004", second.Users[3].ID)
}

func TestViewKeysDifferAcrossStores(t *testing.T) {
	c := &cache.Cache{Prefix: "mockusers"}
	newStore := func() *user.Store {
		return user.NewStore(user.Options{Rand: fixedRand(0.99)})
	}
	a := NewUserHandler(newStore(), c, time.Second, nil)
	b := NewUserHandler(newStore(), c, time.Second, nil)

	assert.Equal(t, a.store.Version(), b.store.Version())
	assert.NotEqual(t, a.key("active"), b.key("active"))
	assert.Equal(t, a.key("active"), a.key("active"))

	_, _ = a.store.DeleteUser(context.Background(), "usr_001")
	assert.NotEqual(t, a.key("active"), b.key("active"))
}

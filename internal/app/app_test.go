package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/http/cookiejar"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/config"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/testutil"
	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/database"
)

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func (c *client) do(method, path, body string) (int, string) {
	c.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, string(b)
}

func (c *client) login(username, password string) {
	c.t.Helper()
	code, body := c.do(http.MethodPost, "/login", `{"username":"`+username+`","password":"`+password+`"}`)
	require.Equal(c.t, http.StatusOK, code, body)
}

func message(t *testing.T, body string) string {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &m), body)
	s, _ := m["message"].(string)
	return s
}

type env struct {
	srv *httptest.Server
	app *App
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := config.Config{
		BcryptCost:  4,
		SnowflakeID: 1,
		Database:    database.Config{Driver: database.DriverSQLite, StatementTimeout: 5 * time.Second},
		Session: config.SessionConfig{
			Secret:     []byte("e2e-secret"),
			TTL:        time.Hour,
			CookieName: "session",
		},
		Admin: config.AdminConfig{Username: "admin", Password: "admin-pw"},
	}
	a := New(cfg, testutil.SQLite(t), zap.NewNop().Sugar())
	require.NoError(t, a.EnsureSchema(context.Background()))
	h, err := a.Handler(prometheus.NewRegistry())
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &env{srv: srv, app: a}
}

func (e *env) client(t *testing.T) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: e.srv.URL, http: &http.Client{Jar: jar}}
}

// seedUsers creates users 2..5, the last one being alice.
func seedUsers(t *testing.T, admin *client) {
	for _, name := range []string{"bob", "carol", "dave", "alice"} {
		code, body := admin.do(http.MethodPost, "/users",
			`{"firstname":"`+strings.ToUpper(name[:1])+name[1:]+`","lastname":"Test","username":"`+name+`","password":"`+name+`-pw"}`)
		require.Equal(t, http.StatusCreated, code, body)
	}
}

func TestLoginScenarios(t *testing.T) {
	e := newEnv(t)
	admin := e.client(t)
	admin.login("admin", "admin-pw")
	seedUsers(t, admin)

	anon := e.client(t)
	code, body := anon.do(http.MethodPost, "/login", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Password does not match the username", message(t, body))

	code, body = anon.do(http.MethodPost, "/login", `{"username":"ghost","password":"x"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Username does not exist", message(t, body))

	code, _ = anon.do(http.MethodGet, "/users/current", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = anon.do(http.MethodGet, "/employees", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = anon.do(http.MethodPost, "/login", `{"username":"alice","password":"alice-pw"}`)
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, body, "password")

	code, body = anon.do(http.MethodGet, "/users/current", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"username":"alice"`)
	assert.Contains(t, body, `"id":5`)

	code, body = anon.do(http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"success":true}`, body)
	code, _ = anon.do(http.MethodGet, "/users/current", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSelfUpdateKeepsPassword(t *testing.T) {
	e := newEnv(t)
	admin := e.client(t)
	admin.login("admin", "admin-pw")
	seedUsers(t, admin)

	alice := e.client(t)
	alice.login("alice", "alice-pw")

	code, body := alice.do(http.MethodPut, "/users/5", `{"firstname":"Ally"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, `"firstname":"Ally"`)
	assert.NotContains(t, body, "password")

	again := e.client(t)
	again.login("alice", "alice-pw")

	code, _ = alice.do(http.MethodPut, "/users/2", `{"firstname":"Hacked"}`)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = alice.do(http.MethodPut, "/users/5", `{"currentPassword":"nope","newPassword":"n3w"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Current password is incorrect", message(t, body))

	code, _ = alice.do(http.MethodPut, "/users/5", `{"currentPassword":"alice-pw","newPassword":"n3w"}`)
	require.Equal(t, http.StatusOK, code)

	code, _ = alice.do(http.MethodGet, "/users/current", "")
	assert.Equal(t, http.StatusOK, code, "the session that changed the password survives")
	code, _ = again.do(http.MethodGet, "/users/current", "")
	assert.Equal(t, http.StatusUnauthorized, code, "other sessions are revoked")
	again.login("alice", "n3w")
}

func TestUserAdministration(t *testing.T) {
	e := newEnv(t)
	admin := e.client(t)
	admin.login("admin", "admin-pw")
	seedUsers(t, admin)

	alice := e.client(t)
	alice.login("alice", "alice-pw")

	code, _ := alice.do(http.MethodPost, "/users", `{"username":"eve","password":"x"}`)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = alice.do(http.MethodDelete, "/users/2", "")
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = alice.do(http.MethodGet, "/users/2", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = admin.do(http.MethodPost, "/users", `{"username":"bob","password":"x"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, body := admin.do(http.MethodGet, "/users?search=ali", "")
	require.Equal(t, http.StatusOK, code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &users))
	require.Len(t, users, 1)
	assert.NotContains(t, body, "password")

	code, _ = admin.do(http.MethodDelete, "/users/5", "")
	require.Equal(t, http.StatusOK, code)
	code, _ = admin.do(http.MethodDelete, "/users/5", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = alice.do(http.MethodGet, "/users/current", "")
	assert.Equal(t, http.StatusUnauthorized, code, "deleted users lose their sessions")

	anon := e.client(t)
	code, _ = anon.do(http.MethodDelete, "/users/2", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestEmployeesAndReports(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)
	c.login("admin", "admin-pw")

	code, _ := c.do(http.MethodDelete, "/employees/999", "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = c.do(http.MethodPut, "/employees/999", `{"grade":"U1"}`)
	assert.Equal(t, http.StatusNotFound, code)

	for _, body := range []string{
		`{"name":"Okello John","grade":"U5","duty_station":"Min. of Finance","district":"kampala","established_posts":4,"filled_posts":3}`,
		`{"name":"Auma Ruth","grade":"U4","duty_station":"ministry of finance","district":"Kampala"}`,
		`{"name":"Kato Peter","grade":"U5","duty_station":"Ministry of Health","district":"gulu"}`,
	} {
		code, resp := c.do(http.MethodPost, "/employees", body)
		require.Equal(t, http.StatusCreated, code, resp)
	}

	code, body := c.do(http.MethodGet, "/employees?search=health", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Kato Peter")
	assert.NotContains(t, body, "Okello John")

	code, body = c.do(http.MethodPut, "/employees/1", `{"filled_posts":1}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, `"vacant_posts":3`)

	code, body = c.do(http.MethodGet, "/reports/stations", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[{"name":"Ministry Of Finance","count":2},{"name":"Ministry Of Health","count":1}]`, body)

	code, body = c.do(http.MethodGet, "/reports/employees?grade=U5", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"count":2`)

	code, body = c.do(http.MethodGet, "/reports/employees/export?grade=U4", "")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, strings.HasPrefix(body, "\ufeffName,Employee Number"))
	assert.Contains(t, body, "Auma Ruth")

	code, _ = c.do(http.MethodDelete, "/employees/1", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestOperationalEndpoints(t *testing.T) {
	e := newEnv(t)
	c := e.client(t)

	code, body := c.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	req, err := http.NewRequest(http.MethodGet, e.srv.URL+"/health", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	code, body = c.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "staff_records_http_request_duration_seconds")
	assert.Contains(t, body, `route="GET /health"`)
}

package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/botmanager/internal/api"
	"github.com/edgard/botmanager/internal/auth"
	"github.com/edgard/botmanager/internal/bots"
	"github.com/edgard/botmanager/internal/config"
	"github.com/edgard/botmanager/internal/database"
	"github.com/edgard/botmanager/internal/platform"
	"github.com/edgard/botmanager/internal/platform/telegramtest"
)

const botToken = "555:api-test-token"

type testEnv struct {
	srv *httptest.Server
	tg  *telegramtest.Server
	key string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })
	store := database.NewStore(db, nil)

	_, key, err := auth.CreateUser(context.Background(), store, "alice")
	require.NoError(t, err)

	tg := telegramtest.NewServer(t)
	tg.AddBot(botToken, telegramtest.Bot{ID: 555, FirstName: "Api", Username: "api_bot"})

	factory, err := platform.NewFactory(platform.Options{APIURL: tg.URL, RequestTimeout: 5 * time.Second})
	require.NoError(t, err)

	svc, err := bots.NewService(bots.Deps{Store: store, NewClient: factory, WebhookBase: "https://hooks.example.com/tg"})
	require.NoError(t, err)

	server := api.NewServer(config.HTTPConfig{Addr: ":0", RequestTimeout: 10 * time.Second}, nil, store, svc)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, tg: tg, key: key}
}

func (e *testEnv) do(t *testing.T, method, path, key, body string) (int, string) {
	t.Helper()

	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, strings.TrimSpace(string(data))
}

func TestHealth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestProceduresRequireAPIKey(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	for _, key := range []string{"", "bm_wrong"} {
		status, _ := env.do(t, http.MethodPost, "/api/bots.add", key, `{"token":"`+botToken+`"}`)
		assert.Equal(t, http.StatusUnauthorized, status)
	}
	assert.Empty(t, env.tg.Calls())
}

func TestAddRestartList(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/bots.add", env.key, `{"token":"`+botToken+`"}`)
	require.Equal(t, http.StatusOK, status, body)

	var created map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	assert.Equal(t, "555", created["id"])
	assert.Equal(t, "Api", created["name"])
	assert.Equal(t, "api_bot", created["username"])
	assert.NotContains(t, body, botToken, "token is never returned")

	status, body = env.do(t, http.MethodPost, "/api/bots.add", env.key, `{"token":"`+botToken+`"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "null", body, "duplicate insert yields null")

	status, body = env.do(t, http.MethodPost, "/api/bots.restart", env.key, `{"botId":"555"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "true", body)

	status, body = env.do(t, http.MethodPost, "/api/bots.restart", env.key, `{"botId":"999"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "false", body)

	status, body = env.do(t, http.MethodGet, "/api/bots.list", env.key, "")
	assert.Equal(t, http.StatusOK, status)
	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "555", list[0]["id"])
}

func TestAddInvalidTokenIsBadGateway(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/bots.add", env.key, `{"token":"1:nope"}`)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, body, `"code":"PLATFORM"`)
}

func TestRestartEmptyIDIsFalse(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/bots.restart", env.key, `{"botId":""}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "false", body)
	assert.Empty(t, env.tg.Calls())
}

func TestValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "add missing token", path: "/api/bots.add", body: `{}`},
		{name: "add malformed", path: "/api/bots.add", body: `{"token":`},
		{name: "restart non-string id", path: "/api/bots.restart", body: `{"botId":555}`},
	}

	for _, tt := range tests {
		status, body := env.do(t, http.MethodPost, tt.path, env.key, tt.body)
		assert.Equal(t, http.StatusBadRequest, status, tt.name)
		assert.Contains(t, body, `"code":"VALIDATION"`, tt.name)
	}
	assert.Empty(t, env.tg.Calls())
}

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blog-api/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Port: 8080, Env: "test", ShutdownTimeout: time.Second},
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"},
		Auth:     config.AuthConfig{JWTSecret: "server-test-secret-0123", TokenTTL: time.Hour, BcryptCost: 4},
		Loader:   config.LoaderConfig{Wait: 2 * time.Millisecond, MaxBatch: 100},
		GraphQL:  config.GraphQLConfig{MaxDepth: 10, MaxParallelism: 100, Playground: true},
		RateLimit: config.RateLimitConfig{
			PerMinute:       1,
			Burst:           3,
			CleanupInterval: time.Minute,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.RemoteAddr = "192.0.2.10:5555"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestNew_RejectsUnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Driver = "oracle"

	_, err := New(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestNew_RejectsShortSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = "short"

	_, err := New(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())

	rr := do(t, s.Handler(), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","database":"up"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("Content-Type"))
}

func TestHealth_StoreClosed(t *testing.T) {
	s := newTestServer(t, testConfig())
	require.NoError(t, s.store.Close())

	rr := do(t, s.Handler(), http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestEndToEnd_RESTWriteThenGraphQLRead(t *testing.T) {
	s := newTestServer(t, testConfig())
	h := s.Handler()

	rr := do(t, h, http.MethodPost, "/rest/auth/register",
		`{"username":"writer","email":"writer@example.com","password":"correct-horse"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var payload struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Token)

	rr = do(t, h, http.MethodPost, "/rest/authors",
		`{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com","birthdate":"1815-12-10"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, h, http.MethodPost, "/rest/authors",
		`{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com","birthdate":"1815-12-10"}`, payload.Token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(t, h, http.MethodPost, "/rest/posts",
		`{"title":"Notes","author_id":1,"content":"<p>engine</p>"}`, payload.Token)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	query := `{"query":"{ authors { count list { first_name posts { title author { last_name } } } } }"}`
	rr = do(t, h, http.MethodPost, "/graphql", query, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data struct {
			Authors struct {
				Count int `json:"count"`
				List  []struct {
					FirstName string `json:"first_name"`
					Posts     []struct {
						Title  string `json:"title"`
						Author struct {
							LastName string `json:"last_name"`
						} `json:"author"`
					} `json:"posts"`
				} `json:"list"`
			} `json:"authors"`
		} `json:"data"`
		Errors []json.RawMessage `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Empty(t, resp.Errors)
	assert.Equal(t, 1, resp.Data.Authors.Count)
	require.Len(t, resp.Data.Authors.List, 1)
	assert.Equal(t, "Ada", resp.Data.Authors.List[0].FirstName)
	require.Len(t, resp.Data.Authors.List[0].Posts, 1)
	assert.Equal(t, "Notes", resp.Data.Authors.List[0].Posts[0].Title)
	assert.Equal(t, "Lovelace", resp.Data.Authors.List[0].Posts[0].Author.LastName)

	rr = do(t, h, http.MethodGet, "/rest/authors-count", "", "")
	assert.JSONEq(t, `{"count":1}`, rr.Body.String())
}

func TestLoginIsRateLimited(t *testing.T) {
	s := newTestServer(t, testConfig())
	h := s.Handler()
	body := `{"email":"nobody@example.com","password":"whatever-it-is"}`

	for i := 0; i < 3; i++ {
		rr := do(t, h, http.MethodPost, "/rest/auth/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	}

	rr := do(t, h, http.MethodPost, "/rest/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	rr = do(t, h, http.MethodGet, "/rest/authors", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig())
	h := s.Handler()

	do(t, h, http.MethodGet, "/rest/authors", "", "")
	rr := do(t, h, http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "blog_http_requests_total")
	assert.Contains(t, body, `route="/rest/authors"`)
	assert.Contains(t, body, "go_goroutines")
}

func TestPlayground(t *testing.T) {
	s := newTestServer(t, testConfig())
	rr := do(t, s.Handler(), http.MethodGet, "/playground", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")

	cfg := testConfig()
	cfg.GraphQL.Playground = false
	s = newTestServer(t, cfg)
	rr = do(t, s.Handler(), http.MethodGet, "/playground", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

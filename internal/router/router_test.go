package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/skill-registry/config"
	"github.com/FACorreiaa/skill-registry/internal/api"
	"github.com/FACorreiaa/skill-registry/internal/api/auth"
)

// stubHandlers answers every endpoint with 200 and the endpoint name.
type stubHandlers struct {
	hits []string
}

func (s *stubHandlers) reply(name string, w http.ResponseWriter) {
	s.hits = append(s.hits, name)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, name)
}

func (s *stubHandlers) Register(w http.ResponseWriter, r *http.Request) { s.reply("Register", w) }
func (s *stubHandlers) Login(w http.ResponseWriter, r *http.Request)    { s.reply("Login", w) }
func (s *stubHandlers) Me(w http.ResponseWriter, r *http.Request)       { s.reply("Me", w) }

func (s *stubHandlers) ListUsers(w http.ResponseWriter, r *http.Request)  { s.reply("ListUsers", w) }
func (s *stubHandlers) GetUser(w http.ResponseWriter, r *http.Request)    { s.reply("GetUser", w) }
func (s *stubHandlers) UpdateUser(w http.ResponseWriter, r *http.Request) { s.reply("UpdateUser", w) }
func (s *stubHandlers) DeleteUser(w http.ResponseWriter, r *http.Request) { s.reply("DeleteUser", w) }

func (s *stubHandlers) ListSkills(w http.ResponseWriter, r *http.Request)     { s.reply("ListSkills", w) }
func (s *stubHandlers) ListUserSkills(w http.ResponseWriter, r *http.Request) { s.reply("ListUserSkills", w) }
func (s *stubHandlers) GetSkill(w http.ResponseWriter, r *http.Request)       { s.reply("GetSkill", w) }
func (s *stubHandlers) CreateSkill(w http.ResponseWriter, r *http.Request)    { s.reply("CreateSkill", w) }
func (s *stubHandlers) UpdateSkill(w http.ResponseWriter, r *http.Request)    { s.reply("UpdateSkill", w) }
func (s *stubHandlers) DeleteSkill(w http.ResponseWriter, r *http.Request)    { s.reply("DeleteSkill", w) }
func (s *stubHandlers) DownloadSkill(w http.ResponseWriter, r *http.Request)  { s.reply("DownloadSkill", w) }
func (s *stubHandlers) CloneSkill(w http.ResponseWriter, r *http.Request)     { s.reply("CloneSkill", w) }

func (s *stubHandlers) GetTags(w http.ResponseWriter, r *http.Request) { s.reply("GetTags", w) }
func (s *stubHandlers) GetTag(w http.ResponseWriter, r *http.Request)  { s.reply("GetTag", w) }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newTestRouter(t *testing.T, db pinger) (http.Handler, *stubHandlers, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := auth.NewJWTManager(config.JWTConfig{
		SecretKey:      "0123456789abcdef0123456789abcdef",
		Issuer:         "test",
		AccessTokenTTL: time.Hour,
	}, logger)
	require.NoError(t, err)
	token, err := tokens.Issue(1, "alice")
	require.NoError(t, err)

	stub := &stubHandlers{}
	r := SetupRouter(&Config{
		AuthHandler:     stub,
		UserHandler:     stub,
		SkillsHandler:   stub,
		TagsHandler:     stub,
		Verifier:        tokens,
		DB:              db,
		Logger:          logger,
		AllowedOrigins:  []string{"http://localhost:5173"},
		LoginRateLimit:  2,
		LoginRateWindow: time.Minute,
	})
	return r, stub, token
}

func TestRoutes(t *testing.T) {
	router, _, token := newTestRouter(t, pinger{})

	tests := []struct {
		method string
		path   string
		auth   bool
		want   int
		body   string
	}{
		{http.MethodGet, "/api/skills", false, http.StatusOK, "ListSkills"},
		{http.MethodGet, "/api/skills/", false, http.StatusOK, "ListSkills"},
		{http.MethodGet, "/api/skills/3", false, http.StatusOK, "GetSkill"},
		{http.MethodPost, "/api/skills/3/download", false, http.StatusOK, "DownloadSkill"},
		{http.MethodPost, "/api/skills/3/clone", false, http.StatusOK, "CloneSkill"},
		{http.MethodPost, "/api/skills", false, http.StatusUnauthorized, ""},
		{http.MethodPost, "/api/skills", true, http.StatusOK, "CreateSkill"},
		{http.MethodPut, "/api/skills/3", true, http.StatusOK, "UpdateSkill"},
		{http.MethodDelete, "/api/skills/3", false, http.StatusUnauthorized, ""},
		{http.MethodGet, "/api/users", false, http.StatusOK, "ListUsers"},
		{http.MethodGet, "/api/users/1", false, http.StatusOK, "GetUser"},
		{http.MethodGet, "/api/users/1/skills", true, http.StatusOK, "ListUserSkills"},
		{http.MethodPut, "/api/users/1", false, http.StatusUnauthorized, ""},
		{http.MethodDelete, "/api/users/1", true, http.StatusOK, "DeleteUser"},
		{http.MethodGet, "/api/auth/me", false, http.StatusUnauthorized, ""},
		{http.MethodGet, "/api/auth/me", true, http.StatusOK, "Me"},
		{http.MethodGet, "/api/tags", false, http.StatusOK, "GetTags"},
		{http.MethodGet, "/api/tags/go", false, http.StatusOK, "GetTag"},
		{http.MethodGet, "/api/nope", false, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestProtectedRouteNeverReachesHandler(t *testing.T) {
	router, stub, _ := newTestRouter(t, pinger{})

	req := httptest.NewRequest(http.MethodPost, "/api/skills", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, stub.hits)
}

func TestLoginIsRateLimited(t *testing.T) {
	router, _, _ := newTestRouter(t, pinger{})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "192.0.2.10:5000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		router, _, _ := newTestRouter(t, pinger{})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body api.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body.Status)
		_, err := time.Parse(time.RFC3339, body.Timestamp)
		assert.NoError(t, err)
	})

	t.Run("degraded", func(t *testing.T) {
		router, _, _ := newTestRouter(t, pinger{err: errors.New("down")})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	})
}

func TestCORSPreflight(t *testing.T) {
	router, _, _ := newTestRouter(t, pinger{})

	req := httptest.NewRequest(http.MethodOptions, "/api/skills", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

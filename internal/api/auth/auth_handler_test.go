package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/skill-registry/internal/api"
	"github.com/FACorreiaa/skill-registry/internal/types"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.AuthResponse), args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context, identity types.Identity) (*types.UserPublic, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserPublic), args.Error(1)
}

func newAuthRouter(t *testing.T, svc AuthService) http.Handler {
	t.Helper()
	h := NewHandlerImpl(svc, discardLogger())
	r := chi.NewRouter()
	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/login", h.Login)
	r.With(Authenticate(newTestJWTManager(t), discardLogger())).Get("/api/auth/me", h.Me)
	return r
}

func TestHandlerRegister(t *testing.T) {
	svc := new(MockAuthService)
	router := newAuthRouter(t, svc)

	req := types.RegisterRequest{Username: "alice", Password: "secret1"}
	svc.On("Register", mock.Anything, req).
		Return(&types.AuthResponse{Token: "tok", User: types.UserPublic{ID: 1, Username: "alice"}}, nil).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"username":"alice","password":"secret1"}`)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	var body types.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "tok", body.Token)
	assert.Equal(t, "alice", body.User.Username)
	svc.AssertExpectations(t)
}

func TestHandlerRegisterConflict(t *testing.T) {
	svc := new(MockAuthService)
	router := newAuthRouter(t, svc)
	svc.On("Register", mock.Anything, mock.Anything).Return(nil, errUsernameTaken).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"username":"alice","password":"secret1"}`)))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body api.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, api.KindConflict, body.Kind)
	assert.Equal(t, "username already taken", body.Error)
}

func TestHandlerRegisterBadBody(t *testing.T) {
	svc := new(MockAuthService)
	router := newAuthRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"username":`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestHandlerLoginInvalidCredentials(t *testing.T) {
	svc := new(MockAuthService)
	router := newAuthRouter(t, svc)
	svc.On("Login", mock.Anything, types.LoginRequest{Username: "bob", Password: "nope"}).
		Return(nil, ErrInvalidCredentials).Once()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"username":"bob","password":"nope"}`)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body api.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid username or password", body.Error)
}

func TestHandlerMe(t *testing.T) {
	svc := new(MockAuthService)
	router := newAuthRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertNotCalled(t, "Me", mock.Anything, mock.Anything)

	token, err := newTestJWTManager(t).Issue(8, "frank")
	require.NoError(t, err)
	svc.On("Me", mock.Anything, types.Identity{UserID: 8, Username: "frank"}).
		Return(&types.UserPublic{ID: 8, Username: "frank"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"frank"`)
}

func TestTooManyRequests(t *testing.T) {
	rec := httptest.NewRecorder()
	TooManyRequests(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate_limited")
}

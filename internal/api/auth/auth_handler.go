package auth

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/skill-registry/internal/api"
	"github.com/FACorreiaa/skill-registry/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	authService AuthService
	logger      *slog.Logger
}

func NewHandlerImpl(authService AuthService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		authService: authService,
		logger:      logger,
	}
}

// Register godoc
// @Summary      Register a new user
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body types.RegisterRequest true "Credentials"
// @Success      201 {object} types.AuthResponse
// @Failure      400 {object} api.Response "Invalid input"
// @Failure      409 {object} api.Response "Username taken"
// @Failure      429 {object} api.Response "Too many requests"
// @Router       /auth/register [post]
func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "Register"))

	var req types.RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.WriteError(w, r, l, err)
		return
	}

	resp, err := h.authService.Register(r.Context(), req)
	if err != nil {
		api.WriteError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, resp)
}

// Login godoc
// @Summary      Log in
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body types.LoginRequest true "Credentials"
// @Success      200 {object} types.AuthResponse
// @Failure      400 {object} api.Response "Invalid input"
// @Failure      401 {object} api.Response "Invalid credentials"
// @Failure      429 {object} api.Response "Too many requests"
// @Router       /auth/login [post]
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "Login"))

	var req types.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.WriteError(w, r, l, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		api.WriteError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// Me godoc
// @Summary      Current user
// @Tags         Auth
// @Produce      json
// @Success      200 {object} types.UserPublic
// @Failure      401 {object} api.Response "Unauthorized"
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *HandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "Me"))

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, api.KindUnauthenticated, "authentication required")
		return
	}

	user, err := h.authService.Me(r.Context(), identity)
	if err != nil {
		api.WriteError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, user)
}

// TooManyRequests is the limit handler for the credential endpoints.
func TooManyRequests(w http.ResponseWriter, r *http.Request) {
	api.ErrorResponse(w, r, http.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
}

package user

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/skill-registry/internal/api"
	"github.com/FACorreiaa/skill-registry/internal/api/auth"
	"github.com/FACorreiaa/skill-registry/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	ListUsers(w http.ResponseWriter, r *http.Request)
	GetUser(w http.ResponseWriter, r *http.Request)
	UpdateUser(w http.ResponseWriter, r *http.Request)
	DeleteUser(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

// NewHandlerImpl creates a new user HandlerImpl instance.
func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers godoc
// @Summary      List users
// @Tags         User
// @Produce      json
// @Success      200 {array} types.UserPublic
// @Failure      500 {object} api.Response "Internal Server Error"
// @Router       /users [get]
func (h *HandlerImpl) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		api.WriteError(w, r, h.logger.With(slog.String("HandlerImpl", "ListUsers")), err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, users)
}

// GetUser godoc
// @Summary      Get a user
// @Tags         User
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {object} types.UserPublic
// @Failure      400 {object} api.Response "Invalid ID"
// @Failure      404 {object} api.Response "User Not Found"
// @Router       /users/{id} [get]
func (h *HandlerImpl) GetUser(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "GetUser"))

	id, err := api.IDParam(r, "id")
	if err != nil {
		api.WriteError(w, r, l, err)
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		api.WriteError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, user)
}

// UpdateUser godoc
// @Summary      Update your account
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        id path int true "User ID"
// @Param        body body types.UpdateUserRequest true "Fields to change"
// @Success      200 {object} types.UserPublic
// @Failure      400 {object} api.Response "Invalid Input"
// @Failure      401 {object} api.Response "Unauthorized"
// @Failure      403 {object} api.Response "Not your account"
// @Failure      404 {object} api.Response "User Not Found"
// @Failure      409 {object} api.Response "Username taken"
// @Security     BearerAuth
// @Router       /users/{id} [put]
func (h *HandlerImpl) UpdateUser(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "UpdateUser"))

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, api.KindUnauthenticated, "authentication required")
		return
	}
	id, err := api.IDParam(r, "id")
	if err != nil {
		api.WriteError(w, r, l, err)
		return
	}

	var req types.UpdateUserRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.WriteError(w, r, l, err)
		return
	}

	user, err := h.userService.Update(r.Context(), identity, id, req)
	if err != nil {
		api.WriteError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, user)
}

// DeleteUser godoc
// @Summary      Delete your account
// @Tags         User
// @Param        id path int true "User ID"
// @Success      204
// @Failure      401 {object} api.Response "Unauthorized"
// @Failure      403 {object} api.Response "Not your account"
// @Failure      404 {object} api.Response "User Not Found"
// @Failure      409 {object} api.Response "User still owns skills"
// @Security     BearerAuth
// @Router       /users/{id} [delete]
func (h *HandlerImpl) DeleteUser(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "DeleteUser"))

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, api.KindUnauthenticated, "authentication required")
		return
	}
	id, err := api.IDParam(r, "id")
	if err != nil {
		api.WriteError(w, r, l, err)
		return
	}

	if err := h.userService.Delete(r.Context(), identity, id); err != nil {
		api.WriteError(w, r, l, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

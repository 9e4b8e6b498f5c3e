package skills

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/skill-registry/internal/api"
	"github.com/FACorreiaa/skill-registry/internal/api/auth"
	"github.com/FACorreiaa/skill-registry/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	ListSkills(w http.ResponseWriter, r *http.Request)
	ListUserSkills(w http.ResponseWriter, r *http.Request)
	GetSkill(w http.ResponseWriter, r *http.Request)
	CreateSkill(w http.ResponseWriter, r *http.Request)
	UpdateSkill(w http.ResponseWriter, r *http.Request)
	DeleteSkill(w http.ResponseWriter, r *http.Request)
	DownloadSkill(w http.ResponseWriter, r *http.Request)
	CloneSkill(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	skillsService SkillsService
	logger        *slog.Logger
}

func NewHandlerImpl(skillsService SkillsService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		skillsService: skillsService,
		logger:        logger,
	}
}

func viewer(r *http.Request) *types.Identity {
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		return &id
	}
	return nil
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (types.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, api.KindUnauthenticated, "authentication required")
	}
	return id, ok
}

// ListSkills godoc
// @Summary      List public skills
// @Tags         Skills
// @Produce      json
// @Success      200 {array} types.Skill
// @Failure      500 {object} api.Response "Internal Server Error"
// @Router       /skills [get]
func (h *HandlerImpl) ListSkills(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SkillsHandler").Start(r.Context(), "ListSkills", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/skills"),
	))
	defer span.End()

	skills, err := h.skillsService.ListPublic(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "list failed")
		api.WriteError(w, r, h.logger.With(slog.String("HandlerImpl", "ListSkills")), err)
		return
	}
	span.SetStatus(codes.Ok, "")
	api.WriteJSONResponse(w, r, http.StatusOK, skills)
}

// ListUserSkills godoc
// @Summary      List a user's skills
// @Description  Private skills are included only when the caller is that user
// @Tags         Skills
// @Produce      json
// @Param        id path int true "User ID"
// @Success      200 {array} types.Skill
// @Failure      400 {object} api.Response "Invalid ID"
// @Failure      404 {object} api.Response "User Not Found"
// @Router       /users/{id}/skills [get]
func (h *HandlerImpl) ListUserSkills(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "ListUserSkills"))

	ownerID, err := api.IDParam(r, "id")
	if err != nil {
		api.WriteError(w, r, l, err)
		return
	}
	skills, err := h.skillsService.ListByOwner(r.Context(), viewer(r), ownerID)
	if err != nil {
		api.WriteError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, skills)
}

// GetSkill godoc
// @Summary      Get a skill
// @Description  Skill with its tags and owner. Private skills are visible to their owner only
// @Tags         Skills
// @Produce      json
// @Param        id path int true "Skill ID"
// @Success      200 {object} types.SkillWithDetails
// @Failure      400 {object} api.Response "Invalid ID"
// @Failure      404 {object} api.Response "Skill Not Found"
// @Router       /skills/{id} [get]
func (h *HandlerImpl) GetSkill(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SkillsHandler").Start(r.Context(), "GetSkill", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/skills/{id}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("HandlerImpl", "GetSkill"))

	id, err := api.IDParam(r, "id")
	if err != nil {
		span.SetStatus(codes.Error, "invalid id")
		api.WriteError(w, r, l, err)
		return
	}
	skill, err := h.skillsService.Get(ctx, viewer(r), id)
	if err != nil {
		span.SetStatus(codes.Error, "get failed")
		api.WriteError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "")
	api.WriteJSONResponse(w, r, http.StatusOK, skill)
}

// CreateSkill godoc
// @Summary      Upload a skill
// @Tags         Skills
// @Accept       json
// @Produce      json
// @Param        body body types.CreateSkillRequest true "Skill content"
// @Success      201 {object} types.SkillWithDetails
// @Failure      400 {object} api.Response "Invalid Input"
// @Failure      401 {object} api.Response "Unauthorized"
// @Security     BearerAuth
// @Router       /skills [post]
func (h *HandlerImpl) CreateSkill(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SkillsHandler").Start(r.Context(), "CreateSkill", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/skills"),
	))
	defer span.End()
	l := h.logger.With(slog.String("HandlerImpl", "CreateSkill"))

	identity, ok := requireIdentity(w, r)
	if !ok {
		span.SetStatus(codes.Error, "unauthenticated")
		return
	}

	var req types.CreateSkillRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		api.WriteError(w, r, l, err)
		return
	}

	skill, err := h.skillsService.Create(ctx, identity, req)
	if err != nil {
		span.SetStatus(codes.Error, "create failed")
		api.WriteError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "")
	api.WriteJSONResponse(w, r, http.StatusCreated, skill)
}

// UpdateSkill godoc
// @Summary      Update your skill
// @Description  Partial update. A tags array replaces the tag set; omitting it keeps the current tags
// @Tags         Skills
// @Accept       json
// @Produce      json
// @Param        id path int true "Skill ID"
// @Param        body body types.UpdateSkillRequest true "Fields to change"
// @Success      200 {object} types.SkillWithDetails
// @Failure      400 {object} api.Response "Invalid Input"
// @Failure      401 {object} api.Response "Unauthorized"
// @Failure      403 {object} api.Response "Not your skill"
// @Failure      404 {object} api.Response "Skill Not Found"
// @Security     BearerAuth
// @Router       /skills/{id} [put]
func (h *HandlerImpl) UpdateSkill(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SkillsHandler").Start(r.Context(), "UpdateSkill", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/skills/{id}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("HandlerImpl", "UpdateSkill"))

	identity, ok := requireIdentity(w, r)
	if !ok {
		span.SetStatus(codes.Error, "unauthenticated")
		return
	}
	id, err := api.IDParam(r, "id")
	if err != nil {
		api.WriteError(w, r, l, err)
		return
	}

	var req types.UpdateSkillRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "invalid body")
		api.WriteError(w, r, l, err)
		return
	}

	skill, err := h.skillsService.Update(ctx, identity, id, req)
	if err != nil {
		span.SetStatus(codes.Error, "update failed")
		api.WriteError(w, r, l, err)
		return
	}
	span.SetStatus(codes.Ok, "")
	api.WriteJSONResponse(w, r, http.StatusOK, skill)
}

// DeleteSkill godoc
// @Summary      Delete your skill
// @Tags         Skills
// @Param        id path int true "Skill ID"
// @Success      204
// @Failure      401 {object} api.Response "Unauthorized"
// @Failure      403 {object} api.Response "Not your skill"
// @Failure      404 {object} api.Response "Skill Not Found"
// @Security     BearerAuth
// @Router       /skills/{id} [delete]
func (h *HandlerImpl) DeleteSkill(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "DeleteSkill"))

	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := api.IDParam(r, "id")
	if err != nil {
		api.WriteError(w, r, l, err)
		return
	}
	if err := h.skillsService.Delete(r.Context(), identity, id); err != nil {
		api.WriteError(w, r, l, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadSkill godoc
// @Summary      Record a download
// @Tags         Skills
// @Produce      json
// @Param        id path int true "Skill ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.Response "Skill Not Found"
// @Router       /skills/{id}/download [post]
func (h *HandlerImpl) DownloadSkill(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "DownloadSkill"))

	id, err := api.IDParam(r, "id")
	if err != nil {
		api.WriteError(w, r, l, err)
		return
	}
	n, err := h.skillsService.IncrementDownloads(r.Context(), id)
	if err != nil {
		api.WriteError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, api.MessageResponse{
		Message:       "Download count incremented",
		DownloadCount: &n,
	})
}

// CloneSkill godoc
// @Summary      Record a clone
// @Tags         Skills
// @Produce      json
// @Param        id path int true "Skill ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.Response "Skill Not Found"
// @Router       /skills/{id}/clone [post]
func (h *HandlerImpl) CloneSkill(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "CloneSkill"))

	id, err := api.IDParam(r, "id")
	if err != nil {
		api.WriteError(w, r, l, err)
		return
	}
	n, err := h.skillsService.IncrementClones(r.Context(), id)
	if err != nil {
		api.WriteError(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, api.MessageResponse{
		Message:    "Clone count incremented",
		CloneCount: &n,
	})
}

package tags

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/skill-registry/internal/api"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GetTags(w http.ResponseWriter, r *http.Request)
	GetTag(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	tagsService TagsService
	logger      *slog.Logger
}

func NewHandlerImpl(tagsService TagsService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		tagsService: tagsService,
		logger:      logger,
	}
}

// GetTags godoc
// @Summary      List tags
// @Description  All tags ordered by usage, most used first
// @Tags         Tags
// @Produce      json
// @Success      200 {array} types.Tag
// @Failure      500 {object} api.Response "Internal Server Error"
// @Router       /tags [get]
func (h *HandlerImpl) GetTags(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TagsHandler").Start(r.Context(), "GetTags", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/tags"),
	))
	defer span.End()

	tags, err := h.tagsService.List(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "list failed")
		api.WriteError(w, r, h.logger.With(slog.String("HandlerImpl", "GetTags")), err)
		return
	}
	span.SetStatus(codes.Ok, "")
	api.WriteJSONResponse(w, r, http.StatusOK, tags)
}

// GetTag godoc
// @Summary      Get a tag
// @Tags         Tags
// @Produce      json
// @Param        slug path string true "Tag slug"
// @Success      200 {object} types.Tag
// @Failure      404 {object} api.Response "Tag Not Found"
// @Router       /tags/{slug} [get]
func (h *HandlerImpl) GetTag(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TagsHandler").Start(r.Context(), "GetTag", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/tags/{slug}"),
	))
	defer span.End()

	tag, err := h.tagsService.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		span.SetStatus(codes.Error, "lookup failed")
		api.WriteError(w, r, h.logger.With(slog.String("HandlerImpl", "GetTag")), err)
		return
	}
	span.SetStatus(codes.Ok, "")
	api.WriteJSONResponse(w, r, http.StatusOK, tag)
}

package tags

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/skill-registry/internal/types"
)

const (
	defaultListTTL = 30 * time.Second
	listCacheKey   = "tags:list"
)

var _ TagsService = (*TagsServiceImpl)(nil)

type TagsService interface {
	List(ctx context.Context) ([]types.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*types.Tag, error)
	// Invalidate drops cached listings after usage counts changed.
	Invalidate()
}

type TagsServiceImpl struct {
	logger *slog.Logger
	repo   TagsRepo
	cache  *cache.Cache
}

// NewTagsService caches the full listing for ttl. A non-positive ttl selects
// the default.
func NewTagsService(repo TagsRepo, ttl time.Duration, logger *slog.Logger) *TagsServiceImpl {
	if ttl <= 0 {
		ttl = defaultListTTL
	}
	return &TagsServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(ttl, 2*ttl),
	}
}

func (s *TagsServiceImpl) List(ctx context.Context) ([]types.Tag, error) {
	ctx, span := otel.Tracer("TagsService").Start(ctx, "List")
	defer span.End()

	if cached, ok := s.cache.Get(listCacheKey); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		span.SetStatus(codes.Ok, "")
		return cached.([]types.Tag), nil
	}

	tags, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, err
	}
	s.cache.SetDefault(listCacheKey, tags)
	span.SetStatus(codes.Ok, "")
	return tags, nil
}

func (s *TagsServiceImpl) GetBySlug(ctx context.Context, slug string) (*types.Tag, error) {
	ctx, span := otel.Tracer("TagsService").Start(ctx, "GetBySlug", trace.WithAttributes(attribute.String("tag.slug", slug)))
	defer span.End()

	tag, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return tag, nil
}

func (s *TagsServiceImpl) Invalidate() {
	s.cache.Flush()
	s.logger.Debug("Tag cache flushed")
}

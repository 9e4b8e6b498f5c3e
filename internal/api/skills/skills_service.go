package skills

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/skill-registry/app/observability/metrics"
	"github.com/FACorreiaa/skill-registry/internal/api"
	"github.com/FACorreiaa/skill-registry/internal/api/tags"
	"github.com/FACorreiaa/skill-registry/internal/types"
)

var _ SkillsService = (*SkillsServiceImpl)(nil)

// TagInvalidator drops cached tag listings. tags.TagsService satisfies it.
type TagInvalidator interface {
	Invalidate()
}

type SkillsService interface {
	ListPublic(ctx context.Context) ([]types.Skill, error)
	// ListByOwner includes private skills only when viewer is the owner.
	ListByOwner(ctx context.Context, viewer *types.Identity, ownerID int64) ([]types.Skill, error)
	Get(ctx context.Context, viewer *types.Identity, id int64) (*types.SkillWithDetails, error)
	Create(ctx context.Context, identity types.Identity, req types.CreateSkillRequest) (*types.SkillWithDetails, error)
	Update(ctx context.Context, identity types.Identity, id int64, req types.UpdateSkillRequest) (*types.SkillWithDetails, error)
	Delete(ctx context.Context, identity types.Identity, id int64) error
	IncrementDownloads(ctx context.Context, id int64) (int64, error)
	IncrementClones(ctx context.Context, id int64) (int64, error)
}

type SkillsServiceImpl struct {
	logger *slog.Logger
	store  Store
	cache  TagInvalidator
}

// NewSkillsService creates a skills service. cache may be nil.
func NewSkillsService(store Store, cache TagInvalidator, logger *slog.Logger) *SkillsServiceImpl {
	return &SkillsServiceImpl{
		logger: logger,
		store:  store,
		cache:  cache,
	}
}

func fail(span trace.Span, err error, msg string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
}

func (s *SkillsServiceImpl) invalidateTags() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}

func (s *SkillsServiceImpl) ListPublic(ctx context.Context) ([]types.Skill, error) {
	ctx, span := otel.Tracer("SkillsService").Start(ctx, "ListPublic")
	defer span.End()

	skills, err := s.store.Repos().Skills.ListPublic(ctx)
	if err != nil {
		fail(span, err, "list failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return skills, nil
}

func (s *SkillsServiceImpl) ListByOwner(ctx context.Context, viewer *types.Identity, ownerID int64) ([]types.Skill, error) {
	ctx, span := otel.Tracer("SkillsService").Start(ctx, "ListByOwner", trace.WithAttributes(
		attribute.Int64("owner.id", ownerID),
	))
	defer span.End()

	repo := s.store.Repos().Skills
	exists, err := repo.OwnerExists(ctx, ownerID)
	if err != nil {
		fail(span, err, "owner lookup failed")
		return nil, err
	}
	if !exists {
		span.SetStatus(codes.Error, "owner not found")
		return nil, api.Errorf(api.ErrNotFound, "user %d not found", ownerID)
	}

	includePrivate := viewer != nil && viewer.UserID == ownerID
	skills, err := repo.ListByOwner(ctx, ownerID, includePrivate)
	if err != nil {
		fail(span, err, "list failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return skills, nil
}

func (s *SkillsServiceImpl) Get(ctx context.Context, viewer *types.Identity, id int64) (*types.SkillWithDetails, error) {
	ctx, span := otel.Tracer("SkillsService").Start(ctx, "Get", trace.WithAttributes(attribute.Int64("skill.id", id)))
	defer span.End()

	repos := s.store.Repos()
	skill, err := repos.Skills.GetWithOwner(ctx, id)
	if err != nil {
		fail(span, err, "get failed")
		return nil, err
	}
	if !skill.IsPublic && (viewer == nil || viewer.UserID != skill.UserID) {
		span.SetStatus(codes.Error, "private skill")
		return nil, api.Errorf(api.ErrNotFound, "skill %d not found", id)
	}

	skill.Tags, err = repos.Tags.ListForSkill(ctx, id)
	if err != nil {
		fail(span, err, "tag lookup failed")
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return skill, nil
}

type tagInput struct {
	name string
	slug string
}

// normalizeTags trims and slugs names and keeps the first name seen for each slug.
func normalizeTags(names []string) ([]tagInput, error) {
	out := make([]tagInput, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		slug := tags.Slugify(name)
		if slug == "" {
			return nil, api.Errorf(api.ErrValidation, "invalid tag %q", raw)
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, tagInput{name: name, slug: slug})
	}
	return out, nil
}

// attachTags links every tag to the skill, counting usage only for new links.
func attachTags(ctx context.Context, repo tags.TagsRepo, skillID int64, in []tagInput) ([]types.Tag, error) {
	attached := make([]types.Tag, 0, len(in))
	for _, t := range in {
		tag, err := repo.FindOrCreate(ctx, t.name, t.slug)
		if err != nil {
			return nil, err
		}
		created, err := repo.Associate(ctx, skillID, tag.ID)
		if err != nil {
			return nil, err
		}
		if created {
			if err := repo.Increment(ctx, tag.ID); err != nil {
				return nil, err
			}
			tag.UsageCount++
		}
		attached = append(attached, *tag)
	}
	return attached, nil
}

// detachTags decrements usage once per current association. The links themselves stay.
func detachTags(ctx context.Context, repo tags.TagsRepo, skillID int64) error {
	current, err := repo.ListForSkill(ctx, skillID)
	if err != nil {
		return err
	}
	for _, t := range current {
		if err := repo.Decrement(ctx, t.ID); err != nil {
			return err
		}
	}
	return nil
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return api.NewError(api.ErrValidation, "content is required")
	}
	return nil
}

func (s *SkillsServiceImpl) Create(ctx context.Context, identity types.Identity, req types.CreateSkillRequest) (*types.SkillWithDetails, error) {
	ctx, span := otel.Tracer("SkillsService").Start(ctx, "Create", trace.WithAttributes(
		attribute.Int64("user.id", identity.UserID),
		attribute.Int("tags.count", len(req.Tags)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Create"), slog.Int64("userID", identity.UserID))

	if err := validateContent(req.Content); err != nil {
		span.SetStatus(codes.Error, "invalid content")
		return nil, err
	}
	tagSet, err := normalizeTags(req.Tags)
	if err != nil {
		span.SetStatus(codes.Error, "invalid tags")
		return nil, err
	}

	meta := ParseMetadata(req.Content)
	params := types.NewSkillParams{
		UserID:   identity.UserID,
		Filename: Filename(meta.Name),
		FileSize: len(req.Content),
		Metadata: meta,
		Content:  req.Content,
		IsPublic: req.IsPublic,
	}

	var out *types.SkillWithDetails
	err = s.store.InTx(ctx, func(r Repos) error {
		skill, err := r.Skills.Create(ctx, params)
		if err != nil {
			return err
		}
		attached, err := attachTags(ctx, r.Tags, skill.ID, tagSet)
		if err != nil {
			return err
		}
		out = &types.SkillWithDetails{
			Skill: *skill,
			Tags:  attached,
			Owner: types.OwnerView{ID: identity.UserID, Username: identity.Username},
		}
		return nil
	})
	if err != nil {
		l.ErrorContext(ctx, "Failed to create skill", slog.Any("error", err))
		fail(span, err, "create failed")
		return nil, err
	}
	s.invalidateTags()

	l.InfoContext(ctx, "Skill created", slog.Int64("skillID", out.ID), slog.String("name", out.Name))
	span.SetStatus(codes.Ok, "Skill created")
	return out, nil
}

// lockOwned locks the skill row and checks that identity owns it.
func lockOwned(ctx context.Context, repo SkillsRepo, identity types.Identity, id int64) (*types.Skill, error) {
	skill, err := repo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if skill.UserID != identity.UserID {
		return nil, api.NewError(api.ErrForbidden, "you can only modify your own skills")
	}
	return skill, nil
}

func (s *SkillsServiceImpl) Update(ctx context.Context, identity types.Identity, id int64, req types.UpdateSkillRequest) (*types.SkillWithDetails, error) {
	ctx, span := otel.Tracer("SkillsService").Start(ctx, "Update", trace.WithAttributes(
		attribute.Int64("skill.id", id),
		attribute.Int64("user.id", identity.UserID),
		attribute.Bool("tags.replace", req.Tags != nil),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Update"), slog.Int64("skillID", id))

	var params types.UpdateSkillParams
	if req.Content != nil {
		if err := validateContent(*req.Content); err != nil {
			span.SetStatus(codes.Error, "invalid content")
			return nil, err
		}
		meta := ParseMetadata(*req.Content)
		filename := Filename(meta.Name)
		size := len(*req.Content)
		params.Content = req.Content
		params.Metadata = &meta
		params.Filename = &filename
		params.FileSize = &size
	}
	params.IsPublic = req.IsPublic

	var tagSet []tagInput
	if req.Tags != nil {
		var err error
		if tagSet, err = normalizeTags(req.Tags); err != nil {
			span.SetStatus(codes.Error, "invalid tags")
			return nil, err
		}
	}

	var out *types.SkillWithDetails
	err := s.store.InTx(ctx, func(r Repos) error {
		if _, err := lockOwned(ctx, r.Skills, identity, id); err != nil {
			return err
		}
		skill, err := r.Skills.Update(ctx, id, params)
		if err != nil {
			return err
		}

		var current []types.Tag
		if req.Tags != nil {
			if err := detachTags(ctx, r.Tags, id); err != nil {
				return err
			}
			if err := r.Tags.ClearForSkill(ctx, id); err != nil {
				return err
			}
			if current, err = attachTags(ctx, r.Tags, id, tagSet); err != nil {
				return err
			}
		} else if current, err = r.Tags.ListForSkill(ctx, id); err != nil {
			return err
		}

		out = &types.SkillWithDetails{
			Skill: *skill,
			Tags:  current,
			Owner: types.OwnerView{ID: identity.UserID, Username: identity.Username},
		}
		return nil
	})
	if err != nil {
		l.WarnContext(ctx, "Skill update rejected or failed", slog.Any("error", err))
		fail(span, err, "update failed")
		return nil, err
	}
	if req.Tags != nil {
		s.invalidateTags()
	}

	l.InfoContext(ctx, "Skill updated")
	span.SetStatus(codes.Ok, "Skill updated")
	return out, nil
}

func (s *SkillsServiceImpl) Delete(ctx context.Context, identity types.Identity, id int64) error {
	ctx, span := otel.Tracer("SkillsService").Start(ctx, "Delete", trace.WithAttributes(
		attribute.Int64("skill.id", id),
		attribute.Int64("user.id", identity.UserID),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Delete"), slog.Int64("skillID", id))

	err := s.store.InTx(ctx, func(r Repos) error {
		if _, err := lockOwned(ctx, r.Skills, identity, id); err != nil {
			return err
		}
		if err := detachTags(ctx, r.Tags, id); err != nil {
			return err
		}
		return r.Skills.Delete(ctx, id)
	})
	if err != nil {
		l.WarnContext(ctx, "Skill delete rejected or failed", slog.Any("error", err))
		fail(span, err, "delete failed")
		return err
	}
	s.invalidateTags()

	l.InfoContext(ctx, "Skill deleted")
	span.SetStatus(codes.Ok, "Skill deleted")
	return nil
}

func (s *SkillsServiceImpl) IncrementDownloads(ctx context.Context, id int64) (int64, error) {
	ctx, span := otel.Tracer("SkillsService").Start(ctx, "IncrementDownloads", trace.WithAttributes(attribute.Int64("skill.id", id)))
	defer span.End()

	n, err := s.store.Repos().Skills.IncrementDownloads(ctx, id)
	if err != nil {
		fail(span, err, "increment failed")
		return 0, err
	}
	metrics.Get().SkillDownloadsTotal.Add(ctx, 1)
	span.SetStatus(codes.Ok, "")
	return n, nil
}

func (s *SkillsServiceImpl) IncrementClones(ctx context.Context, id int64) (int64, error) {
	ctx, span := otel.Tracer("SkillsService").Start(ctx, "IncrementClones", trace.WithAttributes(attribute.Int64("skill.id", id)))
	defer span.End()

	n, err := s.store.Repos().Skills.IncrementClones(ctx, id)
	if err != nil {
		fail(span, err, "increment failed")
		return 0, err
	}
	metrics.Get().SkillClonesTotal.Add(ctx, 1)
	span.SetStatus(codes.Ok, "")
	return n, nil
}

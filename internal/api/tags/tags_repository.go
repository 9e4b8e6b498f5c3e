package tags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/skill-registry/app/db"
	"github.com/FACorreiaa/skill-registry/internal/api"
	"github.com/FACorreiaa/skill-registry/internal/types"
)

const tagColumns = "id, name, slug, usage_count, created_at"

var _ TagsRepo = (*PostgresTagsRepo)(nil)

// TagsRepo is the tag vocabulary and its skill associations. Counter
// mutations are single statements.
type TagsRepo interface {
	List(ctx context.Context) ([]types.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*types.Tag, error)
	// FindOrCreate returns the tag for slug, inserting it with name when absent.
	FindOrCreate(ctx context.Context, name, slug string) (*types.Tag, error)
	// Associate links a skill and a tag. It reports false when the link already existed.
	Associate(ctx context.Context, skillID, tagID int64) (bool, error)
	ClearForSkill(ctx context.Context, skillID int64) error
	ListForSkill(ctx context.Context, skillID int64) ([]types.Tag, error)
	Increment(ctx context.Context, tagID int64) error
	// Decrement never takes usage_count below zero.
	Decrement(ctx context.Context, tagID int64) error
}

type PostgresTagsRepo struct {
	logger *slog.Logger
	db     database.Querier
}

func NewPostgresTagsRepo(db database.Querier, logger *slog.Logger) *PostgresTagsRepo {
	return &PostgresTagsRepo{
		logger: logger,
		db:     db,
	}
}

func startSpan(ctx context.Context, name, operation, table string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", operation),
		attribute.String("db.sql.table", table),
	)
	return otel.Tracer("TagsRepo").Start(ctx, name, trace.WithAttributes(attrs...))
}

func scanTag(row pgx.Row) (*types.Tag, error) {
	var t types.Tag
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.UsageCount, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PostgresTagsRepo) collect(ctx context.Context, span trace.Span, sql string, args ...any) ([]types.Tag, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		database.RecordQueryError(ctx, span, "tags", err)
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	tags := []types.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			database.RecordQueryError(ctx, span, "tags", err)
			return nil, fmt.Errorf("scanning tag row: %w", err)
		}
		tags = append(tags, *t)
	}
	if err := rows.Err(); err != nil {
		database.RecordQueryError(ctx, span, "tags", err)
		return nil, fmt.Errorf("iterating tag rows: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return tags, nil
}

func (r *PostgresTagsRepo) List(ctx context.Context) ([]types.Tag, error) {
	ctx, span := startSpan(ctx, "List", "SELECT", "tags")
	defer span.End()

	return r.collect(ctx, span, "SELECT "+tagColumns+" FROM tags ORDER BY usage_count DESC, name ASC")
}

func (r *PostgresTagsRepo) GetBySlug(ctx context.Context, slug string) (*types.Tag, error) {
	ctx, span := startSpan(ctx, "GetBySlug", "SELECT", "tags", attribute.String("db.tag.slug", slug))
	defer span.End()

	t, err := scanTag(r.db.QueryRow(ctx, "SELECT "+tagColumns+" FROM tags WHERE slug = $1", slug))
	if err != nil {
		database.RecordQueryError(ctx, span, "tags", err)
		return nil, api.ClassifyPgError(err, fmt.Sprintf("tag %q", slug))
	}
	span.SetStatus(codes.Ok, "")
	return t, nil
}

func (r *PostgresTagsRepo) FindOrCreate(ctx context.Context, name, slug string) (*types.Tag, error) {
	ctx, span := startSpan(ctx, "FindOrCreate", "INSERT", "tags", attribute.String("db.tag.slug", slug))
	defer span.End()

	t, err := scanTag(r.db.QueryRow(ctx,
		"INSERT INTO tags (name, slug) VALUES ($1, $2) ON CONFLICT (slug) DO NOTHING RETURNING "+tagColumns,
		name, slug))
	if err == nil {
		span.SetAttributes(attribute.Bool("db.tag.created", true))
		span.SetStatus(codes.Ok, "Tag created")
		return t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		database.RecordQueryError(ctx, span, "tags", err)
		return nil, fmt.Errorf("inserting tag %q: %w", slug, err)
	}

	// The slug already exists, possibly inserted by a concurrent request.
	t, err = scanTag(r.db.QueryRow(ctx, "SELECT "+tagColumns+" FROM tags WHERE slug = $1", slug))
	if err != nil {
		database.RecordQueryError(ctx, span, "tags", err)
		return nil, fmt.Errorf("re-reading tag %q: %w", slug, err)
	}
	span.SetStatus(codes.Ok, "Tag found")
	return t, nil
}

func (r *PostgresTagsRepo) Associate(ctx context.Context, skillID, tagID int64) (bool, error) {
	ctx, span := startSpan(ctx, "Associate", "INSERT", "skill_tags",
		attribute.Int64("db.skill.id", skillID), attribute.Int64("db.tag.id", tagID))
	defer span.End()

	tag, err := r.db.Exec(ctx,
		"INSERT INTO skill_tags (skill_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		skillID, tagID)
	if err != nil {
		database.RecordQueryError(ctx, span, "skill_tags", err)
		return false, api.ClassifyPgError(err, fmt.Sprintf("skill %d tag %d", skillID, tagID))
	}
	span.SetStatus(codes.Ok, "")
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresTagsRepo) ClearForSkill(ctx context.Context, skillID int64) error {
	ctx, span := startSpan(ctx, "ClearForSkill", "DELETE", "skill_tags", attribute.Int64("db.skill.id", skillID))
	defer span.End()

	if _, err := r.db.Exec(ctx, "DELETE FROM skill_tags WHERE skill_id = $1", skillID); err != nil {
		database.RecordQueryError(ctx, span, "skill_tags", err)
		return fmt.Errorf("clearing tags of skill %d: %w", skillID, err)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (r *PostgresTagsRepo) ListForSkill(ctx context.Context, skillID int64) ([]types.Tag, error) {
	ctx, span := startSpan(ctx, "ListForSkill", "SELECT", "skill_tags", attribute.Int64("db.skill.id", skillID))
	defer span.End()

	return r.collect(ctx, span, `
		SELECT t.id, t.name, t.slug, t.usage_count, t.created_at
		FROM tags t
		JOIN skill_tags st ON st.tag_id = t.id
		WHERE st.skill_id = $1
		ORDER BY t.name`, skillID)
}

func (r *PostgresTagsRepo) Increment(ctx context.Context, tagID int64) error {
	ctx, span := startSpan(ctx, "Increment", "UPDATE", "tags", attribute.Int64("db.tag.id", tagID))
	defer span.End()

	tag, err := r.db.Exec(ctx, "UPDATE tags SET usage_count = usage_count + 1 WHERE id = $1", tagID)
	if err != nil {
		database.RecordQueryError(ctx, span, "tags", err)
		return fmt.Errorf("incrementing tag %d: %w", tagID, err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Tag not found")
		return fmt.Errorf("tag %d: %w", tagID, api.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (r *PostgresTagsRepo) Decrement(ctx context.Context, tagID int64) error {
	ctx, span := startSpan(ctx, "Decrement", "UPDATE", "tags", attribute.Int64("db.tag.id", tagID))
	defer span.End()

	tag, err := r.db.Exec(ctx, "UPDATE tags SET usage_count = usage_count - 1 WHERE id = $1 AND usage_count > 0", tagID)
	if err != nil {
		database.RecordQueryError(ctx, span, "tags", err)
		return fmt.Errorf("decrementing tag %d: %w", tagID, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Tag usage already at zero", slog.Int64("tagID", tagID))
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

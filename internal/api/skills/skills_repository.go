package skills

import (
	"context"
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

const skillColumns = "id, user_id, filename, file_size, name, description, version, author, content, is_public, download_count, clone_count, created_at, updated_at"

var _ SkillsRepo = (*PostgresSkillsRepo)(nil)

type SkillsRepo interface {
	ListPublic(ctx context.Context) ([]types.Skill, error)
	ListByOwner(ctx context.Context, userID int64, includePrivate bool) ([]types.Skill, error)
	OwnerExists(ctx context.Context, userID int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*types.Skill, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*types.Skill, error)
	GetWithOwner(ctx context.Context, id int64) (*types.SkillWithDetails, error)
	Create(ctx context.Context, params types.NewSkillParams) (*types.Skill, error)
	Update(ctx context.Context, id int64, params types.UpdateSkillParams) (*types.Skill, error)
	Delete(ctx context.Context, id int64) error
	// IncrementDownloads and IncrementClones return the new count.
	IncrementDownloads(ctx context.Context, id int64) (int64, error)
	IncrementClones(ctx context.Context, id int64) (int64, error)
}

type PostgresSkillsRepo struct {
	logger *slog.Logger
	db     database.Querier
}

func NewPostgresSkillsRepo(db database.Querier, logger *slog.Logger) *PostgresSkillsRepo {
	return &PostgresSkillsRepo{
		logger: logger,
		db:     db,
	}
}

func startSpan(ctx context.Context, name, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", operation),
		attribute.String("db.sql.table", "skills"),
	)
	return otel.Tracer("SkillsRepo").Start(ctx, name, trace.WithAttributes(attrs...))
}

func skillFields(s *types.Skill) []any {
	return []any{
		&s.ID, &s.UserID, &s.Filename, &s.FileSize, &s.Name, &s.Description, &s.Version,
		&s.Author, &s.Content, &s.IsPublic, &s.DownloadCount, &s.CloneCount, &s.CreatedAt, &s.UpdatedAt,
	}
}

func scanSkill(row pgx.Row) (*types.Skill, error) {
	var s types.Skill
	if err := row.Scan(skillFields(&s)...); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresSkillsRepo) list(ctx context.Context, span trace.Span, sql string, args ...any) ([]types.Skill, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		database.RecordQueryError(ctx, span, "skills", err)
		return nil, fmt.Errorf("querying skills: %w", err)
	}
	defer rows.Close()

	skills := []types.Skill{}
	for rows.Next() {
		s, err := scanSkill(rows)
		if err != nil {
			database.RecordQueryError(ctx, span, "skills", err)
			return nil, fmt.Errorf("scanning skill row: %w", err)
		}
		skills = append(skills, *s)
	}
	if err := rows.Err(); err != nil {
		database.RecordQueryError(ctx, span, "skills", err)
		return nil, fmt.Errorf("iterating skill rows: %w", err)
	}
	span.SetAttributes(attribute.Int("db.rows", len(skills)))
	span.SetStatus(codes.Ok, "")
	return skills, nil
}

func (r *PostgresSkillsRepo) ListPublic(ctx context.Context) ([]types.Skill, error) {
	ctx, span := startSpan(ctx, "ListPublic", "SELECT")
	defer span.End()

	return r.list(ctx, span, "SELECT "+skillColumns+" FROM skills WHERE is_public = TRUE ORDER BY created_at DESC, id DESC")
}

func (r *PostgresSkillsRepo) ListByOwner(ctx context.Context, userID int64, includePrivate bool) ([]types.Skill, error) {
	ctx, span := startSpan(ctx, "ListByOwner", "SELECT",
		attribute.Int64("db.user.id", userID), attribute.Bool("db.include_private", includePrivate))
	defer span.End()

	q := database.SQL.Select(skillColumns).From("skills").Where("user_id = ?", userID)
	if !includePrivate {
		q = q.Where("is_public = TRUE")
	}
	sql, args, err := q.OrderBy("created_at DESC", "id DESC").ToSql()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("building owner listing: %w", err)
	}
	return r.list(ctx, span, sql, args...)
}

func (r *PostgresSkillsRepo) OwnerExists(ctx context.Context, userID int64) (bool, error) {
	ctx, span := startSpan(ctx, "OwnerExists", "SELECT", attribute.Int64("db.user.id", userID))
	defer span.End()

	var exists bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)", userID).Scan(&exists); err != nil {
		database.RecordQueryError(ctx, span, "users", err)
		return false, fmt.Errorf("checking user %d: %w", userID, err)
	}
	span.SetStatus(codes.Ok, "")
	return exists, nil
}

func (r *PostgresSkillsRepo) getOne(ctx context.Context, name, sql string, id int64) (*types.Skill, error) {
	ctx, span := startSpan(ctx, name, "SELECT", attribute.Int64("db.skill.id", id))
	defer span.End()

	s, err := scanSkill(r.db.QueryRow(ctx, sql, id))
	if err != nil {
		database.RecordQueryError(ctx, span, "skills", err)
		return nil, api.ClassifyPgError(err, fmt.Sprintf("skill %d", id))
	}
	span.SetStatus(codes.Ok, "")
	return s, nil
}

func (r *PostgresSkillsRepo) GetByID(ctx context.Context, id int64) (*types.Skill, error) {
	return r.getOne(ctx, "GetByID", "SELECT "+skillColumns+" FROM skills WHERE id = $1", id)
}

func (r *PostgresSkillsRepo) GetByIDForUpdate(ctx context.Context, id int64) (*types.Skill, error) {
	return r.getOne(ctx, "GetByIDForUpdate", "SELECT "+skillColumns+" FROM skills WHERE id = $1 FOR UPDATE", id)
}

func (r *PostgresSkillsRepo) GetWithOwner(ctx context.Context, id int64) (*types.SkillWithDetails, error) {
	ctx, span := startSpan(ctx, "GetWithOwner", "SELECT", attribute.Int64("db.skill.id", id))
	defer span.End()

	var d types.SkillWithDetails
	dest := append(skillFields(&d.Skill), &d.Owner.Username)
	err := r.db.QueryRow(ctx, `
		SELECT s.id, s.user_id, s.filename, s.file_size, s.name, s.description, s.version, s.author,
		       s.content, s.is_public, s.download_count, s.clone_count, s.created_at, s.updated_at,
		       u.username
		FROM skills s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $1`, id).Scan(dest...)
	if err != nil {
		database.RecordQueryError(ctx, span, "skills", err)
		return nil, api.ClassifyPgError(err, fmt.Sprintf("skill %d", id))
	}
	d.Owner.ID = d.UserID
	d.Tags = []types.Tag{}
	span.SetStatus(codes.Ok, "")
	return &d, nil
}

func (r *PostgresSkillsRepo) Create(ctx context.Context, p types.NewSkillParams) (*types.Skill, error) {
	ctx, span := startSpan(ctx, "Create", "INSERT", attribute.Int64("db.user.id", p.UserID))
	defer span.End()

	s, err := scanSkill(r.db.QueryRow(ctx, `
		INSERT INTO skills (user_id, filename, file_size, name, description, version, author, content, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+skillColumns,
		p.UserID, p.Filename, p.FileSize, p.Metadata.Name, p.Metadata.Description,
		p.Metadata.Version, p.Metadata.Author, p.Content, p.IsPublic))
	if err != nil {
		database.RecordQueryError(ctx, span, "skills", err)
		return nil, api.ClassifyPgError(err, "skill owner")
	}
	span.SetAttributes(attribute.Int64("db.skill.id", s.ID))
	span.SetStatus(codes.Ok, "Skill created")
	return s, nil
}

// Update writes only the non-nil fields of params.
func (r *PostgresSkillsRepo) Update(ctx context.Context, id int64, p types.UpdateSkillParams) (*types.Skill, error) {
	ctx, span := startSpan(ctx, "Update", "UPDATE", attribute.Int64("db.skill.id", id))
	defer span.End()

	if p.Empty() {
		span.SetStatus(codes.Ok, "No update fields provided")
		return r.GetByID(ctx, id)
	}

	q := database.SQL.Update("skills")
	if p.Content != nil {
		q = q.Set("content", *p.Content)
		span.SetAttributes(attribute.Bool("update.content", true))
	}
	if p.Filename != nil {
		q = q.Set("filename", *p.Filename)
	}
	if p.FileSize != nil {
		q = q.Set("file_size", *p.FileSize)
	}
	if p.Metadata != nil {
		q = q.Set("name", p.Metadata.Name).
			Set("description", p.Metadata.Description).
			Set("version", p.Metadata.Version).
			Set("author", p.Metadata.Author)
	}
	if p.IsPublic != nil {
		q = q.Set("is_public", *p.IsPublic)
		span.SetAttributes(attribute.Bool("update.is_public", true))
	}
	sql, args, err := q.
		Set("updated_at", database.Now).
		Where("id = ?", id).
		Suffix("RETURNING " + skillColumns).
		ToSql()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to build query")
		return nil, fmt.Errorf("building skill update: %w", err)
	}

	s, err := scanSkill(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		database.RecordQueryError(ctx, span, "skills", err)
		return nil, api.ClassifyPgError(err, fmt.Sprintf("skill %d", id))
	}
	span.SetStatus(codes.Ok, "Skill updated")
	return s, nil
}

func (r *PostgresSkillsRepo) Delete(ctx context.Context, id int64) error {
	ctx, span := startSpan(ctx, "Delete", "DELETE", attribute.Int64("db.skill.id", id))
	defer span.End()

	tag, err := r.db.Exec(ctx, "DELETE FROM skills WHERE id = $1", id)
	if err != nil {
		database.RecordQueryError(ctx, span, "skills", err)
		return fmt.Errorf("deleting skill %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "Skill not found")
		return api.Errorf(api.ErrNotFound, "skill %d not found", id)
	}
	span.SetStatus(codes.Ok, "Skill deleted")
	return nil
}

// bump runs a single UPDATE ... SET column = column + 1 so concurrent calls never lose an increment.
func (r *PostgresSkillsRepo) bump(ctx context.Context, name, column string, id int64) (int64, error) {
	ctx, span := startSpan(ctx, name, "UPDATE", attribute.Int64("db.skill.id", id))
	defer span.End()

	var n int64
	err := r.db.QueryRow(ctx,
		fmt.Sprintf("UPDATE skills SET %[1]s = %[1]s + 1 WHERE id = $1 RETURNING %[1]s", column), id).Scan(&n)
	if err != nil {
		database.RecordQueryError(ctx, span, "skills", err)
		return 0, api.ClassifyPgError(err, fmt.Sprintf("skill %d", id))
	}
	span.SetStatus(codes.Ok, "")
	return n, nil
}

func (r *PostgresSkillsRepo) IncrementDownloads(ctx context.Context, id int64) (int64, error) {
	return r.bump(ctx, "IncrementDownloads", "download_count", id)
}

func (r *PostgresSkillsRepo) IncrementClones(ctx context.Context, id int64) (int64, error) {
	return r.bump(ctx, "IncrementClones", "clone_count", id)
}

package user

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
	"github.com/FACorreiaa/skill-registry/internal/api/auth"
	"github.com/FACorreiaa/skill-registry/internal/types"
)

const userColumns = "id, username, password_hash, display_name, created_at, updated_at"

var (
	_ UserRepo      = (*PostgresUserRepo)(nil)
	_ auth.UserRepo = (*PostgresUserRepo)(nil)
)

// UserRepo defines the contract for user data persistence.
type UserRepo interface {
	List(ctx context.Context) ([]types.User, error)
	// GetByID returns api.ErrNotFound when no user has id.
	GetByID(ctx context.Context, id int64) (*types.User, error)
	GetByUsername(ctx context.Context, username string) (*types.User, error)
	// Create returns api.ErrConflict when the username is taken.
	Create(ctx context.Context, username, passwordHash string, displayName *string) (*types.User, error)
	Update(ctx context.Context, id int64, params types.UpdateUserParams) (*types.User, error)
	Delete(ctx context.Context, id int64) error
	CountSkills(ctx context.Context, id int64) (int, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	db     database.Querier
}

func NewPostgresUserRepo(db database.Querier, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		db:     db,
	}
}

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func startSpan(ctx context.Context, name, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", operation),
		attribute.String("db.sql.table", "users"),
	)
	return otel.Tracer("UserRepo").Start(ctx, name, trace.WithAttributes(attrs...))
}

func (r *PostgresUserRepo) List(ctx context.Context) ([]types.User, error) {
	ctx, span := startSpan(ctx, "List", "SELECT")
	defer span.End()

	rows, err := r.db.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		database.RecordQueryError(ctx, span, "users", err)
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := []types.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			database.RecordQueryError(ctx, span, "users", err)
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		database.RecordQueryError(ctx, span, "users", err)
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	span.SetStatus(codes.Ok, "Users listed")
	return users, nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, id int64) (*types.User, error) {
	ctx, span := startSpan(ctx, "GetByID", "SELECT", attribute.Int64("db.user.id", id))
	defer span.End()

	u, err := scanUser(r.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil {
		database.RecordQueryError(ctx, span, "users", err)
		return nil, api.ClassifyPgError(err, fmt.Sprintf("user %d", id))
	}
	span.SetStatus(codes.Ok, "User fetched")
	return u, nil
}

func (r *PostgresUserRepo) GetByUsername(ctx context.Context, username string) (*types.User, error) {
	ctx, span := startSpan(ctx, "GetByUsername", "SELECT")
	defer span.End()

	u, err := scanUser(r.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username))
	if err != nil {
		database.RecordQueryError(ctx, span, "users", err)
		return nil, api.ClassifyPgError(err, fmt.Sprintf("user %q", username))
	}
	span.SetStatus(codes.Ok, "User fetched")
	return u, nil
}

func (r *PostgresUserRepo) Create(ctx context.Context, username, passwordHash string, displayName *string) (*types.User, error) {
	ctx, span := startSpan(ctx, "Create", "INSERT")
	defer span.End()

	l := r.logger.With(slog.String("method", "Create"), slog.String("username", username))

	u, err := scanUser(r.db.QueryRow(ctx,
		"INSERT INTO users (username, password_hash, display_name) VALUES ($1, $2, $3) RETURNING "+userColumns,
		username, passwordHash, displayName))
	if err != nil {
		database.RecordQueryError(ctx, span, "users", err)
		err = api.ClassifyPgError(err, "username")
		l.WarnContext(ctx, "Failed to insert user", slog.Any("error", err))
		return nil, err
	}

	span.SetAttributes(attribute.Int64("db.user.id", u.ID))
	span.SetStatus(codes.Ok, "User created")
	return u, nil
}

// Update writes only the non-nil fields of params.
func (r *PostgresUserRepo) Update(ctx context.Context, id int64, params types.UpdateUserParams) (*types.User, error) {
	ctx, span := startSpan(ctx, "Update", "UPDATE", attribute.Int64("db.user.id", id))
	defer span.End()

	if params.Empty() {
		span.SetStatus(codes.Ok, "No update fields provided")
		return r.GetByID(ctx, id)
	}

	q := database.SQL.Update("users")
	if params.Username != nil {
		q = q.Set("username", *params.Username)
		span.SetAttributes(attribute.Bool("update.username", true))
	}
	if params.DisplayName != nil {
		q = q.Set("display_name", *params.DisplayName)
		span.SetAttributes(attribute.Bool("update.display_name", true))
	}
	if params.PasswordHash != nil {
		q = q.Set("password_hash", *params.PasswordHash)
		span.SetAttributes(attribute.Bool("update.password", true))
	}
	sql, args, err := q.
		Set("updated_at", database.Now).
		Where("id = ?", id).
		Suffix("RETURNING " + userColumns).
		ToSql()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to build query")
		return nil, fmt.Errorf("building user update: %w", err)
	}

	u, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		database.RecordQueryError(ctx, span, "users", err)
		if api.IsUniqueViolation(err) {
			return nil, api.NewError(api.ErrConflict, "username already taken")
		}
		return nil, api.ClassifyPgError(err, fmt.Sprintf("user %d", id))
	}
	span.SetStatus(codes.Ok, "User updated")
	return u, nil
}

func (r *PostgresUserRepo) Delete(ctx context.Context, id int64) error {
	ctx, span := startSpan(ctx, "Delete", "DELETE", attribute.Int64("db.user.id", id))
	defer span.End()

	tag, err := r.db.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		database.RecordQueryError(ctx, span, "users", err)
		return api.ClassifyPgError(err, fmt.Sprintf("user %d", id))
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "User not found")
		return fmt.Errorf("user %d: %w", id, api.ErrNotFound)
	}
	span.SetStatus(codes.Ok, "User deleted")
	return nil
}

// CountSkills returns how many skills id owns, public or not.
func (r *PostgresUserRepo) CountSkills(ctx context.Context, id int64) (int, error) {
	ctx, span := startSpan(ctx, "CountSkills", "SELECT", attribute.Int64("db.user.id", id))
	defer span.End()

	var n int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM skills WHERE user_id = $1", id).Scan(&n); err != nil {
		database.RecordQueryError(ctx, span, "skills", err)
		return 0, fmt.Errorf("counting skills of user %d: %w", id, err)
	}
	span.SetStatus(codes.Ok, "")
	return n, nil
}

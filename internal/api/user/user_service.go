package user

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/skill-registry/internal/api"
	"github.com/FACorreiaa/skill-registry/internal/api/auth"
	"github.com/FACorreiaa/skill-registry/internal/types"
)

var _ UserService = (*UserServiceImpl)(nil)

// UserService defines the business logic contract for user operations.
type UserService interface {
	List(ctx context.Context) ([]types.UserPublic, error)
	Get(ctx context.Context, id int64) (*types.UserPublic, error)
	// Update and Delete are self-service only.
	Update(ctx context.Context, identity types.Identity, id int64, req types.UpdateUserRequest) (*types.UserPublic, error)
	Delete(ctx context.Context, identity types.Identity, id int64) error
}

// UserServiceImpl provides the implementation for UserService.
type UserServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
	hasher auth.Hasher
}

// NewUserService creates a new user service instance.
func NewUserService(repo UserRepo, hasher auth.Hasher, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
		hasher: hasher,
	}
}

func (s *UserServiceImpl) List(ctx context.Context) ([]types.UserPublic, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "List")
	defer span.End()

	users, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		return nil, err
	}

	out := make([]types.UserPublic, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	span.SetStatus(codes.Ok, "")
	return out, nil
}

func (s *UserServiceImpl) Get(ctx context.Context, id int64) (*types.UserPublic, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "Get", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get failed")
		return nil, err
	}
	pub := u.Public()
	span.SetStatus(codes.Ok, "")
	return &pub, nil
}

// authorizeSelf returns ErrNotFound when id does not exist and ErrForbidden
// when it belongs to someone other than identity.
func (s *UserServiceImpl) authorizeSelf(ctx context.Context, identity types.Identity, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if identity.UserID != id {
		return api.NewError(api.ErrForbidden, "you can only modify your own account")
	}
	return nil
}

func (s *UserServiceImpl) Update(ctx context.Context, identity types.Identity, id int64, req types.UpdateUserRequest) (*types.UserPublic, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "Update", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	l := s.logger.With(slog.String("method", "Update"), slog.Int64("userID", id))

	if err := s.authorizeSelf(ctx, identity, id); err != nil {
		span.SetStatus(codes.Error, "not allowed")
		return nil, err
	}

	var params types.UpdateUserParams
	if req.Username != nil {
		if err := auth.ValidateUsername(*req.Username); err != nil {
			return nil, err
		}
		params.Username = req.Username
	}
	if req.DisplayName != nil {
		params.DisplayName = req.DisplayName
	}
	if req.Password != nil {
		if err := auth.ValidatePassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		params.PasswordHash = &hash
	}

	u, err := s.repo.Update(ctx, id, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		l.WarnContext(ctx, "Failed to update user", slog.Any("error", err))
		return nil, err
	}

	l.InfoContext(ctx, "User updated")
	pub := u.Public()
	span.SetStatus(codes.Ok, "")
	return &pub, nil
}

func (s *UserServiceImpl) Delete(ctx context.Context, identity types.Identity, id int64) error {
	ctx, span := otel.Tracer("UserService").Start(ctx, "Delete", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	l := s.logger.With(slog.String("method", "Delete"), slog.Int64("userID", id))

	if err := s.authorizeSelf(ctx, identity, id); err != nil {
		span.SetStatus(codes.Error, "not allowed")
		return err
	}

	n, err := s.repo.CountSkills(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if n > 0 {
		span.SetStatus(codes.Error, "user owns skills")
		return api.Errorf(api.ErrConflict, "user still owns %d skill(s); delete them first", n)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}

	l.InfoContext(ctx, "User deleted")
	span.SetStatus(codes.Ok, "")
	return nil
}

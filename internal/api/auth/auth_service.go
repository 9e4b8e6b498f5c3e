package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/skill-registry/app/observability/metrics"
	"github.com/FACorreiaa/skill-registry/internal/api"
	"github.com/FACorreiaa/skill-registry/internal/types"
)

// ErrInvalidCredentials is returned by Login for an unknown user and for a
// wrong password alike.
var ErrInvalidCredentials = api.NewError(api.ErrUnauthenticated, "invalid username or password")

var errUsernameTaken = api.NewError(api.ErrConflict, "username already taken")

// UserRepo is the part of the user directory the auth flow needs.
type UserRepo interface {
	GetByUsername(ctx context.Context, username string) (*types.User, error)
	GetByID(ctx context.Context, id int64) (*types.User, error)
	Create(ctx context.Context, username, passwordHash string, displayName *string) (*types.User, error)
}

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResponse, error)
	Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error)
	Me(ctx context.Context, identity types.Identity) (*types.UserPublic, error)
}

type AuthServiceImpl struct {
	repo   UserRepo
	hasher Hasher
	tokens TokenIssuer
	logger *slog.Logger

	dummyHash func() string
}

func NewAuthService(repo UserRepo, hasher Hasher, tokens TokenIssuer, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
		dummyHash: sync.OnceValue(func() string {
			h, _ := hasher.Hash("not-a-real-password")
			return h
		}),
	}
}

// Register creates an account and returns a token for it.
func (s *AuthServiceImpl) Register(ctx context.Context, req types.RegisterRequest) (resp *types.AuthResponse, err error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register", trace.WithAttributes(
		attribute.String("user.username", req.Username),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Register"), slog.String("username", req.Username))
	m := metrics.Get()
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeFailure
			span.RecordError(err)
			span.SetStatus(codes.Error, "register failed")
		} else {
			span.SetStatus(codes.Ok, "registered")
		}
		m.RegisterTotal.Add(ctx, 1, metrics.Outcome(outcome))
		m.RegisterDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	if err = ValidateUsername(req.Username); err != nil {
		return nil, err
	}
	if err = ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	_, err = s.repo.GetByUsername(ctx, req.Username)
	switch {
	case err == nil:
		l.InfoContext(ctx, "Username already registered")
		return nil, errUsernameTaken
	case !errors.Is(err, api.ErrNotFound):
		l.ErrorContext(ctx, "Failed to look up username", slog.Any("error", err))
		return nil, fmt.Errorf("looking up username: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Create(ctx, req.Username, hash, req.DisplayName)
	if err != nil {
		if errors.Is(err, api.ErrConflict) {
			// Lost a race with a concurrent registration.
			return nil, errUsernameTaken
		}
		l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		return nil, fmt.Errorf("creating user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		l.ErrorContext(ctx, "Failed to issue token", slog.Any("error", err))
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	l.InfoContext(ctx, "User registered", slog.Int64("userID", user.ID))
	return &types.AuthResponse{Token: token, User: user.Public()}, nil
}

// Login verifies credentials and returns a fresh token.
func (s *AuthServiceImpl) Login(ctx context.Context, req types.LoginRequest) (resp *types.AuthResponse, err error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"))
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeFailure
			span.SetStatus(codes.Error, "login failed")
		} else {
			span.SetStatus(codes.Ok, "logged in")
		}
		metrics.Get().LoginTotal.Add(ctx, 1, metrics.Outcome(outcome))
	}()

	if req.Username == "" || req.Password == "" {
		return nil, api.NewError(api.ErrValidation, "username and password are required")
	}

	if len(req.Password) > maxPasswordBytes {
		// No stored hash can match; keep the bcrypt cost so the reply looks alike.
		s.hasher.Verify(req.Password[:maxPasswordBytes], s.dummyHash())
		l.InfoContext(ctx, "Login failed")
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, api.ErrNotFound) {
			l.ErrorContext(ctx, "Failed to look up user", slog.Any("error", err))
			return nil, fmt.Errorf("looking up user: %w", err)
		}
		// Spend the same bcrypt time as a real comparison.
		s.hasher.Verify(req.Password, s.dummyHash())
		l.InfoContext(ctx, "Login failed")
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		l.InfoContext(ctx, "Login failed", slog.Int64("userID", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		l.ErrorContext(ctx, "Failed to issue token", slog.Any("error", err))
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	l.InfoContext(ctx, "User logged in", slog.Int64("userID", user.ID))
	return &types.AuthResponse{Token: token, User: user.Public()}, nil
}

// Me returns the caller's public profile.
func (s *AuthServiceImpl) Me(ctx context.Context, identity types.Identity) (*types.UserPublic, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Me", trace.WithAttributes(
		attribute.Int64("user.id", identity.UserID),
	))
	defer span.End()

	user, err := s.repo.GetByID(ctx, identity.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	pub := user.Public()
	span.SetStatus(codes.Ok, "")
	return &pub, nil
}

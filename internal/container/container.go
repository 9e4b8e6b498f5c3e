package container

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/skill-registry/app/db"
	"github.com/FACorreiaa/skill-registry/config"
	"github.com/FACorreiaa/skill-registry/internal/api/auth"
	"github.com/FACorreiaa/skill-registry/internal/api/skills"
	"github.com/FACorreiaa/skill-registry/internal/api/tags"
	"github.com/FACorreiaa/skill-registry/internal/api/user"
	"github.com/FACorreiaa/skill-registry/internal/router"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *slog.Logger
	Pool          *pgxpool.Pool
	Tokens        *auth.JWTManager
	AuthHandler   *auth.HandlerImpl
	UserHandler   *user.HandlerImpl
	SkillsHandler *skills.HandlerImpl
	TagsHandler   *tags.HandlerImpl
}

// NewContainer opens the pool and wires repositories, services and handlers on it.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(ctx, dbConfig, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	c, err := newContainer(cfg, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return c, nil
}

func newContainer(cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (*Container, error) {
	tokens, err := auth.NewJWTManager(cfg.JWT, logger)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	// User repository also backs the auth flow.
	userRepo := user.NewPostgresUserRepo(pool, logger)
	authService := auth.NewAuthService(userRepo, hasher, tokens, logger)
	authHandler := auth.NewHandlerImpl(authService, logger)

	userService := user.NewUserService(userRepo, hasher, logger)
	userHandler := user.NewHandlerImpl(userService, logger)

	tagsRepo := tags.NewPostgresTagsRepo(pool, logger)
	tagsService := tags.NewTagsService(tagsRepo, cfg.Cache.TagsTTL, logger)
	tagsHandler := tags.NewHandlerImpl(tagsService, logger)

	store := skills.NewPostgresStore(pool, logger)
	skillsService := skills.NewSkillsService(store, tagsService, logger)
	skillsHandler := skills.NewHandlerImpl(skillsService, logger)

	return &Container{
		Config:        cfg,
		Logger:        logger,
		Pool:          pool,
		Tokens:        tokens,
		AuthHandler:   authHandler,
		UserHandler:   userHandler,
		SkillsHandler: skillsHandler,
		TagsHandler:   tagsHandler,
	}, nil
}

// Router returns the HTTP handler for the API server.
func (c *Container) Router() http.Handler {
	return router.SetupRouter(&router.Config{
		AuthHandler:     c.AuthHandler,
		UserHandler:     c.UserHandler,
		SkillsHandler:   c.SkillsHandler,
		TagsHandler:     c.TagsHandler,
		Verifier:        c.Tokens,
		DB:              c.Pool,
		Logger:          c.Logger,
		AllowedOrigins:  c.Config.CORS.AllowedOrigins,
		RequestTimeout:  c.Config.Server.Timeout,
		LoginRateLimit:  c.Config.Auth.LoginRateLimit,
		LoginRateWindow: c.Config.Auth.LoginRateWindow,
	})
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}

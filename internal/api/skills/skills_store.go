package skills

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"

	database "github.com/FACorreiaa/skill-registry/app/db"
	"github.com/FACorreiaa/skill-registry/internal/api/tags"
)

// Repos groups the repositories a skill operation touches, all bound to the same handle.
type Repos struct {
	Skills SkillsRepo
	Tags   tags.TagsRepo
}

// Store hands out repositories on the pool, or on a transaction for
// multi-statement mutations.
type Store interface {
	Repos() Repos
	// InTx commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Repos) error) error
}

var _ Store = (*PostgresStore)(nil)

type PostgresStore struct {
	pool   database.Pool
	logger *slog.Logger
	repos  Repos
}

func NewPostgresStore(pool database.Pool, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		pool:   pool,
		logger: logger,
		repos:  reposOn(pool, logger),
	}
}

func reposOn(q database.Querier, logger *slog.Logger) Repos {
	return Repos{
		Skills: NewPostgresSkillsRepo(q, logger),
		Tags:   tags.NewPostgresTagsRepo(q, logger),
	}
}

func (s *PostgresStore) Repos() Repos {
	return s.repos
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(Repos) error) error {
	return database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(reposOn(tx, s.logger))
	})
}

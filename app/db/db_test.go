package database

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/skill-registry/config"
)

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) Ping(ctx context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitForDB(t *testing.T) {
	logger := slog.Default()

	t.Run("RecoversAfterRetries", func(t *testing.T) {
		p := &flakyPinger{failures: 2}
		assert.True(t, WaitForDB(context.Background(), p, logger))
		assert.Equal(t, 3, p.calls)
	})

	t.Run("GivesUp", func(t *testing.T) {
		p := &flakyPinger{failures: 100}
		assert.False(t, WaitForDB(context.Background(), p, logger))
		assert.Equal(t, defaultRetries, p.calls)
	})

	t.Run("StopsOnCancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := &flakyPinger{failures: 100}
		assert.False(t, WaitForDB(ctx, p, logger))
		assert.Equal(t, 1, p.calls)
	})
}

func TestNewDatabaseConfig(t *testing.T) {
	logger := slog.Default()

	t.Run("FromDiscreteSettings", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Repositories.Postgres = config.PostgresConfig{
			Host: "db", Port: "5432", Username: "u", Password: "p", DB: "skills", MaxConns: 4,
		}
		dbCfg, err := NewDatabaseConfig(cfg, logger)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(dbCfg.ConnectionURL, "postgresql://u:p@db:5432/skills?"))
		assert.Contains(t, dbCfg.ConnectionURL, "sslmode=disable")
		assert.Equal(t, int32(4), dbCfg.MaxConns)
	})

	t.Run("URLWins", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Repositories.Postgres = config.PostgresConfig{URL: "postgres://x:y@h/z", Host: "ignored"}
		dbCfg, err := NewDatabaseConfig(cfg, logger)
		require.NoError(t, err)
		assert.Equal(t, "postgres://x:y@h/z", dbCfg.ConnectionURL)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := NewDatabaseConfig(&config.Config{}, logger)
		assert.Error(t, err)
		_, err = NewDatabaseConfig(nil, logger)
		assert.Error(t, err)
	})
}

func TestRunMigrationsRejectsScheme(t *testing.T) {
	err := RunMigrations("mysql://root@localhost/db", slog.Default())
	assert.Error(t, err)
}

func TestWithTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	t.Run("Commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE tags").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err := WithTx(context.Background(), mock, func(tx pgx.Tx) error {
			_, err := tx.Exec(context.Background(), "UPDATE tags SET usage_count = usage_count + 1 WHERE id = $1", int64(1))
			return err
		})
		require.NoError(t, err)
	})

	t.Run("Rollback", func(t *testing.T) {
		boom := errors.New("boom")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := WithTx(context.Background(), mock, func(tx pgx.Tx) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

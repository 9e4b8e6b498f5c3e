//go:build integration

package skills

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	database "github.com/FACorreiaa/skill-registry/app/db"
	"github.com/FACorreiaa/skill-registry/internal/api/tags"
	"github.com/FACorreiaa/skill-registry/internal/types"
)

func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	_ = godotenv.Load("../../../.env.test")

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	require.NoError(t, database.RunMigrations(dbURL, slog.Default()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.True(t, database.WaitForDB(ctx, pool, slog.Default()))
	return pool
}

func seedUser(t *testing.T, pool *pgxpool.Pool) types.Identity {
	t.Helper()
	name := fmt.Sprintf("it_%d", time.Now().UnixNano())
	var id int64
	err := pool.QueryRow(context.Background(),
		"INSERT INTO users (username, password_hash) VALUES ($1, 'x') RETURNING id", name).Scan(&id)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), "DELETE FROM skills WHERE user_id = $1", id)
		_, _ = pool.Exec(context.Background(), "DELETE FROM users WHERE id = $1", id)
	})
	return types.Identity{UserID: id, Username: name}
}

func TestConcurrentDownloadsSumToN(t *testing.T) {
	pool := openTestPool(t)
	owner := seedUser(t, pool)
	svc := NewSkillsService(NewPostgresStore(pool, slog.Default()), nil, slog.Default())
	ctx := context.Background()

	skill, err := svc.Create(ctx, owner, types.CreateSkillRequest{Content: "// @name Concurrent", IsPublic: true})
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.IncrementDownloads(ctx, skill.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := NewPostgresSkillsRepo(pool, slog.Default()).GetByID(ctx, skill.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.DownloadCount)
}

func TestTagUsageRoundTrip(t *testing.T) {
	pool := openTestPool(t)
	owner := seedUser(t, pool)
	tagCache := tags.NewTagsService(tags.NewPostgresTagsRepo(pool, slog.Default()), time.Second, slog.Default())
	svc := NewSkillsService(NewPostgresStore(pool, slog.Default()), tagCache, slog.Default())
	ctx := context.Background()

	suffix := fmt.Sprint(time.Now().UnixNano())
	a, b := "a"+suffix, "b"+suffix

	skill, err := svc.Create(ctx, owner, types.CreateSkillRequest{Content: "x", Tags: []string{a, a, b}})
	require.NoError(t, err)
	require.Len(t, skill.Tags, 2)

	tagA, err := tagCache.GetBySlug(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 1, tagA.UsageCount)

	require.NoError(t, svc.Delete(ctx, owner, skill.ID))
	tagA, err = tagCache.GetBySlug(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 0, tagA.UsageCount)
}

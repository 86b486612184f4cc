// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package title

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mangetsu/mangetsu/internal/platform/migration"
	"github.com/mangetsu/mangetsu/pkg/uuid"
)

// These tests exercise the real rating SQL, including the replace semantics
// the transaction enforces. They need a disposable PostgreSQL database and
// skip when TEST_DATABASE_URL is not set.

var migrateOnce sync.Once

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	migrateOnce.Do(func() {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		require.NoError(t, migration.RunUp(dsn, "../../../data/migrations", logger))
	})

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func seedAccount(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	userID := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users.account (id, username, email) VALUES ($1, $2, $3)`,
		userID, "reader-"+userID[:8], userID[:8]+"@example.com")
	require.NoError(t, err)
	return userID
}

func seedTitle(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	titleID := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO catalog.title (id, name, slug, titletype) VALUES ($1, $2, $3, 'manhwa')`,
		titleID, "Title "+titleID[:8], "title-"+titleID[:8])
	require.NoError(t, err)
	return titleID
}

func bucketAmount(t *testing.T, pool *pgxpool.Pool, titleID string, mark int) int {
	t.Helper()

	var amount int
	err := pool.QueryRow(context.Background(),
		`SELECT COALESCE((SELECT amount FROM catalog.titlerating WHERE titleid = $1 AND mark = $2), 0)`,
		titleID, mark).Scan(&amount)
	require.NoError(t, err)
	return amount
}

func userRatingRows(t *testing.T, pool *pgxpool.Pool, userID, titleID string) int {
	t.Helper()

	var count int
	err := pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM catalog.usertitlerating WHERE userid = $1 AND titleid = $2`,
		userID, titleID).Scan(&count)
	require.NoError(t, err)
	return count
}

// # Rating Replace Semantics

func TestSetRating_ReplacesPreviousMark(t *testing.T) {
	pool := testPool(t)
	repository := NewRepository(pool, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	ctx := context.Background()

	userID := seedAccount(t, pool)
	titleID := seedTitle(t, pool)

	require.NoError(t, repository.SetRating(ctx, userID, titleID, 5))
	assert.Equal(t, 1, bucketAmount(t, pool, titleID, 5))

	// Re-rating moves the mark between buckets; the histogram total stays 1.
	require.NoError(t, repository.SetRating(ctx, userID, titleID, 8))

	assert.Equal(t, 0, bucketAmount(t, pool, titleID, 5))
	assert.Equal(t, 1, bucketAmount(t, pool, titleID, 8))
	assert.Equal(t, 1, userRatingRows(t, pool, userID, titleID))

	mark, err := repository.GetUserRating(ctx, userID, titleID)
	require.NoError(t, err)
	assert.Equal(t, 8, mark)

	summary, err := repository.RatingSummary(ctx, titleID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count)
	assert.InDelta(t, 8.0, summary.Average, 0.001)
}

func TestClearRating_EmptiesBucket(t *testing.T) {
	pool := testPool(t)
	repository := NewRepository(pool, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	ctx := context.Background()

	userID := seedAccount(t, pool)
	titleID := seedTitle(t, pool)

	require.NoError(t, repository.SetRating(ctx, userID, titleID, 7))
	require.NoError(t, repository.ClearRating(ctx, userID, titleID))

	assert.Equal(t, 0, bucketAmount(t, pool, titleID, 7))
	assert.Equal(t, 0, userRatingRows(t, pool, userID, titleID))

	mark, err := repository.GetUserRating(ctx, userID, titleID)
	require.NoError(t, err)
	assert.Zero(t, mark)
}

func TestClearRating_CorruptBucketClampsLoudly(t *testing.T) {
	pool := testPool(t)
	var logBuffer bytes.Buffer
	repository := NewRepository(pool, slog.New(slog.NewJSONHandler(&logBuffer, nil)))
	ctx := context.Background()

	userID := seedAccount(t, pool)
	titleID := seedTitle(t, pool)

	require.NoError(t, repository.SetRating(ctx, userID, titleID, 5))

	// Corrupt the histogram so the decrement would go negative.
	_, err := pool.Exec(ctx,
		`UPDATE catalog.titlerating SET amount = 0 WHERE titleid = $1 AND mark = 5`, titleID)
	require.NoError(t, err)

	require.NoError(t, repository.ClearRating(ctx, userID, titleID))

	assert.Equal(t, 0, bucketAmount(t, pool, titleID, 5))
	assert.Contains(t, logBuffer.String(), "counter_clamped",
		fmt.Sprintf("clamp on title %s must be logged", titleID))
}

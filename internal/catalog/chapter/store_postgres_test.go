// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package chapter

import (
	"context"
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

// These tests exercise the real like-counter SQL, whose conservation rule
// (likes equals the number of like rows) only holds inside the store's
// transactions. They need a disposable PostgreSQL database and skip when
// TEST_DATABASE_URL is not set.

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

func seedChapter(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	ctx := context.Background()

	titleID := uuid.New()
	_, err := pool.Exec(ctx,
		`INSERT INTO catalog.title (id, name, slug, titletype) VALUES ($1, $2, $3, 'manhwa')`,
		titleID, "Title "+titleID[:8], "title-"+titleID[:8])
	require.NoError(t, err)

	teamID := uuid.New()
	_, err = pool.Exec(ctx,
		`INSERT INTO catalog.team (id, name, slug) VALUES ($1, $2, $3)`,
		teamID, "Team "+teamID[:8], "team-"+teamID[:8])
	require.NoError(t, err)

	chapterID := uuid.New()
	_, err = pool.Exec(ctx,
		`INSERT INTO catalog.chapter (id, titleid, teamid, volumenumber, chapternumber, ispublished)
		 VALUES ($1, $2, $3, 1, 1, true)`,
		chapterID, titleID, teamID)
	require.NoError(t, err)
	return chapterID
}

func storedLikes(t *testing.T, pool *pgxpool.Pool, chapterID string) int {
	t.Helper()

	var likes int
	err := pool.QueryRow(context.Background(),
		`SELECT likes FROM catalog.chapter WHERE id = $1`, chapterID).Scan(&likes)
	require.NoError(t, err)
	return likes
}

// # Like Counter Conservation

func TestLike_CounterTracksRows(t *testing.T) {
	pool := testPool(t)
	repository := NewRepository(pool, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	ctx := context.Background()

	userID := seedAccount(t, pool)
	chapterID := seedChapter(t, pool)

	require.NoError(t, repository.Like(ctx, userID, chapterID))
	assert.Equal(t, 1, storedLikes(t, pool, chapterID))

	// Repeating the like must not inflate the counter.
	require.NoError(t, repository.Like(ctx, userID, chapterID))
	assert.Equal(t, 1, storedLikes(t, pool, chapterID))

	require.NoError(t, repository.Unlike(ctx, userID, chapterID))
	assert.Equal(t, 0, storedLikes(t, pool, chapterID))

	// Unliking without a like row must not drive the counter negative.
	require.NoError(t, repository.Unlike(ctx, userID, chapterID))
	assert.Equal(t, 0, storedLikes(t, pool, chapterID))
}

func TestLike_TwoReadersBothCount(t *testing.T) {
	pool := testPool(t)
	repository := NewRepository(pool, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	ctx := context.Background()

	firstReader := seedAccount(t, pool)
	secondReader := seedAccount(t, pool)
	chapterID := seedChapter(t, pool)

	require.NoError(t, repository.Like(ctx, firstReader, chapterID))
	require.NoError(t, repository.Like(ctx, secondReader, chapterID))
	assert.Equal(t, 2, storedLikes(t, pool, chapterID))

	require.NoError(t, repository.Unlike(ctx, firstReader, chapterID))
	assert.Equal(t, 1, storedLikes(t, pool, chapterID))
}

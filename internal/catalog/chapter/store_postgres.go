// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

/*
Package chapter provides the PostgreSQL implementation for chapter and page
data access.

It is the only legal write path for the derived state around chapters:
title.chapter_count, the title↔team junction rows, and chapter.likes are
all maintained inside the same transaction as the row change that implies
them. The title row is locked (FOR UPDATE) while its counter is derived so
concurrent releases serialize instead of racing.
*/
package chapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mangetsu/mangetsu/internal/platform/apperr"
	"github.com/mangetsu/mangetsu/internal/platform/database/schema"
	"github.com/mangetsu/mangetsu/internal/platform/dberr"
)

// # PostgreSQL Repository

// repository implements the [Repository] interface using pgx.
type repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository constructs a PostgreSQL backed chapter store.
func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) Repository {
	return &repository{pool: pool, logger: logger}
}

// # Reads

func (repository *repository) ListByTitle(context context.Context, titleID string, limit, offset int) ([]*Chapter, int, error) {
	c := schema.CatalogChapter
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s,
			COUNT(*) OVER() AS total_count
		FROM %s
		WHERE %s = $1 AND %s = true
		ORDER BY %s DESC, %s DESC
		LIMIT $2 OFFSET $3
	`, c.ID, c.TitleID, c.TeamID, c.Name, c.VolumeNumber, c.ChapterNumber,
		c.Likes, c.IsPublished, c.ArchiveKey, c.CreatedAt,
		c.Table, c.TitleID, c.IsPublished, c.VolumeNumber, c.ChapterNumber)

	rows, err := repository.pool.Query(context, query, titleID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []*Chapter
	var totalCount int

	for rows.Next() {
		var chapter Chapter
		err := rows.Scan(
			&chapter.ID, &chapter.TitleID, &chapter.TeamID, &chapter.Name,
			&chapter.VolumeNumber, &chapter.ChapterNumber, &chapter.Likes,
			&chapter.IsPublished, &chapter.ArchiveKey, &chapter.CreatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan chapter: %w", err)
		}
		chapters = append(chapters, &chapter)
	}

	return chapters, totalCount, nil
}

func (repository *repository) FindByID(context context.Context, id string) (*Chapter, error) {
	c := schema.CatalogChapter
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s WHERE %s = $1
	`, c.ID, c.TitleID, c.TeamID, c.Name, c.VolumeNumber, c.ChapterNumber,
		c.Likes, c.IsPublished, c.ArchiveKey, c.CreatedAt, c.Table, c.ID)

	var chapter Chapter
	err := repository.pool.QueryRow(context, query, id).Scan(
		&chapter.ID, &chapter.TitleID, &chapter.TeamID, &chapter.Name,
		&chapter.VolumeNumber, &chapter.ChapterNumber, &chapter.Likes,
		&chapter.IsPublished, &chapter.ArchiveKey, &chapter.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "chapter")
	}
	return &chapter, nil
}

// # Lifecycle Writes

func (repository *repository) Create(context context.Context, chapter *Chapter) error {
	transaction, err := repository.pool.BeginTx(context, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: failed to begin chapter transaction: %w", err)
	}
	defer transaction.Rollback(context)

	c := schema.CatalogChapter
	insert := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7)
		RETURNING %s
	`, c.Table, c.ID, c.TitleID, c.TeamID, c.Name, c.VolumeNumber,
		c.ChapterNumber, c.IsPublished, c.ArchiveKey, c.CreatedAt)

	err = transaction.QueryRow(context, insert,
		chapter.ID, chapter.TitleID, chapter.TeamID, chapter.Name,
		chapter.VolumeNumber, chapter.ChapterNumber, chapter.ArchiveKey,
	).Scan(&chapter.CreatedAt)

	if dberr.IsUniqueViolation(err, "chapter_release_unique") {
		return apperr.Conflict("This team already released this chapter").WithCode(CodeDuplicateChapter)
	}
	if dberr.IsForeignKeyViolation(err) {
		return apperr.NotFound("title")
	}
	if err != nil {
		return fmt.Errorf("postgres: failed to create chapter: %w", err)
	}

	if err := repository.applyInsertCounters(context, transaction, chapter.TitleID, chapter.TeamID); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit chapter transaction: %w", err)
	}
	return nil
}

/*
applyInsertCounters maintains the derived state after a chapter insert.

Description: The title's chapter_count only rises when the inserting team's
per-title chapter count reaches the stored value plus one; a team refilling
a back-catalogue below the current front does not move the counter. The
title↔team link is created on the team's first chapter for the title.
*/
func (repository *repository) applyInsertCounters(context context.Context, transaction pgx.Tx, titleID, teamID string) error {
	t := schema.CatalogTitle
	c := schema.CatalogChapter

	// Serialize counter derivation per title.
	var storedCount int
	lockQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 FOR UPDATE`, t.ChapterCount, t.Table, t.ID)
	if err := transaction.QueryRow(context, lockQuery, titleID).Scan(&storedCount); err != nil {
		return fmt.Errorf("postgres: failed to lock title counter: %w", err)
	}

	var teamCount int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1 AND %s = $2`, c.Table, c.TitleID, c.TeamID)
	if err := transaction.QueryRow(context, countQuery, titleID, teamID).Scan(&teamCount); err != nil {
		return fmt.Errorf("postgres: failed to count team chapters: %w", err)
	}

	if teamCount == storedCount+1 {
		bump := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`, t.Table, t.ChapterCount, t.ID)
		if _, err := transaction.Exec(context, bump, titleID, teamCount); err != nil {
			return fmt.Errorf("postgres: failed to advance chapter count: %w", err)
		}
	}

	tt := schema.CatalogTitleTeam
	link := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		tt.Table, tt.TitleID, tt.TeamID)
	if _, err := transaction.Exec(context, link, titleID, teamID); err != nil {
		return fmt.Errorf("postgres: failed to link title and team: %w", err)
	}
	return nil
}

func (repository *repository) Delete(context context.Context, id string) error {
	transaction, err := repository.pool.BeginTx(context, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: failed to begin chapter transaction: %w", err)
	}
	defer transaction.Rollback(context)

	c := schema.CatalogChapter
	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 RETURNING %s, %s`,
		c.Table, c.ID, c.TitleID, c.TeamID)

	var titleID, teamID string
	err = transaction.QueryRow(context, deleteQuery, id).Scan(&titleID, &teamID)
	if err == pgx.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("postgres: failed to delete chapter: %w", err)
	}

	if err := repository.applyDeleteCounters(context, transaction, titleID, teamID); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit chapter transaction: %w", err)
	}
	return nil
}

/*
applyDeleteCounters repairs the derived state after a chapter delete.

Description: chapter_count is recomputed as the maximum per-team chapter
count across all teams releasing the title (zero when none remain). The
title↔team link is dropped when the team has no chapters left for the title.
*/
func (repository *repository) applyDeleteCounters(context context.Context, transaction pgx.Tx, titleID, teamID string) error {
	t := schema.CatalogTitle
	c := schema.CatalogChapter

	lockQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 FOR UPDATE`, t.ChapterCount, t.Table, t.ID)
	var storedCount int
	if err := transaction.QueryRow(context, lockQuery, titleID).Scan(&storedCount); err != nil {
		if err == pgx.ErrNoRows {
			// Title cascaded away with the chapter; nothing to repair.
			return nil
		}
		return fmt.Errorf("postgres: failed to lock title counter: %w", err)
	}

	recompute := fmt.Sprintf(`
		UPDATE %s SET %s = COALESCE((
			SELECT MAX(team_total) FROM (
				SELECT COUNT(*) AS team_total FROM %s WHERE %s = $1 GROUP BY %s
			) AS team_counts
		), 0)
		WHERE %s = $1
	`, t.Table, t.ChapterCount, c.Table, c.TitleID, c.TeamID, t.ID)

	if _, err := transaction.Exec(context, recompute, titleID); err != nil {
		return fmt.Errorf("postgres: failed to recompute chapter count: %w", err)
	}

	var remaining int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1 AND %s = $2`, c.Table, c.TitleID, c.TeamID)
	if err := transaction.QueryRow(context, countQuery, titleID, teamID).Scan(&remaining); err != nil {
		return fmt.Errorf("postgres: failed to count team chapters: %w", err)
	}

	if remaining == 0 {
		tt := schema.CatalogTitleTeam
		unlink := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, tt.Table, tt.TitleID, tt.TeamID)
		if _, err := transaction.Exec(context, unlink, titleID, teamID); err != nil {
			return fmt.Errorf("postgres: failed to unlink title and team: %w", err)
		}
	}
	return nil
}

func (repository *repository) SetPublished(context context.Context, id string, published bool) error {
	c := schema.CatalogChapter
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`, c.Table, c.IsPublished, c.ID)

	tag, err := repository.pool.Exec(context, query, id, published)
	if err != nil {
		return fmt.Errorf("postgres: failed to set publication flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("chapter")
	}
	return nil
}

func (repository *repository) SetArchiveKey(context context.Context, id string, key *string) error {
	c := schema.CatalogChapter
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`, c.Table, c.ArchiveKey, c.ID)

	tag, err := repository.pool.Exec(context, query, id, key)
	if err != nil {
		return fmt.Errorf("postgres: failed to set archive key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("chapter")
	}
	return nil
}

// # Pages

/*
InsertImages bulk-inserts page rows using the native pgx.Batch pipeline.

Description: The slice order is the archive's natural order and therefore
the reading order; positions were assigned by the caller before upload, so
rows land in archive order regardless of upload completion order.
*/
func (repository *repository) InsertImages(context context.Context, images []*Image) error {
	if len(images) == 0 {
		return nil
	}

	i := schema.CatalogChapterImage
	insert := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5)`,
		i.Table, i.ID, i.ChapterID, i.BlobKey, i.BlobURL, i.Position)

	batch := &pgx.Batch{}
	for _, image := range images {
		batch.Queue(insert, image.ID, image.ChapterID, image.BlobKey, image.BlobURL, image.Position)
	}

	results := repository.pool.SendBatch(context, batch)
	defer results.Close()

	for range images {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: failed to insert page rows: %w", err)
		}
	}
	return nil
}

func (repository *repository) ListImages(context context.Context, chapterID string) ([]*Image, error) {
	i := schema.CatalogChapterImage
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s FROM %s
		WHERE %s = $1 ORDER BY %s ASC
	`, i.ID, i.ChapterID, i.BlobKey, i.BlobURL, i.Position, i.Table, i.ChapterID, i.Position)

	rows, err := repository.pool.Query(context, query, chapterID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list pages: %w", err)
	}
	defer rows.Close()

	var images []*Image
	for rows.Next() {
		var image Image
		if err := rows.Scan(&image.ID, &image.ChapterID, &image.BlobKey, &image.BlobURL, &image.Position); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan page: %w", err)
		}
		images = append(images, &image)
	}
	return images, nil
}

func (repository *repository) DeleteImages(context context.Context, chapterID string) ([]string, error) {
	i := schema.CatalogChapterImage
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 RETURNING %s`, i.Table, i.ChapterID, i.BlobKey)

	rows, err := repository.pool.Query(context, query, chapterID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to delete page rows: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan blob key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// # Likes

func (repository *repository) Like(context context.Context, userID, chapterID string) error {
	transaction, err := repository.pool.BeginTx(context, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: failed to begin like transaction: %w", err)
	}
	defer transaction.Rollback(context)

	l := schema.CatalogChapterLike
	insert := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		l.Table, l.UserID, l.ChapterID)

	tag, err := transaction.Exec(context, insert, userID, chapterID)
	if dberr.IsForeignKeyViolation(err) {
		return apperr.NotFound("chapter")
	}
	if err != nil {
		return fmt.Errorf("postgres: failed to record like: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already liked; the counter must not move.
		return nil
	}

	if err := repository.adjustLikes(context, transaction, chapterID, +1); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit like transaction: %w", err)
	}
	return nil
}

func (repository *repository) Unlike(context context.Context, userID, chapterID string) error {
	transaction, err := repository.pool.BeginTx(context, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: failed to begin like transaction: %w", err)
	}
	defer transaction.Rollback(context)

	l := schema.CatalogChapterLike
	remove := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, l.Table, l.UserID, l.ChapterID)

	tag, err := transaction.Exec(context, remove, userID, chapterID)
	if err != nil {
		return fmt.Errorf("postgres: failed to remove like: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	if err := repository.adjustLikes(context, transaction, chapterID, -1); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit like transaction: %w", err)
	}
	return nil
}

// adjustLikes moves chapter.likes by delta inside the caller's transaction,
// clamping at zero. A clamp means the counter and the like rows disagreed,
// which is logged as an invariant breach.
func (repository *repository) adjustLikes(context context.Context, transaction pgx.Tx, chapterID string, delta int) error {
	c := schema.CatalogChapter
	update := fmt.Sprintf(`UPDATE %s SET %s = %s + $2 WHERE %s = $1 RETURNING %s`,
		c.Table, c.Likes, c.Likes, c.ID, c.Likes)

	var likes int
	if err := transaction.QueryRow(context, update, chapterID, delta).Scan(&likes); err != nil {
		return fmt.Errorf("postgres: failed to adjust like counter: %w", err)
	}

	if likes < 0 {
		repository.logger.Error("counter_clamped",
			slog.String("counter", "chapter.likes"),
			slog.String("chapter_id", chapterID),
			slog.Int("value", likes),
		)
		clamp := fmt.Sprintf(`UPDATE %s SET %s = 0 WHERE %s = $1`, c.Table, c.Likes, c.ID)
		if _, err := transaction.Exec(context, clamp, chapterID); err != nil {
			return fmt.Errorf("postgres: failed to clamp like counter: %w", err)
		}
	}
	return nil
}

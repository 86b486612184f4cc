// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

/*
Package title provides the PostgreSQL implementation for the catalogue's
title data access.

Rating writes follow the replace contract: a user's previous mark is removed
and its histogram bucket decremented inside the same transaction that
records the new mark, so the histogram and the per-user rows can never
drift apart.
*/
package title

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

// NewRepository constructs a PostgreSQL backed title store.
func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) Repository {
	return &repository{pool: pool, logger: logger}
}

// titleColumns is the scan order shared by every title-returning query.
func titleColumns() string {
	t := schema.CatalogTitle
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		t.ID, t.Name, t.Slug, t.Description, t.ReleaseYear, t.Type,
		t.Status, t.AgeRating, t.Licensed, t.ChapterCount, t.InLists, t.CreatedAt,
	)
}

// scanTitle hydrates one title row in titleColumns order.
func scanTitle(row pgx.Row) (*Title, error) {
	var title Title
	err := row.Scan(
		&title.ID, &title.Name, &title.Slug, &title.Description,
		&title.ReleaseYear, &title.Type, &title.Status, &title.AgeRating,
		&title.Licensed, &title.ChapterCount, &title.InLists, &title.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &title, nil
}

// # Reads

func (repository *repository) List(context context.Context, limit, offset int) ([]*Title, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM %s
		ORDER BY %s DESC
		LIMIT $1 OFFSET $2
	`, titleColumns(), schema.CatalogTitle.Table, schema.CatalogTitle.CreatedAt)

	rows, err := repository.pool.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list titles: %w", err)
	}
	defer rows.Close()

	var titles []*Title
	var totalCount int

	for rows.Next() {
		var title Title
		err := rows.Scan(
			&title.ID, &title.Name, &title.Slug, &title.Description,
			&title.ReleaseYear, &title.Type, &title.Status, &title.AgeRating,
			&title.Licensed, &title.ChapterCount, &title.InLists, &title.CreatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan title: %w", err)
		}
		titles = append(titles, &title)
	}

	return titles, totalCount, nil
}

func (repository *repository) FindByID(context context.Context, id string) (*Title, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		titleColumns(), schema.CatalogTitle.Table, schema.CatalogTitle.ID)

	title, err := scanTitle(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "title")
	}
	return title, nil
}

func (repository *repository) FindBySlug(context context.Context, slug string) (*Title, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		titleColumns(), schema.CatalogTitle.Table, schema.CatalogTitle.Slug)

	title, err := scanTitle(repository.pool.QueryRow(context, query, slug))
	if err != nil {
		return nil, dberr.Wrap(err, "title")
	}
	return title, nil
}

// # Writes

func (repository *repository) Create(context context.Context, title *Title) error {
	t := schema.CatalogTitle
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s
	`, t.Table, t.ID, t.Name, t.Slug, t.Description, t.ReleaseYear,
		t.Type, t.Status, t.AgeRating, t.Licensed, t.CreatedAt)

	err := repository.pool.QueryRow(context, query,
		title.ID, title.Name, title.Slug, title.Description, title.ReleaseYear,
		title.Type, title.Status, title.AgeRating, title.Licensed,
	).Scan(&title.CreatedAt)

	if dberr.IsUniqueViolation(err, "title_name_key") {
		return apperr.Conflict("A title with this name already exists")
	}
	if dberr.IsUniqueViolation(err, "title_slug_key") {
		return apperr.Conflict("A title with this slug already exists")
	}
	if err != nil {
		return fmt.Errorf("postgres: failed to create title: %w", err)
	}
	return nil
}

func (repository *repository) Update(context context.Context, title *Title) error {
	t := schema.CatalogTitle
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6
		WHERE %s = $1
	`, t.Table, t.Description, t.ReleaseYear, t.Type, t.AgeRating, t.Licensed, t.ID)

	tag, err := repository.pool.Exec(context, query,
		title.ID, title.Description, title.ReleaseYear, title.Type,
		title.AgeRating, title.Licensed,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to update title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("title")
	}
	return nil
}

func (repository *repository) UpdateStatus(context context.Context, id string, status Status) error {
	t := schema.CatalogTitle
	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE %s = $1`, t.Table, t.Status, t.ID)

	tag, err := repository.pool.Exec(context, query, id, status)
	if err != nil {
		return fmt.Errorf("postgres: failed to update title status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("title")
	}
	return nil
}

// # Ratings

func (repository *repository) RatingSummary(context context.Context, titleID string) (RatingSummary, error) {
	r := schema.CatalogTitleRating
	query := fmt.Sprintf(`
		SELECT
			COALESCE(SUM(%s * %s), 0),
			COALESCE(SUM(%s), 0)
		FROM %s
		WHERE %s = $1
	`, r.Mark, r.Amount, r.Amount, r.Table, r.TitleID)

	var weightedSum, count int
	if err := repository.pool.QueryRow(context, query, titleID).Scan(&weightedSum, &count); err != nil {
		return RatingSummary{}, fmt.Errorf("postgres: failed to summarize ratings: %w", err)
	}

	summary := RatingSummary{Count: count}
	if count > 0 {
		summary.Average = float64(weightedSum) / float64(count)
	}
	return summary, nil
}

func (repository *repository) SetRating(context context.Context, userID, titleID string, mark int) error {
	transaction, err := repository.pool.BeginTx(context, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: failed to begin rating transaction: %w", err)
	}
	defer transaction.Rollback(context)

	if err := repository.removeRatingTx(context, transaction, userID, titleID); err != nil {
		return err
	}

	ur := schema.CatalogUserTitleRating
	insertUser := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, $3)`,
		ur.Table, ur.UserID, ur.TitleID, ur.Mark)

	if _, err := transaction.Exec(context, insertUser, userID, titleID, mark); err != nil {
		if dberr.IsForeignKeyViolation(err) {
			return apperr.NotFound("title")
		}
		return fmt.Errorf("postgres: failed to record rating: %w", err)
	}

	// Bucket rows are created lazily on first use of a mark.
	r := schema.CatalogTitleRating
	upsertBucket := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, 1)
		ON CONFLICT (%s, %s) DO UPDATE SET %s = %s.%s + 1
	`, r.Table, r.TitleID, r.Mark, r.Amount, r.TitleID, r.Mark, r.Amount, r.Table, r.Amount)

	if _, err := transaction.Exec(context, upsertBucket, titleID, mark); err != nil {
		return fmt.Errorf("postgres: failed to bump rating bucket: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit rating transaction: %w", err)
	}
	return nil
}

func (repository *repository) ClearRating(context context.Context, userID, titleID string) error {
	transaction, err := repository.pool.BeginTx(context, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: failed to begin rating transaction: %w", err)
	}
	defer transaction.Rollback(context)

	if err := repository.removeRatingTx(context, transaction, userID, titleID); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit rating transaction: %w", err)
	}
	return nil
}

func (repository *repository) GetUserRating(context context.Context, userID, titleID string) (int, error) {
	ur := schema.CatalogUserTitleRating
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		ur.Mark, ur.Table, ur.UserID, ur.TitleID)

	var mark int
	err := repository.pool.QueryRow(context, query, userID, titleID).Scan(&mark)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to read user rating: %w", err)
	}
	return mark, nil
}

// removeRatingTx deletes the user's current mark, if any, and decrements
// its histogram bucket inside the caller's transaction, clamping at zero.
// A clamp means the histogram and the per-user rows disagreed, which is
// logged as an invariant breach.
func (repository *repository) removeRatingTx(context context.Context, transaction pgx.Tx, userID, titleID string) error {
	ur := schema.CatalogUserTitleRating

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2 RETURNING %s`,
		ur.Table, ur.UserID, ur.TitleID, ur.Mark)

	var previousMark int
	err := transaction.QueryRow(context, deleteQuery, userID, titleID).Scan(&previousMark)
	if err == pgx.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("postgres: failed to remove previous rating: %w", err)
	}

	r := schema.CatalogTitleRating
	decrementBucket := fmt.Sprintf(`UPDATE %s SET %s = %s - 1 WHERE %s = $1 AND %s = $2 RETURNING %s`,
		r.Table, r.Amount, r.Amount, r.TitleID, r.Mark, r.Amount)

	var amount int
	err = transaction.QueryRow(context, decrementBucket, titleID, previousMark).Scan(&amount)
	if err == pgx.ErrNoRows {
		// A user row existed without a bucket row; nothing to decrement.
		repository.logger.Error("counter_clamped",
			slog.String("counter", "title.rating_bucket"),
			slog.String("title_id", titleID),
			slog.Int("mark", previousMark),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("postgres: failed to decrement rating bucket: %w", err)
	}

	if amount < 0 {
		repository.logger.Error("counter_clamped",
			slog.String("counter", "title.rating_bucket"),
			slog.String("title_id", titleID),
			slog.Int("mark", previousMark),
			slog.Int("value", amount),
		)
		clamp := fmt.Sprintf(`UPDATE %s SET %s = 0 WHERE %s = $1 AND %s = $2`,
			r.Table, r.Amount, r.TitleID, r.Mark)
		if _, err := transaction.Exec(context, clamp, titleID, previousMark); err != nil {
			return fmt.Errorf("postgres: failed to clamp rating bucket: %w", err)
		}
	}
	return nil
}

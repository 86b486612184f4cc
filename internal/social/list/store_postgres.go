// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

/*
Package list provides the PostgreSQL implementation for reading list data
access.

Membership writes keep list.titles_count and title.in_lists in lockstep:
the junction row change and both counter adjustments happen in one
transaction. Removing the last member never drives a counter below zero;
a negative outcome is clamped and logged as an invariant breach.
*/
package list

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mangetsu/mangetsu/internal/catalog/title"
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

// NewRepository constructs a PostgreSQL backed list store.
func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) Repository {
	return &repository{pool: pool, logger: logger}
}

func listColumns() string {
	l := schema.SocialList
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s",
		l.ID, l.UserID, l.Name, l.Hidden, l.TitlesCount, l.CreatedAt)
}

// scanList hydrates one list row in listColumns order.
func scanList(row pgx.Row) (*List, error) {
	var list List
	err := row.Scan(
		&list.ID, &list.UserID, &list.Name, &list.Hidden,
		&list.TitlesCount, &list.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// # Reads

func (repository *repository) ListByUser(context context.Context, userID string, includeHidden bool) ([]*List, error) {
	l := schema.SocialList
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1 AND (%s = false OR $2)
		ORDER BY %s DESC
	`, listColumns(), l.Table, l.UserID, l.Hidden, l.CreatedAt)

	rows, err := repository.pool.Query(context, query, userID, includeHidden)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list reading lists: %w", err)
	}
	defer rows.Close()

	var lists []*List
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan reading list: %w", err)
		}
		lists = append(lists, list)
	}
	return lists, nil
}

func (repository *repository) FindByID(context context.Context, listID string) (*List, error) {
	l := schema.SocialList
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, listColumns(), l.Table, l.ID)

	list, err := scanList(repository.pool.QueryRow(context, query, listID))
	if err != nil {
		return nil, dberr.Wrap(err, "list")
	}
	return list, nil
}

func (repository *repository) ListTitles(context context.Context, listID string, limit, offset int) ([]*title.Title, int, error) {
	t := schema.CatalogTitle
	lt := schema.SocialListTitle
	query := fmt.Sprintf(`
		SELECT t.%s, t.%s, t.%s, t.%s, t.%s, t.%s, t.%s, t.%s, t.%s, t.%s, t.%s, t.%s,
			COUNT(*) OVER() AS total_count
		FROM %s t
		JOIN %s lt ON lt.%s = t.%s
		WHERE lt.%s = $1
		ORDER BY t.%s DESC
		LIMIT $2 OFFSET $3
	`, t.ID, t.Name, t.Slug, t.Description, t.ReleaseYear, t.Type,
		t.Status, t.AgeRating, t.Licensed, t.ChapterCount, t.InLists, t.CreatedAt,
		t.Table, lt.Table, lt.TitleID, t.ID, lt.ListID, t.CreatedAt)

	rows, err := repository.pool.Query(context, query, listID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list member titles: %w", err)
	}
	defer rows.Close()

	var titles []*title.Title
	var totalCount int

	for rows.Next() {
		var member title.Title
		err := rows.Scan(
			&member.ID, &member.Name, &member.Slug, &member.Description,
			&member.ReleaseYear, &member.Type, &member.Status, &member.AgeRating,
			&member.Licensed, &member.ChapterCount, &member.InLists,
			&member.CreatedAt, &totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan member title: %w", err)
		}
		titles = append(titles, &member)
	}
	return titles, totalCount, nil
}

// # List Writes

func (repository *repository) Create(context context.Context, list *List) error {
	l := schema.SocialList
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s) VALUES ($1, $2, $3, $4)
		RETURNING %s, %s
	`, l.Table, l.ID, l.UserID, l.Name, l.Hidden, l.TitlesCount, l.CreatedAt)

	err := repository.pool.QueryRow(context, query,
		list.ID, list.UserID, list.Name, list.Hidden,
	).Scan(&list.TitlesCount, &list.CreatedAt)

	if dberr.IsUniqueViolation(err, "list_userid_name_key") {
		return apperr.Conflict("You already have a list with this name")
	}
	if err != nil {
		return fmt.Errorf("postgres: failed to create list: %w", err)
	}
	return nil
}

func (repository *repository) Update(context context.Context, list *List) error {
	l := schema.SocialList
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		l.Table, l.Name, l.Hidden, l.ID)

	tag, err := repository.pool.Exec(context, query, list.ID, list.Name, list.Hidden)
	if dberr.IsUniqueViolation(err, "list_userid_name_key") {
		return apperr.Conflict("You already have a list with this name")
	}
	if err != nil {
		return fmt.Errorf("postgres: failed to update list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("list")
	}
	return nil
}

func (repository *repository) Delete(context context.Context, listID string) error {
	transaction, err := repository.pool.BeginTx(context, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: failed to begin list transaction: %w", err)
	}
	defer transaction.Rollback(context)

	t := schema.CatalogTitle
	lt := schema.SocialListTitle

	// The junction rows cascade with the list row, so the member titles
	// must give back their inlists credit before the delete lands.
	unlink := fmt.Sprintf(`
		UPDATE %s SET %s = GREATEST(%s - 1, 0)
		WHERE %s IN (SELECT %s FROM %s WHERE %s = $1)
	`, t.Table, t.InLists, t.InLists, t.ID, lt.TitleID, lt.Table, lt.ListID)

	if _, err := transaction.Exec(context, unlink, listID); err != nil {
		return fmt.Errorf("postgres: failed to release member titles: %w", err)
	}

	l := schema.SocialList
	remove := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, l.Table, l.ID)
	tag, err := transaction.Exec(context, remove, listID)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("list")
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit list transaction: %w", err)
	}
	return nil
}

// # Membership Writes

func (repository *repository) AddTitle(context context.Context, listID, titleID string) error {
	transaction, err := repository.pool.BeginTx(context, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: failed to begin membership transaction: %w", err)
	}
	defer transaction.Rollback(context)

	lt := schema.SocialListTitle
	insert := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2)`,
		lt.Table, lt.ListID, lt.TitleID)

	_, err = transaction.Exec(context, insert, listID, titleID)
	if dberr.IsUniqueViolation(err, "listtitle_pkey") {
		return apperr.Conflict("This title is already in the list")
	}
	if dberr.IsForeignKeyViolation(err) {
		return apperr.NotFound("title")
	}
	if err != nil {
		return fmt.Errorf("postgres: failed to add title to list: %w", err)
	}

	if err := repository.adjustMembershipCounters(context, transaction, listID, titleID, 1); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit membership transaction: %w", err)
	}
	return nil
}

func (repository *repository) RemoveTitle(context context.Context, listID, titleID string) error {
	transaction, err := repository.pool.BeginTx(context, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: failed to begin membership transaction: %w", err)
	}
	defer transaction.Rollback(context)

	lt := schema.SocialListTitle
	remove := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		lt.Table, lt.ListID, lt.TitleID)

	tag, err := transaction.Exec(context, remove, listID, titleID)
	if err != nil {
		return fmt.Errorf("postgres: failed to remove title from list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("title")
	}

	if err := repository.adjustMembershipCounters(context, transaction, listID, titleID, -1); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit membership transaction: %w", err)
	}
	return nil
}

/*
adjustMembershipCounters moves list.titlescount and title.inlists by the
same delta inside the caller's transaction.

Parameters:
  - context: context.Context
  - transaction: pgx.Tx
  - listID: string (UUID)
  - titleID: string (UUID)
  - delta: int (+1 on add, -1 on remove)

Returns:
  - error: Storage failures
*/
func (repository *repository) adjustMembershipCounters(context context.Context, transaction pgx.Tx, listID, titleID string, delta int) error {
	l := schema.SocialList
	updateList := fmt.Sprintf(`UPDATE %s SET %s = %s + $2 WHERE %s = $1 RETURNING %s`,
		l.Table, l.TitlesCount, l.TitlesCount, l.ID, l.TitlesCount)

	var titlesCount int
	if err := transaction.QueryRow(context, updateList, listID, delta).Scan(&titlesCount); err != nil {
		return fmt.Errorf("postgres: failed to adjust list counter: %w", err)
	}
	if titlesCount < 0 {
		repository.logger.Error("counter_clamped",
			slog.String("counter", "list.titlescount"),
			slog.String("list_id", listID),
			slog.Int("value", titlesCount),
		)
		clamp := fmt.Sprintf(`UPDATE %s SET %s = 0 WHERE %s = $1`, l.Table, l.TitlesCount, l.ID)
		if _, err := transaction.Exec(context, clamp, listID); err != nil {
			return fmt.Errorf("postgres: failed to clamp list counter: %w", err)
		}
	}

	t := schema.CatalogTitle
	updateTitle := fmt.Sprintf(`UPDATE %s SET %s = %s + $2 WHERE %s = $1 RETURNING %s`,
		t.Table, t.InLists, t.InLists, t.ID, t.InLists)

	var inLists int
	if err := transaction.QueryRow(context, updateTitle, titleID, delta).Scan(&inLists); err != nil {
		return fmt.Errorf("postgres: failed to adjust title list counter: %w", err)
	}
	if inLists < 0 {
		repository.logger.Error("counter_clamped",
			slog.String("counter", "title.inlists"),
			slog.String("title_id", titleID),
			slog.Int("value", inLists),
		)
		clamp := fmt.Sprintf(`UPDATE %s SET %s = 0 WHERE %s = $1`, t.Table, t.InLists, t.ID)
		if _, err := transaction.Exec(context, clamp, titleID); err != nil {
			return fmt.Errorf("postgres: failed to clamp title list counter: %w", err)
		}
	}
	return nil
}

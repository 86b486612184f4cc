// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package comment

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

// NewRepository constructs a PostgreSQL backed comment store.
func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) Repository {
	return &repository{pool: pool, logger: logger}
}

func commentColumns() string {
	c := schema.SocialComment
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s",
		c.ID, c.TitleID, c.UserID, c.ReplyToID, c.Body, c.IsDeleted,
		c.Likes, c.Dislikes, c.CreatedAt)
}

// scanComment hydrates one comment row in commentColumns order.
func scanComment(row pgx.Row) (*Comment, error) {
	var comment Comment
	err := row.Scan(
		&comment.ID, &comment.TitleID, &comment.UserID, &comment.ReplyToID,
		&comment.Body, &comment.IsDeleted, &comment.Likes, &comment.Dislikes,
		&comment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// # Reads

func (repository *repository) ListByTitle(context context.Context, titleID string, limit, offset int) ([]*Comment, int, error) {
	c := schema.SocialComment
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total_count
		FROM %s
		WHERE %s = $1
		ORDER BY %s ASC
		LIMIT $2 OFFSET $3
	`, commentColumns(), c.Table, c.TitleID, c.CreatedAt)

	rows, err := repository.pool.Query(context, query, titleID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*Comment
	var totalCount int

	for rows.Next() {
		var comment Comment
		err := rows.Scan(
			&comment.ID, &comment.TitleID, &comment.UserID, &comment.ReplyToID,
			&comment.Body, &comment.IsDeleted, &comment.Likes, &comment.Dislikes,
			&comment.CreatedAt, &totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan comment: %w", err)
		}
		comments = append(comments, &comment)
	}
	return comments, totalCount, nil
}

func (repository *repository) FindByID(context context.Context, commentID string) (*Comment, error) {
	c := schema.SocialComment
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, commentColumns(), c.Table, c.ID)

	comment, err := scanComment(repository.pool.QueryRow(context, query, commentID))
	if err != nil {
		return nil, dberr.Wrap(err, "comment")
	}
	return comment, nil
}

func (repository *repository) ReplyContext(context context.Context, commentID string) (string, string, error) {
	c := schema.SocialComment
	query := fmt.Sprintf(`
		SELECT parent.%s, reply.%s
		FROM %s reply
		JOIN %s parent ON parent.%s = reply.%s
		WHERE reply.%s = $1
	`, c.UserID, c.TitleID, c.Table, c.Table, c.ID, c.ReplyToID, c.ID)

	var parentAuthorID *string
	var titleID string
	err := repository.pool.QueryRow(context, query, commentID).Scan(&parentAuthorID, &titleID)
	if err == pgx.ErrNoRows {
		return "", "", apperr.NotFound("comment")
	}
	if err != nil {
		return "", "", fmt.Errorf("postgres: failed to resolve reply parent: %w", err)
	}

	if parentAuthorID == nil {
		return "", titleID, nil
	}
	return *parentAuthorID, titleID, nil
}

// # Writes

func (repository *repository) Create(context context.Context, comment *Comment) error {
	c := schema.SocialComment
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5)
		RETURNING %s
	`, c.Table, c.ID, c.TitleID, c.UserID, c.ReplyToID, c.Body, c.CreatedAt)

	err := repository.pool.QueryRow(context, query,
		comment.ID, comment.TitleID, comment.UserID, comment.ReplyToID, comment.Body,
	).Scan(&comment.CreatedAt)

	if dberr.IsForeignKeyViolation(err) {
		return apperr.NotFound("title")
	}
	if err != nil {
		return fmt.Errorf("postgres: failed to create comment: %w", err)
	}
	return nil
}

func (repository *repository) Vote(context context.Context, userID, commentID string, vote int16) error {
	transaction, err := repository.pool.BeginTx(context, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: failed to begin vote transaction: %w", err)
	}
	defer transaction.Rollback(context)

	v := schema.SocialCommentVote

	// Switching sides first removes the opposite row and gives its
	// counter credit back, all inside this transaction.
	removeOpposite := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3`,
		v.Table, v.UserID, v.CommentID, v.Vote)

	tag, err := transaction.Exec(context, removeOpposite, userID, commentID, -vote)
	if err != nil {
		return fmt.Errorf("postgres: failed to remove opposite vote: %w", err)
	}
	if tag.RowsAffected() > 0 {
		if err := repository.adjustVoteCounter(context, transaction, commentID, -vote, -1); err != nil {
			return err
		}
	}

	insert := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, $3)`,
		v.Table, v.UserID, v.CommentID, v.Vote)

	_, err = transaction.Exec(context, insert, userID, commentID, vote)
	if dberr.IsUniqueViolation(err, "commentvote_unique") {
		return apperr.Conflict("You already voted on this comment")
	}
	if dberr.IsForeignKeyViolation(err) {
		return apperr.NotFound("comment")
	}
	if err != nil {
		return fmt.Errorf("postgres: failed to record vote: %w", err)
	}

	if err := repository.adjustVoteCounter(context, transaction, commentID, vote, 1); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit vote transaction: %w", err)
	}
	return nil
}

func (repository *repository) Unvote(context context.Context, userID, commentID string) error {
	transaction, err := repository.pool.BeginTx(context, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: failed to begin vote transaction: %w", err)
	}
	defer transaction.Rollback(context)

	v := schema.SocialCommentVote
	remove := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2 RETURNING %s`,
		v.Table, v.UserID, v.CommentID, v.Vote)

	var vote int16
	err = transaction.QueryRow(context, remove, userID, commentID).Scan(&vote)
	if err == pgx.ErrNoRows {
		return apperr.NotFound("vote")
	}
	if err != nil {
		return fmt.Errorf("postgres: failed to remove vote: %w", err)
	}

	if err := repository.adjustVoteCounter(context, transaction, commentID, vote, -1); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit vote transaction: %w", err)
	}
	return nil
}

func (repository *repository) SoftDelete(context context.Context, commentID string) error {
	c := schema.SocialComment
	query := fmt.Sprintf(`UPDATE %s SET %s = true, %s = '' WHERE %s = $1 AND %s = false`,
		c.Table, c.IsDeleted, c.Body, c.ID, c.IsDeleted)

	tag, err := repository.pool.Exec(context, query, commentID)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("comment")
	}
	return nil
}

/*
adjustVoteCounter moves the counter matching a vote's side by delta
inside the caller's transaction.

Parameters:
  - context: context.Context
  - transaction: pgx.Tx
  - commentID: string (UUID)
  - vote: int16 (selects likes for VoteUp, dislikes for VoteDown)
  - delta: int (+1 or -1)

Returns:
  - error: Storage failures
*/
func (repository *repository) adjustVoteCounter(context context.Context, transaction pgx.Tx, commentID string, vote int16, delta int) error {
	c := schema.SocialComment
	column := c.Likes
	if vote == VoteDown {
		column = c.Dislikes
	}

	update := fmt.Sprintf(`UPDATE %s SET %s = %s + $2 WHERE %s = $1 RETURNING %s`,
		c.Table, column, column, c.ID, column)

	var count int
	if err := transaction.QueryRow(context, update, commentID, delta).Scan(&count); err != nil {
		return fmt.Errorf("postgres: failed to adjust vote counter: %w", err)
	}

	if count < 0 {
		repository.logger.Error("counter_clamped",
			slog.String("counter", "comment."+column),
			slog.String("comment_id", commentID),
			slog.Int("value", count),
		)
		clamp := fmt.Sprintf(`UPDATE %s SET %s = 0 WHERE %s = $1`, c.Table, column, c.ID)
		if _, err := transaction.Exec(context, clamp, commentID); err != nil {
			return fmt.Errorf("postgres: failed to clamp vote counter: %w", err)
		}
	}
	return nil
}

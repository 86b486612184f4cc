// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

/*
Package notification provides the PostgreSQL implementation for inbox data
access.

Fan-out writes are single INSERT...SELECT statements over the subscription
table. New-chapter fan-out relies on the partial unique index over
(user, chapter, type) with ON CONFLICT DO NOTHING, so a redelivered fan-out
job inserts nothing the second time.
*/
package notification

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mangetsu/mangetsu/internal/platform/apperr"
	"github.com/mangetsu/mangetsu/internal/platform/database/schema"
	"github.com/mangetsu/mangetsu/internal/platform/dberr"
	"github.com/mangetsu/mangetsu/pkg/uuid"
)

// # PostgreSQL Repository

// repository implements the [Repository] interface using pgx.
type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed notification store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// # Reads

func (repository *repository) ListByUser(context context.Context, userID string, limit, offset int) ([]*Notification, int, error) {
	n := schema.SocialNotification
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s,
			COUNT(*) OVER() AS total_count
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC
		LIMIT $2 OFFSET $3
	`, n.ID, n.UserID, n.Type, n.FriendID, n.TitleID, n.ChapterID, n.TeamID,
		n.IsRead, n.CreatedAt, n.Table, n.UserID, n.CreatedAt)

	rows, err := repository.pool.Query(context, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*Notification
	var totalCount int

	for rows.Next() {
		var notification Notification
		err := rows.Scan(
			&notification.ID, &notification.UserID, &notification.Type,
			&notification.FriendID, &notification.TitleID, &notification.ChapterID,
			&notification.TeamID, &notification.IsRead, &notification.CreatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan notification: %w", err)
		}
		notifications = append(notifications, &notification)
	}

	return notifications, totalCount, nil
}

// # Writes

func (repository *repository) Insert(context context.Context, notification *Notification) (bool, error) {
	if notification.ID == "" {
		notification.ID = uuid.New()
	}

	n := schema.SocialNotification
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (%s, %s, %s) WHERE %s IS NOT NULL DO NOTHING
	`, n.Table, n.ID, n.UserID, n.Type, n.FriendID, n.TitleID, n.ChapterID, n.TeamID,
		n.UserID, n.ChapterID, n.Type, n.ChapterID)

	tag, err := repository.pool.Exec(context, query,
		notification.ID, notification.UserID, notification.Type,
		notification.FriendID, notification.TitleID, notification.ChapterID,
		notification.TeamID,
	)
	if dberr.IsForeignKeyViolation(err) {
		return false, apperr.NotFound("user")
	}
	if err != nil {
		return false, fmt.Errorf("postgres: failed to insert notification: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (repository *repository) FanOutNewChapter(context context.Context, titleID, teamID, chapterID string) (int, error) {
	n := schema.SocialNotification
	s := schema.SocialSubscription

	// gen_random_uuid keeps the fan-out a single statement; inbox rows are
	// never range-scanned by primary key, so v4 identifiers are acceptable here.
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		SELECT gen_random_uuid(), sub.%s, $4, $1, $3, $2
		FROM (
			SELECT DISTINCT %s FROM %s
			WHERE %s = $1 AND (%s = $2 OR %s IS NULL)
		) sub
		ON CONFLICT (%s, %s, %s) WHERE %s IS NOT NULL DO NOTHING
	`, n.Table, n.ID, n.UserID, n.Type, n.TitleID, n.ChapterID, n.TeamID,
		s.UserID,
		s.UserID, s.Table, s.TitleID, s.TeamID, s.TeamID,
		n.UserID, n.ChapterID, n.Type, n.ChapterID)

	tag, err := repository.pool.Exec(context, query, titleID, teamID, chapterID, TypeNewChapter)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to fan out new chapter: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (repository *repository) FanOutStatusChanged(context context.Context, titleID string) (int, error) {
	n := schema.SocialNotification
	s := schema.SocialSubscription

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		SELECT gen_random_uuid(), sub.%s, $2, $1
		FROM (SELECT DISTINCT %s FROM %s WHERE %s = $1) sub
	`, n.Table, n.ID, n.UserID, n.Type, n.TitleID,
		s.UserID,
		s.UserID, s.Table, s.TitleID)

	tag, err := repository.pool.Exec(context, query, titleID, TypeTitleStatusChanged)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to fan out status change: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// # Inbox Maintenance

func (repository *repository) MarkRead(context context.Context, userID, notificationID string) error {
	n := schema.SocialNotification
	query := fmt.Sprintf(`UPDATE %s SET %s = true WHERE %s = $1 AND %s = $2`,
		n.Table, n.IsRead, n.ID, n.UserID)

	tag, err := repository.pool.Exec(context, query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("postgres: failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification")
	}
	return nil
}

func (repository *repository) Delete(context context.Context, userID, notificationID string) error {
	n := schema.SocialNotification
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, n.Table, n.ID, n.UserID)

	if _, err := repository.pool.Exec(context, query, notificationID, userID); err != nil {
		return fmt.Errorf("postgres: failed to delete notification: %w", err)
	}
	return nil
}

func (repository *repository) DeleteRead(context context.Context, userID string) (int, error) {
	n := schema.SocialNotification
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = true`, n.Table, n.UserID, n.IsRead)

	tag, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to delete read notifications: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

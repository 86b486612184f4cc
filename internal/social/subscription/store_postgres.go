// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package subscription

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mangetsu/mangetsu/internal/platform/apperr"
	"github.com/mangetsu/mangetsu/internal/platform/database/schema"
	"github.com/mangetsu/mangetsu/internal/platform/dberr"
)

// # PostgreSQL Repository

// repository implements the [Repository] interface using pgx.
type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed subscription store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (repository *repository) ListByUser(context context.Context, userID string, limit, offset int) ([]*Subscription, int, error) {
	s := schema.SocialSubscription
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, COUNT(*) OVER() AS total_count
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC
		LIMIT $2 OFFSET $3
	`, s.ID, s.UserID, s.TitleID, s.TeamID, s.CreatedAt, s.Table, s.UserID, s.CreatedAt)

	rows, err := repository.pool.Query(context, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subscriptions []*Subscription
	var totalCount int

	for rows.Next() {
		var subscription Subscription
		err := rows.Scan(
			&subscription.ID, &subscription.UserID, &subscription.TitleID,
			&subscription.TeamID, &subscription.CreatedAt, &totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan subscription: %w", err)
		}
		subscriptions = append(subscriptions, &subscription)
	}

	return subscriptions, totalCount, nil
}

func (repository *repository) Create(context context.Context, subscription *Subscription) error {
	s := schema.SocialSubscription
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s) VALUES ($1, $2, $3, $4)
		RETURNING %s
	`, s.Table, s.ID, s.UserID, s.TitleID, s.TeamID, s.CreatedAt)

	err := repository.pool.QueryRow(context, query,
		subscription.ID, subscription.UserID, subscription.TitleID, subscription.TeamID,
	).Scan(&subscription.CreatedAt)

	// Either the (user, title, team) constraint or the title-wide partial
	// index fires for an existing subscription.
	if dberr.IsUniqueViolation(err, "subscription_unique") ||
		dberr.IsUniqueViolation(err, "subscription_titlewide_unique") {
		return apperr.Conflict("You are already subscribed")
	}
	if dberr.IsForeignKeyViolation(err) {
		return apperr.NotFound("title")
	}
	if err != nil {
		return fmt.Errorf("postgres: failed to create subscription: %w", err)
	}
	return nil
}

func (repository *repository) Delete(context context.Context, userID, titleID string, teamID *string) error {
	s := schema.SocialSubscription

	var query string
	var args []any
	if teamID == nil {
		query = fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2 AND %s IS NULL`,
			s.Table, s.UserID, s.TitleID, s.TeamID)
		args = []any{userID, titleID}
	} else {
		query = fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3`,
			s.Table, s.UserID, s.TitleID, s.TeamID)
		args = []any{userID, titleID, *teamID}
	}

	tag, err := repository.pool.Exec(context, query, args...)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("subscription")
	}
	return nil
}

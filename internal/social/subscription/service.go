// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package subscription

import (
	"context"
	"log/slog"

	"github.com/mangetsu/mangetsu/internal/platform/validate"
	"github.com/mangetsu/mangetsu/pkg/uuid"
)

const (
	FieldTitleID = "title_id"
	FieldTeamID  = "team_id"
)

// # Service Layer

// Service orchestrates subscription management.
type Service struct {
	subscriptionRepo Repository
	logger           *slog.Logger
}

// NewService constructs a new [Service].
func NewService(subscriptionRepo Repository, logger *slog.Logger) *Service {
	return &Service{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

/*
ListSubscriptions retrieves a page of the user's subscriptions.

Parameters:
  - context: context.Context
  - userID: string (UUID)
  - limit: int
  - offset: int

Returns:
  - []*Subscription: Subscriptions ordered newest first
  - int: Total subscription count
  - error: Storage failures
*/
func (service *Service) ListSubscriptions(context context.Context, userID string, limit, offset int) ([]*Subscription, int, error) {
	return service.subscriptionRepo.ListByUser(context, userID, limit, offset)
}

/*
Subscribe follows a title, optionally narrowed to one team's releases.

Parameters:
  - context: context.Context
  - userID: string (UUID)
  - titleID: string (UUID)
  - teamID: *string (nil follows every team's releases)

Returns:
  - *Subscription: The created subscription
  - error: Validation failures, apperr.Conflict on a duplicate,
    apperr.NotFound when the title or team does not exist
*/
func (service *Service) Subscribe(context context.Context, userID, titleID string, teamID *string) (*Subscription, error) {
	validator := &validate.Validator{}
	validator.UUID(FieldTitleID, titleID)
	if teamID != nil {
		validator.UUID(FieldTeamID, *teamID)
	}
	if validator.HasErrors() {
		return nil, validator.Err()
	}

	subscription := &Subscription{
		ID:      uuid.New(),
		UserID:  userID,
		TitleID: titleID,
		TeamID:  teamID,
	}
	if err := service.subscriptionRepo.Create(context, subscription); err != nil {
		return nil, err
	}

	service.logger.Info("subscription_created",
		slog.String("user_id", userID),
		slog.String("title_id", titleID),
		slog.Bool("title_wide", teamID == nil),
	)
	return subscription, nil
}

/*
Unsubscribe drops a subscription.

Description: The (title, team) pair identifies the subscription, so a
title-wide follow and a per-team follow of the same title are removed
independently.

Parameters:
  - context: context.Context
  - userID: string (UUID)
  - titleID: string (UUID)
  - teamID: *string (nil targets the title-wide subscription)

Returns:
  - error: apperr.NotFound when no matching subscription exists
*/
func (service *Service) Unsubscribe(context context.Context, userID, titleID string, teamID *string) error {
	validator := &validate.Validator{}
	validator.UUID(FieldTitleID, titleID)
	if teamID != nil {
		validator.UUID(FieldTeamID, *teamID)
	}
	if validator.HasErrors() {
		return validator.Err()
	}

	return service.subscriptionRepo.Delete(context, userID, titleID, teamID)
}

// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package subscription

import "context"

// # Subscription Data Access

// Repository defines the data access contract for subscriptions.
type Repository interface {

	/*
		ListByUser returns the user's subscriptions, newest first.

		Parameters:
		  - context: context.Context
		  - userID: string (UUID)
		  - limit: int
		  - offset: int

		Returns:
		  - []*Subscription: The user's subscriptions
		  - int: Total subscription count
		  - error: Storage failures
	*/
	ListByUser(context context.Context, userID string, limit, offset int) ([]*Subscription, int, error)

	/*
		Create persists a subscription.

		Parameters:
		  - context: context.Context
		  - subscription: *Subscription (nil TeamID = title-wide)

		Returns:
		  - error: apperr.Conflict when the same subscription already
		    exists, apperr.NotFound when title or team is missing
	*/
	Create(context context.Context, subscription *Subscription) error

	/*
		Delete removes a subscription matching (user, title, team).

		Parameters:
		  - context: context.Context
		  - userID: string (UUID)
		  - titleID: string (UUID)
		  - teamID: *string (nil targets the title-wide subscription)

		Returns:
		  - error: apperr.NotFound when no such subscription exists
	*/
	Delete(context context.Context, userID, titleID string, teamID *string) error
}

// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package title

import "context"

// # Title Data Access

// Repository defines the data access contract for titles and their ratings.
type Repository interface {

	/*
		List returns a page of titles ordered by creation time, newest first.

		Parameters:
		  - context: context.Context
		  - limit: int
		  - offset: int

		Returns:
		  - []*Title: Hydrated titles
		  - int: Total title count
		  - error: Storage failures
	*/
	List(context context.Context, limit, offset int) ([]*Title, int, error)

	/*
		FindByID returns the title with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *Title: Hydrated entity
		  - error: apperr.NotFound if missing
	*/
	FindByID(context context.Context, id string) (*Title, error)

	/*
		FindBySlug returns the title with the given URL slug.

		Parameters:
		  - context: context.Context
		  - slug: string

		Returns:
		  - *Title: Hydrated entity
		  - error: apperr.NotFound if missing
	*/
	FindBySlug(context context.Context, slug string) (*Title, error)

	/*
		Create persists a new title.

		Parameters:
		  - context: context.Context
		  - title: *Title

		Returns:
		  - error: apperr.Conflict on duplicate name or slug
	*/
	Create(context context.Context, title *Title) error

	/*
		Update persists editable metadata of an existing title. Derived
		counters are never written by this method.

		Parameters:
		  - context: context.Context
		  - title: *Title

		Returns:
		  - error: apperr.NotFound if missing
	*/
	Update(context context.Context, title *Title) error

	/*
		UpdateStatus moves a title to a new lifecycle status.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)
		  - status: Status

		Returns:
		  - error: apperr.NotFound if missing
	*/
	UpdateStatus(context context.Context, id string, status Status) error

	/*
		RatingSummary computes the weighted average over the stored
		per-mark histogram. It never touches the per-user rows.

		Parameters:
		  - context: context.Context
		  - titleID: string (UUID)

		Returns:
		  - RatingSummary: Average and count, zero-valued when unrated
		  - error: Storage failures
	*/
	RatingSummary(context context.Context, titleID string) (RatingSummary, error)

	/*
		SetRating records a user's mark for a title with replace semantics:
		any previous mark by the same user is removed and its histogram
		bucket decremented before the new bucket is incremented, all in one
		transaction.

		Parameters:
		  - context: context.Context
		  - userID: string (UUID)
		  - titleID: string (UUID)
		  - mark: int (1..10)

		Returns:
		  - error: apperr.NotFound if the title is missing
	*/
	SetRating(context context.Context, userID, titleID string, mark int) error

	/*
		ClearRating removes a user's mark and decrements its bucket.
		Clearing a non-existent rating is a no-op.

		Parameters:
		  - context: context.Context
		  - userID: string (UUID)
		  - titleID: string (UUID)

		Returns:
		  - error: Storage failures
	*/
	ClearRating(context context.Context, userID, titleID string) error

	/*
		GetUserRating returns the mark a user gave a title.

		Parameters:
		  - context: context.Context
		  - userID: string (UUID)
		  - titleID: string (UUID)

		Returns:
		  - int: The mark, 0 when the user has not rated the title
		  - error: Storage failures
	*/
	GetUserRating(context context.Context, userID, titleID string) (int, error)
}

// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package list

import (
	"context"

	"github.com/mangetsu/mangetsu/internal/catalog/title"
)

// # List Data Access

// Repository defines the data access contract for reading lists.
//
// AddTitle and RemoveTitle own the membership counter pair: every
// insert/delete of a social.listtitle row adjusts list.titlescount and
// title.inlists in the same transaction. No other write path may touch
// either counter.
type Repository interface {

	/*
		ListByUser returns a user's lists, newest first.

		Parameters:
		  - context: context.Context
		  - userID: string (UUID)
		  - includeHidden: bool (false filters hidden lists, for visitors)

		Returns:
		  - []*List: The user's lists
		  - error: Storage failures
	*/
	ListByUser(context context.Context, userID string, includeHidden bool) ([]*List, error)

	/*
		FindByID retrieves a single list.

		Parameters:
		  - context: context.Context
		  - listID: string (UUID)

		Returns:
		  - *List: The list
		  - error: apperr.NotFound if missing
	*/
	FindByID(context context.Context, listID string) (*List, error)

	/*
		Create persists a new, empty list.

		Parameters:
		  - context: context.Context
		  - list: *List

		Returns:
		  - error: apperr.Conflict when the user already has a list with
		    that name
	*/
	Create(context context.Context, list *List) error

	/*
		Update renames a list and/or toggles its visibility.

		Parameters:
		  - context: context.Context
		  - list: *List (ID, Name and Hidden are written)

		Returns:
		  - error: apperr.NotFound if missing, apperr.Conflict on a name
		    collision
	*/
	Update(context context.Context, list *List) error

	/*
		Delete removes a list. Membership rows cascade; the transaction
		walks the cascading titles and decrements each title.inlists.

		Parameters:
		  - context: context.Context
		  - listID: string (UUID)

		Returns:
		  - error: apperr.NotFound if missing
	*/
	Delete(context context.Context, listID string) error

	/*
		ListTitles returns the titles in a list, paginated.

		Parameters:
		  - context: context.Context
		  - listID: string (UUID)
		  - limit: int
		  - offset: int

		Returns:
		  - []*title.Title: Member titles, newest membership first
		  - int: Total member count
		  - error: Storage failures
	*/
	ListTitles(context context.Context, listID string, limit, offset int) ([]*title.Title, int, error)

	/*
		AddTitle inserts a membership row and bumps both counters.

		Parameters:
		  - context: context.Context
		  - listID: string (UUID)
		  - titleID: string (UUID)

		Returns:
		  - error: apperr.Conflict when the title is already in the list,
		    apperr.NotFound when the list or title is missing
	*/
	AddTitle(context context.Context, listID, titleID string) error

	/*
		RemoveTitle deletes a membership row and decrements both counters.

		Parameters:
		  - context: context.Context
		  - listID: string (UUID)
		  - titleID: string (UUID)

		Returns:
		  - error: apperr.NotFound when the title is not in the list
	*/
	RemoveTitle(context context.Context, listID, titleID string) error
}

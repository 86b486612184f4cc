// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package comment

import "context"

// # Comment Data Access

// Repository defines the data access contract for comments and votes.
//
// Vote and Unvote own the likes/dislikes counter pair: the vote row
// change and the counter adjustment share one transaction, and switching
// sides removes the opposite row (and its counter credit) in that same
// transaction.
type Repository interface {

	/*
		ListByTitle returns a title's comments, oldest first, paginated.

		Parameters:
		  - context: context.Context
		  - titleID: string (UUID)
		  - limit: int
		  - offset: int

		Returns:
		  - []*Comment: The title's comments (soft-deleted ones included,
		    with their body blanked)
		  - int: Total comment count
		  - error: Storage failures
	*/
	ListByTitle(context context.Context, titleID string, limit, offset int) ([]*Comment, int, error)

	/*
		FindByID retrieves a single comment.

		Parameters:
		  - context: context.Context
		  - commentID: string (UUID)

		Returns:
		  - *Comment: The comment
		  - error: apperr.NotFound if missing
	*/
	FindByID(context context.Context, commentID string) (*Comment, error)

	/*
		Create persists a new comment.

		Parameters:
		  - context: context.Context
		  - comment: *Comment

		Returns:
		  - error: apperr.NotFound when the title or the parent comment is
		    missing
	*/
	Create(context context.Context, comment *Comment) error

	/*
		Vote records a ±1 vote, replacing any opposite vote.

		Parameters:
		  - context: context.Context
		  - userID: string (UUID)
		  - commentID: string (UUID)
		  - vote: int16 (VoteUp or VoteDown)

		Returns:
		  - error: apperr.Conflict when the same vote already exists,
		    apperr.NotFound when the comment is missing
	*/
	Vote(context context.Context, userID, commentID string, vote int16) error

	/*
		Unvote removes the user's vote, whichever side it is on.

		Parameters:
		  - context: context.Context
		  - userID: string (UUID)
		  - commentID: string (UUID)

		Returns:
		  - error: apperr.NotFound when no vote exists
	*/
	Unvote(context context.Context, userID, commentID string) error

	/*
		SoftDelete marks a comment deleted and blanks its body. The row
		stays so replies keep their parent.

		Parameters:
		  - context: context.Context
		  - commentID: string (UUID)

		Returns:
		  - error: apperr.NotFound if missing
	*/
	SoftDelete(context context.Context, commentID string) error

	/*
		ReplyContext resolves a reply's parent for notification delivery.

		Parameters:
		  - context: context.Context
		  - commentID: string (The reply's UUID)

		Returns:
		  - string: Parent author's user ID, empty when the author is gone
		  - string: Title ID of the thread
		  - error: apperr.NotFound when the reply or its parent is missing
	*/
	ReplyContext(context context.Context, commentID string) (string, string, error)
}

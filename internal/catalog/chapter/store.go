// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package chapter

import "context"

// # Chapter Data Access

// Repository defines the data access contract for chapters, their pages,
// and the derived counters those writes maintain.
//
// Every counter named in the method contracts (title.chapter_count,
// chapter.likes, the title↔team links) is written ONLY inside this
// repository's transactions. No other component may touch them.
type Repository interface {

	/*
		ListByTitle returns the published chapters of a title, newest
		release first.

		Parameters:
		  - context: context.Context
		  - titleID: string (UUID)
		  - limit: int
		  - offset: int

		Returns:
		  - []*Chapter: Published chapters
		  - int: Total published chapter count for the title
		  - error: Storage failures
	*/
	ListByTitle(context context.Context, titleID string, limit, offset int) ([]*Chapter, int, error)

	// FindByID returns the chapter with the given ID, or apperr.NotFound.
	// Unpublished chapters are returned too; visibility is the caller's concern.
	FindByID(context context.Context, id string) (*Chapter, error)

	/*
		Create inserts an unpublished chapter and maintains the derived
		state in the same transaction:

		  - title.chapter_count rises to the team's per-title chapter count
		    when that count reaches the stored value plus one.
		  - the title↔team link is created if this is the team's first
		    chapter for the title.

		Parameters:
		  - context: context.Context
		  - chapter: *Chapter

		Returns:
		  - error: apperr.Conflict with CodeDuplicateChapter on a
		    (title, team, volume, number) collision
	*/
	Create(context context.Context, chapter *Chapter) error

	/*
		Delete hard-deletes a chapter and repairs the derived state in the
		same transaction:

		  - title.chapter_count is recomputed as the maximum per-team
		    chapter count for the title.
		  - the title↔team link is removed if this was the team's last
		    chapter for the title.

		Image rows are detached by the schema (chapter FK SET NULL); the
		caller removes them and their blobs explicitly beforehand.
		Deleting a missing chapter is a no-op.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - error: Storage failures
	*/
	Delete(context context.Context, id string) error

	// SetPublished flips the publication flag.
	SetPublished(context context.Context, id string, published bool) error

	// SetArchiveKey records (or clears, with nil) the stashed archive key.
	SetArchiveKey(context context.Context, id string, key *string) error

	/*
		InsertImages bulk-inserts page rows in the given slice order, which
		is the reading order. Positions are assigned by the caller.

		Parameters:
		  - context: context.Context
		  - images: []*Image

		Returns:
		  - error: Batch failure
	*/
	InsertImages(context context.Context, images []*Image) error

	// ListImages returns a chapter's pages ordered by position.
	ListImages(context context.Context, chapterID string) ([]*Image, error)

	/*
		DeleteImages removes a chapter's page rows and returns their blob
		keys so the caller can clean up storage.

		Parameters:
		  - context: context.Context
		  - chapterID: string (UUID)

		Returns:
		  - []string: Blob keys of the removed rows
		  - error: Storage failures
	*/
	DeleteImages(context context.Context, chapterID string) ([]string, error)

	/*
		Like records a user's like and increments chapter.likes in the
		same transaction. Liking twice is a no-op.

		Parameters:
		  - context: context.Context
		  - userID: string (Actor)
		  - chapterID: string (UUID)

		Returns:
		  - error: apperr.NotFound if the chapter is missing
	*/
	Like(context context.Context, userID, chapterID string) error

	// Unlike removes a like and decrements chapter.likes in the same
	// transaction. Unliking a chapter that was never liked is a no-op.
	Unlike(context context.Context, userID, chapterID string) error
}

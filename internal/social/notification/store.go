// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package notification

import "context"

// # Notification Data Access

// Repository defines the data access contract for notification inboxes.
type Repository interface {

	/*
		ListByUser returns a page of the user's inbox, newest first.

		Parameters:
		  - context: context.Context
		  - userID: string (UUID)
		  - limit: int
		  - offset: int

		Returns:
		  - []*Notification: Inbox entries
		  - int: Total inbox size
		  - error: Storage failures
	*/
	ListByUser(context context.Context, userID string, limit, offset int) ([]*Notification, int, error)

	/*
		Insert persists a single notification.

		Parameters:
		  - context: context.Context
		  - notification: *Notification

		Returns:
		  - bool: false when the partial uniqueness rule suppressed the row
		    (same user, chapter, and type already notified)
		  - error: Storage failures
	*/
	Insert(context context.Context, notification *Notification) (bool, error)

	/*
		FanOutNewChapter inserts a TypeNewChapter row for every subscriber
		of the (title, team) pair plus the title-wide subscribers, in one
		statement. Conflicting rows (already-delivered chapter
		notifications) are skipped, making redelivery idempotent.

		Parameters:
		  - context: context.Context
		  - titleID: string (UUID)
		  - teamID: string (UUID)
		  - chapterID: string (UUID)

		Returns:
		  - int: Number of rows actually inserted
		  - error: Storage failures
	*/
	FanOutNewChapter(context context.Context, titleID, teamID, chapterID string) (int, error)

	/*
		FanOutStatusChanged inserts a TypeTitleStatusChanged row for every
		distinct subscriber of the title.

		Parameters:
		  - context: context.Context
		  - titleID: string (UUID)

		Returns:
		  - int: Number of rows inserted
		  - error: Storage failures
	*/
	FanOutStatusChanged(context context.Context, titleID string) (int, error)

	// MarkRead marks one of the user's notifications as read.
	MarkRead(context context.Context, userID, notificationID string) error

	// Delete removes one of the user's notifications. Missing rows are a no-op.
	Delete(context context.Context, userID, notificationID string) error

	// DeleteRead removes all of the user's read notifications and returns
	// how many were removed.
	DeleteRead(context context.Context, userID string) (int, error)
}

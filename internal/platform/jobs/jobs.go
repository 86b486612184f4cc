// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

/*
Package jobs provides the asynchronous background job queue.

Archive extraction and page uploads are slow (CPU + network bound) and must
not block the HTTP response, so the publishing endpoints enqueue typed jobs
that a worker pool executes out-of-band.

Delivery model:

  - At-least-once: a job may be delivered more than once after a worker
    crash or retry. Every handler must be idempotent or guarded by an
    existence re-check on the referenced entity.
  - Ordered only per delivery: there is no global ordering guarantee.
  - Retries: failed jobs are re-scheduled with exponential backoff until
    [constants.JobsMaxAttempts] is exhausted; permanent failures (invalid
    archives) must be absorbed by the handler itself, not retried.
*/
package jobs

import (
	"context"
	"encoding/json"
	"time"
)

// # Job Identity

// Name identifies a job kind. Handlers are registered per Name.
type Name string

const (
	// ChapterPublish uploads a new chapter's pages and flips the publish flag.
	ChapterPublish Name = "chapter.publish"

	// ChapterRepublish replaces a published chapter's pages from a new archive.
	ChapterRepublish Name = "chapter.republish"

	// ChapterDelete hard-deletes a retracted chapter with its images and blobs.
	ChapterDelete Name = "chapter.delete"

	// TeamDelete hard-deletes a team after its chapters have been cleaned up.
	TeamDelete Name = "team.delete"

	// NotifyNewChapter fans a published chapter out to its subscribers.
	NotifyNewChapter Name = "notify.new_chapter"

	// NotifyStatusChanged fans a title status change out to title-wide subscribers.
	NotifyStatusChanged Name = "notify.status_changed"

	// NotifyCommentReply notifies a comment author about a reply.
	NotifyCommentReply Name = "notify.comment_reply"
)

// # Envelope

// Job is the wire envelope carried through the Redis queue.
type Job struct {
	ID         string          `json:"id"`
	Name       Name            `json:"name"`
	Args       json.RawMessage `json:"args"`
	Attempt    int             `json:"attempt"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Handler executes one job kind. The raw args are decoded by the handler
// into its typed payload.
type Handler func(ctx context.Context, args json.RawMessage) error

// Dispatcher is the narrow interface domain services use to schedule work.
//
// A zero delay enqueues for immediate execution; a positive delay schedules
// the job for later (used to give slow replicas time to catch up).
type Dispatcher interface {
	Enqueue(ctx context.Context, name Name, args any, delay time.Duration) error
}

// # Typed Payloads

// Payload structs live here (not in the domain packages) so that the
// enqueueing service and the registered handler share one definition
// without an import cycle.

// ChapterPublishArgs drives [ChapterPublish] and [ChapterRepublish].
type ChapterPublishArgs struct {
	ChapterID string `json:"chapter_id"`
	ActorID   string `json:"actor_id"`
}

// ChapterDeleteArgs drives [ChapterDelete].
type ChapterDeleteArgs struct {
	ChapterID string `json:"chapter_id"`
}

// TeamDeleteArgs drives [TeamDelete].
type TeamDeleteArgs struct {
	TeamID string `json:"team_id"`
}

// NewChapterArgs drives [NotifyNewChapter].
type NewChapterArgs struct {
	TitleID   string `json:"title_id"`
	TeamID    string `json:"team_id"`
	ChapterID string `json:"chapter_id"`
}

// StatusChangedArgs drives [NotifyStatusChanged].
type StatusChangedArgs struct {
	TitleID string `json:"title_id"`
}

// CommentReplyArgs drives [NotifyCommentReply].
type CommentReplyArgs struct {
	CommentID string `json:"comment_id"`
	ActorID   string `json:"actor_id"`
}

// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

/*
Package comment implements title discussion threads.

Comments form a flat thread per title with optional reply links. Votes
are ±1 rows in social.commentvote; the likes/dislikes counters on the
comment row are derived from those rows and only move inside the vote
transactions. Deletion is soft so reply links stay resolvable.
*/
package comment

import "time"

// Vote values stored in social.commentvote.
const (
	VoteUp   int16 = 1
	VoteDown int16 = -1
)

// Comment is one entry in a title's discussion thread.
//
// UserID is nil once the author's account is gone; ReplyToID is nil for
// top-level comments and for replies whose parent was hard-removed.
type Comment struct {
	ID        string    `json:"id"`
	TitleID   string    `json:"title_id"`
	UserID    *string   `json:"user_id"`
	ReplyToID *string   `json:"reply_to_id,omitempty"`
	Body      string    `json:"body"`
	IsDeleted bool      `json:"is_deleted"`
	Likes     int       `json:"likes"`
	Dislikes  int       `json:"dislikes"`
	CreatedAt time.Time `json:"created_at"`
}

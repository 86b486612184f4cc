// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package notification

import "time"

// # Notification Types

// Type is the wire-stable discriminator for a notification. The numeric
// values are persisted and must never be reordered.
type Type int16

const (
	TypeNewChapter           Type = 1
	TypeFriendRequest        Type = 2
	TypeFriendAccept         Type = 3
	TypeCommentReply         Type = 4
	TypeTitleStatusChanged   Type = 5
	TypeTeamInvite           Type = 6
	TypeSubscribedTeamUpdate Type = 7
	TypeChapterUploadSuccess Type = 8
	TypeChapterUploadFail    Type = 9
	TypeChapterUpdateSuccess Type = 10
	TypeChapterUpdateFail    Type = 11
)

// # Entities

// Notification is one inbox entry for a user.
//
// The optional references identify what the notification is about; which
// ones are set depends on the [Type].
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      Type      `json:"type"`
	FriendID  *string   `json:"friend_id,omitempty"`
	TitleID   *string   `json:"title_id,omitempty"`
	ChapterID *string   `json:"chapter_id,omitempty"`
	TeamID    *string   `json:"team_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

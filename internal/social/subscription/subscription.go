// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

/*
Package subscription manages who follows which title releases.

A subscription either names a team (follow that team's releases of the
title) or leaves the team empty (follow the title regardless of who
releases it). Both shapes feed the new-chapter fan-out.
*/
package subscription

import "time"

// Subscription is one user's interest in a title's releases.
type Subscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TitleID   string    `json:"title_id"`
	TeamID    *string   `json:"team_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

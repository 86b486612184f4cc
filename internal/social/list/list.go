// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

/*
Package list implements user-curated reading lists.

A list holds a set of titles. Two derived counters track membership from
both ends: list.titlescount on the list and title.inlists on the title.
Both move together inside the membership transaction, never apart.
*/
package list

import "time"

// List is a named collection of titles owned by one user.
type List struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Hidden      bool      `json:"hidden"`
	TitlesCount int       `json:"titles_count"`
	CreatedAt   time.Time `json:"created_at"`
}

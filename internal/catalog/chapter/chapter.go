// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package chapter

import "time"

// # Error Codes

const (
	// CodeDuplicateChapter marks a (title, team, volume, number) collision.
	CodeDuplicateChapter = "DUPLICATE_CHAPTER"
	// CodeLicensedTitle marks publication attempts against a licensed title.
	CodeLicensedTitle = "LICENSED_TITLE"
	// CodeNotPublished marks republish/retract attempts on an unpublished chapter.
	CodeNotPublished = "NOT_PUBLISHED"
)

// # Entities

// Chapter is a single release of a title by a team.
//
// A chapter is created unpublished by the publish endpoint and flipped to
// published by its background job once every page is stored. ArchiveKey
// points at the stashed source archive and is only set between the request
// and the job completing.
type Chapter struct {
	ID            string    `json:"id"`
	TitleID       string    `json:"title_id"`
	TeamID        string    `json:"team_id"`
	Name          string    `json:"name"`
	VolumeNumber  int       `json:"volume_number"`
	ChapterNumber float64   `json:"chapter_number"`
	Likes         int       `json:"likes"`
	IsPublished   bool      `json:"is_published"`
	ArchiveKey    *string   `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// Image is one stored page of a chapter. Position is the reading order,
// assigned from the archive's natural entry order and nothing else.
type Image struct {
	ID        string `json:"id"`
	ChapterID string `json:"chapter_id"`
	BlobKey   string `json:"-"`
	BlobURL   string `json:"url"`
	Position  int    `json:"position"`
}

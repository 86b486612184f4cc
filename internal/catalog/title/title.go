// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package title

import "time"

// # Enumerations

// Type classifies a title by its origin format.
type Type string

const (
	TypeManga  Type = "manga"
	TypeManhwa Type = "manhwa"
	TypeManhua Type = "manhua"
)

// Status tracks where a title is in its publication lifecycle.
type Status string

const (
	StatusAnnouncement Status = "announcement"
	StatusOngoing      Status = "ongoing"
	StatusFinished     Status = "finished"
	StatusSuspended    Status = "suspended"
	StatusStopped      Status = "stopped"
)

// AgeRating is the audience classification for a title.
type AgeRating string

const (
	AgeRatingEveryone   AgeRating = "e"
	AgeRatingYouth      AgeRating = "y"
	AgeRatingTeen       AgeRating = "t"
	AgeRatingOlderTeen  AgeRating = "ot"
	AgeRatingMature     AgeRating = "m"
)

// # Entities

// Title is a series in the catalogue.
//
// ChapterCount and InLists are derived counters maintained exclusively by
// the owning repositories inside their write transactions; nothing else may
// write them.
type Title struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	Description  string     `json:"description"`
	ReleaseYear  *int       `json:"release_year,omitempty"`
	Type         Type       `json:"type"`
	Status       Status     `json:"status"`
	AgeRating    AgeRating  `json:"age_rating"`
	Licensed     bool       `json:"licensed"`
	ChapterCount int        `json:"chapter_count"`
	InLists      int        `json:"in_lists"`
	CreatedAt    time.Time  `json:"created_at"`
}

// RatingSummary is the aggregate view over a title's rating histogram.
type RatingSummary struct {
	// Average is the amount-weighted mean of all marks, 0 when unrated.
	Average float64 `json:"average"`
	// Count is the total number of ratings.
	Count int `json:"count"`
}

// Detail is the read model for a single title page.
type Detail struct {
	Title
	Rating RatingSummary `json:"rating"`
}

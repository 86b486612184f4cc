// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package team

import "context"

// # Team Data Access

// Repository defines the data access contract for teams and their rosters.
type Repository interface {

	/*
		List returns a page of teams ordered by creation time, newest first.

		Parameters:
		  - context: context.Context
		  - limit: int
		  - offset: int

		Returns:
		  - []*Team: Hydrated teams
		  - int: Total team count
		  - error: Storage failures
	*/
	List(context context.Context, limit, offset int) ([]*Team, int, error)

	// FindByID returns the team with the given ID, or apperr.NotFound.
	FindByID(context context.Context, id string) (*Team, error)

	// FindBySlug returns the team with the given slug, or apperr.NotFound.
	FindBySlug(context context.Context, slug string) (*Team, error)

	/*
		Create persists a new team.

		Parameters:
		  - context: context.Context
		  - team: *Team

		Returns:
		  - error: apperr.Conflict on duplicate name or slug
	*/
	Create(context context.Context, team *Team) error

	// Update persists editable team metadata.
	Update(context context.Context, team *Team) error

	/*
		Delete hard-deletes a team. Chapter rows cascade; callers must
		remove their blobs beforehand. Deleting a missing team is a no-op.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - error: Storage failures
	*/
	Delete(context context.Context, id string) error

	/*
		HasPublishedChapters reports whether any published chapter credits
		the team.

		Parameters:
		  - context: context.Context
		  - teamID: string (UUID)

		Returns:
		  - bool: true if a published chapter exists
		  - error: Storage failures
	*/
	HasPublishedChapters(context context.Context, teamID string) (bool, error)

	/*
		PageBlobKeys returns the blob keys of every chapter image credited
		to the team, for pre-delete blob cleanup.

		Parameters:
		  - context: context.Context
		  - teamID: string (UUID)

		Returns:
		  - []string: Blob keys in no particular order
		  - error: Storage failures
	*/
	PageBlobKeys(context context.Context, teamID string) ([]string, error)

	// ListParticipants returns the team's roster.
	ListParticipants(context context.Context, teamID string) ([]*Participant, error)

	/*
		FindParticipant returns a user's membership in a team.

		Parameters:
		  - context: context.Context
		  - userID: string (UUID)
		  - teamID: string (UUID)

		Returns:
		  - *Participant: Membership with roles
		  - error: apperr.NotFound if the user is not on the team
	*/
	FindParticipant(context context.Context, userID, teamID string) (*Participant, error)

	/*
		UpsertParticipant inserts a membership or replaces its role set.

		Parameters:
		  - context: context.Context
		  - participant: *Participant

		Returns:
		  - error: apperr.NotFound if team or user is missing
	*/
	UpsertParticipant(context context.Context, participant *Participant) error

	// RemoveParticipant deletes a membership. Removing a non-member is a no-op.
	RemoveParticipant(context context.Context, userID, teamID string) error

	/*
		CountAdmins returns how many participants hold the admin role.

		Parameters:
		  - context: context.Context
		  - teamID: string (UUID)

		Returns:
		  - int: Admin count
		  - error: Storage failures
	*/
	CountAdmins(context context.Context, teamID string) (int, error)
}

// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package team

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mangetsu/mangetsu/internal/ingest/blob"
	"github.com/mangetsu/mangetsu/internal/platform/apperr"
	"github.com/mangetsu/mangetsu/internal/platform/jobs"
	"github.com/mangetsu/mangetsu/internal/platform/sec"
	"github.com/mangetsu/mangetsu/internal/platform/validate"
	"github.com/mangetsu/mangetsu/pkg/slug"
	"github.com/mangetsu/mangetsu/pkg/uuid"
)

const (
	FieldName  = "name"
	FieldRoles = "roles"
)

// # Service Layer

// Service orchestrates team lifecycle and roster management.
type Service struct {
	teamRepo   Repository
	blobStore  blob.Store
	dispatcher jobs.Dispatcher
	logger     *slog.Logger
}

// NewService constructs a new [Service].
func NewService(teamRepo Repository, blobStore blob.Store, dispatcher jobs.Dispatcher, logger *slog.Logger) *Service {
	return &Service{
		teamRepo:   teamRepo,
		blobStore:  blobStore,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// # Reads

// ListTeams retrieves a page of teams.
func (service *Service) ListTeams(context context.Context, limit, offset int) ([]*Team, int, error) {
	return service.teamRepo.List(context, limit, offset)
}

// GetTeam retrieves a single team by slug.
func (service *Service) GetTeam(context context.Context, teamSlug string) (*Team, error) {
	return service.teamRepo.FindBySlug(context, teamSlug)
}

// ListParticipants retrieves a team's roster.
func (service *Service) ListParticipants(context context.Context, teamID string) ([]*Participant, error) {
	if _, err := service.teamRepo.FindByID(context, teamID); err != nil {
		return nil, err
	}
	return service.teamRepo.ListParticipants(context, teamID)
}

// # Team Lifecycle

/*
CreateTeam registers a new team. The creator becomes its first admin.

Parameters:
  - context: context.Context
  - team: *Team (Name, Description)
  - creatorID: string (Actor; seeded as the first admin)

Returns:
  - error: Validation or persistence errors
*/
func (service *Service) CreateTeam(context context.Context, team *Team, creatorID string) error {
	if team.ID == "" {
		team.ID = uuid.New()
	}
	team.Slug = slug.From(team.Name)

	validator := &validate.Validator{}
	validator.Required(FieldName, team.Name)
	validator.MaxLen(FieldName, team.Name, 255)

	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.teamRepo.Create(context, team); err != nil {
		return err
	}

	founder := &Participant{
		UserID: creatorID,
		TeamID: team.ID,
		Roles:  []string{RoleAdmin},
	}
	if err := service.teamRepo.UpsertParticipant(context, founder); err != nil {
		return err
	}

	service.logger.Info("team_created",
		slog.String("team_id", team.ID),
		slog.String("slug", team.Slug),
	)
	return nil
}

/*
UpdateTeam persists editable team metadata. Requires the acting user to be
a team admin or a site moderator.

Parameters:
  - context: context.Context
  - actor: *sec.AuthClaims
  - team: *Team

Returns:
  - error: apperr.Forbidden when the actor may not manage the team
*/
func (service *Service) UpdateTeam(context context.Context, actor *sec.AuthClaims, team *Team) error {
	if err := service.requireTeamAdmin(context, actor, team.ID); err != nil {
		return err
	}
	return service.teamRepo.Update(context, team)
}

/*
DeleteTeam removes a team.

Description: A team that has published chapters carries blobs that must be
cleaned up, so its deletion runs as a background job; the call reports
whether deletion was deferred. Teams without published chapters are removed
synchronously.

Parameters:
  - context: context.Context
  - actor: *sec.AuthClaims
  - teamID: string (UUID)

Returns:
  - bool: true when deletion was deferred to a background job
  - error: Authorization or persistence errors
*/
func (service *Service) DeleteTeam(context context.Context, actor *sec.AuthClaims, teamID string) (bool, error) {
	if _, err := service.teamRepo.FindByID(context, teamID); err != nil {
		return false, err
	}
	if err := service.requireTeamAdmin(context, actor, teamID); err != nil {
		return false, err
	}

	hasPublished, err := service.teamRepo.HasPublishedChapters(context, teamID)
	if err != nil {
		return false, err
	}

	if hasPublished {
		err := service.dispatcher.Enqueue(context, jobs.TeamDelete, jobs.TeamDeleteArgs{TeamID: teamID}, 0)
		if err != nil {
			return false, err
		}
		service.logger.Info("team_delete_deferred", slog.String("team_id", teamID))
		return true, nil
	}

	if err := service.teamRepo.Delete(context, teamID); err != nil {
		return false, err
	}
	service.logger.Info("team_deleted", slog.String("team_id", teamID))
	return false, nil
}

/*
HandleDelete is the background handler for [jobs.TeamDelete].

Description: Removes every page blob credited to the team before dropping
the team row; chapter and image rows go with it through cascades. Blob
deletion is idempotent, so a retried job re-deletes safely. A team already
gone is treated as success.
*/
func (service *Service) HandleDelete(ctx context.Context, rawArgs json.RawMessage) error {
	var args jobs.TeamDeleteArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return err
	}

	if _, err := service.teamRepo.FindByID(ctx, args.TeamID); err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}

	keys, err := service.teamRepo.PageBlobKeys(ctx, args.TeamID)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := service.blobStore.Delete(ctx, key); err != nil {
			return err
		}
	}

	if err := service.teamRepo.Delete(ctx, args.TeamID); err != nil {
		return err
	}

	service.logger.Info("team_deleted",
		slog.String("team_id", args.TeamID),
		slog.Int("blobs_removed", len(keys)),
	)
	return nil
}

// # Roster Management

/*
SetParticipant adds a user to the team or replaces their role set.

Description: Enforces the last-admin guard: a change may not strip the
admin role from the only remaining admin.

Parameters:
  - context: context.Context
  - actor: *sec.AuthClaims
  - participant: *Participant (UserID, TeamID, Roles)

Returns:
  - error: Validation, authorization, or persistence errors
*/
func (service *Service) SetParticipant(context context.Context, actor *sec.AuthClaims, participant *Participant) error {
	if err := service.requireTeamAdmin(context, actor, participant.TeamID); err != nil {
		return err
	}

	validator := &validate.Validator{}
	validator.UUID("user_id", participant.UserID)
	validator.Custom(FieldRoles, len(participant.Roles) == 0, "At least one role is required")
	for _, role := range participant.Roles {
		validator.OneOf(FieldRoles, role, KnownRoles...)
	}
	if err := validator.Err(); err != nil {
		return err
	}

	if !participant.HasRole(RoleAdmin) {
		if err := service.guardLastAdmin(context, participant.UserID, participant.TeamID); err != nil {
			return err
		}
	}

	if err := service.teamRepo.UpsertParticipant(context, participant); err != nil {
		return err
	}

	service.logger.Info("team_roster_updated",
		slog.String("team_id", participant.TeamID),
		slog.String("user_id", participant.UserID),
	)
	return nil
}

/*
RemoveParticipant drops a user from the team's roster.

Description: Subject to the last-admin guard; the only remaining admin
cannot be removed.

Parameters:
  - context: context.Context
  - actor: *sec.AuthClaims
  - userID: string (Member being removed)
  - teamID: string (UUID)

Returns:
  - error: Authorization or persistence errors
*/
func (service *Service) RemoveParticipant(context context.Context, actor *sec.AuthClaims, userID, teamID string) error {
	// Members may always leave a team themselves, admins may remove anyone.
	if actor.UserID != userID {
		if err := service.requireTeamAdmin(context, actor, teamID); err != nil {
			return err
		}
	}

	if err := service.guardLastAdmin(context, userID, teamID); err != nil {
		return err
	}

	if err := service.teamRepo.RemoveParticipant(context, userID, teamID); err != nil {
		return err
	}

	service.logger.Info("team_participant_removed",
		slog.String("team_id", teamID),
		slog.String("user_id", userID),
	)
	return nil
}

// # Authorization Helpers

// requireTeamAdmin permits team admins and site moderators.
func (service *Service) requireTeamAdmin(context context.Context, actor *sec.AuthClaims, teamID string) error {
	if sec.UserRole(actor.Role).AtLeast(sec.RoleModerator) {
		return nil
	}

	participant, err := service.teamRepo.FindParticipant(context, actor.UserID, teamID)
	if err != nil || !participant.HasRole(RoleAdmin) {
		return apperr.Forbidden("You do not manage this team")
	}
	return nil
}

// guardLastAdmin rejects changes that would leave the team without an admin.
func (service *Service) guardLastAdmin(context context.Context, userID, teamID string) error {
	participant, err := service.teamRepo.FindParticipant(context, userID, teamID)
	if err != nil {
		// Not on the roster yet; nothing to guard.
		return nil
	}
	if !participant.HasRole(RoleAdmin) {
		return nil
	}

	adminCount, err := service.teamRepo.CountAdmins(context, teamID)
	if err != nil {
		return err
	}
	if adminCount <= 1 {
		return apperr.Conflict("A team must keep at least one admin")
	}
	return nil
}

// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

/*
Package team provides the HTTP interface for scanlation teams.

# Routing Strategy

  - Public (v1): Team discovery and rosters.
  - Authenticated (v1): Team creation and management; per-team authorization
    (team admin or site moderator) is enforced in the service layer.
*/
package team

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mangetsu/mangetsu/internal/platform/middleware"
	requestutil "github.com/mangetsu/mangetsu/internal/platform/request"
	"github.com/mangetsu/mangetsu/internal/platform/respond"
	"github.com/mangetsu/mangetsu/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for teams.
type Handler struct {
	service *Service
}

// NewHandler constructs a new team [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches team endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	// Discovery endpoints
	api.Get("/teams", handler.ListTeams)
	api.Get("/teams/{slug}", handler.GetTeam)
	api.Get("/teams/{id}/participants", handler.ListParticipants)

	// Management endpoints
	api.Group(func(user chi.Router) {
		user.Use(middleware.RequireAuth)
		user.Post("/teams", handler.CreateTeam)
		user.Put("/teams/{id}", handler.UpdateTeam)
		user.Delete("/teams/{id}", handler.DeleteTeam)
		user.Put("/teams/{id}/participants", handler.SetParticipant)
		user.Delete("/teams/{id}/participants/{userID}", handler.RemoveParticipant)
	})
}

// # Discovery

// GET /api/v1/teams.
func (handler *Handler) ListTeams(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	teams, total, err := handler.service.ListTeams(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, teams, pagination.NewMeta(params.Page, params.Limit, total))
}

// GET /api/v1/teams/{slug}.
func (handler *Handler) GetTeam(writer http.ResponseWriter, request *http.Request) {
	team, err := handler.service.GetTeam(request.Context(), requestutil.Param(request, "slug"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, team)
}

// GET /api/v1/teams/{id}/participants.
func (handler *Handler) ListParticipants(writer http.ResponseWriter, request *http.Request) {
	participants, err := handler.service.ListParticipants(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, participants)
}

// # Management

// createTeamRequest is the JSON payload for team creation and update.
type createTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

/*
POST /api/v1/teams. Requires authentication.

Description: The creator is seeded as the team's first admin.

Response:
  - 201: Team: The created entity
  - 409: Duplicate name
*/
func (handler *Handler) CreateTeam(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload createTeamRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	team := &Team{Name: payload.Name, Description: payload.Description}
	if err := handler.service.CreateTeam(request.Context(), team, claims.UserID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, team)
}

// PUT /api/v1/teams/{id}. Requires team admin or site moderator.
func (handler *Handler) UpdateTeam(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload createTeamRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	team := &Team{
		ID:          requestutil.Param(request, "id"),
		Description: payload.Description,
	}
	if err := handler.service.UpdateTeam(request.Context(), claims, team); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, team)
}

/*
DELETE /api/v1/teams/{id}. Requires team admin or site moderator.

Response:
  - 202: Deletion deferred to a background job (team has published chapters)
  - 204: Team deleted synchronously
*/
func (handler *Handler) DeleteTeam(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	teamID := requestutil.Param(request, "id")
	deferred, err := handler.service.DeleteTeam(request.Context(), claims, teamID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if deferred {
		respond.Accepted(writer, map[string]string{"team_id": teamID})
		return
	}
	respond.NoContent(writer)
}

// setParticipantRequest is the JSON payload for roster changes.
type setParticipantRequest struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

// PUT /api/v1/teams/{id}/participants. Requires team admin or site moderator.
func (handler *Handler) SetParticipant(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload setParticipantRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	participant := &Participant{
		UserID: payload.UserID,
		TeamID: requestutil.Param(request, "id"),
		Roles:  payload.Roles,
	}
	if err := handler.service.SetParticipant(request.Context(), claims, participant); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, participant)
}

// DELETE /api/v1/teams/{id}/participants/{userID}.
func (handler *Handler) RemoveParticipant(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	teamID := requestutil.Param(request, "id")
	userID := requestutil.Param(request, "userID")

	if err := handler.service.RemoveParticipant(request.Context(), claims, userID, teamID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

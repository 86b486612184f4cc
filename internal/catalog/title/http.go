// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

/*
Package title provides the HTTP interface for the title catalogue.

# Routing Strategy

  - Public (v1): Discovery endpoints accessible to all visitors.
  - Restricted (v1): Catalogue management requiring the Moderator role.
  - Authenticated (v1): Per-user rating endpoints.
*/
package title

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mangetsu/mangetsu/internal/platform/middleware"
	requestutil "github.com/mangetsu/mangetsu/internal/platform/request"
	"github.com/mangetsu/mangetsu/internal/platform/respond"
	"github.com/mangetsu/mangetsu/internal/platform/sec"
	"github.com/mangetsu/mangetsu/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for the title catalogue.
type Handler struct {
	service *Service
}

// NewHandler constructs a new title [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches title endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	// Discovery endpoints
	api.Get("/titles", handler.ListTitles)
	api.Get("/titles/{slug}", handler.GetTitle)

	// Catalogue management
	api.Group(func(staff chi.Router) {
		staff.Use(middleware.RequireRole(sec.RoleModerator))
		staff.Post("/titles", handler.CreateTitle)
		staff.Put("/titles/{id}", handler.UpdateTitle)
		staff.Put("/titles/{id}/status", handler.UpdateStatus)
	})

	// Rating interactions
	api.Group(func(user chi.Router) {
		user.Use(middleware.RequireAuth)
		user.Put("/titles/{id}/rating", handler.RateTitle)
		user.Delete("/titles/{id}/rating", handler.UnrateTitle)
		user.Get("/titles/{id}/rating", handler.GetOwnRating)
	})
}

// # Discovery

/*
GET /api/v1/titles.

Response:
  - 200: []Title: Paginated catalogue page
*/
func (handler *Handler) ListTitles(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	titles, total, err := handler.service.ListTitles(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, titles, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/titles/{slug}.

Response:
  - 200: Detail: Title with aggregate rating
  - 404: Title not found
*/
func (handler *Handler) GetTitle(writer http.ResponseWriter, request *http.Request) {
	detail, err := handler.service.GetTitle(request.Context(), requestutil.Param(request, "slug"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, detail)
}

// # Management

// createTitleRequest is the JSON payload for title creation and update.
type createTitleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ReleaseYear *int   `json:"release_year"`
	Type        string `json:"type"`
	AgeRating   string `json:"age_rating"`
	Licensed    bool   `json:"licensed"`
}

/*
POST /api/v1/titles. Requires the Moderator role.

Response:
  - 201: Title: The created entity
  - 409: Duplicate name or slug
*/
func (handler *Handler) CreateTitle(writer http.ResponseWriter, request *http.Request) {
	var payload createTitleRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	title := &Title{
		Name:        payload.Name,
		Description: payload.Description,
		ReleaseYear: payload.ReleaseYear,
		Type:        Type(payload.Type),
		AgeRating:   AgeRating(payload.AgeRating),
		Licensed:    payload.Licensed,
	}

	if err := handler.service.CreateTitle(request.Context(), title); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, title)
}

/*
PUT /api/v1/titles/{id}. Requires the Moderator role.

Response:
  - 200: Title: The updated entity
  - 404: Title not found
*/
func (handler *Handler) UpdateTitle(writer http.ResponseWriter, request *http.Request) {
	var payload createTitleRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	title := &Title{
		ID:          requestutil.Param(request, "id"),
		Description: payload.Description,
		ReleaseYear: payload.ReleaseYear,
		Type:        Type(payload.Type),
		AgeRating:   AgeRating(payload.AgeRating),
		Licensed:    payload.Licensed,
	}

	if err := handler.service.UpdateTitle(request.Context(), title); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, title)
}

// updateStatusRequest is the JSON payload for status transitions.
type updateStatusRequest struct {
	Status string `json:"status"`
}

/*
PUT /api/v1/titles/{id}/status. Requires the Moderator role.

Description: Persists the new status and fans the change out to all
title-wide subscribers through the notification pipeline.

Response:
  - 204: Status updated
  - 404: Title not found
*/
func (handler *Handler) UpdateStatus(writer http.ResponseWriter, request *http.Request) {
	var payload updateStatusRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	titleID := requestutil.Param(request, "id")
	if err := handler.service.UpdateStatus(request.Context(), titleID, Status(payload.Status)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Ratings

// rateTitleRequest is the JSON payload for rating a title.
type rateTitleRequest struct {
	Mark int `json:"mark"`
}

/*
PUT /api/v1/titles/{id}/rating. Requires authentication.

Response:
  - 204: Mark recorded (replacing any previous mark)
  - 404: Title not found
*/
func (handler *Handler) RateTitle(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload rateTitleRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	titleID := requestutil.Param(request, "id")
	if err := handler.service.RateTitle(request.Context(), claims.UserID, titleID, payload.Mark); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// DELETE /api/v1/titles/{id}/rating. Requires authentication.
func (handler *Handler) UnrateTitle(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	titleID := requestutil.Param(request, "id")
	if err := handler.service.UnrateTitle(request.Context(), claims.UserID, titleID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// GET /api/v1/titles/{id}/rating. Requires authentication.
func (handler *Handler) GetOwnRating(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	titleID := requestutil.Param(request, "id")
	mark, err := handler.service.GetOwnRating(request.Context(), claims.UserID, titleID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]int{"mark": mark})
}

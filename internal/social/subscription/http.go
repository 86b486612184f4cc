// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package subscription

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mangetsu/mangetsu/internal/platform/middleware"
	requestutil "github.com/mangetsu/mangetsu/internal/platform/request"
	"github.com/mangetsu/mangetsu/internal/platform/respond"
	"github.com/mangetsu/mangetsu/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for subscriptions.
type Handler struct {
	service *Service
}

// NewHandler constructs a new subscription [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches subscription endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Group(func(user chi.Router) {
		user.Use(middleware.RequireAuth)
		user.Get("/subscriptions", handler.List)
		user.Post("/subscriptions", handler.Subscribe)
		user.Delete("/subscriptions", handler.Unsubscribe)
	})
}

// GET /api/v1/subscriptions.
func (handler *Handler) List(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	subscriptions, total, err := handler.service.ListSubscriptions(request.Context(), claims.UserID, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, subscriptions, pagination.NewMeta(params.Page, params.Limit, total))
}

type subscribeRequest struct {
	TitleID string  `json:"title_id"`
	TeamID  *string `json:"team_id"`
}

// POST /api/v1/subscriptions.
func (handler *Handler) Subscribe(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload subscribeRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	subscription, err := handler.service.Subscribe(request.Context(), claims.UserID, payload.TitleID, payload.TeamID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, subscription)
}

// DELETE /api/v1/subscriptions. The body names the (title, team) pair.
func (handler *Handler) Unsubscribe(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload subscribeRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Unsubscribe(request.Context(), claims.UserID, payload.TitleID, payload.TeamID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

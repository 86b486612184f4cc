// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

/*
Package notification provides the HTTP interface for notification inboxes.

All endpoints operate on the authenticated user's own inbox; there is no
cross-user access.
*/
package notification

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mangetsu/mangetsu/internal/platform/middleware"
	requestutil "github.com/mangetsu/mangetsu/internal/platform/request"
	"github.com/mangetsu/mangetsu/internal/platform/respond"
	"github.com/mangetsu/mangetsu/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for notification inboxes.
type Handler struct {
	service *Service
}

// NewHandler constructs a new notification [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches inbox endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Group(func(user chi.Router) {
		user.Use(middleware.RequireAuth)
		user.Get("/notifications", handler.List)
		user.Put("/notifications/{id}/read", handler.MarkRead)
		user.Delete("/notifications/{id}", handler.Delete)
		user.Delete("/notifications/read", handler.DeleteRead)
	})
}

// GET /api/v1/notifications.
func (handler *Handler) List(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	notifications, total, err := handler.service.ListInbox(request.Context(), claims.UserID, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, notifications, pagination.NewMeta(params.Page, params.Limit, total))
}

// PUT /api/v1/notifications/{id}/read.
func (handler *Handler) MarkRead(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.MarkRead(request.Context(), claims.UserID, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// DELETE /api/v1/notifications/{id}.
func (handler *Handler) Delete(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), claims.UserID, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// DELETE /api/v1/notifications/read. Clears every read notification.
func (handler *Handler) DeleteRead(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	removed, err := handler.service.DeleteRead(request.Context(), claims.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]int{"removed": removed})
}

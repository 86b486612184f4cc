// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package list

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mangetsu/mangetsu/internal/platform/middleware"
	requestutil "github.com/mangetsu/mangetsu/internal/platform/request"
	"github.com/mangetsu/mangetsu/internal/platform/respond"
	"github.com/mangetsu/mangetsu/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for reading lists.
type Handler struct {
	service *Service
}

// NewHandler constructs a new list [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches list endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Get("/users/{userID}/lists", handler.ListByUser)
	api.Get("/lists/{id}/titles", handler.ListTitles)

	api.Group(func(user chi.Router) {
		user.Use(middleware.RequireAuth)
		user.Post("/lists", handler.Create)
		user.Put("/lists/{id}", handler.Update)
		user.Delete("/lists/{id}", handler.Delete)
		user.Put("/lists/{id}/titles/{titleID}", handler.AddTitle)
		user.Delete("/lists/{id}/titles/{titleID}", handler.RemoveTitle)
	})
}

// GET /api/v1/users/{userID}/lists. Hidden lists only show for the owner
// or a moderator.
func (handler *Handler) ListByUser(writer http.ResponseWriter, request *http.Request) {
	lists, err := handler.service.ListUserLists(
		request.Context(), requestutil.Param(request, "userID"), requestutil.Claims(request),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, lists)
}

// GET /api/v1/lists/{id}/titles.
func (handler *Handler) ListTitles(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	titles, total, err := handler.service.GetListTitles(
		request.Context(), requestutil.Param(request, "id"), requestutil.Claims(request),
		params.Limit, params.Offset(),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, titles, pagination.NewMeta(params.Page, params.Limit, total))
}

// POST /api/v1/lists.
func (handler *Handler) Create(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input ListInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	list, err := handler.service.CreateList(request.Context(), claims.UserID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, list)
}

// PUT /api/v1/lists/{id}.
func (handler *Handler) Update(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input ListInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	list, err := handler.service.UpdateList(request.Context(), claims, requestutil.Param(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, list)
}

// DELETE /api/v1/lists/{id}.
func (handler *Handler) Delete(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteList(request.Context(), claims, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// PUT /api/v1/lists/{id}/titles/{titleID}.
func (handler *Handler) AddTitle(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.service.AddTitle(
		request.Context(), claims,
		requestutil.Param(request, "id"), requestutil.Param(request, "titleID"),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// DELETE /api/v1/lists/{id}/titles/{titleID}.
func (handler *Handler) RemoveTitle(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.service.RemoveTitle(
		request.Context(), claims,
		requestutil.Param(request, "id"), requestutil.Param(request, "titleID"),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

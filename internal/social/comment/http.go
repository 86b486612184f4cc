// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package comment

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mangetsu/mangetsu/internal/platform/middleware"
	requestutil "github.com/mangetsu/mangetsu/internal/platform/request"
	"github.com/mangetsu/mangetsu/internal/platform/respond"
	"github.com/mangetsu/mangetsu/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for discussion threads.
type Handler struct {
	service *Service
}

// NewHandler constructs a new comment [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches comment endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Get("/titles/{titleID}/comments", handler.ListByTitle)

	api.Group(func(user chi.Router) {
		user.Use(middleware.RequireAuth)
		user.Post("/comments", handler.Create)
		user.Delete("/comments/{id}", handler.Delete)
		user.Put("/comments/{id}/vote", handler.Vote)
		user.Delete("/comments/{id}/vote", handler.Unvote)
	})
}

// GET /api/v1/titles/{titleID}/comments.
func (handler *Handler) ListByTitle(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	comments, total, err := handler.service.ListComments(
		request.Context(), requestutil.Param(request, "titleID"),
		params.Limit, params.Offset(),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, comments, pagination.NewMeta(params.Page, params.Limit, total))
}

// POST /api/v1/comments.
func (handler *Handler) Create(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CommentInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	comment, err := handler.service.CreateComment(request.Context(), claims.UserID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, comment)
}

// DELETE /api/v1/comments/{id}.
func (handler *Handler) Delete(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteComment(request.Context(), claims, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

type voteRequest struct {
	Vote int16 `json:"vote"`
}

// PUT /api/v1/comments/{id}/vote.
func (handler *Handler) Vote(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload voteRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.service.VoteComment(request.Context(), claims.UserID, requestutil.Param(request, "id"), payload.Vote)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// DELETE /api/v1/comments/{id}/vote.
func (handler *Handler) Unvote(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.service.UnvoteComment(request.Context(), claims.UserID, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

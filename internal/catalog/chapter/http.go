// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

/*
Package chapter provides the HTTP interface for chapter reading and
publication.

# Routing Strategy

  - Public (v1): Chapter lists and reader pages.
  - Authenticated (v1): Publication endpoints (multipart archive upload)
    and like interactions. Team-level authorization (admin or uploader
    role) is enforced in the service layer.
*/
package chapter

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mangetsu/mangetsu/internal/platform/apperr"
	"github.com/mangetsu/mangetsu/internal/platform/constants"
	"github.com/mangetsu/mangetsu/internal/platform/middleware"
	requestutil "github.com/mangetsu/mangetsu/internal/platform/request"
	"github.com/mangetsu/mangetsu/internal/platform/respond"
	"github.com/mangetsu/mangetsu/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for chapters.
type Handler struct {
	service *Service
}

// NewHandler constructs a new chapter [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches chapter endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	// Reader endpoints
	api.Get("/titles/{titleID}/chapters", handler.ListChapters)
	api.Get("/chapters/{id}", handler.GetChapter)

	// Publication and interactions
	api.Group(func(user chi.Router) {
		user.Use(middleware.RequireAuth)
		user.Post("/chapters", handler.Publish)
		user.Put("/chapters/{id}", handler.Republish)
		user.Delete("/chapters/{id}", handler.Retract)
		user.Put("/chapters/{id}/like", handler.Like)
		user.Delete("/chapters/{id}/like", handler.Unlike)
	})
}

// # Reading

// GET /api/v1/titles/{titleID}/chapters.
func (handler *Handler) ListChapters(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	titleID := requestutil.Param(request, "titleID")

	chapters, total, err := handler.service.ListChapters(request.Context(), titleID, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, chapters, pagination.NewMeta(params.Page, params.Limit, total))
}

// chapterResponse is the reader payload: metadata plus ordered pages.
type chapterResponse struct {
	Chapter *Chapter `json:"chapter"`
	Pages   []*Image `json:"pages"`
}

/*
GET /api/v1/chapters/{id}.

Response:
  - 200: chapterResponse: Metadata with pages in reading order
  - 404: Chapter missing or not published
*/
func (handler *Handler) GetChapter(writer http.ResponseWriter, request *http.Request) {
	chapter, pages, err := handler.service.GetChapter(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, chapterResponse{Chapter: chapter, Pages: pages})
}

// # Publication

/*
POST /api/v1/chapters. Requires authentication; multipart form.

Request (multipart/form-data):
  - title_id: string (UUID)
  - team_id: string (UUID)
  - name: string (Optional chapter title)
  - volume_number: int
  - chapter_number: float
  - archive: file (ZIP of page images)

Response:
  - 201: {chapter_id}: Accepted for publication; pages upload in background
  - 403: Not a team uploader, or the title is licensed
  - 409: Duplicate (title, team, volume, number)
  - 422: Archive validation failure with a discriminated code
*/
func (handler *Handler) Publish(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	input, err := parsePublishForm(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	chapter, err := handler.service.Publish(request.Context(), claims.UserID, *input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]string{"chapter_id": chapter.ID})
}

/*
PUT /api/v1/chapters/{id}. Requires authentication; multipart form with a
replacement archive.

Response:
  - 202: Replacement scheduled; chapter hidden until it completes
  - 409: Chapter is not currently published
*/
func (handler *Handler) Republish(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	payload, err := readArchiveFile(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	chapterID := requestutil.Param(request, "id")
	if err := handler.service.Republish(request.Context(), claims.UserID, chapterID, payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Accepted(writer, map[string]string{"chapter_id": chapterID})
}

/*
DELETE /api/v1/chapters/{id}. Requires authentication.

Response:
  - 202: Retraction scheduled; chapter hidden immediately
  - 409: Chapter is not currently published
*/
func (handler *Handler) Retract(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	chapterID := requestutil.Param(request, "id")
	if err := handler.service.Retract(request.Context(), claims.UserID, chapterID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Accepted(writer, map[string]string{"chapter_id": chapterID})
}

// # Likes

// PUT /api/v1/chapters/{id}/like.
func (handler *Handler) Like(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.LikeChapter(request.Context(), claims.UserID, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// DELETE /api/v1/chapters/{id}/like.
func (handler *Handler) Unlike(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.UnlikeChapter(request.Context(), claims.UserID, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Form Parsing

// parsePublishForm decodes the multipart submission into a PublishInput.
func parsePublishForm(request *http.Request) (*PublishInput, error) {
	if err := request.ParseMultipartForm(constants.MaxArchiveBytes); err != nil {
		return nil, apperr.ValidationError("Request is not a valid multipart form")
	}

	volumeNumber, err := strconv.Atoi(request.FormValue("volume_number"))
	if err != nil {
		return nil, apperr.ValidationError("volume_number must be an integer")
	}
	chapterNumber, err := strconv.ParseFloat(request.FormValue("chapter_number"), 64)
	if err != nil {
		return nil, apperr.ValidationError("chapter_number must be a number")
	}

	payload, err := readArchiveFile(request)
	if err != nil {
		return nil, err
	}

	return &PublishInput{
		TitleID:       request.FormValue("title_id"),
		TeamID:        request.FormValue("team_id"),
		Name:          request.FormValue("name"),
		VolumeNumber:  volumeNumber,
		ChapterNumber: chapterNumber,
		Archive:       payload,
	}, nil
}

// readArchiveFile loads the "archive" form file, bounded by the archive
// size ceiling.
func readArchiveFile(request *http.Request) ([]byte, error) {
	if request.MultipartForm == nil {
		if err := request.ParseMultipartForm(constants.MaxArchiveBytes); err != nil {
			return nil, apperr.ValidationError("Request is not a valid multipart form")
		}
	}

	file, _, err := request.FormFile("archive")
	if err != nil {
		return nil, apperr.ValidationError("An archive file is required")
	}
	defer file.Close()

	payload, err := io.ReadAll(io.LimitReader(file, constants.MaxArchiveBytes+1))
	if err != nil {
		return nil, apperr.ValidationError("Archive could not be read")
	}
	if int64(len(payload)) > constants.MaxArchiveBytes {
		return nil, apperr.Unprocessable("Archive exceeds the size limit")
	}
	return payload, nil
}

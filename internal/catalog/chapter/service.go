// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package chapter

import (
	"context"
	"log/slog"

	"github.com/mangetsu/mangetsu/internal/catalog/team"
	"github.com/mangetsu/mangetsu/internal/catalog/title"
	"github.com/mangetsu/mangetsu/internal/ingest/blob"
	"github.com/mangetsu/mangetsu/internal/platform/apperr"
	"github.com/mangetsu/mangetsu/internal/platform/jobs"
)

// # Collaborator Contracts

// TitleStore is the slice of the title repository the chapter flow needs.
type TitleStore interface {
	FindByID(ctx context.Context, id string) (*title.Title, error)
}

// TeamStore resolves a user's membership for publication authorization.
type TeamStore interface {
	FindParticipant(ctx context.Context, userID, teamID string) (*team.Participant, error)
}

// Notifier delivers the direct (non-fan-out) pipeline notifications to the
// acting uploader.
type Notifier interface {
	ChapterUploadSucceeded(ctx context.Context, userID, titleID, chapterID string) error
	ChapterUploadFailed(ctx context.Context, userID, titleID string) error
	ChapterUpdateSucceeded(ctx context.Context, userID, titleID, chapterID string) error
	ChapterUpdateFailed(ctx context.Context, userID, titleID, chapterID string) error
}

// # Service Layer

// Service orchestrates chapter reads, likes, and the publication pipeline.
type Service struct {
	chapterRepo Repository
	titleStore  TitleStore
	teamStore   TeamStore
	blobStore   blob.Store
	dispatcher  jobs.Dispatcher
	notifier    Notifier
	logger      *slog.Logger
}

// NewService constructs a new [Service] with its collaborators.
func NewService(
	chapterRepo Repository,
	titleStore TitleStore,
	teamStore TeamStore,
	blobStore blob.Store,
	dispatcher jobs.Dispatcher,
	notifier Notifier,
	logger *slog.Logger,
) *Service {
	return &Service{
		chapterRepo: chapterRepo,
		titleStore:  titleStore,
		teamStore:   teamStore,
		blobStore:   blobStore,
		dispatcher:  dispatcher,
		notifier:    notifier,
		logger:      logger,
	}
}

// # Reads

/*
ListChapters retrieves the published chapters of a title.

Parameters:
  - context: context.Context
  - titleID: string (UUID)
  - limit: int
  - offset: int

Returns:
  - []*Chapter: Published chapters, newest release first
  - int: Total published chapter count
  - error: Storage failures
*/
func (service *Service) ListChapters(context context.Context, titleID string, limit, offset int) ([]*Chapter, int, error) {
	return service.chapterRepo.ListByTitle(context, titleID, limit, offset)
}

/*
GetChapter retrieves a published chapter with its pages in reading order.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - *Chapter: The chapter metadata
  - []*Image: Pages ordered by position
  - error: apperr.NotFound for missing or unpublished chapters
*/
func (service *Service) GetChapter(context context.Context, id string) (*Chapter, []*Image, error) {
	chapter, err := service.chapterRepo.FindByID(context, id)
	if err != nil {
		return nil, nil, err
	}

	// Unpublished chapters are invisible to readers.
	if !chapter.IsPublished {
		return nil, nil, apperr.NotFound("chapter")
	}

	images, err := service.chapterRepo.ListImages(context, id)
	if err != nil {
		return nil, nil, err
	}
	return chapter, images, nil
}

// # Likes

// LikeChapter records the acting user's like. Liking twice is a no-op.
func (service *Service) LikeChapter(context context.Context, userID, chapterID string) error {
	return service.chapterRepo.Like(context, userID, chapterID)
}

// UnlikeChapter removes the acting user's like. Removing a missing like succeeds.
func (service *Service) UnlikeChapter(context context.Context, userID, chapterID string) error {
	return service.chapterRepo.Unlike(context, userID, chapterID)
}

// # Authorization

// authorizeRelease permits team admins and uploaders to publish for the team.
func (service *Service) authorizeRelease(context context.Context, userID, teamID string) error {
	participant, err := service.teamStore.FindParticipant(context, userID, teamID)
	if err != nil {
		return apperr.Forbidden("You are not a member of this team")
	}
	if !participant.HasRole(team.RoleAdmin) && !participant.HasRole(team.RoleUploader) {
		return apperr.Forbidden("You may not publish chapters for this team")
	}
	return nil
}

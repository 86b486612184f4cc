// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package title

import (
	"context"
	"log/slog"

	"github.com/mangetsu/mangetsu/internal/platform/jobs"
	"github.com/mangetsu/mangetsu/internal/platform/validate"
	"github.com/mangetsu/mangetsu/pkg/slug"
	"github.com/mangetsu/mangetsu/pkg/uuid"
)

const (
	FieldName      = "name"
	FieldType      = "type"
	FieldStatus    = "status"
	FieldAgeRating = "age_rating"
	FieldMark      = "mark"
)

// # Service Layer

// Service orchestrates the business logic for the title catalogue.
type Service struct {
	titleRepo  Repository
	dispatcher jobs.Dispatcher
	logger     *slog.Logger
}

// NewService constructs a new [Service].
func NewService(titleRepo Repository, dispatcher jobs.Dispatcher, logger *slog.Logger) *Service {
	return &Service{
		titleRepo:  titleRepo,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// # Catalogue Reads

/*
ListTitles retrieves a page of the catalogue.

Parameters:
  - context: context.Context
  - limit: int
  - offset: int

Returns:
  - []*Title: Titles ordered newest first
  - int: Total catalogue size
  - error: Storage failures
*/
func (service *Service) ListTitles(context context.Context, limit, offset int) ([]*Title, int, error) {
	return service.titleRepo.List(context, limit, offset)
}

/*
GetTitle retrieves a single title by slug, including its rating summary.

Description: The rating average is computed from the stored histogram;
the read path never recomputes or rewrites any counter.

Parameters:
  - context: context.Context
  - titleSlug: string

Returns:
  - *Detail: Title with aggregate rating
  - error: apperr.NotFound if missing
*/
func (service *Service) GetTitle(context context.Context, titleSlug string) (*Detail, error) {
	title, err := service.titleRepo.FindBySlug(context, titleSlug)
	if err != nil {
		return nil, err
	}

	summary, err := service.titleRepo.RatingSummary(context, title.ID)
	if err != nil {
		return nil, err
	}

	return &Detail{Title: *title, Rating: summary}, nil
}

// # Catalogue Management

/*
CreateTitle registers a new series in the catalogue.

Parameters:
  - context: context.Context
  - title: *Title (Name, Description, Type, AgeRating, Licensed)

Returns:
  - error: Validation or persistence errors
*/
func (service *Service) CreateTitle(context context.Context, title *Title) error {
	if title.ID == "" {
		title.ID = uuid.New()
	}
	title.Slug = slug.From(title.Name)
	if title.Status == "" {
		title.Status = StatusAnnouncement
	}
	if title.AgeRating == "" {
		title.AgeRating = AgeRatingEveryone
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, title.Name)
	validator.MaxLen(FieldName, title.Name, 255)
	validator.OneOf(FieldType, string(title.Type),
		string(TypeManga), string(TypeManhwa), string(TypeManhua))
	validator.OneOf(FieldAgeRating, string(title.AgeRating),
		string(AgeRatingEveryone), string(AgeRatingYouth), string(AgeRatingTeen),
		string(AgeRatingOlderTeen), string(AgeRatingMature))

	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.titleRepo.Create(context, title); err != nil {
		return err
	}

	service.logger.Info("title_created",
		slog.String("title_id", title.ID),
		slog.String("slug", title.Slug),
	)
	return nil
}

/*
UpdateTitle persists editable metadata changes.

Parameters:
  - context: context.Context
  - title: *Title

Returns:
  - error: Validation or persistence errors
*/
func (service *Service) UpdateTitle(context context.Context, title *Title) error {
	validator := &validate.Validator{}
	validator.UUID("id", title.ID)
	validator.OneOf(FieldType, string(title.Type),
		string(TypeManga), string(TypeManhwa), string(TypeManhua))

	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.titleRepo.Update(context, title); err != nil {
		return err
	}

	service.logger.Info("title_updated", slog.String("title_id", title.ID))
	return nil
}

/*
UpdateStatus moves a title to a new lifecycle status and fans the change
out to every title-wide subscriber.

Description: The fan-out is an explicit consequence of this operation, not
a storage-layer side effect; callers that need a silent status write do not
exist by design of this API.

Parameters:
  - context: context.Context
  - titleID: string (UUID)
  - status: Status

Returns:
  - error: Validation, persistence, or enqueue errors
*/
func (service *Service) UpdateStatus(context context.Context, titleID string, status Status) error {
	validator := &validate.Validator{}
	validator.UUID("id", titleID)
	validator.OneOf(FieldStatus, string(status),
		string(StatusAnnouncement), string(StatusOngoing), string(StatusFinished),
		string(StatusSuspended), string(StatusStopped))

	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.titleRepo.UpdateStatus(context, titleID, status); err != nil {
		return err
	}

	if err := service.dispatcher.Enqueue(context, jobs.NotifyStatusChanged, jobs.StatusChangedArgs{TitleID: titleID}, 0); err != nil {
		return err
	}

	service.logger.Info("title_status_changed",
		slog.String("title_id", titleID),
		slog.String("status", string(status)),
	)
	return nil
}

// # Ratings

/*
RateTitle records the acting user's mark for a title.

Description: Replace semantics; a second rating by the same user moves the
previous mark's histogram bucket rather than accumulating.

Parameters:
  - context: context.Context
  - userID: string (Actor)
  - titleID: string (UUID)
  - mark: int (1..10)

Returns:
  - error: Validation or persistence errors
*/
func (service *Service) RateTitle(context context.Context, userID, titleID string, mark int) error {
	validator := &validate.Validator{}
	validator.UUID("id", titleID)
	validator.Range(FieldMark, mark, 1, 10)

	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.titleRepo.SetRating(context, userID, titleID, mark); err != nil {
		return err
	}

	service.logger.Info("title_rated",
		slog.String("title_id", titleID),
		slog.String("user_id", userID),
		slog.Int("mark", mark),
	)
	return nil
}

// UnrateTitle removes the acting user's mark. Removing a missing mark succeeds.
func (service *Service) UnrateTitle(context context.Context, userID, titleID string) error {
	return service.titleRepo.ClearRating(context, userID, titleID)
}

// GetOwnRating returns the acting user's mark for a title, 0 when unrated.
func (service *Service) GetOwnRating(context context.Context, userID, titleID string) (int, error) {
	return service.titleRepo.GetUserRating(context, userID, titleID)
}

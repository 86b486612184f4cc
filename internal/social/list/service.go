// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package list

import (
	"context"
	"log/slog"

	"github.com/mangetsu/mangetsu/internal/catalog/title"
	"github.com/mangetsu/mangetsu/internal/platform/apperr"
	"github.com/mangetsu/mangetsu/internal/platform/sec"
	"github.com/mangetsu/mangetsu/internal/platform/validate"
	"github.com/mangetsu/mangetsu/pkg/uuid"
)

const (
	FieldName    = "name"
	FieldTitleID = "title_id"

	maxListNameLength = 100
)

// # Service Layer

// Service orchestrates reading list management.
type Service struct {
	listRepo Repository
	logger   *slog.Logger
}

// NewService constructs a new [Service].
func NewService(listRepo Repository, logger *slog.Logger) *Service {
	return &Service{
		listRepo: listRepo,
		logger:   logger,
	}
}

// # Reads

/*
ListUserLists retrieves a user's lists as seen by the given viewer.

Description: Hidden lists are visible to their owner and to moderators,
never to anyone else.

Parameters:
  - context: context.Context
  - ownerID: string (UUID of the lists' owner)
  - viewer: *sec.AuthClaims (nil for anonymous visitors)

Returns:
  - []*List: Visible lists, newest first
  - error: Storage failures
*/
func (service *Service) ListUserLists(context context.Context, ownerID string, viewer *sec.AuthClaims) ([]*List, error) {
	includeHidden := viewer != nil &&
		(viewer.UserID == ownerID || sec.UserRole(viewer.Role).AtLeast(sec.RoleModerator))
	return service.listRepo.ListByUser(context, ownerID, includeHidden)
}

/*
GetListTitles retrieves a page of a list's member titles.

Parameters:
  - context: context.Context
  - listID: string (UUID)
  - viewer: *sec.AuthClaims (nil for anonymous visitors)
  - limit: int
  - offset: int

Returns:
  - []*title.Title: Member titles
  - int: Total member count
  - error: apperr.NotFound when the list is missing or hidden from the
    viewer
*/
func (service *Service) GetListTitles(context context.Context, listID string, viewer *sec.AuthClaims, limit, offset int) ([]*title.Title, int, error) {
	list, err := service.listRepo.FindByID(context, listID)
	if err != nil {
		return nil, 0, err
	}

	// A hidden list is indistinguishable from a missing one to outsiders.
	if list.Hidden {
		visible := viewer != nil &&
			(viewer.UserID == list.UserID || sec.UserRole(viewer.Role).AtLeast(sec.RoleModerator))
		if !visible {
			return nil, 0, apperr.NotFound("list")
		}
	}

	return service.listRepo.ListTitles(context, listID, limit, offset)
}

// # Writes

// ListInput carries the mutable fields of a list.
type ListInput struct {
	Name   string `json:"name"`
	Hidden bool   `json:"hidden"`
}

/*
CreateList creates an empty list for the actor.

Parameters:
  - context: context.Context
  - actorID: string (UUID)
  - input: ListInput

Returns:
  - *List: The created list
  - error: Validation failures, apperr.Conflict on a duplicate name
*/
func (service *Service) CreateList(context context.Context, actorID string, input ListInput) (*List, error) {
	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name)
	validator.MaxLen(FieldName, input.Name, maxListNameLength)
	if validator.HasErrors() {
		return nil, validator.Err()
	}

	list := &List{
		ID:     uuid.New(),
		UserID: actorID,
		Name:   input.Name,
		Hidden: input.Hidden,
	}
	if err := service.listRepo.Create(context, list); err != nil {
		return nil, err
	}

	service.logger.Info("list_created",
		slog.String("list_id", list.ID),
		slog.String("user_id", actorID),
	)
	return list, nil
}

/*
UpdateList renames a list and/or toggles its visibility.

Parameters:
  - context: context.Context
  - actor: *sec.AuthClaims
  - listID: string (UUID)
  - input: ListInput

Returns:
  - *List: The updated list
  - error: apperr.NotFound, apperr.Forbidden for non-owners,
    apperr.Conflict on a duplicate name
*/
func (service *Service) UpdateList(context context.Context, actor *sec.AuthClaims, listID string, input ListInput) (*List, error) {
	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name)
	validator.MaxLen(FieldName, input.Name, maxListNameLength)
	if validator.HasErrors() {
		return nil, validator.Err()
	}

	list, err := service.requireOwned(context, actor, listID)
	if err != nil {
		return nil, err
	}

	list.Name = input.Name
	list.Hidden = input.Hidden
	if err := service.listRepo.Update(context, list); err != nil {
		return nil, err
	}
	return list, nil
}

/*
DeleteList removes a list and releases its member titles' counters.

Parameters:
  - context: context.Context
  - actor: *sec.AuthClaims
  - listID: string (UUID)

Returns:
  - error: apperr.NotFound, apperr.Forbidden for non-owners
*/
func (service *Service) DeleteList(context context.Context, actor *sec.AuthClaims, listID string) error {
	if _, err := service.requireOwned(context, actor, listID); err != nil {
		return err
	}
	return service.listRepo.Delete(context, listID)
}

/*
AddTitle puts a title into one of the actor's lists.

Parameters:
  - context: context.Context
  - actor: *sec.AuthClaims
  - listID: string (UUID)
  - titleID: string (UUID)

Returns:
  - error: Validation failures, apperr.NotFound, apperr.Forbidden for
    non-owners, apperr.Conflict when the title is already a member
*/
func (service *Service) AddTitle(context context.Context, actor *sec.AuthClaims, listID, titleID string) error {
	validator := &validate.Validator{}
	validator.UUID(FieldTitleID, titleID)
	if validator.HasErrors() {
		return validator.Err()
	}

	if _, err := service.requireOwned(context, actor, listID); err != nil {
		return err
	}
	return service.listRepo.AddTitle(context, listID, titleID)
}

/*
RemoveTitle takes a title out of one of the actor's lists.

Parameters:
  - context: context.Context
  - actor: *sec.AuthClaims
  - listID: string (UUID)
  - titleID: string (UUID)

Returns:
  - error: apperr.NotFound, apperr.Forbidden for non-owners
*/
func (service *Service) RemoveTitle(context context.Context, actor *sec.AuthClaims, listID, titleID string) error {
	if _, err := service.requireOwned(context, actor, listID); err != nil {
		return err
	}
	return service.listRepo.RemoveTitle(context, listID, titleID)
}

// requireOwned loads a list and verifies the actor may modify it.
// Moderators may modify any list.
func (service *Service) requireOwned(context context.Context, actor *sec.AuthClaims, listID string) (*List, error) {
	list, err := service.listRepo.FindByID(context, listID)
	if err != nil {
		return nil, err
	}
	if list.UserID != actor.UserID && !sec.UserRole(actor.Role).AtLeast(sec.RoleModerator) {
		return nil, apperr.Forbidden("You do not own this list")
	}
	return list, nil
}

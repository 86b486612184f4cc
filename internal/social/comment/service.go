// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package comment

import (
	"context"
	"log/slog"

	"github.com/mangetsu/mangetsu/internal/platform/apperr"
	"github.com/mangetsu/mangetsu/internal/platform/jobs"
	"github.com/mangetsu/mangetsu/internal/platform/sec"
	"github.com/mangetsu/mangetsu/internal/platform/validate"
	"github.com/mangetsu/mangetsu/pkg/uuid"
)

const (
	FieldTitleID   = "title_id"
	FieldReplyToID = "reply_to_id"
	FieldBody      = "body"
	FieldVote      = "vote"

	maxCommentBodyLength = 5000
)

// # Service Layer

// Service orchestrates title discussion threads.
type Service struct {
	commentRepo Repository
	dispatcher  jobs.Dispatcher
	logger      *slog.Logger
}

// NewService constructs a new [Service].
func NewService(commentRepo Repository, dispatcher jobs.Dispatcher, logger *slog.Logger) *Service {
	return &Service{
		commentRepo: commentRepo,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// ListComments retrieves a page of a title's thread, oldest first.
func (service *Service) ListComments(context context.Context, titleID string, limit, offset int) ([]*Comment, int, error) {
	return service.commentRepo.ListByTitle(context, titleID, limit, offset)
}

// CommentInput carries the fields of a new comment.
type CommentInput struct {
	TitleID   string  `json:"title_id"`
	ReplyToID *string `json:"reply_to_id"`
	Body      string  `json:"body"`
}

/*
CreateComment posts a comment, optionally as a reply.

Description: A reply schedules a CommentReply notification job. The job
handler resolves the parent at delivery time and skips self-replies and
orphaned parents, so the post itself never fails on notification
grounds.

Parameters:
  - context: context.Context
  - actorID: string (UUID)
  - input: CommentInput

Returns:
  - *Comment: The created comment
  - error: Validation failures, apperr.NotFound when the title or parent
    is missing
*/
func (service *Service) CreateComment(context context.Context, actorID string, input CommentInput) (*Comment, error) {
	validator := &validate.Validator{}
	validator.UUID(FieldTitleID, input.TitleID)
	validator.Required(FieldBody, input.Body)
	validator.MaxLen(FieldBody, input.Body, maxCommentBodyLength)
	if input.ReplyToID != nil {
		validator.UUID(FieldReplyToID, *input.ReplyToID)
	}
	if validator.HasErrors() {
		return nil, validator.Err()
	}

	comment := &Comment{
		ID:        uuid.New(),
		TitleID:   input.TitleID,
		UserID:    &actorID,
		ReplyToID: input.ReplyToID,
		Body:      input.Body,
	}
	if err := service.commentRepo.Create(context, comment); err != nil {
		return nil, err
	}

	if input.ReplyToID != nil {
		err := service.dispatcher.Enqueue(context, jobs.NotifyCommentReply, jobs.CommentReplyArgs{
			CommentID: comment.ID,
			ActorID:   actorID,
		}, 0)
		if err != nil {
			// The comment is already posted; a lost notification is not
			// worth failing the request over.
			service.logger.Error("reply_notification_enqueue_failed",
				slog.String("comment_id", comment.ID),
				slog.Any("error", err),
			)
		}
	}

	return comment, nil
}

/*
VoteComment records a ±1 vote, replacing any opposite vote.

Parameters:
  - context: context.Context
  - actorID: string (UUID)
  - commentID: string (UUID)
  - vote: int16 (VoteUp or VoteDown)

Returns:
  - error: Validation failures, apperr.Conflict on a repeat vote,
    apperr.NotFound when the comment is missing
*/
func (service *Service) VoteComment(context context.Context, actorID, commentID string, vote int16) error {
	validator := &validate.Validator{}
	validator.Custom(FieldVote, vote != VoteUp && vote != VoteDown, "Vote must be 1 or -1")
	if validator.HasErrors() {
		return validator.Err()
	}

	return service.commentRepo.Vote(context, actorID, commentID, vote)
}

// UnvoteComment removes the actor's vote from a comment.
func (service *Service) UnvoteComment(context context.Context, actorID, commentID string) error {
	return service.commentRepo.Unvote(context, actorID, commentID)
}

/*
DeleteComment soft-deletes a comment.

Description: Only the author or a moderator may delete. The row is kept
with a blanked body so replies stay attached.

Parameters:
  - context: context.Context
  - actor: *sec.AuthClaims
  - commentID: string (UUID)

Returns:
  - error: apperr.NotFound, apperr.Forbidden for non-authors
*/
func (service *Service) DeleteComment(context context.Context, actor *sec.AuthClaims, commentID string) error {
	comment, err := service.commentRepo.FindByID(context, commentID)
	if err != nil {
		return err
	}

	isAuthor := comment.UserID != nil && *comment.UserID == actor.UserID
	if !isAuthor && !sec.UserRole(actor.Role).AtLeast(sec.RoleModerator) {
		return apperr.Forbidden("You do not own this comment")
	}

	return service.commentRepo.SoftDelete(context, commentID)
}

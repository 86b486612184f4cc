// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package notification

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mangetsu/mangetsu/internal/platform/apperr"
	"github.com/mangetsu/mangetsu/internal/platform/jobs"
)

// # Collaborator Contracts

// ReplySource resolves who a comment replies to, for reply notifications.
type ReplySource interface {
	/*
		ReplyContext returns the parent comment's author and the title the
		thread belongs to.

		Parameters:
		  - ctx: context.Context
		  - commentID: string (The reply's ID)

		Returns:
		  - string: Parent author's user ID, empty when the author is gone
		  - string: Title ID of the thread
		  - error: apperr.NotFound when the reply or its parent is missing
	*/
	ReplyContext(ctx context.Context, commentID string) (string, string, error)
}

// # Service Layer

// Service owns notification delivery: direct pipeline notifications to
// uploaders and the subscriber fan-outs that run as background jobs.
type Service struct {
	notificationRepo Repository
	replySource      ReplySource
	logger           *slog.Logger
}

// NewService constructs a new [Service].
func NewService(notificationRepo Repository, replySource ReplySource, logger *slog.Logger) *Service {
	return &Service{
		notificationRepo: notificationRepo,
		replySource:      replySource,
		logger:           logger,
	}
}

// # Inbox

// ListInbox retrieves a page of the user's notifications, newest first.
func (service *Service) ListInbox(context context.Context, userID string, limit, offset int) ([]*Notification, int, error) {
	return service.notificationRepo.ListByUser(context, userID, limit, offset)
}

// MarkRead marks one of the user's notifications as read.
func (service *Service) MarkRead(context context.Context, userID, notificationID string) error {
	return service.notificationRepo.MarkRead(context, userID, notificationID)
}

// Delete removes one of the user's notifications.
func (service *Service) Delete(context context.Context, userID, notificationID string) error {
	return service.notificationRepo.Delete(context, userID, notificationID)
}

// DeleteRead clears the user's read notifications and returns the count.
func (service *Service) DeleteRead(context context.Context, userID string) (int, error) {
	return service.notificationRepo.DeleteRead(context, userID)
}

// # Pipeline Notifications

// ChapterUploadSucceeded tells the uploader their chapter went live.
func (service *Service) ChapterUploadSucceeded(ctx context.Context, userID, titleID, chapterID string) error {
	return service.insert(ctx, &Notification{
		UserID:    userID,
		Type:      TypeChapterUploadSuccess,
		TitleID:   &titleID,
		ChapterID: &chapterID,
	})
}

// ChapterUploadFailed tells the uploader their submission was torn down.
// The chapter row no longer exists, so only the title is referenced.
func (service *Service) ChapterUploadFailed(ctx context.Context, userID, titleID string) error {
	return service.insert(ctx, &Notification{
		UserID:  userID,
		Type:    TypeChapterUploadFail,
		TitleID: &titleID,
	})
}

// ChapterUpdateSucceeded tells the uploader their page swap completed.
func (service *Service) ChapterUpdateSucceeded(ctx context.Context, userID, titleID, chapterID string) error {
	return service.insert(ctx, &Notification{
		UserID:    userID,
		Type:      TypeChapterUpdateSuccess,
		TitleID:   &titleID,
		ChapterID: &chapterID,
	})
}

// ChapterUpdateFailed tells the uploader their replacement archive was
// rejected and the chapter is back with its previous publication flag.
func (service *Service) ChapterUpdateFailed(ctx context.Context, userID, titleID, chapterID string) error {
	return service.insert(ctx, &Notification{
		UserID:    userID,
		Type:      TypeChapterUpdateFail,
		TitleID:   &titleID,
		ChapterID: &chapterID,
	})
}

func (service *Service) insert(ctx context.Context, notification *Notification) error {
	inserted, err := service.notificationRepo.Insert(ctx, notification)
	if err != nil {
		return err
	}
	if !inserted {
		// Redelivered pipeline notification; the first delivery stands.
		service.logger.Debug("notification_deduplicated",
			slog.String("user_id", notification.UserID),
			slog.Int("type", int(notification.Type)),
		)
	}
	return nil
}

// # Fan-Out Job Handlers

/*
HandleNewChapter is the background handler for [jobs.NotifyNewChapter].

Description: One INSERT...SELECT delivers to every subscriber of the
(title, team) pair and every title-wide subscriber. The partial unique
index absorbs redelivery, so running this twice inserts nothing new.
*/
func (service *Service) HandleNewChapter(ctx context.Context, rawArgs json.RawMessage) error {
	var args jobs.NewChapterArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return err
	}

	delivered, err := service.notificationRepo.FanOutNewChapter(ctx, args.TitleID, args.TeamID, args.ChapterID)
	if err != nil {
		return err
	}

	service.logger.Info("new_chapter_fanned_out",
		slog.String("chapter_id", args.ChapterID),
		slog.Int("delivered", delivered),
	)
	return nil
}

// HandleStatusChanged is the background handler for [jobs.NotifyStatusChanged].
func (service *Service) HandleStatusChanged(ctx context.Context, rawArgs json.RawMessage) error {
	var args jobs.StatusChangedArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return err
	}

	delivered, err := service.notificationRepo.FanOutStatusChanged(ctx, args.TitleID)
	if err != nil {
		return err
	}

	service.logger.Info("status_change_fanned_out",
		slog.String("title_id", args.TitleID),
		slog.Int("delivered", delivered),
	)
	return nil
}

/*
HandleCommentReply is the background handler for [jobs.NotifyCommentReply].

Description: Notifies the parent comment's author about the reply. Replies
to one's own comments and replies whose parent (or its author) is gone are
silently skipped; both are normal states, not failures.
*/
func (service *Service) HandleCommentReply(ctx context.Context, rawArgs json.RawMessage) error {
	var args jobs.CommentReplyArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return err
	}

	parentAuthorID, titleID, err := service.replySource.ReplyContext(ctx, args.CommentID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if parentAuthorID == "" || parentAuthorID == args.ActorID {
		return nil
	}

	return service.insert(ctx, &Notification{
		UserID:   parentAuthorID,
		Type:     TypeCommentReply,
		FriendID: &args.ActorID,
		TitleID:  &titleID,
	})
}

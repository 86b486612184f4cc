// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mangetsu/mangetsu/internal/platform/apperr"
	"github.com/mangetsu/mangetsu/internal/platform/dberr"
	"github.com/mangetsu/mangetsu/internal/platform/jobs"
)

// # Fakes

type deliveredKey struct {
	userID    string
	chapterID string
	kind      Type
}

type fakeRepository struct {
	inserted  []*Notification
	delivered map[deliveredKey]bool

	fanOutCalls int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{delivered: make(map[deliveredKey]bool)}
}

func (f *fakeRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Notification, int, error) {
	return nil, 0, nil
}

// Insert mirrors the partial unique index: a (user, chapter, type) triple
// with a chapter reference is only delivered once.
func (f *fakeRepository) Insert(ctx context.Context, notification *Notification) (bool, error) {
	if notification.ChapterID != nil {
		key := deliveredKey{notification.UserID, *notification.ChapterID, notification.Type}
		if f.delivered[key] {
			return false, nil
		}
		f.delivered[key] = true
	}
	f.inserted = append(f.inserted, notification)
	return true, nil
}

func (f *fakeRepository) FanOutNewChapter(ctx context.Context, titleID, teamID, chapterID string) (int, error) {
	f.fanOutCalls++
	// First delivery reaches the only subscriber; redelivery inserts nothing.
	if f.fanOutCalls > 1 {
		return 0, nil
	}
	f.delivered[deliveredKey{"subscriber", chapterID, TypeNewChapter}] = true
	return 1, nil
}

func (f *fakeRepository) FanOutStatusChanged(ctx context.Context, titleID string) (int, error) {
	return 1, nil
}

func (f *fakeRepository) MarkRead(ctx context.Context, userID, notificationID string) error { return nil }
func (f *fakeRepository) Delete(ctx context.Context, userID, notificationID string) error   { return nil }
func (f *fakeRepository) DeleteRead(ctx context.Context, userID string) (int, error)        { return 0, nil }

type fakeReplySource struct {
	parentAuthorID string
	titleID        string
	missing        bool
	err            error
}

func (f *fakeReplySource) ReplyContext(ctx context.Context, commentID string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	if f.missing {
		return "", "", apperr.NotFound("comment")
	}
	return f.parentAuthorID, f.titleID, nil
}

func newTestService(repo *fakeRepository, replies *fakeReplySource) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, replies, logger)
}

func mustMarshal(t *testing.T, value any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	return raw
}

// # Pipeline Notifications

func TestChapterUploadNotifications_Types(t *testing.T) {
	repo := newFakeRepository()
	service := newTestService(repo, &fakeReplySource{})
	ctx := context.Background()

	require.NoError(t, service.ChapterUploadSucceeded(ctx, "user", "title", "chapter"))
	require.NoError(t, service.ChapterUploadFailed(ctx, "user", "title"))
	require.NoError(t, service.ChapterUpdateSucceeded(ctx, "user", "title", "chapter"))
	require.NoError(t, service.ChapterUpdateFailed(ctx, "user", "title", "chapter"))

	require.Len(t, repo.inserted, 4)
	assert.Equal(t, TypeChapterUploadSuccess, repo.inserted[0].Type)
	assert.Equal(t, TypeChapterUploadFail, repo.inserted[1].Type)
	assert.Equal(t, TypeChapterUpdateSuccess, repo.inserted[2].Type)
	assert.Equal(t, TypeChapterUpdateFail, repo.inserted[3].Type)

	// The failure notification references no chapter; the row is gone.
	assert.Nil(t, repo.inserted[1].ChapterID)
	require.NotNil(t, repo.inserted[1].TitleID)
}

func TestPipelineNotification_RedeliveryIsSuppressed(t *testing.T) {
	repo := newFakeRepository()
	service := newTestService(repo, &fakeReplySource{})
	ctx := context.Background()

	require.NoError(t, service.ChapterUploadSucceeded(ctx, "user", "title", "chapter"))
	require.NoError(t, service.ChapterUploadSucceeded(ctx, "user", "title", "chapter"))

	assert.Len(t, repo.inserted, 1)
}

// # Fan-Out Handlers

func TestHandleNewChapter_RedeliveryIdempotent(t *testing.T) {
	repo := newFakeRepository()
	service := newTestService(repo, &fakeReplySource{})

	args := mustMarshal(t, jobs.NewChapterArgs{TitleID: "title", TeamID: "team", ChapterID: "chapter"})

	require.NoError(t, service.HandleNewChapter(context.Background(), args))
	require.NoError(t, service.HandleNewChapter(context.Background(), args))

	assert.Equal(t, 2, repo.fanOutCalls)
	// Only one actual delivery despite two runs.
	assert.True(t, repo.delivered[deliveredKey{"subscriber", "chapter", TypeNewChapter}])
	assert.Len(t, repo.delivered, 1)
}

// # Comment Replies

func TestHandleCommentReply_NotifiesParentAuthor(t *testing.T) {
	repo := newFakeRepository()
	service := newTestService(repo, &fakeReplySource{parentAuthorID: "parent", titleID: "title"})

	args := mustMarshal(t, jobs.CommentReplyArgs{CommentID: "reply", ActorID: "actor"})
	require.NoError(t, service.HandleCommentReply(context.Background(), args))

	require.Len(t, repo.inserted, 1)
	assert.Equal(t, "parent", repo.inserted[0].UserID)
	assert.Equal(t, TypeCommentReply, repo.inserted[0].Type)
	require.NotNil(t, repo.inserted[0].FriendID)
	assert.Equal(t, "actor", *repo.inserted[0].FriendID)
}

func TestHandleCommentReply_SelfReplySkipped(t *testing.T) {
	repo := newFakeRepository()
	service := newTestService(repo, &fakeReplySource{parentAuthorID: "actor", titleID: "title"})

	args := mustMarshal(t, jobs.CommentReplyArgs{CommentID: "reply", ActorID: "actor"})
	require.NoError(t, service.HandleCommentReply(context.Background(), args))

	assert.Empty(t, repo.inserted)
}

func TestHandleCommentReply_MissingParentIsSuccess(t *testing.T) {
	repo := newFakeRepository()
	service := newTestService(repo, &fakeReplySource{missing: true})

	args := mustMarshal(t, jobs.CommentReplyArgs{CommentID: "reply", ActorID: "actor"})
	require.NoError(t, service.HandleCommentReply(context.Background(), args))

	assert.Empty(t, repo.inserted)
}

func TestHandleCommentReply_StorageOutageIsRetryable(t *testing.T) {
	repo := newFakeRepository()
	service := newTestService(repo, &fakeReplySource{
		err: dberr.Wrap(errors.New("connection refused"), "comment"),
	})

	args := mustMarshal(t, jobs.CommentReplyArgs{CommentID: "reply", ActorID: "actor"})
	err := service.HandleCommentReply(context.Background(), args)

	// A lookup outage is not a missing parent; the delivery must be retried.
	require.Error(t, err)
	assert.Empty(t, repo.inserted)
}

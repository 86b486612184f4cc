// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package chapter

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mangetsu/mangetsu/internal/catalog/team"
	"github.com/mangetsu/mangetsu/internal/catalog/title"
	"github.com/mangetsu/mangetsu/internal/ingest/blob"
	"github.com/mangetsu/mangetsu/internal/platform/apperr"
	"github.com/mangetsu/mangetsu/internal/platform/dberr"
	"github.com/mangetsu/mangetsu/internal/platform/jobs"
)

// # Fakes

type fakeRepository struct {
	chapters map[string]*Chapter
	images   map[string][]*Image

	deletedChapters []string
	createErr       error
	findErr         error
	setPublishedErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		chapters: make(map[string]*Chapter),
		images:   make(map[string][]*Image),
	}
}

func (f *fakeRepository) ListByTitle(ctx context.Context, titleID string, limit, offset int) ([]*Chapter, int, error) {
	return nil, 0, nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id string) (*Chapter, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	chapter, ok := f.chapters[id]
	if !ok {
		return nil, apperr.NotFound("chapter")
	}
	clone := *chapter
	return &clone, nil
}

func (f *fakeRepository) Create(ctx context.Context, chapter *Chapter) error {
	if f.createErr != nil {
		return f.createErr
	}
	clone := *chapter
	f.chapters[chapter.ID] = &clone
	return nil
}

func (f *fakeRepository) Delete(ctx context.Context, id string) error {
	delete(f.chapters, id)
	f.deletedChapters = append(f.deletedChapters, id)
	return nil
}

func (f *fakeRepository) SetPublished(ctx context.Context, id string, published bool) error {
	if f.setPublishedErr != nil {
		return f.setPublishedErr
	}
	chapter, ok := f.chapters[id]
	if !ok {
		return apperr.NotFound("chapter")
	}
	chapter.IsPublished = published
	return nil
}

func (f *fakeRepository) SetArchiveKey(ctx context.Context, id string, key *string) error {
	chapter, ok := f.chapters[id]
	if !ok {
		return apperr.NotFound("chapter")
	}
	chapter.ArchiveKey = key
	return nil
}

func (f *fakeRepository) InsertImages(ctx context.Context, images []*Image) error {
	for _, img := range images {
		f.images[img.ChapterID] = append(f.images[img.ChapterID], img)
	}
	return nil
}

func (f *fakeRepository) ListImages(ctx context.Context, chapterID string) ([]*Image, error) {
	return f.images[chapterID], nil
}

func (f *fakeRepository) DeleteImages(ctx context.Context, chapterID string) ([]string, error) {
	var keys []string
	for _, img := range f.images[chapterID] {
		keys = append(keys, img.BlobKey)
	}
	delete(f.images, chapterID)
	return keys, nil
}

func (f *fakeRepository) Like(ctx context.Context, userID, chapterID string) error   { return nil }
func (f *fakeRepository) Unlike(ctx context.Context, userID, chapterID string) error { return nil }

type fakeBlobStore struct {
	objects     map[string][]byte
	uploadCount int
	failAtCall  int // 1-based; 0 disables
	deletedKeys []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Upload(ctx context.Context, data []byte, folder string) (blob.Ref, error) {
	f.uploadCount++
	if f.failAtCall > 0 && f.uploadCount == f.failAtCall {
		return blob.Ref{}, errors.New("storage unavailable")
	}
	key := fmt.Sprintf("%s/obj-%d", folder, f.uploadCount)
	f.objects[key] = data
	return blob.Ref{Key: key, URL: "https://cdn.test/" + key}, nil
}

func (f *fakeBlobStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	f.deletedKeys = append(f.deletedKeys, key)
	return nil
}

type enqueuedJob struct {
	name jobs.Name
	args any
}

type fakeDispatcher struct {
	enqueued []enqueuedJob
}

func (f *fakeDispatcher) Enqueue(ctx context.Context, name jobs.Name, args any, delay time.Duration) error {
	f.enqueued = append(f.enqueued, enqueuedJob{name: name, args: args})
	return nil
}

type fakeNotifier struct {
	uploadSucceeded int
	uploadFailed    int
	updateSucceeded int
	updateFailed    int
}

func (f *fakeNotifier) ChapterUploadSucceeded(ctx context.Context, userID, titleID, chapterID string) error {
	f.uploadSucceeded++
	return nil
}

func (f *fakeNotifier) ChapterUploadFailed(ctx context.Context, userID, titleID string) error {
	f.uploadFailed++
	return nil
}

func (f *fakeNotifier) ChapterUpdateSucceeded(ctx context.Context, userID, titleID, chapterID string) error {
	f.updateSucceeded++
	return nil
}

func (f *fakeNotifier) ChapterUpdateFailed(ctx context.Context, userID, titleID, chapterID string) error {
	f.updateFailed++
	return nil
}

type fakeTitleStore struct {
	titles map[string]*title.Title
}

func (f *fakeTitleStore) FindByID(ctx context.Context, id string) (*title.Title, error) {
	t, ok := f.titles[id]
	if !ok {
		return nil, apperr.NotFound("title")
	}
	return t, nil
}

type fakeTeamStore struct {
	participants map[string]*team.Participant // keyed userID
}

func (f *fakeTeamStore) FindParticipant(ctx context.Context, userID, teamID string) (*team.Participant, error) {
	participant, ok := f.participants[userID]
	if !ok {
		return nil, apperr.NotFound("participant")
	}
	return participant, nil
}

// # Test Rig

const (
	testTitleID = "018f0000-0000-7000-8000-00000000aaaa"
	testTeamID  = "018f0000-0000-7000-8000-00000000bbbb"
	testActorID = "018f0000-0000-7000-8000-00000000cccc"
)

type publishRig struct {
	service    *Service
	repo       *fakeRepository
	blobs      *fakeBlobStore
	dispatcher *fakeDispatcher
	notifier   *fakeNotifier
	titles     *fakeTitleStore
}

func newPublishRig() *publishRig {
	rig := &publishRig{
		repo:       newFakeRepository(),
		blobs:      newFakeBlobStore(),
		dispatcher: &fakeDispatcher{},
		notifier:   &fakeNotifier{},
		titles: &fakeTitleStore{titles: map[string]*title.Title{
			testTitleID: {ID: testTitleID, Slug: "tower-of-god"},
		}},
	}

	teams := &fakeTeamStore{participants: map[string]*team.Participant{
		testActorID: {UserID: testActorID, TeamID: testTeamID, Roles: []string{team.RoleUploader}},
	}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rig.service = NewService(rig.repo, rig.titles, teams, rig.blobs, rig.dispatcher, rig.notifier, logger)
	return rig
}

// pageArchive builds a ZIP with the given entry names, each a valid PNG.
func pageArchive(t *testing.T, names ...string) []byte {
	t.Helper()

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 1, 1))))

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for _, name := range names {
		entry, err := writer.Create(name)
		require.NoError(t, err)
		_, err = entry.Write(img.Bytes())
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func publishInput(payload []byte) PublishInput {
	return PublishInput{
		TitleID:       testTitleID,
		TeamID:        testTeamID,
		VolumeNumber:  1,
		ChapterNumber: 12,
		Archive:       payload,
	}
}

// # Publish

func TestPublish_CreatesUnpublishedAndEnqueues(t *testing.T) {
	rig := newPublishRig()

	chapter, err := rig.service.Publish(context.Background(), testActorID, publishInput(pageArchive(t, "p1.png")))

	require.NoError(t, err)
	require.NotNil(t, chapter)
	assert.False(t, chapter.IsPublished)
	require.NotNil(t, chapter.ArchiveKey)

	stored := rig.repo.chapters[chapter.ID]
	require.NotNil(t, stored)
	assert.False(t, stored.IsPublished)

	require.Len(t, rig.dispatcher.enqueued, 1)
	assert.Equal(t, jobs.ChapterPublish, rig.dispatcher.enqueued[0].name)
}

func TestPublish_LicensedTitleRejected(t *testing.T) {
	rig := newPublishRig()
	rig.titles.titles[testTitleID].Licensed = true

	_, err := rig.service.Publish(context.Background(), testActorID, publishInput(pageArchive(t, "p1.png")))

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, CodeLicensedTitle))
	assert.Empty(t, rig.repo.chapters)
	assert.Empty(t, rig.dispatcher.enqueued)
}

func TestPublish_NonMemberForbidden(t *testing.T) {
	rig := newPublishRig()

	_, err := rig.service.Publish(context.Background(), "018f0000-0000-7000-8000-00000000dddd", publishInput(pageArchive(t, "p1.png")))

	require.Error(t, err)
	assert.Empty(t, rig.repo.chapters)
}

func TestPublish_InvalidArchiveLeavesNoTrace(t *testing.T) {
	rig := newPublishRig()

	_, err := rig.service.Publish(context.Background(), testActorID, publishInput([]byte("not a zip")))

	require.Error(t, err)
	assert.Empty(t, rig.repo.chapters)
	assert.Empty(t, rig.blobs.objects)
	assert.Empty(t, rig.dispatcher.enqueued)
}

func TestPublish_DuplicateReleasesStash(t *testing.T) {
	rig := newPublishRig()
	rig.repo.createErr = apperr.Conflict("duplicate").WithCode(CodeDuplicateChapter)

	_, err := rig.service.Publish(context.Background(), testActorID, publishInput(pageArchive(t, "p1.png")))

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, CodeDuplicateChapter))
	// The stashed archive must not be orphaned.
	assert.Empty(t, rig.blobs.objects)
	assert.Empty(t, rig.dispatcher.enqueued)
}

// # HandlePublish

func publishedChapterArgs(t *testing.T, rig *publishRig, entries ...string) jobs.ChapterPublishArgs {
	t.Helper()

	chapter, err := rig.service.Publish(context.Background(), testActorID, publishInput(pageArchive(t, entries...)))
	require.NoError(t, err)
	return jobs.ChapterPublishArgs{ChapterID: chapter.ID, ActorID: testActorID}
}

func rawArgs(t *testing.T, args any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	return raw
}

func TestHandlePublish_PagesLandInArchiveOrder(t *testing.T) {
	rig := newPublishRig()
	args := publishedChapterArgs(t, rig, "page2.png", "page10.png", "page1.png")

	err := rig.service.HandlePublish(context.Background(), rawArgs(t, args))

	require.NoError(t, err)

	stored := rig.repo.chapters[args.ChapterID]
	require.NotNil(t, stored)
	assert.True(t, stored.IsPublished)
	assert.Nil(t, stored.ArchiveKey)

	images := rig.repo.images[args.ChapterID]
	require.Len(t, images, 3)
	for position, img := range images {
		assert.Equal(t, position, img.Position)
	}
	// Page folder is derived from the title slug and chapter ID.
	assert.Contains(t, images[0].BlobKey, "tower-of-god/c"+args.ChapterID)

	assert.Equal(t, 1, rig.notifier.uploadSucceeded)
	// Submission enqueue plus the fan-out enqueue.
	require.Len(t, rig.dispatcher.enqueued, 2)
	assert.Equal(t, jobs.NotifyNewChapter, rig.dispatcher.enqueued[1].name)
}

func TestHandlePublish_MissingChapterIsSuccess(t *testing.T) {
	rig := newPublishRig()
	args := jobs.ChapterPublishArgs{ChapterID: "018f0000-0000-7000-8000-00000000eeee", ActorID: testActorID}

	err := rig.service.HandlePublish(context.Background(), rawArgs(t, args))

	require.NoError(t, err)
	assert.Zero(t, rig.notifier.uploadSucceeded)
	assert.Zero(t, rig.notifier.uploadFailed)
}

func TestHandlePublish_StorageOutageIsRetryable(t *testing.T) {
	rig := newPublishRig()
	args := publishedChapterArgs(t, rig, "p1.png")
	rig.repo.findErr = dberr.Wrap(errors.New("connection refused"), "chapter")

	err := rig.service.HandlePublish(context.Background(), rawArgs(t, args))

	// Only a missing row may be acknowledged; an outage must surface so the
	// queue retries the delivery.
	require.Error(t, err)
	assert.Contains(t, rig.repo.chapters, args.ChapterID)
	assert.Zero(t, rig.notifier.uploadFailed)
}

func TestHandlePublish_UploadFailureTearsDown(t *testing.T) {
	rig := newPublishRig()
	args := publishedChapterArgs(t, rig, "p1.png", "p2.png", "p3.png", "p4.png", "p5.png")

	// Stash upload was call 1; fail on the third page upload.
	rig.blobs.failAtCall = rig.blobs.uploadCount + 3

	err := rig.service.HandlePublish(context.Background(), rawArgs(t, args))

	// Teardown is terminal, not retryable.
	require.NoError(t, err)

	assert.NotContains(t, rig.repo.chapters, args.ChapterID)
	assert.Contains(t, rig.repo.deletedChapters, args.ChapterID)
	// Every uploaded blob, including the stash, is gone again.
	assert.Empty(t, rig.blobs.objects)
	assert.Empty(t, rig.repo.images[args.ChapterID])

	assert.Equal(t, 1, rig.notifier.uploadFailed)
	assert.Zero(t, rig.notifier.uploadSucceeded)
}

func TestHandlePublish_PublishFlipFailureTearsDown(t *testing.T) {
	rig := newPublishRig()
	args := publishedChapterArgs(t, rig, "p1.png", "p2.png")

	// Pages were uploaded and their rows inserted before the flip fails.
	rig.repo.setPublishedErr = dberr.Wrap(errors.New("connection refused"), "chapter")

	err := rig.service.HandlePublish(context.Background(), rawArgs(t, args))

	require.NoError(t, err)
	assert.NotContains(t, rig.repo.chapters, args.ChapterID)
	assert.Empty(t, rig.repo.images[args.ChapterID])
	// The already-inserted page blobs are unwound along with the stash.
	assert.Empty(t, rig.blobs.objects)
	assert.Equal(t, 1, rig.notifier.uploadFailed)
}

// # Republish

func TestRepublish_RequiresPublished(t *testing.T) {
	rig := newPublishRig()
	args := publishedChapterArgs(t, rig, "p1.png")

	err := rig.service.Republish(context.Background(), testActorID, args.ChapterID, pageArchive(t, "p1.png"))

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, CodeNotPublished))
}

func TestRepublish_HidesChapterFirst(t *testing.T) {
	rig := newPublishRig()
	args := publishedChapterArgs(t, rig, "p1.png")
	require.NoError(t, rig.service.HandlePublish(context.Background(), rawArgs(t, args)))

	err := rig.service.Republish(context.Background(), testActorID, args.ChapterID, pageArchive(t, "new1.png", "new2.png"))

	require.NoError(t, err)
	stored := rig.repo.chapters[args.ChapterID]
	assert.False(t, stored.IsPublished)
	require.NotNil(t, stored.ArchiveKey)

	lastJob := rig.dispatcher.enqueued[len(rig.dispatcher.enqueued)-1]
	assert.Equal(t, jobs.ChapterRepublish, lastJob.name)
}

func TestHandleRepublish_SwapsPagesWithoutFanOut(t *testing.T) {
	rig := newPublishRig()
	args := publishedChapterArgs(t, rig, "old1.png")
	require.NoError(t, rig.service.HandlePublish(context.Background(), rawArgs(t, args)))
	require.NoError(t, rig.service.Republish(context.Background(), testActorID, args.ChapterID, pageArchive(t, "new1.png", "new2.png")))

	jobsBefore := len(rig.dispatcher.enqueued)
	err := rig.service.HandleRepublish(context.Background(), rawArgs(t, args))

	require.NoError(t, err)
	stored := rig.repo.chapters[args.ChapterID]
	assert.True(t, stored.IsPublished)
	assert.Len(t, rig.repo.images[args.ChapterID], 2)
	assert.Equal(t, 1, rig.notifier.updateSucceeded)
	// No NewChapter fan-out on an update.
	assert.Len(t, rig.dispatcher.enqueued, jobsBefore)
}

func TestHandleRepublish_BadArchiveRestoresVisibility(t *testing.T) {
	rig := newPublishRig()
	args := publishedChapterArgs(t, rig, "old1.png")
	require.NoError(t, rig.service.HandlePublish(context.Background(), rawArgs(t, args)))
	require.NoError(t, rig.service.Republish(context.Background(), testActorID, args.ChapterID, pageArchive(t, "new1.png")))

	// Corrupt the stash after submission so job-side extraction fails.
	stored := rig.repo.chapters[args.ChapterID]
	rig.blobs.objects[*stored.ArchiveKey] = []byte("garbage")

	err := rig.service.HandleRepublish(context.Background(), rawArgs(t, args))

	require.NoError(t, err)
	stored = rig.repo.chapters[args.ChapterID]
	require.NotNil(t, stored)
	// The chapter row survives and is visible again.
	assert.True(t, stored.IsPublished)
	assert.NotContains(t, rig.repo.deletedChapters, args.ChapterID)
	assert.Equal(t, 1, rig.notifier.updateFailed)
}

// # Retract

func TestRetract_RequiresPublished(t *testing.T) {
	rig := newPublishRig()
	args := publishedChapterArgs(t, rig, "p1.png")

	err := rig.service.Retract(context.Background(), testActorID, args.ChapterID)

	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, CodeNotPublished))
}

func TestRetract_HidesAndScheduleDelete(t *testing.T) {
	rig := newPublishRig()
	args := publishedChapterArgs(t, rig, "p1.png")
	require.NoError(t, rig.service.HandlePublish(context.Background(), rawArgs(t, args)))

	err := rig.service.Retract(context.Background(), testActorID, args.ChapterID)

	require.NoError(t, err)
	assert.False(t, rig.repo.chapters[args.ChapterID].IsPublished)

	lastJob := rig.dispatcher.enqueued[len(rig.dispatcher.enqueued)-1]
	assert.Equal(t, jobs.ChapterDelete, lastJob.name)
}

func TestHandleDelete_RemovesRowsAndBlobs(t *testing.T) {
	rig := newPublishRig()
	args := publishedChapterArgs(t, rig, "p1.png", "p2.png")
	require.NoError(t, rig.service.HandlePublish(context.Background(), rawArgs(t, args)))
	require.NoError(t, rig.service.Retract(context.Background(), testActorID, args.ChapterID))

	err := rig.service.HandleDelete(context.Background(), rawArgs(t, jobs.ChapterDeleteArgs{ChapterID: args.ChapterID}))

	require.NoError(t, err)
	assert.NotContains(t, rig.repo.chapters, args.ChapterID)
	assert.Empty(t, rig.repo.images[args.ChapterID])
	assert.Empty(t, rig.blobs.objects)

	// Retried delivery after completion is a clean success.
	require.NoError(t, rig.service.HandleDelete(context.Background(), rawArgs(t, jobs.ChapterDeleteArgs{ChapterID: args.ChapterID})))
}

func TestHandleDelete_StorageOutageIsRetryable(t *testing.T) {
	rig := newPublishRig()
	args := publishedChapterArgs(t, rig, "p1.png")
	require.NoError(t, rig.service.HandlePublish(context.Background(), rawArgs(t, args)))
	require.NoError(t, rig.service.Retract(context.Background(), testActorID, args.ChapterID))

	rig.repo.findErr = dberr.Wrap(errors.New("connection refused"), "chapter")

	err := rig.service.HandleDelete(context.Background(), rawArgs(t, jobs.ChapterDeleteArgs{ChapterID: args.ChapterID}))

	require.Error(t, err)
	assert.Contains(t, rig.repo.chapters, args.ChapterID)
}

// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package chapter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mangetsu/mangetsu/internal/ingest/archive"
	"github.com/mangetsu/mangetsu/internal/ingest/blob"
	"github.com/mangetsu/mangetsu/internal/platform/apperr"
	"github.com/mangetsu/mangetsu/internal/platform/constants"
	"github.com/mangetsu/mangetsu/internal/platform/jobs"
	"github.com/mangetsu/mangetsu/internal/platform/validate"
	"github.com/mangetsu/mangetsu/pkg/uuid"
)

const (
	FieldTitleID       = "title_id"
	FieldTeamID        = "team_id"
	FieldVolumeNumber  = "volume_number"
	FieldChapterNumber = "chapter_number"
	FieldArchive       = "archive"
)

// pageLimits are the validation bounds applied to every submitted archive.
func pageLimits() archive.Limits {
	return archive.Limits{
		MaxPageBytes:      constants.MaxPageImageBytes,
		AllowedExtensions: constants.AllowedPageExtensions,
	}
}

// PublishInput carries a new chapter submission.
type PublishInput struct {
	TitleID       string
	TeamID        string
	Name          string
	VolumeNumber  int
	ChapterNumber float64
	Archive       []byte
}

// # Publication

/*
Publish accepts a new chapter submission and schedules its page upload.

Description: The archive is fully validated before any row or blob exists,
so a rejected submission leaves no trace. The chapter row is then created
unpublished with the archive stashed in the blob store, and the heavy page
upload runs as a background job. The returned chapter is not yet visible
to readers.

Parameters:
  - context: context.Context
  - actorID: string (Uploader; must hold the team's admin or uploader role)
  - input: PublishInput

Returns:
  - *Chapter: The created, not yet published chapter
  - error: apperr codes LICENSED_TITLE, DUPLICATE_CHAPTER, Forbidden, or
    the archive validation codes
*/
func (service *Service) Publish(context context.Context, actorID string, input PublishInput) (*Chapter, error) {
	validator := &validate.Validator{}
	validator.UUID(FieldTitleID, input.TitleID)
	validator.UUID(FieldTeamID, input.TeamID)
	validator.Custom(FieldVolumeNumber, input.VolumeNumber < 0, "Volume number cannot be negative")
	validator.Custom(FieldChapterNumber, input.ChapterNumber < 0, "Chapter number cannot be negative")
	validator.Custom(FieldArchive, len(input.Archive) == 0, "An archive is required")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	publishedTitle, err := service.titleStore.FindByID(context, input.TitleID)
	if err != nil {
		return nil, err
	}
	if publishedTitle.Licensed {
		return nil, apperr.Forbidden("This title is licensed and closed for publication").WithCode(CodeLicensedTitle)
	}

	if err := service.authorizeRelease(context, actorID, input.TeamID); err != nil {
		return nil, err
	}

	// Full synchronous validation. A bad archive aborts before any state exists.
	if _, err := archive.Extract(input.Archive, pageLimits()); err != nil {
		return nil, err
	}

	stash, err := service.blobStore.Upload(context, input.Archive, constants.ArchiveStashFolder)
	if err != nil {
		return nil, err
	}

	chapter := &Chapter{
		ID:            uuid.New(),
		TitleID:       input.TitleID,
		TeamID:        input.TeamID,
		Name:          input.Name,
		VolumeNumber:  input.VolumeNumber,
		ChapterNumber: input.ChapterNumber,
		ArchiveKey:    &stash.Key,
	}

	if err := service.chapterRepo.Create(context, chapter); err != nil {
		// The stash must not outlive a rejected submission.
		if deleteErr := service.blobStore.Delete(context, stash.Key); deleteErr != nil {
			service.logger.Error("archive_stash_orphaned",
				slog.String("blob_key", stash.Key),
				slog.Any("error", deleteErr),
			)
		}
		return nil, err
	}

	args := jobs.ChapterPublishArgs{ChapterID: chapter.ID, ActorID: actorID}
	if err := service.dispatcher.Enqueue(context, jobs.ChapterPublish, args, 0); err != nil {
		return nil, err
	}

	service.logger.Info("chapter_submitted",
		slog.String("chapter_id", chapter.ID),
		slog.String("title_id", chapter.TitleID),
		slog.String("team_id", chapter.TeamID),
		slog.Float64("number", chapter.ChapterNumber),
	)
	return chapter, nil
}

/*
Republish replaces a published chapter's pages from a new archive.

Description: The chapter is taken off the air FIRST, unconditionally; it
stays hidden while the background job swaps the pages. A job-side
validation failure restores visibility of the OLD publication flag but the
old pages are already gone, so uploaders are notified with an update
failure rather than silently shown stale pages.

Parameters:
  - context: context.Context
  - actorID: string (Uploader)
  - chapterID: string (UUID)
  - archivePayload: []byte (The replacement archive)

Returns:
  - error: apperr code NOT_PUBLISHED when the chapter is not currently
    published, Forbidden, or validation errors
*/
func (service *Service) Republish(context context.Context, actorID, chapterID string, archivePayload []byte) error {
	chapter, err := service.chapterRepo.FindByID(context, chapterID)
	if err != nil {
		return err
	}
	if !chapter.IsPublished {
		return apperr.Conflict("Chapter is not published").WithCode(CodeNotPublished)
	}

	if err := service.authorizeRelease(context, actorID, chapter.TeamID); err != nil {
		return err
	}

	validator := &validate.Validator{}
	validator.Custom(FieldArchive, len(archivePayload) == 0, "An archive is required")
	if err := validator.Err(); err != nil {
		return err
	}

	// Off the air before anything else, and regardless of what follows.
	if err := service.chapterRepo.SetPublished(context, chapterID, false); err != nil {
		return err
	}

	stash, err := service.blobStore.Upload(context, archivePayload, constants.ArchiveStashFolder)
	if err != nil {
		return err
	}
	if err := service.chapterRepo.SetArchiveKey(context, chapterID, &stash.Key); err != nil {
		return err
	}

	args := jobs.ChapterPublishArgs{ChapterID: chapterID, ActorID: actorID}
	if err := service.dispatcher.Enqueue(context, jobs.ChapterRepublish, args, 0); err != nil {
		return err
	}

	service.logger.Info("chapter_republish_submitted",
		slog.String("chapter_id", chapterID),
		slog.String("actor_id", actorID),
	)
	return nil
}

/*
Retract takes a published chapter down permanently.

Description: The chapter disappears from readers immediately; the hard
delete of rows and blobs runs as a background job.

Parameters:
  - context: context.Context
  - actorID: string (Uploader)
  - chapterID: string (UUID)

Returns:
  - error: apperr code NOT_PUBLISHED, Forbidden, or persistence errors
*/
func (service *Service) Retract(context context.Context, actorID, chapterID string) error {
	chapter, err := service.chapterRepo.FindByID(context, chapterID)
	if err != nil {
		return err
	}
	if !chapter.IsPublished {
		return apperr.Conflict("Chapter is not published").WithCode(CodeNotPublished)
	}

	if err := service.authorizeRelease(context, actorID, chapter.TeamID); err != nil {
		return err
	}

	if err := service.chapterRepo.SetPublished(context, chapterID, false); err != nil {
		return err
	}

	args := jobs.ChapterDeleteArgs{ChapterID: chapterID}
	if err := service.dispatcher.Enqueue(context, jobs.ChapterDelete, args, 0); err != nil {
		return err
	}

	service.logger.Info("chapter_retracted",
		slog.String("chapter_id", chapterID),
		slog.String("actor_id", actorID),
	)
	return nil
}

// # Job Handlers

/*
HandlePublish is the background handler for [jobs.ChapterPublish].

Description: Fetches the stashed archive, extracts pages in natural order,
uploads each page to the chapter's folder, inserts the page rows in archive
order, flips the publication flag, and cleans up the stash. Success is
announced to the uploader and fanned out to subscribers.

A missing or already-published chapter is treated as success (at-least-once
delivery). Any failure beyond this point tears the chapter down completely:
uploaded blobs, page rows, and the chapter row are removed, and the
uploader receives an upload-failure notification.
*/
func (service *Service) HandlePublish(ctx context.Context, rawArgs json.RawMessage) error {
	var args jobs.ChapterPublishArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return err
	}

	chapter, err := service.chapterRepo.FindByID(ctx, args.ChapterID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if chapter.IsPublished {
		return nil
	}

	if err := service.materializePages(ctx, chapter); err != nil {
		service.failPublish(ctx, chapter, args.ActorID, err)
		return nil
	}

	if err := service.notifier.ChapterUploadSucceeded(ctx, args.ActorID, chapter.TitleID, chapter.ID); err != nil {
		service.logger.Error("upload_notification_failed",
			slog.String("chapter_id", chapter.ID),
			slog.Any("error", err),
		)
	}

	fanOut := jobs.NewChapterArgs{
		TitleID:   chapter.TitleID,
		TeamID:    chapter.TeamID,
		ChapterID: chapter.ID,
	}
	return service.dispatcher.Enqueue(ctx, jobs.NotifyNewChapter, fanOut, 0)
}

/*
HandleRepublish is the background handler for [jobs.ChapterRepublish].

Description: Removes the old pages and their blobs, then runs the same
materialization as a fresh publish. On failure the publication flag is
restored so the chapter is not lost, and the uploader receives an
update-failure notification; the chapter row is NOT deleted. Success sends
an update notification and does not fan out to subscribers.
*/
func (service *Service) HandleRepublish(ctx context.Context, rawArgs json.RawMessage) error {
	var args jobs.ChapterPublishArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return err
	}

	chapter, err := service.chapterRepo.FindByID(ctx, args.ChapterID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if chapter.IsPublished {
		return nil
	}

	staleKeys, err := service.chapterRepo.DeleteImages(ctx, chapter.ID)
	if err != nil {
		return err
	}
	for _, key := range staleKeys {
		if err := service.blobStore.Delete(ctx, key); err != nil {
			return err
		}
	}

	if err := service.materializePages(ctx, chapter); err != nil {
		// A failed update keeps the chapter row; visibility is restored
		// even though its old pages are already gone.
		if restoreErr := service.chapterRepo.SetPublished(ctx, chapter.ID, true); restoreErr != nil {
			service.logger.Error("republish_restore_failed",
				slog.String("chapter_id", chapter.ID),
				slog.Any("error", restoreErr),
			)
		}
		service.discardStash(ctx, chapter)

		if notifyErr := service.notifier.ChapterUpdateFailed(ctx, args.ActorID, chapter.TitleID, chapter.ID); notifyErr != nil {
			service.logger.Error("update_notification_failed",
				slog.String("chapter_id", chapter.ID),
				slog.Any("error", notifyErr),
			)
		}

		service.logger.Warn("chapter_republish_failed",
			slog.String("chapter_id", chapter.ID),
			slog.Any("error", err),
		)
		return nil
	}

	if err := service.notifier.ChapterUpdateSucceeded(ctx, args.ActorID, chapter.TitleID, chapter.ID); err != nil {
		service.logger.Error("update_notification_failed",
			slog.String("chapter_id", chapter.ID),
			slog.Any("error", err),
		)
	}
	return nil
}

/*
HandleDelete is the background handler for [jobs.ChapterDelete].

Description: Hard-deletes a retracted chapter: page blobs, page rows, any
leftover archive stash, and finally the chapter row, whose removal repairs
the title's derived counters. A chapter already gone is success.
*/
func (service *Service) HandleDelete(ctx context.Context, rawArgs json.RawMessage) error {
	var args jobs.ChapterDeleteArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return err
	}

	chapter, err := service.chapterRepo.FindByID(ctx, args.ChapterID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil
		}
		return err
	}

	keys, err := service.chapterRepo.DeleteImages(ctx, chapter.ID)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := service.blobStore.Delete(ctx, key); err != nil {
			return err
		}
	}

	service.discardStash(ctx, chapter)

	if err := service.chapterRepo.Delete(ctx, chapter.ID); err != nil {
		return err
	}

	service.logger.Info("chapter_deleted",
		slog.String("chapter_id", chapter.ID),
		slog.Int("blobs_removed", len(keys)),
	)
	return nil
}

// # Materialization

/*
materializePages turns the stashed archive into stored pages and publishes
the chapter.

Description: Pages are uploaded one by one in natural order; the page rows
are inserted afterwards in that same order, so a reader can never observe a
page set in upload-completion order. Any error unwinds the blobs uploaded
so far before returning.
*/
func (service *Service) materializePages(ctx context.Context, chapter *Chapter) error {
	if chapter.ArchiveKey == nil {
		return apperr.Unprocessable("chapter has no stashed archive")
	}

	payload, err := service.blobStore.Fetch(ctx, *chapter.ArchiveKey)
	if err != nil {
		return err
	}

	pages, err := archive.Extract(payload, pageLimits())
	if err != nil {
		return err
	}

	owningTitle, err := service.titleStore.FindByID(ctx, chapter.TitleID)
	if err != nil {
		return err
	}

	folder := blob.FolderFor(owningTitle.Slug, chapter.ID)
	images := make([]*Image, 0, len(pages))

	for position, page := range pages {
		ref, err := service.blobStore.Upload(ctx, page.Data, folder)
		if err != nil {
			service.unwindUploads(ctx, images)
			return err
		}
		images = append(images, &Image{
			ID:        uuid.New(),
			ChapterID: chapter.ID,
			BlobKey:   ref.Key,
			BlobURL:   ref.URL,
			Position:  position,
		})
	}

	if err := service.chapterRepo.InsertImages(ctx, images); err != nil {
		service.unwindUploads(ctx, images)
		return err
	}

	if err := service.chapterRepo.SetPublished(ctx, chapter.ID, true); err != nil {
		return err
	}

	// The stash has served its purpose.
	service.discardStash(ctx, chapter)

	service.logger.Info("chapter_published",
		slog.String("chapter_id", chapter.ID),
		slog.Int("pages", len(images)),
	)
	return nil
}

// failPublish tears down a failed first publication. Mid-upload failures are
// unwound by materializePages itself, but a failure after the page rows were
// inserted leaves rows and blobs behind, so both are removed here before the
// chapter row goes.
func (service *Service) failPublish(ctx context.Context, chapter *Chapter, actorID string, cause error) {
	keys, err := service.chapterRepo.DeleteImages(ctx, chapter.ID)
	if err != nil {
		service.logger.Error("publish_cleanup_failed",
			slog.String("chapter_id", chapter.ID),
			slog.Any("error", err),
		)
	}
	for _, key := range keys {
		if err := service.blobStore.Delete(ctx, key); err != nil {
			service.logger.Error("page_blob_orphaned",
				slog.String("blob_key", key),
				slog.Any("error", err),
			)
		}
	}

	service.discardStash(ctx, chapter)

	if err := service.chapterRepo.Delete(ctx, chapter.ID); err != nil {
		service.logger.Error("publish_cleanup_failed",
			slog.String("chapter_id", chapter.ID),
			slog.Any("error", err),
		)
	}

	if err := service.notifier.ChapterUploadFailed(ctx, actorID, chapter.TitleID); err != nil {
		service.logger.Error("upload_notification_failed",
			slog.String("chapter_id", chapter.ID),
			slog.Any("error", err),
		)
	}

	service.logger.Warn("chapter_publish_failed",
		slog.String("chapter_id", chapter.ID),
		slog.Any("error", cause),
	)
}

// unwindUploads deletes blobs uploaded before a mid-flight failure.
func (service *Service) unwindUploads(ctx context.Context, images []*Image) {
	for _, image := range images {
		if err := service.blobStore.Delete(ctx, image.BlobKey); err != nil {
			service.logger.Error("page_blob_orphaned",
				slog.String("blob_key", image.BlobKey),
				slog.Any("error", err),
			)
		}
	}
}

// discardStash deletes the stashed archive and clears its key, tolerating
// both already being gone.
func (service *Service) discardStash(ctx context.Context, chapter *Chapter) {
	if chapter.ArchiveKey == nil {
		return
	}

	if err := service.blobStore.Delete(ctx, *chapter.ArchiveKey); err != nil {
		service.logger.Error("archive_stash_orphaned",
			slog.String("blob_key", *chapter.ArchiveKey),
			slog.Any("error", err),
		)
	}
	if err := service.chapterRepo.SetArchiveKey(ctx, chapter.ID, nil); err != nil {
		if !apperr.IsNotFound(err) {
			service.logger.Error("archive_key_clear_failed",
				slog.String("chapter_id", chapter.ID),
				slog.Any("error", err),
			)
		}
	}
	chapter.ArchiveKey = nil
}

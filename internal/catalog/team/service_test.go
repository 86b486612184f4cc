// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package team

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mangetsu/mangetsu/internal/ingest/blob"
	"github.com/mangetsu/mangetsu/internal/platform/apperr"
	"github.com/mangetsu/mangetsu/internal/platform/dberr"
	"github.com/mangetsu/mangetsu/internal/platform/jobs"
	"github.com/mangetsu/mangetsu/internal/platform/sec"
)

// # Fakes

type participantKey struct {
	userID string
	teamID string
}

type fakeRepository struct {
	teams        map[string]*Team
	participants map[participantKey]*Participant
	blobKeys     map[string][]string
	published    map[string]bool

	deletedTeams []string
	findErr      error
}

func newTeamFakeRepository() *fakeRepository {
	return &fakeRepository{
		teams:        make(map[string]*Team),
		participants: make(map[participantKey]*Participant),
		blobKeys:     make(map[string][]string),
		published:    make(map[string]bool),
	}
}

func (f *fakeRepository) List(ctx context.Context, limit, offset int) ([]*Team, int, error) {
	return nil, 0, nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id string) (*Team, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	team, ok := f.teams[id]
	if !ok {
		return nil, apperr.NotFound("team")
	}
	clone := *team
	return &clone, nil
}

func (f *fakeRepository) FindBySlug(ctx context.Context, slug string) (*Team, error) {
	for _, team := range f.teams {
		if team.Slug == slug {
			clone := *team
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("team")
}

func (f *fakeRepository) Create(ctx context.Context, team *Team) error {
	clone := *team
	f.teams[team.ID] = &clone
	return nil
}

func (f *fakeRepository) Update(ctx context.Context, team *Team) error { return nil }

func (f *fakeRepository) Delete(ctx context.Context, id string) error {
	delete(f.teams, id)
	f.deletedTeams = append(f.deletedTeams, id)
	return nil
}

func (f *fakeRepository) HasPublishedChapters(ctx context.Context, teamID string) (bool, error) {
	return f.published[teamID], nil
}

func (f *fakeRepository) PageBlobKeys(ctx context.Context, teamID string) ([]string, error) {
	return f.blobKeys[teamID], nil
}

func (f *fakeRepository) ListParticipants(ctx context.Context, teamID string) ([]*Participant, error) {
	var roster []*Participant
	for key, participant := range f.participants {
		if key.teamID == teamID {
			roster = append(roster, participant)
		}
	}
	return roster, nil
}

func (f *fakeRepository) FindParticipant(ctx context.Context, userID, teamID string) (*Participant, error) {
	participant, ok := f.participants[participantKey{userID, teamID}]
	if !ok {
		return nil, apperr.NotFound("participant")
	}
	return participant, nil
}

func (f *fakeRepository) UpsertParticipant(ctx context.Context, participant *Participant) error {
	f.participants[participantKey{participant.UserID, participant.TeamID}] = participant
	return nil
}

func (f *fakeRepository) RemoveParticipant(ctx context.Context, userID, teamID string) error {
	delete(f.participants, participantKey{userID, teamID})
	return nil
}

func (f *fakeRepository) CountAdmins(ctx context.Context, teamID string) (int, error) {
	count := 0
	for key, participant := range f.participants {
		if key.teamID == teamID && participant.HasRole(RoleAdmin) {
			count++
		}
	}
	return count, nil
}

type fakeBlobStore struct {
	objects map[string][]byte
}

func (f *fakeBlobStore) Upload(ctx context.Context, data []byte, folder string) (blob.Ref, error) {
	return blob.Ref{}, nil
}

func (f *fakeBlobStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	return f.objects[key], nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
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

type teamRig struct {
	service *Service
	repo    *fakeRepository
	blobs   *fakeBlobStore
	queue   *fakeDispatcher
}

func newTeamRig() *teamRig {
	repo := newTeamFakeRepository()
	blobs := &fakeBlobStore{objects: make(map[string][]byte)}
	queue := &fakeDispatcher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &teamRig{
		service: NewService(repo, blobs, queue, logger),
		repo:    repo,
		blobs:   blobs,
		queue:   queue,
	}
}

const testTeamID = "018f0000-0000-7000-8000-00000000bbbb"

func seedTeam(rig *teamRig, adminIDs ...string) {
	rig.repo.teams[testTeamID] = &Team{ID: testTeamID, Name: "SIU Scans", Slug: "siu-scans"}
	for _, adminID := range adminIDs {
		rig.repo.participants[participantKey{adminID, testTeamID}] = &Participant{
			UserID: adminID,
			TeamID: testTeamID,
			Roles:  []string{RoleAdmin},
		}
	}
}

func adminClaims(userID string) *sec.AuthClaims {
	return &sec.AuthClaims{UserID: userID, Role: string(sec.RoleMember)}
}

// # Deletion

func TestDeleteTeam_DeferredWhenChaptersPublished(t *testing.T) {
	rig := newTeamRig()
	seedTeam(rig, "admin")
	rig.repo.published[testTeamID] = true

	deferred, err := rig.service.DeleteTeam(context.Background(), adminClaims("admin"), testTeamID)

	require.NoError(t, err)
	assert.True(t, deferred)
	// The row survives until the background job runs.
	assert.Contains(t, rig.repo.teams, testTeamID)
	require.Len(t, rig.queue.enqueued, 1)
	assert.Equal(t, jobs.TeamDelete, rig.queue.enqueued[0].name)
}

func TestHandleDelete_RemovesBlobsThenRow(t *testing.T) {
	rig := newTeamRig()
	seedTeam(rig, "admin")
	rig.repo.blobKeys[testTeamID] = []string{"pages/a.png", "pages/b.png"}
	rig.blobs.objects["pages/a.png"] = []byte("a")
	rig.blobs.objects["pages/b.png"] = []byte("b")

	raw, err := json.Marshal(jobs.TeamDeleteArgs{TeamID: testTeamID})
	require.NoError(t, err)

	require.NoError(t, rig.service.HandleDelete(context.Background(), raw))

	assert.Empty(t, rig.blobs.objects)
	assert.NotContains(t, rig.repo.teams, testTeamID)
}

func TestHandleDelete_MissingTeamIsSuccess(t *testing.T) {
	rig := newTeamRig()

	raw, err := json.Marshal(jobs.TeamDeleteArgs{TeamID: testTeamID})
	require.NoError(t, err)

	require.NoError(t, rig.service.HandleDelete(context.Background(), raw))
	assert.Empty(t, rig.repo.deletedTeams)
}

func TestHandleDelete_StorageOutageIsRetryable(t *testing.T) {
	rig := newTeamRig()
	seedTeam(rig, "admin")
	rig.repo.findErr = dberr.Wrap(errors.New("connection refused"), "team")

	raw, err := json.Marshal(jobs.TeamDeleteArgs{TeamID: testTeamID})
	require.NoError(t, err)

	// Only a missing row may be acknowledged; an outage must surface so the
	// queue retries the delivery.
	require.Error(t, rig.service.HandleDelete(context.Background(), raw))
	assert.Contains(t, rig.repo.teams, testTeamID)
}

// # Roster Guards

func TestRemoveParticipant_LastAdminStays(t *testing.T) {
	rig := newTeamRig()
	seedTeam(rig, "admin")

	err := rig.service.RemoveParticipant(context.Background(), adminClaims("admin"), "admin", testTeamID)

	require.Error(t, err)
	assert.True(t, apperr.IsAppError(err))
	assert.Contains(t, rig.repo.participants, participantKey{"admin", testTeamID})
}

func TestRemoveParticipant_AdminMayLeaveWithBackup(t *testing.T) {
	rig := newTeamRig()
	seedTeam(rig, "admin", "backup")

	err := rig.service.RemoveParticipant(context.Background(), adminClaims("admin"), "admin", testTeamID)

	require.NoError(t, err)
	assert.NotContains(t, rig.repo.participants, participantKey{"admin", testTeamID})
}

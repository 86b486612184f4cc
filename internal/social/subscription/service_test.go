// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package subscription

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mangetsu/mangetsu/internal/platform/apperr"
)

// # Fakes

type subscriptionKey struct {
	userID  string
	titleID string
	teamID  string // "" = title-wide
}

type fakeRepository struct {
	rows map[subscriptionKey]*Subscription
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{rows: make(map[subscriptionKey]*Subscription)}
}

func key(userID, titleID string, teamID *string) subscriptionKey {
	k := subscriptionKey{userID: userID, titleID: titleID}
	if teamID != nil {
		k.teamID = *teamID
	}
	return k
}

func (f *fakeRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Subscription, int, error) {
	var out []*Subscription
	for _, subscription := range f.rows {
		if subscription.UserID == userID {
			out = append(out, subscription)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepository) Create(ctx context.Context, subscription *Subscription) error {
	k := key(subscription.UserID, subscription.TitleID, subscription.TeamID)
	if _, exists := f.rows[k]; exists {
		return apperr.Conflict("You are already subscribed")
	}
	subscription.CreatedAt = time.Now()
	f.rows[k] = subscription
	return nil
}

func (f *fakeRepository) Delete(ctx context.Context, userID, titleID string, teamID *string) error {
	k := key(userID, titleID, teamID)
	if _, exists := f.rows[k]; !exists {
		return apperr.NotFound("subscription")
	}
	delete(f.rows, k)
	return nil
}

// # Tests

const (
	testUserID  = "0198ac4e-0000-7000-8000-00000000cc01"
	testTitleID = "0198ac4e-0000-7000-8000-00000000cc02"
	testTeamID  = "0198ac4e-0000-7000-8000-00000000cc03"
)

func newService(t *testing.T) (*Service, *fakeRepository) {
	t.Helper()
	repo := newFakeRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, logger), repo
}

func TestSubscribe_TitleWideAndPerTeamCoexist(t *testing.T) {
	service, repo := newService(t)

	_, err := service.Subscribe(context.Background(), testUserID, testTitleID, nil)
	require.NoError(t, err)

	teamID := testTeamID
	_, err = service.Subscribe(context.Background(), testUserID, testTitleID, &teamID)
	require.NoError(t, err)

	assert.Len(t, repo.rows, 2, "a title-wide and a per-team follow of the same title are distinct")
}

func TestSubscribe_DuplicateConflicts(t *testing.T) {
	service, _ := newService(t)

	_, err := service.Subscribe(context.Background(), testUserID, testTitleID, nil)
	require.NoError(t, err)

	_, err = service.Subscribe(context.Background(), testUserID, testTitleID, nil)
	require.Error(t, err)
}

func TestSubscribe_MalformedTitleRejected(t *testing.T) {
	service, repo := newService(t)

	_, err := service.Subscribe(context.Background(), testUserID, "not-a-uuid", nil)
	require.Error(t, err)
	assert.Empty(t, repo.rows)
}

func TestUnsubscribe_TargetsExactShape(t *testing.T) {
	service, repo := newService(t)

	teamID := testTeamID
	_, err := service.Subscribe(context.Background(), testUserID, testTitleID, &teamID)
	require.NoError(t, err)

	// The title-wide shape was never created, so removing it fails even
	// though a per-team follow of the same title exists.
	err = service.Unsubscribe(context.Background(), testUserID, testTitleID, nil)
	require.Error(t, err)

	require.NoError(t, service.Unsubscribe(context.Background(), testUserID, testTitleID, &teamID))
	assert.Empty(t, repo.rows)
}

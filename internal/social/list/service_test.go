// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package list

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mangetsu/mangetsu/internal/catalog/title"
	"github.com/mangetsu/mangetsu/internal/platform/apperr"
	"github.com/mangetsu/mangetsu/internal/platform/sec"
)

// # Fakes

type fakeRepository struct {
	lists   map[string]*List
	members map[string]map[string]bool
	inLists map[string]int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		lists:   make(map[string]*List),
		members: make(map[string]map[string]bool),
		inLists: make(map[string]int),
	}
}

func (f *fakeRepository) ListByUser(ctx context.Context, userID string, includeHidden bool) ([]*List, error) {
	var out []*List
	for _, list := range f.lists {
		if list.UserID != userID {
			continue
		}
		if list.Hidden && !includeHidden {
			continue
		}
		clone := *list
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeRepository) FindByID(ctx context.Context, listID string) (*List, error) {
	list, ok := f.lists[listID]
	if !ok {
		return nil, apperr.NotFound("list")
	}
	clone := *list
	return &clone, nil
}

func (f *fakeRepository) Create(ctx context.Context, list *List) error {
	for _, existing := range f.lists {
		if existing.UserID == list.UserID && existing.Name == list.Name {
			return apperr.Conflict("You already have a list with this name")
		}
	}
	list.CreatedAt = time.Now()
	clone := *list
	f.lists[list.ID] = &clone
	f.members[list.ID] = make(map[string]bool)
	return nil
}

func (f *fakeRepository) Update(ctx context.Context, list *List) error {
	stored, ok := f.lists[list.ID]
	if !ok {
		return apperr.NotFound("list")
	}
	stored.Name = list.Name
	stored.Hidden = list.Hidden
	return nil
}

// Delete mirrors the store contract: cascading members give their
// in-lists credit back.
func (f *fakeRepository) Delete(ctx context.Context, listID string) error {
	if _, ok := f.lists[listID]; !ok {
		return apperr.NotFound("list")
	}
	for titleID := range f.members[listID] {
		f.inLists[titleID]--
	}
	delete(f.lists, listID)
	delete(f.members, listID)
	return nil
}

func (f *fakeRepository) ListTitles(ctx context.Context, listID string, limit, offset int) ([]*title.Title, int, error) {
	return nil, len(f.members[listID]), nil
}

func (f *fakeRepository) AddTitle(ctx context.Context, listID, titleID string) error {
	if f.members[listID][titleID] {
		return apperr.Conflict("This title is already in the list")
	}
	f.members[listID][titleID] = true
	f.lists[listID].TitlesCount++
	f.inLists[titleID]++
	return nil
}

func (f *fakeRepository) RemoveTitle(ctx context.Context, listID, titleID string) error {
	if !f.members[listID][titleID] {
		return apperr.NotFound("title")
	}
	delete(f.members[listID], titleID)
	f.lists[listID].TitlesCount--
	f.inLists[titleID]--
	return nil
}

// # Test Rig

const (
	testOwnerID   = "0198ac4e-0000-7000-8000-00000000bb01"
	testVisitorID = "0198ac4e-0000-7000-8000-00000000bb02"
	testTitleID   = "0198ac4e-0000-7000-8000-00000000bb03"
)

func newService(t *testing.T) (*Service, *fakeRepository) {
	t.Helper()
	repo := newFakeRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, logger), repo
}

func ownerClaims() *sec.AuthClaims {
	return &sec.AuthClaims{UserID: testOwnerID, Username: "owner", Role: string(sec.RoleMember)}
}

func visitorClaims() *sec.AuthClaims {
	return &sec.AuthClaims{UserID: testVisitorID, Username: "visitor", Role: string(sec.RoleMember)}
}

// # Visibility

func TestListUserLists_HiddenOnlyForOwnerAndModerator(t *testing.T) {
	service, _ := newService(t)
	_, err := service.CreateList(context.Background(), testOwnerID, ListInput{Name: "Public picks"})
	require.NoError(t, err)
	_, err = service.CreateList(context.Background(), testOwnerID, ListInput{Name: "Guilty pleasures", Hidden: true})
	require.NoError(t, err)

	asVisitor, err := service.ListUserLists(context.Background(), testOwnerID, visitorClaims())
	require.NoError(t, err)
	assert.Len(t, asVisitor, 1)

	asAnonymous, err := service.ListUserLists(context.Background(), testOwnerID, nil)
	require.NoError(t, err)
	assert.Len(t, asAnonymous, 1)

	asOwner, err := service.ListUserLists(context.Background(), testOwnerID, ownerClaims())
	require.NoError(t, err)
	assert.Len(t, asOwner, 2)

	moderator := &sec.AuthClaims{UserID: testVisitorID, Username: "mod", Role: string(sec.RoleModerator)}
	asModerator, err := service.ListUserLists(context.Background(), testOwnerID, moderator)
	require.NoError(t, err)
	assert.Len(t, asModerator, 2)
}

func TestGetListTitles_HiddenListLooksMissingToStrangers(t *testing.T) {
	service, _ := newService(t)
	hidden, err := service.CreateList(context.Background(), testOwnerID, ListInput{Name: "Secret", Hidden: true})
	require.NoError(t, err)

	_, _, err = service.GetListTitles(context.Background(), hidden.ID, visitorClaims(), 20, 0)
	require.Error(t, err)

	_, _, err = service.GetListTitles(context.Background(), hidden.ID, ownerClaims(), 20, 0)
	require.NoError(t, err)
}

// # Lifecycle

func TestCreateList_DuplicateNameConflicts(t *testing.T) {
	service, _ := newService(t)
	_, err := service.CreateList(context.Background(), testOwnerID, ListInput{Name: "Favourites"})
	require.NoError(t, err)

	_, err = service.CreateList(context.Background(), testOwnerID, ListInput{Name: "Favourites"})
	require.Error(t, err)
}

func TestUpdateList_StrangerForbidden(t *testing.T) {
	service, repo := newService(t)
	created, err := service.CreateList(context.Background(), testOwnerID, ListInput{Name: "Favourites"})
	require.NoError(t, err)

	_, err = service.UpdateList(context.Background(), visitorClaims(), created.ID, ListInput{Name: "Hijacked"})
	require.Error(t, err)
	assert.Equal(t, "Favourites", repo.lists[created.ID].Name)
}

// # Membership Counters

func TestAddRemoveTitle_CountersStaySymmetric(t *testing.T) {
	service, repo := newService(t)
	created, err := service.CreateList(context.Background(), testOwnerID, ListInput{Name: "Favourites"})
	require.NoError(t, err)

	require.NoError(t, service.AddTitle(context.Background(), ownerClaims(), created.ID, testTitleID))
	assert.Equal(t, 1, repo.lists[created.ID].TitlesCount)
	assert.Equal(t, 1, repo.inLists[testTitleID])

	require.NoError(t, service.RemoveTitle(context.Background(), ownerClaims(), created.ID, testTitleID))
	assert.Equal(t, 0, repo.lists[created.ID].TitlesCount)
	assert.Equal(t, 0, repo.inLists[testTitleID])
}

func TestAddTitle_DuplicateMemberConflicts(t *testing.T) {
	service, repo := newService(t)
	created, err := service.CreateList(context.Background(), testOwnerID, ListInput{Name: "Favourites"})
	require.NoError(t, err)

	require.NoError(t, service.AddTitle(context.Background(), ownerClaims(), created.ID, testTitleID))
	err = service.AddTitle(context.Background(), ownerClaims(), created.ID, testTitleID)
	require.Error(t, err)
	assert.Equal(t, 1, repo.lists[created.ID].TitlesCount, "a rejected insert must not move the counter")
}

func TestDeleteList_ReleasesMemberTitles(t *testing.T) {
	service, repo := newService(t)
	created, err := service.CreateList(context.Background(), testOwnerID, ListInput{Name: "Favourites"})
	require.NoError(t, err)
	require.NoError(t, service.AddTitle(context.Background(), ownerClaims(), created.ID, testTitleID))

	require.NoError(t, service.DeleteList(context.Background(), ownerClaims(), created.ID))
	assert.Equal(t, 0, repo.inLists[testTitleID], "cascading members must give their in-lists credit back")
}

package user_test

import (
	"context"
	"github.com/one-edge/portal/internal/storage/inmem"
	"github.com/one-edge/portal/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestRecordLogin(t *testing.T) {
	ctx := context.Background()
	driver := inmem.New()
	require.NoError(t, driver.Initialize(ctx))
	defer driver.Close()
	repo := driver.Users()

	first := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	created, err := user.RecordLogin(ctx, repo, &user.Login{
		ID:          "subject-1",
		DisplayName: "Jane",
		Email:       "jane@example.com",
		At:          first,
	})
	require.NoError(t, err)
	assert.Equal(t, "subject-1", created.ID)
	assert.Equal(t, first, created.FirstLogin)
	assert.Equal(t, first, created.LastLogin)

	second := first.Add(24 * time.Hour)
	updated, err := user.RecordLogin(ctx, repo, &user.Login{
		ID:          "subject-1",
		DisplayName: "Jane Doe",
		Email:       "jane.doe@example.com",
		At:          second,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", updated.DisplayName)
	assert.Equal(t, "jane.doe@example.com", updated.Email)
	assert.Equal(t, first, updated.FirstLogin)
	assert.Equal(t, second, updated.LastLogin)
}

// scriptedRepository answers every call with the configured results and records which calls were made
type scriptedRepository struct {
	getResult    *user.User
	updateResult *user.User
	createErr    error
	calls        []string
}

func (repo *scriptedRepository) GetByID(context.Context, string) (*user.User, error) {
	repo.calls = append(repo.calls, "get")
	return repo.getResult, nil
}

func (repo *scriptedRepository) Create(_ context.Context, create *user.Create) (*user.User, error) {
	repo.calls = append(repo.calls, "create")
	if repo.createErr != nil {
		return nil, repo.createErr
	}
	return &user.User{ID: create.ID, DisplayName: create.DisplayName, FirstLogin: create.LoginAt, LastLogin: create.LoginAt}, nil
}

func (repo *scriptedRepository) Update(context.Context, string, *user.Update) (*user.User, error) {
	repo.calls = append(repo.calls, "update")
	return repo.updateResult, nil
}

func (repo *scriptedRepository) Delete(context.Context, string) error {
	repo.calls = append(repo.calls, "delete")
	return nil
}

func TestRecordLoginRecreatesUserDeletedDuringUpdate(t *testing.T) {
	repo := &scriptedRepository{getResult: &user.User{ID: "subject-1"}}
	at := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	obj, err := user.RecordLogin(context.Background(), repo, &user.Login{ID: "subject-1", DisplayName: "Jane", At: at})

	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.Equal(t, "subject-1", obj.ID)
	assert.Equal(t, at, obj.FirstLogin)
	assert.Equal(t, []string{"get", "update", "create"}, repo.calls)
}

func TestRecordLoginUpdatesUserCreatedConcurrently(t *testing.T) {
	repo := &scriptedRepository{
		updateResult: &user.User{ID: "subject-1", DisplayName: "Jane"},
		createErr:    user.ErrAlreadyExists,
	}

	obj, err := user.RecordLogin(context.Background(), repo, &user.Login{ID: "subject-1", DisplayName: "Jane", At: time.Now()})

	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.Equal(t, "Jane", obj.DisplayName)
	assert.Equal(t, []string{"get", "create", "update"}, repo.calls)
}

func TestRecordLoginNeverReturnsNilUserWithoutError(t *testing.T) {
	repo := &scriptedRepository{
		getResult: &user.User{ID: "subject-1"},
		createErr: user.ErrAlreadyExists,
	}

	obj, err := user.RecordLogin(context.Background(), repo, &user.Login{ID: "subject-1", At: time.Now()})

	assert.ErrorIs(t, err, user.ErrLoginConflict)
	assert.Nil(t, obj)
}

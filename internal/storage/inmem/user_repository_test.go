package inmem

import (
	"context"
	"github.com/one-edge/portal/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	driver := New()
	require.NoError(t, driver.Initialize(context.Background()))
	t.Cleanup(driver.Close)
	return driver
}

func TestUserRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestDriver(t).Users()
	loginAt := time.Date(2026, 10, 16, 8, 30, 0, 0, time.UTC)

	created, err := repo.Create(ctx, &user.Create{
		ID:          "subject-1",
		DisplayName: "Jane Doe",
		Email:       "jane@example.com",
		LoginAt:     loginAt,
	})
	require.NoError(t, err)
	assert.Equal(t, loginAt, created.FirstLogin)
	assert.Equal(t, loginAt, created.LastLogin)

	fetched, err := repo.GetByID(ctx, "subject-1")
	require.NoError(t, err)
	assert.Equal(t, created, fetched)

	missing, err := repo.GetByID(ctx, "subject-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepositoryCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := newTestDriver(t).Users()

	_, err := repo.Create(ctx, &user.Create{ID: "subject-1", LoginAt: time.Now()})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &user.Create{ID: "subject-1", LoginAt: time.Now()})
	assert.ErrorIs(t, err, user.ErrAlreadyExists)
}

func TestUserRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newTestDriver(t).Users()
	first := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	_, err := repo.Create(ctx, &user.Create{ID: "subject-1", DisplayName: "Jane", LoginAt: first})
	require.NoError(t, err)

	name := "Jane Doe"
	updated, err := repo.Update(ctx, "subject-1", &user.Update{DisplayName: &name, LastLogin: &second})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Jane Doe", updated.DisplayName)
	assert.Equal(t, first, updated.FirstLogin)
	assert.Equal(t, second, updated.LastLogin)

	missing, err := repo.Update(ctx, "subject-2", &user.Update{DisplayName: &name})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := newTestDriver(t).Users()

	created, err := repo.Create(ctx, &user.Create{ID: "subject-1", DisplayName: "Jane", LoginAt: time.Now()})
	require.NoError(t, err)
	created.DisplayName = "changed"

	fetched, err := repo.GetByID(ctx, "subject-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", fetched.DisplayName)
}

func TestUserRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestDriver(t).Users()

	_, err := repo.Create(ctx, &user.Create{ID: "subject-1", LoginAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, "subject-1"))
	require.NoError(t, repo.Delete(ctx, "subject-1"))

	fetched, err := repo.GetByID(ctx, "subject-1")
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

package fakeuserrepo_test

import (
	"testing"
	"time"

	apperrors "github.com/jrsteele09/retail-console/internal/errors"
	"github.com/jrsteele09/retail-console/users"
	fakeuserrepo "github.com/jrsteele09/retail-console/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeUserRepo(t *testing.T) {
	repo := fakeuserrepo.NewFakeUserRepo()

	u := &users.User{Email: "Staff@Store.test"}
	require.NoError(t, repo.Upsert(u))
	require.NotEmpty(t, u.ID)
	require.Error(t, repo.Upsert(&users.User{}), "email is required")

	got, err := repo.GetByEmail(" staff@store.test")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = repo.GetByEmail("missing@store.test")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = repo.GetByID("missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	renamed := &users.User{ID: u.ID, Email: "lead@store.test"}
	require.NoError(t, repo.Upsert(renamed))
	_, err = repo.GetByEmail("staff@store.test")
	require.ErrorIs(t, err, apperrors.ErrNotFound, "old email no longer resolves")

	now := time.Now()
	require.NoError(t, repo.SetLoggedIn(u.ID, now))
	got, err = repo.GetByID(u.ID)
	require.NoError(t, err)
	require.Equal(t, now, got.LastLogin)
	require.ErrorIs(t, repo.SetLoggedIn("missing", now), apperrors.ErrNotFound)
}

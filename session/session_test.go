package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/retail-console/session"
	"github.com/jrsteele09/retail-console/storage"
	"github.com/jrsteele09/retail-console/storage/memstore"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	*memstore.MemStore
}

func (failingStore) Remove(string) error {
	return errors.New("disk full")
}

func (failingStore) Set(string, string) error {
	return errors.New("disk full")
}

func TestNew_Empty(t *testing.T) {
	s, err := session.New(memstore.New())
	require.NoError(t, err)
	require.Equal(t, session.Unauthenticated, s.Status())
	require.Empty(t, s.Token())
}

func TestNew_RestoresPersistedToken(t *testing.T) {
	s, err := session.New(memstore.NewWithValues(map[string]string{storage.KeyToken: "tok1"}))
	require.NoError(t, err)
	require.Equal(t, session.Snapshot{Token: "tok1", Status: session.Authenticated}, s.Snapshot())
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := session.New(nil)
	require.Error(t, err)
}

func TestSetTokenAndClear(t *testing.T) {
	durable := memstore.New()
	s, err := session.New(durable)
	require.NoError(t, err)

	require.Error(t, s.SetToken(""))
	require.Equal(t, session.Unauthenticated, s.Status())

	require.NoError(t, s.SetToken("tok1"))
	require.Equal(t, session.Authenticated, s.Status())
	v, err := durable.Get(storage.KeyToken)
	require.NoError(t, err)
	require.Equal(t, "tok1", v)

	require.NoError(t, s.Clear())
	require.Equal(t, session.Unauthenticated, s.Status())
	_, err = durable.Get(storage.KeyToken)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClear_DurableFailureStillClearsMemory(t *testing.T) {
	s, err := session.New(failingStore{memstore.NewWithValues(map[string]string{storage.KeyToken: "tok1"})})
	require.NoError(t, err)

	require.Error(t, s.Clear())
	require.Equal(t, session.Unauthenticated, s.Status())
}

func TestSetToken_DurableFailureStillAuthenticates(t *testing.T) {
	durable := failingStore{memstore.New()}
	s, err := session.New(durable)
	require.NoError(t, err)

	require.ErrorContains(t, s.SetToken("tok1"), "disk full")
	require.Equal(t, session.Snapshot{Token: "tok1", Status: session.Authenticated}, s.Snapshot())
	_, err = durable.Get(storage.KeyToken)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-1",
		"email": "a@b.com",
		"exp":   exp.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	s, err := session.New(memstore.New())
	require.NoError(t, err)

	_, err = s.Claims()
	require.Error(t, err, "no token yet")

	require.NoError(t, s.SetToken(signed))
	c, err := s.Claims()
	require.NoError(t, err)
	require.Equal(t, "user-1", c.Subject)
	require.Equal(t, "a@b.com", c.Email)
	require.True(t, exp.Equal(c.ExpiresAt))

	require.NoError(t, s.SetToken("opaque-token"))
	_, err = s.Claims()
	require.Error(t, err)
}

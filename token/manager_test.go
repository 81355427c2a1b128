package token_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/retail-console/token"
	tokenfakerepo "github.com/jrsteele09/retail-console/token/repofake"
	"github.com/jrsteele09/retail-console/users"
	fakeuserrepo "github.com/jrsteele09/retail-console/users/repofake"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	now     time.Time
	user    *users.User
	tokens  *tokenfakerepo.FakeTokenRepo
	manager *token.Manager
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		now:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		tokens: tokenfakerepo.NewFakeTokensRepo(),
	}
	userRepo := fakeuserrepo.NewFakeUserRepo()
	f.user = &users.User{Email: "manager@retail.test", FirstName: "Store", LastName: "Manager"}
	require.NoError(t, userRepo.Upsert(f.user))

	var err error
	f.manager, err = token.New(f.tokens, userRepo, token.NewHMACSigner("test-secret"),
		token.WithTokenExpiry(time.Minute, time.Hour),
		token.WithNowFunc(func() time.Time { return f.now }),
	)
	require.NoError(t, err)
	return f
}

func TestNew_Validation(t *testing.T) {
	_, err := token.New(nil, fakeuserrepo.NewFakeUserRepo(), token.NewHMACSigner("s"))
	require.Error(t, err)
	_, err = token.New(tokenfakerepo.NewFakeTokensRepo(), nil, token.NewHMACSigner("s"))
	require.Error(t, err)
	_, err = token.New(tokenfakerepo.NewFakeTokensRepo(), fakeuserrepo.NewFakeUserRepo(), nil)
	require.Error(t, err)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	f := setupTestFixture(t)

	raw, err := f.manager.CreateAccessToken(f.user)
	require.NoError(t, err)

	claims, err := f.manager.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, f.user.ID, claims.Subject)
	require.Equal(t, "manager@retail.test", claims.Email)
	require.Equal(t, f.now.Add(time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestAccessToken_Rejected(t *testing.T) {
	f := setupTestFixture(t)
	raw, err := f.manager.CreateAccessToken(f.user)
	require.NoError(t, err)

	_, err = f.manager.Verify("")
	require.ErrorIs(t, err, token.ErrInvalidToken)
	_, err = f.manager.Verify("not-a-jwt")
	require.ErrorIs(t, err, token.ErrInvalidToken)

	other, err := token.New(f.tokens, fakeuserrepo.NewFakeUserRepo(), token.NewHMACSigner("other-secret"))
	require.NoError(t, err)
	_, err = other.Verify(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken, "wrong key")

	f.now = f.now.Add(2 * time.Minute)
	_, err = f.manager.Verify(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken, "expired")
}

func TestRevocation(t *testing.T) {
	f := setupTestFixture(t)
	first, err := f.manager.CreateAccessToken(f.user)
	require.NoError(t, err)
	second, err := f.manager.CreateAccessToken(f.user)
	require.NoError(t, err)

	require.NoError(t, f.manager.RevokeAccessToken(first))
	_, err = f.manager.Verify(first)
	require.ErrorIs(t, err, token.ErrInvalidToken)
	_, err = f.manager.Verify(second)
	require.NoError(t, err)

	f.manager.RevokeAllAccessTokens()
	_, err = f.manager.Verify(second)
	require.ErrorIs(t, err, token.ErrInvalidToken)

	third, err := f.manager.CreateAccessToken(f.user)
	require.NoError(t, err)
	_, err = f.manager.Verify(third)
	require.NoError(t, err, "tokens issued after a revoke-all are valid")
}

func TestRefreshToken_Rotation(t *testing.T) {
	f := setupTestFixture(t)

	rt, err := f.manager.CreateRefreshToken(f.user.ID)
	require.NoError(t, err)
	require.Len(t, rt, 64)

	pair, err := f.manager.Rotate(rt)
	require.NoError(t, err)
	require.NotEqual(t, rt, pair.RefreshToken)
	_, err = f.manager.Verify(pair.AccessToken)
	require.NoError(t, err)

	_, err = f.manager.Rotate(rt)
	require.ErrorIs(t, err, token.ErrInvalidRefreshToken, "rotated token is consumed")

	require.Equal(t, 1, f.tokens.Len())
	f.manager.InvalidateRefreshToken(pair.RefreshToken)
	_, err = f.manager.Rotate(pair.RefreshToken)
	require.ErrorIs(t, err, token.ErrInvalidRefreshToken)
}

func TestRefreshToken_SinglePerUser(t *testing.T) {
	f := setupTestFixture(t)
	first, err := f.manager.CreateRefreshToken(f.user.ID)
	require.NoError(t, err)
	second, err := f.manager.CreateRefreshToken(f.user.ID)
	require.NoError(t, err)

	_, err = f.manager.Rotate(first)
	require.ErrorIs(t, err, token.ErrInvalidRefreshToken)
	_, err = f.manager.Rotate(second)
	require.NoError(t, err)
}

func TestRefreshToken_Expired(t *testing.T) {
	f := setupTestFixture(t)
	rt, err := f.manager.CreateRefreshToken(f.user.ID)
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Hour)
	_, err = f.manager.Rotate(rt)
	require.ErrorIs(t, err, token.ErrRefreshTokenExpired)
	require.Zero(t, f.tokens.Len(), "expired token is consumed")
}

func TestRefreshToken_BlockedUser(t *testing.T) {
	f := setupTestFixture(t)
	rt, err := f.manager.CreateRefreshToken(f.user.ID)
	require.NoError(t, err)

	f.user.Blocked = true
	_, err = f.manager.Rotate(rt)
	require.ErrorIs(t, err, token.ErrUserBlocked)
}

func TestCleanupRevokedTokens(t *testing.T) {
	f := setupTestFixture(t)
	raw, err := f.manager.CreateAccessToken(f.user)
	require.NoError(t, err)
	claims, err := f.manager.Verify(raw)
	require.NoError(t, err)
	require.NoError(t, f.manager.RevokeAccessToken(raw))

	list := token.NewMemoryRevocationList()
	list.Revoke(claims.ID, claims.ExpiresAt)
	list.Prune(f.now)
	require.True(t, list.Revoked(claims.ID))
	list.Prune(claims.ExpiresAt.Add(time.Second))
	require.False(t, list.Revoked(claims.ID))

	f.now = f.now.Add(time.Hour)
	f.manager.CleanupRevokedTokens()
	_, err = f.manager.Verify(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken, "expired tokens stay invalid after pruning")
}

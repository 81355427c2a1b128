package token

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/retail-console/users"
	"github.com/pkg/errors"
)

var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrUserBlocked         = errors.New("user is blocked")
)

// AccessClaims are the claims of a verified access token
type AccessClaims struct {
	Subject   string
	Email     string
	ID        string
	ExpiresAt time.Time
}

// TokenPair is the result of a refresh token rotation
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Manager issues and verifies access tokens and rotates refresh tokens
type Manager struct {
	signer             Signer
	issuer             string
	refreshRepo        RefreshTokenRepo
	userRepo           users.UserRepo
	revoked            RevocationList
	issued             issuedLedger
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	nowFunc            func() time.Time
}

type ManagerOption func(*Manager)

func WithTokenExpiry(accessTokenExpiry, refreshTokenExpiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = accessTokenExpiry
		m.refreshTokenExpiry = refreshTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithRevocationList(list RevocationList) ManagerOption {
	return func(m *Manager) {
		m.revoked = list
	}
}

func New(refreshRepo RefreshTokenRepo, userRepo users.UserRepo, signer Signer, options ...ManagerOption) (*Manager, error) {
	if refreshRepo == nil {
		return nil, errors.New("[token.New] refresh token repo is required")
	}
	if userRepo == nil {
		return nil, errors.New("[token.New] user repo is required")
	}
	if signer == nil {
		return nil, errors.New("[token.New] signer is required")
	}
	m := &Manager{
		signer:             signer,
		issuer:             "retail-console-dev",
		refreshRepo:        refreshRepo,
		userRepo:           userRepo,
		revoked:            NewMemoryRevocationList(),
		accessTokenExpiry:  15 * time.Minute,
		refreshTokenExpiry: 7 * 24 * time.Hour,
		nowFunc:            time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

func (m *Manager) RefreshTokenExpiry() time.Duration {
	return m.refreshTokenExpiry
}

func (m *Manager) CreateAccessToken(user *users.User) (string, error) {
	now := m.nowFunc()
	exp := now.Add(m.accessTokenExpiry)
	claims := StaffClaims{
		Email: user.Email,
		Name:  user.DisplayName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.CreateAccessToken]")
	}
	m.issued.record(claims.ID, exp)
	return signed, nil
}

// CreateRefreshToken replaces any refresh token the user already holds
func (m *Manager) CreateRefreshToken(userID string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, "[Manager.CreateRefreshToken] rand.Read")
	}
	rt := &RefreshToken{Token: hex.EncodeToString(raw), UserID: userID, IssuedAt: m.nowFunc()}
	if err := m.refreshRepo.Save(rt); err != nil {
		return "", errors.Wrap(err, "[Manager.CreateRefreshToken] Save")
	}
	return rt.Token, nil
}

// Verify checks signature, expiry and revocation of an access token
func (m *Manager) Verify(rawToken string) (*AccessClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrInvalidToken
	}

	var claims StaffClaims
	_, err := jwt.ParseWithClaims(rawToken, &claims, m.signer.Keyfunc,
		jwt.WithValidMethods([]string{m.signer.Alg()}),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if claims.ID == "" || m.revoked.Revoked(claims.ID) {
		return nil, errors.Wrap(ErrInvalidToken, "revoked")
	}

	return &AccessClaims{
		Subject:   claims.Subject,
		Email:     claims.Email,
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Rotate exchanges a refresh token for a new access token and a new refresh token.
// The presented refresh token is consumed whatever the outcome.
func (m *Manager) Rotate(refreshToken string) (*TokenPair, error) {
	rt, err := m.refreshRepo.Consume(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	if m.nowFunc().Sub(rt.IssuedAt) > m.refreshTokenExpiry {
		return nil, ErrRefreshTokenExpired
	}

	user, err := m.userRepo.GetByID(rt.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Rotate] user not found for refresh token")
	}
	if user.Blocked {
		return nil, ErrUserBlocked
	}

	accessToken, err := m.CreateAccessToken(user)
	if err != nil {
		return nil, err
	}
	next, err := m.CreateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: next}, nil
}

func (m *Manager) InvalidateRefreshToken(refreshToken string) {
	_ = m.refreshRepo.Delete(refreshToken)
}

// RevokeAccessToken revokes a valid access token by its jti
func (m *Manager) RevokeAccessToken(rawToken string) error {
	claims, err := m.Verify(rawToken)
	if err != nil {
		return err
	}
	m.issued.forget(claims.ID)
	m.revoked.Revoke(claims.ID, claims.ExpiresAt)
	return nil
}

// RevokeAllAccessTokens revokes every access token issued so far
func (m *Manager) RevokeAllAccessTokens() {
	for jti, exp := range m.issued.drain() {
		m.revoked.Revoke(jti, exp)
	}
}

// CleanupRevokedTokens drops bookkeeping for tokens that have expired
func (m *Manager) CleanupRevokedTokens() {
	now := m.nowFunc()
	m.revoked.Prune(now)
	m.issued.prune(now)
}

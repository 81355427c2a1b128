package token

import "time"

// RefreshToken is an opaque, server side refresh token. A user holds at most one.
type RefreshToken struct {
	Token    string
	UserID   string
	IssuedAt time.Time
}

type RefreshTokenRepo interface {
	Save(rt *RefreshToken) error
	// Consume removes and returns the token, so a token can be exchanged only once
	Consume(token string) (*RefreshToken, error)
	Delete(token string) error
	DeleteForUser(userID string) error
}

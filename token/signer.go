package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// StaffClaims is the payload of a console access token
type StaffClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Signer signs access tokens and hands jwt the key to verify them with
type Signer interface {
	Sign(claims jwt.Claims) (string, error)
	Keyfunc(t *jwt.Token) (any, error)
	Alg() string
}

// HMACSigner signs with a shared secret. It exists for the development backend only.
type HMACSigner struct {
	secret []byte
}

func NewHMACSigner(secret string) *HMACSigner {
	return &HMACSigner{secret: []byte(secret)}
}

func (s *HMACSigner) Sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "[HMACSigner.Sign]")
	}
	return signed, nil
}

func (s *HMACSigner) Keyfunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("[HMACSigner.Keyfunc] alg %v not accepted", t.Header["alg"])
	}
	return s.secret, nil
}

func (s *HMACSigner) Alg() string {
	return jwt.SigningMethodHS256.Alg()
}

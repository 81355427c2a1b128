package tokenfakerepo

import (
	"sync"

	apperrors "github.com/jrsteele09/retail-console/internal/errors"
	"github.com/jrsteele09/retail-console/token"
	"github.com/pkg/errors"
)

var _ token.RefreshTokenRepo = (*FakeTokenRepo)(nil)

type FakeTokenRepo struct {
	lock   sync.Mutex
	byTok  map[string]*token.RefreshToken
	byUser map[string]string
}

func NewFakeTokensRepo() *FakeTokenRepo {
	return &FakeTokenRepo{
		byTok:  make(map[string]*token.RefreshToken),
		byUser: make(map[string]string),
	}
}

// Save replaces whatever token the user held before
func (r *FakeTokenRepo) Save(rt *token.RefreshToken) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if old, ok := r.byUser[rt.UserID]; ok {
		delete(r.byTok, old)
	}
	r.byTok[rt.Token] = rt
	r.byUser[rt.UserID] = rt.Token
	return nil
}

func (r *FakeTokenRepo) Consume(tok string) (*token.RefreshToken, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	rt, ok := r.byTok[tok]
	if !ok {
		return nil, errors.Wrap(apperrors.ErrNotFound, "refresh token")
	}
	r.remove(rt)
	return rt, nil
}

func (r *FakeTokenRepo) Delete(tok string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if rt, ok := r.byTok[tok]; ok {
		r.remove(rt)
	}
	return nil
}

func (r *FakeTokenRepo) DeleteForUser(userID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if tok, ok := r.byUser[userID]; ok {
		r.remove(r.byTok[tok])
	}
	return nil
}

// Len is the number of live refresh tokens
func (r *FakeTokenRepo) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.byTok)
}

func (r *FakeTokenRepo) remove(rt *token.RefreshToken) {
	delete(r.byTok, rt.Token)
	if r.byUser[rt.UserID] == rt.Token {
		delete(r.byUser, rt.UserID)
	}
}

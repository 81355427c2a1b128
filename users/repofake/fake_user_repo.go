package fakeuserrepo

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/retail-console/internal/errors"
	"github.com/jrsteele09/retail-console/users"
	"github.com/pkg/errors"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// FakeUserRepo keeps users in memory. Emails match case insensitively.
type FakeUserRepo struct {
	lock    sync.RWMutex
	byID    map[string]*users.User
	byEmail map[string]*users.User
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		byID:    make(map[string]*users.User),
		byEmail: make(map[string]*users.User),
	}
}

func (r *FakeUserRepo) Upsert(user *users.User) error {
	if strings.TrimSpace(user.Email) == "" {
		return errors.New("[FakeUserRepo.Upsert] email is required")
	}
	r.lock.Lock()
	defer r.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if prev, ok := r.byID[user.ID]; ok {
		delete(r.byEmail, emailKey(prev.Email))
	}
	r.byID[user.ID] = user
	r.byEmail[emailKey(user.Email)] = user
	return nil
}

func (r *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	u, ok := r.byEmail[emailKey(email)]
	if !ok {
		return nil, errors.Wrapf(apperrors.ErrNotFound, "user %s", email)
	}
	return u, nil
}

func (r *FakeUserRepo) GetByID(id string) (*users.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, errors.Wrapf(apperrors.ErrNotFound, "user id %s", id)
	}
	return u, nil
}

func (r *FakeUserRepo) SetLoggedIn(id string, at time.Time) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return errors.Wrapf(apperrors.ErrNotFound, "user id %s", id)
	}
	u.LastLogin = at
	return nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

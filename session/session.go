package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/retail-console/storage"
	"github.com/pkg/errors"
)

// Status of the console session
type Status int

const (
	Unauthenticated Status = iota
	Authenticated
)

func (s Status) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Snapshot is a point in time copy of the session
type Snapshot struct {
	Token  string
	Status Status
}

// Store owns the bearer token. Status is Authenticated iff the token is not empty.
type Store struct {
	durable storage.Store
	token   string
	lock    sync.RWMutex
}

// New loads the token persisted by a previous run, if any
func New(durable storage.Store) (*Store, error) {
	if durable == nil {
		return nil, errors.New("[session.New] durable store is required")
	}
	token, err := durable.Get(storage.KeyToken)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, errors.Wrap(err, "[session.New] durable.Get")
	}
	return &Store{durable: durable, token: token}, nil
}

func (s *Store) Token() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.token
}

func (s *Store) Status() Status {
	return s.Snapshot().Status
}

func (s *Store) Snapshot() Snapshot {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.token == "" {
		return Snapshot{Status: Unauthenticated}
	}
	return Snapshot{Token: s.token, Status: Authenticated}
}

// SetToken marks the session authenticated and persists token. Memory is updated
// even when the durable write fails; the token then lasts until the process exits.
func (s *Store) SetToken(token string) error {
	if token == "" {
		return errors.New("[Store.SetToken] token is empty")
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.token = token
	return errors.Wrap(s.durable.Set(storage.KeyToken, token), "[Store.SetToken] durable.Set")
}

// Clear drops the token. Memory is cleared even when the durable remove fails.
func (s *Store) Clear() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.token = ""
	return errors.Wrap(s.durable.Remove(storage.KeyToken), "[Store.Clear] durable.Remove")
}

// Claims are the displayable parts of the bearer token
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// Claims decodes the bearer token without verifying its signature. The console
// only displays these values, the API remains the authority.
func (s *Store) Claims() (*Claims, error) {
	token := s.Token()
	if token == "" {
		return nil, errors.New("[Store.Claims] not authenticated")
	}
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return nil, errors.Wrap(err, "[Store.Claims] token is not a JWT")
	}
	c := &Claims{}
	c.Subject, _ = mapClaims.GetSubject()
	if email, ok := mapClaims["email"].(string); ok {
		c.Email = email
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

package devserver

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	challengeExpiry = 10 * time.Minute
	maxCodeAttempts = 5
)

type challengeOutcome int

const (
	challengePassed challengeOutcome = iota
	challengeWrongCode
	challengeUnknown
)

// challenge is a pending email step-up: the password was accepted, the code was not yet entered
type challenge struct {
	email    string
	code     string
	expires  time.Time
	attempts int
}

type challenges struct {
	expiry      time.Duration
	maxAttempts int

	lock    sync.Mutex
	pending map[string]*challenge // pending authentication token to challenge
}

func newChallenges(expiry time.Duration, maxAttempts int) *challenges {
	return &challenges{
		expiry:      expiry,
		maxAttempts: maxAttempts,
		pending:     make(map[string]*challenge),
	}
}

// start opens a challenge for email, returning the pending authentication token and the code to deliver
func (c *challenges) start(email string) (string, string, error) {
	code, err := generateCode()
	if err != nil {
		return "", "", err
	}
	pendingToken := uuid.New().String()

	c.lock.Lock()
	defer c.lock.Unlock()
	c.pending[pendingToken] = &challenge{
		email:   email,
		code:    code,
		expires: NowTimeFunc().Add(c.expiry),
	}
	return pendingToken, code, nil
}

// check consumes the challenge on success, after too many wrong codes, or once expired
func (c *challenges) check(pendingToken, code string) (string, challengeOutcome) {
	c.lock.Lock()
	defer c.lock.Unlock()

	ch, ok := c.pending[pendingToken]
	if !ok {
		return "", challengeUnknown
	}
	if NowTimeFunc().After(ch.expires) {
		delete(c.pending, pendingToken)
		return "", challengeUnknown
	}
	if ch.code != code {
		ch.attempts++
		if ch.attempts >= c.maxAttempts {
			delete(c.pending, pendingToken)
		}
		return "", challengeWrongCode
	}
	delete(c.pending, pendingToken)
	return ch.email, challengePassed
}

func (c *challenges) code(pendingToken string) (string, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	ch, ok := c.pending[pendingToken]
	if !ok {
		return "", false
	}
	return ch.code, true
}

// generateCode returns a random six digit code
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

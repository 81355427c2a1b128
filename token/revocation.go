package token

import (
	"sync"
	"time"
)

// RevocationList remembers revoked access token ids until the tokens would have expired anyway
type RevocationList interface {
	Revoke(jti string, exp time.Time)
	Revoked(jti string) bool
	Prune(now time.Time)
}

type MemoryRevocationList struct {
	mu      sync.RWMutex
	expires map[string]time.Time
}

func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{expires: make(map[string]time.Time)}
}

func (l *MemoryRevocationList) Revoke(jti string, exp time.Time) {
	l.mu.Lock()
	l.expires[jti] = exp
	l.mu.Unlock()
}

func (l *MemoryRevocationList) Revoked(jti string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.expires[jti]
	return ok
}

func (l *MemoryRevocationList) Prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pruneExpired(l.expires, now)
}

// issuedLedger tracks the live access tokens so they can all be revoked at once
type issuedLedger struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

func (l *issuedLedger) record(jti string, exp time.Time) {
	l.mu.Lock()
	if l.expires == nil {
		l.expires = make(map[string]time.Time)
	}
	l.expires[jti] = exp
	l.mu.Unlock()
}

func (l *issuedLedger) forget(jti string) {
	l.mu.Lock()
	delete(l.expires, jti)
	l.mu.Unlock()
}

// drain empties the ledger and returns what it held
func (l *issuedLedger) drain() map[string]time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	live := l.expires
	l.expires = nil
	return live
}

func (l *issuedLedger) prune(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pruneExpired(l.expires, now)
}

func pruneExpired(expires map[string]time.Time, now time.Time) {
	for jti, exp := range expires {
		if now.After(exp) {
			delete(expires, jti)
		}
	}
}

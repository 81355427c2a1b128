package cache

import (
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/jrsteele09/retail-console/tenants"
	"github.com/pkg/errors"
)

var _ tenants.Invalidator = (*TenantCache)(nil)

// TenantCache holds tenant scoped GET responses. Entries are keyed by tenant and
// path, and the whole cache is dropped whenever the tenant selection changes.
type TenantCache struct {
	cache       *ristretto.Cache[string, []byte]
	genLock     sync.RWMutex
	generation  uint64
	ttl         time.Duration
	numCounters int64
	maxCost     int64
}

type Option func(*TenantCache)

// WithTTL sets how long an entry stays readable; zero keeps entries until evicted
func WithTTL(ttl time.Duration) Option {
	return func(tc *TenantCache) {
		tc.ttl = ttl
	}
}

// WithMaxCost bounds the total size in bytes of the cached bodies
func WithMaxCost(maxCost int64) Option {
	return func(tc *TenantCache) {
		tc.maxCost = maxCost
		tc.numCounters = maxCost / 100
	}
}

func New(options ...Option) (*TenantCache, error) {
	tc := &TenantCache{
		ttl:         5 * time.Minute,
		numCounters: 1e5,
		maxCost:     16 << 20,
	}
	for _, opt := range options {
		opt(tc)
	}
	if tc.numCounters < 100 {
		tc.numCounters = 100
	}

	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters:        tc.numCounters,
		MaxCost:            tc.maxCost,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[cache.New] failed to initialise cache")
	}
	tc.cache = c
	return tc, nil
}

func key(tenantID, path string) string {
	return tenantID + "|" + path
}

func (tc *TenantCache) Get(tenantID, path string) ([]byte, bool) {
	return tc.cache.Get(key(tenantID, path))
}

// Set stores body; writes are applied asynchronously and may be dropped under contention.
func (tc *TenantCache) Set(tenantID, path string, body []byte) bool {
	return tc.cache.SetWithTTL(key(tenantID, path), body, int64(len(body)), tc.ttl)
}

// Generation changes on every InvalidateAll. Capture it before reading the tenant
// assignment and pass it to SetIfCurrent.
func (tc *TenantCache) Generation() uint64 {
	tc.genLock.RLock()
	defer tc.genLock.RUnlock()
	return tc.generation
}

// SetIfCurrent stores body only when no invalidation happened since generation was read
func (tc *TenantCache) SetIfCurrent(generation uint64, tenantID, path string, body []byte) bool {
	tc.genLock.RLock()
	defer tc.genLock.RUnlock()
	if generation != tc.generation {
		return false
	}
	return tc.Set(tenantID, path, body)
}

// Wait blocks until pending writes are visible
func (tc *TenantCache) Wait() {
	tc.cache.Wait()
}

// InvalidateAll drops every entry, including writes still buffered
func (tc *TenantCache) InvalidateAll() {
	tc.genLock.Lock()
	defer tc.genLock.Unlock()
	tc.generation++
	tc.cache.Clear()
}

func (tc *TenantCache) Close() {
	tc.cache.Close()
}

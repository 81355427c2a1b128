package tenants

import (
	"encoding/json"
	"sync"

	"github.com/jrsteele09/retail-console/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Assignment is the tenant the console currently sends in X-Tenant-Id.
// While Unassigned is true tenant scoped reads must be treated as stale; TenantID
// keeps the previous choice so it can be shown as needing reassignment.
type Assignment struct {
	TenantID   string `json:"tenantId,omitempty"`
	Unassigned bool   `json:"unassigned"`
}

// DefaultAssignment is used on first run
func DefaultAssignment() Assignment {
	return Assignment{Unassigned: true}
}

// Invalidator drops cached tenant scoped data
type Invalidator interface {
	InvalidateAll()
}

// InvalidatorFunc adapts a function to Invalidator
type InvalidatorFunc func()

func (f InvalidatorFunc) InvalidateAll() { f() }

// Context owns the tenant assignment and persists it under storage.KeyTenant.
type Context struct {
	durable      storage.Store
	assignment   Assignment
	invalidators []Invalidator
	lock         sync.RWMutex
}

// NewContext restores the persisted assignment. An unreadable value is logged and
// replaced by the default.
func NewContext(durable storage.Store) (*Context, error) {
	if durable == nil {
		return nil, errors.New("[tenants.NewContext] durable store is required")
	}
	c := &Context{durable: durable, assignment: DefaultAssignment()}

	raw, err := durable.Get(storage.KeyTenant)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, errors.Wrap(err, "[tenants.NewContext] durable.Get")
	default:
		var a Assignment
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			log.Warn().Err(err).Msg("Discarding unreadable tenant assignment")
		} else {
			c.assignment = a
		}
	}
	return c, nil
}

// OnInvalidate registers inv to be called after every Select
func (c *Context) OnInvalidate(inv Invalidator) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.invalidators = append(c.invalidators, inv)
}

// Snapshot is safe to call from any goroutine, including the request pipeline
func (c *Context) Snapshot() Assignment {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.assignment
}

// Select assigns tenantID and invalidates every tenant scoped cache
func (c *Context) Select(tenantID string) error {
	if tenantID == "" {
		return errors.New("[Context.Select] tenantID is empty")
	}

	c.lock.Lock()
	if err := c.persist(Assignment{TenantID: tenantID}); err != nil {
		c.lock.Unlock()
		return errors.Wrap(err, "[Context.Select]")
	}
	invalidators := append([]Invalidator(nil), c.invalidators...)
	c.lock.Unlock()

	log.Info().Str("tenant_id", tenantID).Msg("Tenant selected")
	for _, inv := range invalidators {
		inv.InvalidateAll()
	}
	return nil
}

// MarkUnassigned flags the assignment as needing reassignment. Idempotent.
// Memory is flagged even when the durable write fails.
func (c *Context) MarkUnassigned() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.assignment.Unassigned {
		return nil
	}
	c.assignment.Unassigned = true
	log.Warn().Str("tenant_id", c.assignment.TenantID).Msg("Tenant marked unassigned")
	return errors.Wrap(c.write(c.assignment), "[Context.MarkUnassigned]")
}

// persist must be called with the lock held. Memory changes only once the write succeeds.
func (c *Context) persist(a Assignment) error {
	if err := c.write(a); err != nil {
		return err
	}
	c.assignment = a
	return nil
}

func (c *Context) write(a Assignment) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return errors.Wrap(err, "json.Marshal")
	}
	return errors.Wrap(c.durable.Set(storage.KeyTenant, string(raw)), "durable.Set")
}

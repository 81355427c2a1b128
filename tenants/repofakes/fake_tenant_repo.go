package tenantrepofakes

import (
	"strings"
	"sync"

	apperrors "github.com/jrsteele09/retail-console/internal/errors"
	"github.com/jrsteele09/retail-console/tenants"
	"github.com/pkg/errors"
)

var _ tenants.Repo = (*FakeTenantRepo)(nil)

type FakeTenantRepo struct {
	lock    sync.RWMutex
	tenants map[string]tenants.Tenant
}

func NewFakeTenantRepo() *FakeTenantRepo {
	return &FakeTenantRepo{tenants: make(map[string]tenants.Tenant)}
}

// Upsert stores a copy of t. Store IDs come from the API, so one is required.
func (r *FakeTenantRepo) Upsert(t *tenants.Tenant) error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("[FakeTenantRepo.Upsert] tenant id is required")
	}
	r.lock.Lock()
	r.tenants[t.ID] = *t
	r.lock.Unlock()
	return nil
}

func (r *FakeTenantRepo) Get(tenantID string) (*tenants.Tenant, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	t, ok := r.tenants[tenantID]
	if !ok {
		return nil, errors.Wrapf(apperrors.ErrNotFound, "tenant %s", tenantID)
	}
	return &t, nil
}

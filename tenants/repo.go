package tenants

// Repo is the store directory the dev backend serves tenants from
type Repo interface {
	Upsert(t *Tenant) error
	Get(tenantID string) (*Tenant, error)
}

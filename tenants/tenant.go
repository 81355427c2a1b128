package tenants

// Tenant is an organizational scope, usually a store or a region of the chain.
// Nearly every API resource is partitioned by tenant via the X-Tenant-Id header.
type Tenant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
}

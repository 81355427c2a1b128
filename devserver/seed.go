package devserver

import (
	"github.com/jrsteele09/retail-console/tenants"
	"github.com/jrsteele09/retail-console/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DemoPassword is the password of every seeded account
const DemoPassword = "Retail2024"

// Seeded accounts
const (
	ManagerEmail = "manager@retail.test" // password only
	AuditorEmail = "auditor@retail.test" // password plus emailed code
)

// DemoTenants are the stores created by SeedDemoData
func DemoTenants() []*tenants.Tenant {
	return []*tenants.Tenant{
		{ID: "store-001", Name: "Downtown Flagship", Region: "north"},
		{ID: "store-002", Name: "Harbour Outlet", Region: "south"},
		{ID: "store-003", Name: "Airport Kiosk", Region: "south"},
	}
}

// SeedDemoData creates the demo stores and staff accounts
func SeedDemoData(userRepo users.UserRepo, tenantRepo tenants.Repo) error {
	for _, t := range DemoTenants() {
		if err := tenantRepo.Upsert(t); err != nil {
			return errors.Wrapf(err, "[SeedDemoData] tenant %s", t.ID)
		}
	}

	if err := users.ValidatePasswordStrength(DemoPassword); err != nil {
		return errors.Wrap(err, "[SeedDemoData] demo password")
	}
	hash, err := users.HashPassword(DemoPassword)
	if err != nil {
		return errors.Wrap(err, "[SeedDemoData] hashing password")
	}

	accounts := []*users.User{
		{
			Email:        ManagerEmail,
			FirstName:    "Morgan",
			LastName:     "Lee",
			PasswordHash: hash,
			Stores: []users.StoreAccess{
				{TenantID: "store-001", Roles: []users.Role{users.RoleStoreManager}},
				{TenantID: "store-002", Roles: []users.Role{users.RoleSalesAssociate}},
			},
		},
		{
			Email:        AuditorEmail,
			FirstName:    "Sam",
			LastName:     "Okafor",
			PasswordHash: hash,
			SecondFactor: users.EmailCode,
			Stores: []users.StoreAccess{
				{TenantID: "store-003", Roles: []users.Role{users.RoleAuditor}},
			},
		},
	}
	for _, u := range accounts {
		if err := userRepo.Upsert(u); err != nil {
			return errors.Wrapf(err, "[SeedDemoData] user %s", u.Email)
		}
	}

	log.Info().Str("manager", ManagerEmail).Str("auditor", AuditorEmail).Msg("devserver: demo accounts ready")
	return nil
}

package users

import (
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// SecondFactor is what a user must present after the password step
type SecondFactor string

const (
	NoSecondFactor SecondFactor = ""
	EmailCode      SecondFactor = "email"
)

// Role is a staff role within one store
type Role string

const (
	RoleStoreManager   Role = "store_manager"
	RoleSalesAssociate Role = "sales_associate"
	RoleAuditor        Role = "auditor" // read only
)

// StoreAccess grants a user roles in one store (tenant)
type StoreAccess struct {
	TenantID string `json:"tenantId"`
	Roles    []Role `json:"roles"`
}

// User is a console staff account
type User struct {
	ID           string        `json:"id,omitempty"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	FirstName    string        `json:"firstName,omitempty"`
	LastName     string        `json:"lastName,omitempty"`
	LastLogin    time.Time     `json:"lastLogin,omitempty"`
	Stores       []StoreAccess `json:"stores,omitempty"`
	Blocked      bool          `json:"blocked,omitempty"`
	SecondFactor SecondFactor  `json:"secondFactor,omitempty"`
}

const minPasswordLength = 8

// ValidatePasswordStrength requires minPasswordLength characters with upper case, lower case and a digit
func ValidatePasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return errors.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	checks := []struct {
		is   func(rune) bool
		what string
	}{
		{unicode.IsUpper, "an uppercase letter"},
		{unicode.IsLower, "a lowercase letter"},
		{unicode.IsDigit, "a number"},
	}
	for _, c := range checks {
		if strings.IndexFunc(password, c.is) < 0 {
			return errors.Errorf("password must contain %s", c.what)
		}
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "[HashPassword]")
	}
	return string(hash), nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) NeedsSecondFactor() bool {
	return u.SecondFactor != NoSecondFactor
}

// CanAccess reports whether the user works at the store
func (u *User) CanAccess(tenantID string) bool {
	return u.access(tenantID) != nil
}

// TenantIDs lists the user's stores in grant order
func (u *User) TenantIDs() []string {
	ids := make([]string, 0, len(u.Stores))
	for _, s := range u.Stores {
		ids = append(ids, s.TenantID)
	}
	return ids
}

// RolesAt returns the user's roles in the store, nil when the user has no access
func (u *User) RolesAt(tenantID string) []Role {
	if a := u.access(tenantID); a != nil {
		return a.Roles
	}
	return nil
}

func (u *User) access(tenantID string) *StoreAccess {
	for i := range u.Stores {
		if u.Stores[i].TenantID == tenantID {
			return &u.Stores[i]
		}
	}
	return nil
}

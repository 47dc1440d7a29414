package model

import "time"

// Role names stored in users.role.  Registration always assigns
// RoleCustomer; the other roles are only assigned through the admin user
// endpoints.
const (
	RoleCustomer = "customer"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// ValidRole reports whether a client-supplied role name is one of the
// known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User mirrors the 'users' table.  PasswordHash is only populated by
// credential lookups; list/get projections leave it empty so it can never
// leak into a response.
type User struct {
	ID           uint64    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	TenantID     *uint64   `json:"tenantId,omitempty"` // nullable users.tenant_id
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

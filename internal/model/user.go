package model

// Roles returned by the backend in the user profile. Each role gets its own
// dashboard and route group.
const (
	RoleAdmin       = "admin"
	RoleMaintenance = "maintenance"
	RoleTenant      = "tenant"
)

// User is the authenticated user's profile as returned by the backend at
// login. It is persisted next to the session token under the "user" key.
//
// Fields:
//	ID          – backend user id.
//	Name        – display name.
//	Email       – login email.
//	Role        – admin, maintenance or tenant.
//	Phone       – optional contact number.
//	TenantID    – tenant record linked to a tenant login (empty for staff).
//	ApartmentID – apartment of a tenant login (empty for staff).
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Phone       string `json:"phone,omitempty"`
	TenantID    string `json:"tenantId,omitempty"`
	ApartmentID string `json:"apartmentId,omitempty"`
}

// Valid reports whether the profile carries enough to scope a session.
func (u User) Valid() bool {
	switch u.Role {
	case RoleAdmin, RoleMaintenance, RoleTenant:
		return u.ID != ""
	}
	return false
}

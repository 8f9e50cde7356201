// models/user.go
package models

// Staff roles known to the admin panel. The API may send others.
const (
	RoleStaff      = "staff"
	RoleSupervisor = "supervisor"
	RoleOwner      = "owner"
	RoleSuperuser  = "superuser"
)

// User is a staff account managed under users/.
type User struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// Credentials is the body of POST auth/login/.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the response of auth/login/.
type LoginResult struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	Role     string `json:"role"`
	Username string `json:"username"`
}

// Profile is whatever profile/ returns for the signed-in user.
type Profile map[string]any

package domain

import "time"

// UserRole determines which lifecycle actions a user may request.
// Roles are flat; the only ordering that matters is the manager -> partner
// escalation for amounts above the approval threshold.
type UserRole string

const (
	RoleEmployee UserRole = "employee"
	RoleManager  UserRole = "manager"
	RolePartner  UserRole = "partner"
	RoleAdmin    UserRole = "admin"
)

// AuthProvider identifies how a user authenticates.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "LOCAL"
	ProviderGoogle AuthProvider = "GOOGLE"
)

// User represents a participant: report owners and approvers alike.
type User struct {
	UserID         string       `json:"userID"` // Primary Key (UUID)
	Username       string       `json:"username"`
	PasswordHash   string       `json:"-"`
	FullName       string       `json:"fullName"`
	Email          *string      `json:"email,omitempty"`
	Department     *string      `json:"department,omitempty"`
	Phone          *string      `json:"phone,omitempty"`
	Role           UserRole     `json:"role"`
	AuthProvider   AuthProvider `json:"-"`
	ProviderUserID *string      `json:"-"`
	AuditFields
	DeletedAt *time.Time `json:"deletedAt,omitempty"` // Soft delete
}

// IsApproverRole reports whether the role can ever act on someone else's report.
func (r UserRole) IsApproverRole() bool {
	return r == RoleManager || r == RolePartner || r == RoleAdmin
}

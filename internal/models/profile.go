// internal/models/profile.go
package models

import "strings"

// Admin roles allowed to trigger bulk dispatches
const (
	RoleSuperAdmin = "super_admin"
	RoleOpsManager = "ops_manager"
)

// Admin is one row of the admins table.
type Admin struct {
	UID   string `json:"uid"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
}

// CanBulkDispatch reports whether the admin role is allowed to send
// bulk notifications.
func (a *Admin) CanBulkDispatch() bool {
	return a.Role == RoleSuperAdmin || a.Role == RoleOpsManager
}

// NotificationPreferences holds per-professional delivery preferences.
// ShiftAssignment is the preferred channel for assignment notices.
type NotificationPreferences struct {
	ShiftAssignment string `json:"shiftAssignment,omitempty"`
	Marketing       bool   `json:"marketing"`
}

// ProfessionalProfile is one row of the professional_profiles table.
type ProfessionalProfile struct {
	UID         string                  `json:"uid"`
	FirstName   string                  `json:"firstName"`
	LastName    string                  `json:"lastName"`
	Email       string                  `json:"email"`
	Phone       string                  `json:"phone"`
	WorkerType  string                  `json:"workerType"`
	Canton      string                  `json:"canton"`
	Verified    bool                    `json:"verified"`
	Preferences NotificationPreferences `json:"preferences"`
}

// FullName joins first and last name, tolerating either being empty.
func (p *ProfessionalProfile) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// BulkFilters narrows the professional audience of a bulk dispatch.
// Nil or zero fields leave the corresponding column unconstrained.
type BulkFilters struct {
	WorkerType string `json:"workerType,omitempty"`
	Verified   *bool  `json:"verified,omitempty"`
	Canton     string `json:"canton,omitempty"`
}

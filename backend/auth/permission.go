package auth

import "fmt"

// Role is the closed set of admin roles. Unknown values are rejected at
// construction time by ParseRole rather than silently denied at runtime.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleReportsOnly Role = "reports_only"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSuperAdmin, RoleReportsOnly:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown admin role %q", s)
}

// Capability names a feature an admin page can require.
type Capability string

const (
	CapViewReports    Capability = "view_reports"
	CapExportReports  Capability = "export_reports"
	CapViewDashboard  Capability = "view_dashboard"
	CapManageUsers    Capability = "manage_users"
	CapManageAdmins   Capability = "manage_admins"
	CapManageOffices  Capability = "manage_offices"
	CapEditTimesheets Capability = "edit_timesheets"
)

// Can reports whether the role satisfies the required capability.
// Super admins have access to everything; reports-only admins are limited
// to viewing and exporting reports.
func (r Role) Can(c Capability) bool {
	switch r {
	case RoleSuperAdmin:
		return true
	case RoleReportsOnly:
		switch c {
		case CapViewReports, CapExportReports, CapViewDashboard:
			return true
		}
		return false
	}
	// Unknown role, deny access.
	return false
}

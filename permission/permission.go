// Package permission defines the closed permission enumeration and the
// effective-permission resolver.
package permission

import "github.com/officegrid/sentinel/principal"

// Permission is an element of the closed platform enumeration. Identifiers
// are globally unique strings; anything outside the enumeration is stale
// data and is ignored at read time.
type Permission string

// Office management.
const (
	CreateOffice Permission = "CREATE_OFFICE"
	EditOffice   Permission = "EDIT_OFFICE"
	DeleteOffice Permission = "DELETE_OFFICE"
	ViewOffice   Permission = "VIEW_OFFICE"
)

// User management.
const (
	CreateUser Permission = "CREATE_USER"
	EditUser   Permission = "EDIT_USER"
	DeleteUser Permission = "DELETE_USER"
	ViewUser   Permission = "VIEW_USER"
)

// Reporting.
const (
	ViewReports   Permission = "VIEW_REPORTS"
	ExportReports Permission = "EXPORT_REPORTS"
)

// Location management.
const (
	ViewLocations   Permission = "VIEW_LOCATIONS"
	ManageLocations Permission = "MANAGE_LOCATIONS"
)

// All lists every permission in the enumeration.
var All = []Permission{
	CreateOffice, EditOffice, DeleteOffice, ViewOffice,
	CreateUser, EditUser, DeleteUser, ViewUser,
	ViewReports, ExportReports,
	ViewLocations, ManageLocations,
}

var known = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(All))
	for _, p := range All {
		m[p] = struct{}{}
	}
	return m
}()

// Recognized reports whether a raw identifier names a known permission.
// Write paths may use this to reject unknown grants up front; the resolver
// itself silently drops them.
func Recognized(raw string) (Permission, bool) {
	p := Permission(raw)
	_, ok := known[p]
	return p, ok
}

// Set is an unordered collection of permissions. Callers only test
// membership; iteration order carries no meaning.
type Set map[Permission]struct{}

// NewSet builds a set from the given permissions.
func NewSet(perms ...Permission) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// roleDefaults is the fixed role→default-permission table. A role absent
// from the table has no defaults; an unknown role resolves to the empty set.
var roleDefaults = map[principal.Role][]Permission{
	principal.RoleUser:    nil,
	principal.RoleManager: {ViewOffice, ViewUser, ViewReports, ViewLocations},
	principal.RoleAdmin: {
		CreateOffice, EditOffice, DeleteOffice, ViewOffice,
		CreateUser, EditUser, DeleteUser, ViewUser,
		ViewReports, ExportReports, ViewLocations,
	},
	principal.RoleCityAdmin:    All,
	principal.RoleStateAdmin:   All,
	principal.RoleCountryAdmin: All,
}

// Defaults returns a copy of the default permissions for a role. The role
// name is matched case-insensitively; an unknown role yields an empty set,
// never an error — fail closed.
func Defaults(role principal.Role) Set {
	for r, perms := range roleDefaults {
		if role.Equal(r) {
			return NewSet(perms...)
		}
	}
	return Set{}
}

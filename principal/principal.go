// Package principal defines the authenticated actor sentinel authorizes.
//
// Authentication itself is out of scope: the host resolves identity and hands
// sentinel a fully populated Principal, which the authorization core treats
// as immutable for the lifetime of a request.
package principal

import (
	"strings"

	"github.com/officegrid/sentinel/scope"
)

// Role is the ordered role enumeration of the platform.
type Role string

// Platform roles, least to most privileged.
const (
	RoleUser         Role = "USER"
	RoleManager      Role = "MANAGER"
	RoleAdmin        Role = "ADMIN"
	RoleCityAdmin    Role = "CITY_ADMIN"
	RoleStateAdmin   Role = "STATE_ADMIN"
	RoleCountryAdmin Role = "COUNTRY_ADMIN"
)

// Roles lists all known roles.
var Roles = []Role{RoleUser, RoleManager, RoleAdmin, RoleCityAdmin, RoleStateAdmin, RoleCountryAdmin}

// ParseRole normalizes a raw role name case-insensitively. Unknown names
// return false; callers decide whether that denies or falls back.
func ParseRole(raw string) (Role, bool) {
	for _, r := range Roles {
		if strings.EqualFold(raw, string(r)) {
			return r, true
		}
	}
	return "", false
}

// Equal compares two role names case-insensitively. Role enumerations on the
// platform have historically differed in casing between services, so equality
// is never a plain string compare.
func (r Role) Equal(other Role) bool {
	return strings.EqualFold(string(r), string(other))
}

// IsScoped reports whether the role carries a hierarchical geographic scope.
// Only the three hierarchical admin roles are scoped.
func (r Role) IsScoped() bool {
	return r.Equal(RoleCityAdmin) || r.Equal(RoleStateAdmin) || r.Equal(RoleCountryAdmin)
}

// Principal is the authenticated actor making a request.
//
// Granted and Banned hold raw permission identifiers exactly as stored by
// account management; the permission resolver filters them against the known
// enumeration (stale identifiers are dropped, not errors).
type Principal struct {
	ID       string            `json:"id"`
	OfficeID string            `json:"office_id,omitempty"`
	Role     Role              `json:"role"`
	Granted  []string          `json:"granted,omitempty"`
	Banned   []string          `json:"banned,omitempty"`
	Scope    *scope.AdminScope `json:"scope,omitempty"`
}

// Package sentinel provides role, scope, and feature-entitlement
// authorization for office-based SaaS deployments.
//
// A single Authorize call runs the full decision pipeline: identity,
// role, permission, geographic scope, and feature entitlement, in that
// order, short-circuiting on the first failing stage.
//
//	eng, err := sentinel.NewEngine(
//	    sentinel.WithStore(memStore),
//	)
//	d, err := eng.Authorize(ctx, &sentinel.Request{
//	    Principal: p,
//	    Operation: "office.view",
//	    Require: sentinel.Requirements{
//	        Permissions: []permission.Permission{permission.ViewOffice},
//	    },
//	})
package sentinel

import (
	"github.com/officegrid/sentinel/permission"
	"github.com/officegrid/sentinel/principal"
	"github.com/officegrid/sentinel/scope"
)

// FeatureRef names the entitlement a request depends on. Either Group alone
// (group-level gating) or Feature+Operation (granular gating) is set.
type FeatureRef struct {
	// Group is the feature group name for a group-level check.
	Group string `json:"group,omitempty"`

	// Feature and Operation identify a granular check. The pair must be
	// registered in the feature registry at boot.
	Feature   string `json:"feature,omitempty"`
	Operation string `json:"operation,omitempty"`
}

// Granular reports whether the reference names a (feature, operation) pair
// rather than a whole group.
func (f FeatureRef) Granular() bool { return f.Feature != "" }

// Requirements declares what a request must satisfy to be allowed.
// Zero-value requirements admit any authenticated principal.
type Requirements struct {
	// Public marks the operation as open to anonymous callers. The
	// identity, role, and permission stages are skipped; scope and
	// feature stages still run.
	Public bool `json:"public,omitempty"`

	// Roles restricts the request to the named roles. Empty admits all.
	Roles []principal.Role `json:"roles,omitempty"`

	// Permissions must all be held by the principal's effective set.
	Permissions []permission.Permission `json:"permissions,omitempty"`

	// Feature gates the request on an office entitlement.
	Feature *FeatureRef `json:"feature,omitempty"`
}

// RequestMeta carries the request-shaped parameter maps the office resolver
// consults. All maps are optional.
type RequestMeta struct {
	Query map[string]string `json:"query,omitempty"`
	Body  map[string]string `json:"body,omitempty"`
	Path  map[string]string `json:"path,omitempty"`
}

// Request is the input to an authorization decision.
type Request struct {
	Principal *principal.Principal `json:"principal"`
	Operation string               `json:"operation"`
	Require   Requirements         `json:"require"`
	Meta      RequestMeta          `json:"meta,omitempty"`
}

// Reason explains a decision outcome.
type Reason string

const (
	// ReasonAllowed means every stage passed.
	ReasonAllowed Reason = "allowed"

	// ReasonUnauthenticated means no usable principal was presented.
	ReasonUnauthenticated Reason = "unauthenticated"

	// ReasonRoleDenied means the principal's role is not among the
	// required roles.
	ReasonRoleDenied Reason = "role_denied"

	// ReasonPermissionDenied means the effective permission set lacks a
	// required permission.
	ReasonPermissionDenied Reason = "permission_denied"

	// ReasonMissingOffice means a feature check was required but no
	// office could be resolved from the request or principal.
	ReasonMissingOffice Reason = "missing_office"

	// ReasonFeatureUnavailable means the office holds no active grant
	// for the required feature.
	ReasonFeatureUnavailable Reason = "feature_unavailable"
)

// Decision is the outcome of an authorization request.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason"`

	// Predicate is the geographic visibility filter derived from the
	// principal's role and admin scope. Downstream queries apply it.
	Predicate scope.Predicate `json:"predicate"`

	// OfficeID is the office the feature stage resolved, when one was.
	OfficeID string `json:"office_id,omitempty"`

	EvalTimeNs int64 `json:"eval_time_ns"`
}

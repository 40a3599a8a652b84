// Package middleware provides HTTP authorization middleware for sentinel.
package middleware

import (
	"encoding/json"

	"github.com/xraph/forge"

	"github.com/officegrid/sentinel"
	"github.com/officegrid/sentinel/permission"
	"github.com/officegrid/sentinel/principal"
)

// Require enforces the given requirements. The principal is resolved from
// the request context (sentinel principal > Forge user ID > anonymous) and
// the office, when a feature requirement names one, from the route
// parameter before falling back to the principal's own office.
func Require(eng *sentinel.Engine, operation string, require sentinel.Requirements) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			req := &sentinel.Request{
				Principal: resolvePrincipal(ctx),
				Operation: operation,
				Require:   require,
				Meta:      requestMeta(ctx),
			}

			d, err := eng.Authorize(ctx.Context(), req)
			if err != nil || !d.Allowed {
				return denyResponse(ctx)
			}
			return next(ctx)
		}
	}
}

// RequireRole is shorthand for a role-only requirement.
func RequireRole(eng *sentinel.Engine, operation string, roles ...principal.Role) forge.Middleware {
	return Require(eng, operation, sentinel.Requirements{Roles: roles})
}

// RequirePermissions is shorthand for a permission-only requirement.
func RequirePermissions(eng *sentinel.Engine, operation string, perms ...permission.Permission) forge.Middleware {
	return Require(eng, operation, sentinel.Requirements{Permissions: perms})
}

// RequireFeature gates a route behind an active feature-group grant for the
// request's office.
func RequireFeature(eng *sentinel.Engine, operation string, ref sentinel.FeatureRef) forge.Middleware {
	return Require(eng, operation, sentinel.Requirements{Feature: &ref})
}

// resolvePrincipal extracts the acting principal from context.
// Priority: sentinel principal → Forge user ID (role USER) → anonymous.
func resolvePrincipal(ctx forge.Context) *principal.Principal {
	if p, ok := sentinel.PrincipalFromContext(ctx.Context()); ok {
		return p
	}
	if userID := forge.UserIDFromContext(ctx.Context()); userID != "" {
		return &principal.Principal{ID: userID, Role: principal.RoleUser}
	}
	return nil
}

func requestMeta(ctx forge.Context) sentinel.RequestMeta {
	meta := sentinel.RequestMeta{}
	if v := ctx.Param("office_id"); v != "" {
		meta.Path = map[string]string{"office_id": v}
	}
	return meta
}

func denyResponse(ctx forge.Context) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(403)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": "access denied"})
}

package sentinel

import (
	"context"

	"github.com/xraph/forge"

	"github.com/officegrid/sentinel/principal"
	"github.com/officegrid/sentinel/scope"
)

type contextKey int

const (
	ctxKeyPrincipal contextKey = iota
	ctxKeyPredicate
)

// ContextWithPrincipal returns a context carrying the authenticated
// principal. Middleware attaches it after identity resolution.
func ContextWithPrincipal(ctx context.Context, p *principal.Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFromContext returns the principal attached by middleware.
func PrincipalFromContext(ctx context.Context) (*principal.Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(*principal.Principal)
	return p, ok
}

// ContextWithPredicate returns a context carrying the geographic visibility
// predicate from an allowed decision. Handlers read it to filter queries.
func ContextWithPredicate(ctx context.Context, p scope.Predicate) context.Context {
	return context.WithValue(ctx, ctxKeyPredicate, p)
}

// PredicateFromContext returns the visibility predicate for the current
// request. Absence means the predicate was never injected; callers must
// treat that as match-nothing, not unrestricted.
func PredicateFromContext(ctx context.Context) (scope.Predicate, bool) {
	p, ok := ctx.Value(ctxKeyPredicate).(scope.Predicate)
	return p, ok
}

// officeFromForgeScope returns the forge tenancy org as an office fallback
// when running inside a forge app. Standalone callers get "".
func officeFromForgeScope(ctx context.Context) string {
	s, ok := forge.ScopeFrom(ctx)
	if !ok {
		return ""
	}
	return s.OrgID()
}

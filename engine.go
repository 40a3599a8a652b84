package sentinel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/officegrid/sentinel/decisionlog"
	"github.com/officegrid/sentinel/entitlement"
	"github.com/officegrid/sentinel/id"
	"github.com/officegrid/sentinel/permission"
	"github.com/officegrid/sentinel/plugin"
	"github.com/officegrid/sentinel/registry"
	"github.com/officegrid/sentinel/scope"
	"github.com/officegrid/sentinel/store"
)

// Engine is the central authorization engine. It runs the decision
// pipeline, manages the store, and fires extension hooks.
type Engine struct {
	store     store.Store
	registry  *registry.Registry
	evaluator *entitlement.Evaluator
	activator *entitlement.Activator
	cache     entitlement.Cache
	plugins   *plugin.Registry
	logger    *slog.Logger
	clock     entitlement.Clock
	config    Config
}

// NewEngine creates a new sentinel engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		clock:  time.Now,
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, ErrStoreRequired
	}
	if e.registry == nil {
		e.registry = registry.New(e.logger)
	}

	entOpts := []entitlement.Option{
		entitlement.WithLogger(e.logger),
		entitlement.WithClock(e.clock),
	}
	if e.cache != nil {
		entOpts = append(entOpts, entitlement.WithCache(e.cache))
	}
	e.evaluator = entitlement.NewEvaluator(e.store, e.registry, entOpts...)
	e.activator = entitlement.NewActivator(e.store, e.plugins, entOpts...)

	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Registry returns the granular feature registry.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// RegisterOperation binds a handler to a granular (feature, operation)
// pair and notifies plugins. Composition roots use this instead of the
// raw registry so registrations fire lifecycle hooks.
func (e *Engine) RegisterOperation(ctx context.Context, featureName, operation string, h registry.HandlerFunc, description string) {
	e.registry.Register(featureName, operation, h, description)
	if e.plugins != nil {
		e.plugins.EmitFeatureRegistered(ctx, featureName, operation)
	}
}

// Entitlements returns the read-side entitlement evaluator.
func (e *Engine) Entitlements() *entitlement.Evaluator { return e.evaluator }

// Activator returns the grant write-side activator.
func (e *Engine) Activator() *entitlement.Activator { return e.activator }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Start performs any startup initialization.
func (e *Engine) Start(_ context.Context) error { return nil }

// Stop fires shutdown hooks and releases resources.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return nil
}

// Authorize runs the decision pipeline. This is the hot path.
//
// Stages run in a fixed order — identity, role, permission, scope,
// feature — and the first failing stage decides. A denial is a normal
// decision, not an error; errors are reserved for configuration defects
// (ErrFeatureNotRegistered) and infrastructure failures.
func (e *Engine) Authorize(ctx context.Context, req *Request) (*Decision, error) {
	start := time.Now()

	if e.plugins != nil {
		e.plugins.EmitBeforeAuthorize(ctx, req)
	}

	d, err := e.decide(ctx, req)
	if err != nil {
		return nil, err
	}
	d.EvalTimeNs = time.Since(start).Nanoseconds()

	e.recordDecision(ctx, req, d)

	if e.plugins != nil {
		e.plugins.EmitAfterAuthorize(ctx, req, d)
	}

	return d, nil
}

func (e *Engine) decide(ctx context.Context, req *Request) (*Decision, error) {
	// 1. Identity: an absent or anonymous principal fails every request.
	// Public operations skip straight to the scope stage.
	p := req.Principal
	if !req.Require.Public {
		if p == nil || p.ID == "" {
			return deny(ReasonUnauthenticated), nil
		}

		// 2. Role: when required roles are named, the principal must
		// hold one.
		if len(req.Require.Roles) > 0 {
			ok := false
			for _, r := range req.Require.Roles {
				if p.Role.Equal(r) {
					ok = true
					break
				}
			}
			if !ok {
				return deny(ReasonRoleDenied), nil
			}
		}

		// 3. Permission: effective set = role defaults + grants - bans.
		perms := permission.Resolve(p)
		for _, required := range req.Require.Permissions {
			if !perms.Has(required) {
				return deny(ReasonPermissionDenied), nil
			}
		}
	}

	// 4. Scope: derive the visibility predicate. Malformed scope on a
	// scoped role collapses to match-nothing rather than denying here;
	// the request proceeds but sees no rows.
	pred := scope.Unrestricted()
	if p != nil && p.Role.IsScoped() {
		pred = scope.PredicateFor(p.Scope)
	}

	// 5. Feature entitlement.
	officeID := ""
	if req.Require.Feature != nil {
		officeID = e.resolveOffice(ctx, req)
		if officeID == "" {
			return denyWithPredicate(ReasonMissingOffice, pred), nil
		}

		entitled, err := e.checkFeature(ctx, officeID, *req.Require.Feature)
		if err != nil {
			return nil, err
		}
		if !entitled {
			d := denyWithPredicate(ReasonFeatureUnavailable, pred)
			d.OfficeID = officeID
			return d, nil
		}
	}

	return &Decision{
		Allowed:   true,
		Reason:    ReasonAllowed,
		Predicate: pred,
		OfficeID:  officeID,
	}, nil
}

// resolveOffice locates the office an entitlement check applies to.
// Precedence: query, then body, then path, then the principal's own
// office, then the forge tenancy scope.
func (e *Engine) resolveOffice(ctx context.Context, req *Request) string {
	param := e.config.officeParam()
	if v := req.Meta.Query[param]; v != "" {
		return v
	}
	if v := req.Meta.Body[param]; v != "" {
		return v
	}
	if v := req.Meta.Path[param]; v != "" {
		return v
	}
	if req.Principal != nil && req.Principal.OfficeID != "" {
		return req.Principal.OfficeID
	}
	return officeFromForgeScope(ctx)
}

func (e *Engine) checkFeature(ctx context.Context, officeID string, ref FeatureRef) (bool, error) {
	if ref.Granular() {
		return e.evaluator.GranularAvailable(ctx, officeID, ref.Feature, ref.Operation)
	}
	return e.evaluator.GroupActive(ctx, officeID, ref.Group), nil
}

// recordDecision writes the decision to the audit log. Failures are logged
// and swallowed; auditing never blocks the caller.
func (e *Engine) recordDecision(ctx context.Context, req *Request, d *Decision) {
	if !e.config.logDecisions() {
		return
	}

	entry := &decisionlog.Entry{
		ID:         id.NewDecisionLogID(),
		Operation:  req.Operation,
		OfficeID:   d.OfficeID,
		Allowed:    d.Allowed,
		Reason:     string(d.Reason),
		Predicate:  d.Predicate.String(),
		EvalTimeNs: d.EvalTimeNs,
		CreatedAt:  e.clock().UTC(),
	}
	if req.Principal != nil {
		entry.PrincipalID = req.Principal.ID
		entry.Role = string(req.Principal.Role)
	}

	if err := e.store.CreateDecision(ctx, entry); err != nil {
		e.logger.Warn("decision log write failed",
			slog.String("operation", req.Operation),
			slog.String("error", err.Error()),
		)
	}
}

// Enforce returns an error if the request is denied. On success the
// returned context carries the visibility predicate.
func (e *Engine) Enforce(ctx context.Context, req *Request) (context.Context, error) {
	d, err := e.Authorize(ctx, req)
	if err != nil {
		return ctx, fmt.Errorf("sentinel authorize: %w", err)
	}
	if !d.Allowed {
		return ctx, fmt.Errorf("%w: %s", ErrAccessDenied, d.Reason)
	}
	return ContextWithPredicate(ctx, d.Predicate), nil
}

// Can is a shorthand permission check for the principal in ctx.
func (e *Engine) Can(ctx context.Context, operation string, perms ...permission.Permission) (bool, error) {
	p, _ := PrincipalFromContext(ctx)
	d, err := e.Authorize(ctx, &Request{
		Principal: p,
		Operation: operation,
		Require:   Requirements{Permissions: perms},
	})
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

func deny(r Reason) *Decision {
	return &Decision{Allowed: false, Reason: r, Predicate: scope.MatchNothing()}
}

func denyWithPredicate(r Reason, pred scope.Predicate) *Decision {
	return &Decision{Allowed: false, Reason: r, Predicate: pred}
}

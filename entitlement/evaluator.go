package entitlement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/officegrid/sentinel/id"
	"github.com/officegrid/sentinel/registry"
	"github.com/officegrid/sentinel/store"
)

// Evaluator answers "does this office currently hold this capability".
// It is read-only; all writes go through the Activator.
type Evaluator struct {
	store    store.Store
	registry *registry.Registry
	logger   *slog.Logger
	clock    Clock
	cache    Cache
}

// NewEvaluator creates an evaluator over the given gateway and feature
// registry. The registry may be nil when only group-level checks are used.
func NewEvaluator(s store.Store, reg *registry.Registry, opts ...Option) *Evaluator {
	o := applyOptions(opts)
	return &Evaluator{
		store:    s,
		registry: reg,
		logger:   o.logger,
		clock:    o.clock,
		cache:    o.cache,
	}
}

// GroupActive reports whether the office holds an active, non-expired grant
// of the named feature group. Absence of anything — office grant, group,
// even the gateway — is false, the default safe state.
func (e *Evaluator) GroupActive(ctx context.Context, officeID, groupName string) bool {
	g, err := e.store.GetFeatureGroupByName(ctx, groupName)
	if err != nil {
		e.logger.Debug("feature group lookup failed",
			slog.String("group", groupName),
			slog.String("error", err.Error()),
		)
		return false
	}
	return e.GroupActiveByID(ctx, officeID, g.ID)
}

// GroupActiveByID is GroupActive for a resolved feature group ID.
func (e *Evaluator) GroupActiveByID(ctx context.Context, officeID string, groupID id.FeatureGroupID) bool {
	now := e.clock()

	if e.cache != nil {
		if g, ok := e.cache.GetGrant(ctx, officeID, groupID); ok {
			// A cached row may have expired since it was written;
			// ActiveAt re-checks against the current clock.
			return g.ActiveAt(now)
		}
	}

	g, err := e.store.GetGrant(ctx, officeID, groupID)
	if err != nil {
		e.logger.Debug("grant lookup failed",
			slog.String("office_id", officeID),
			slog.String("feature_group_id", groupID.String()),
			slog.String("error", err.Error()),
		)
		return false
	}

	if e.cache != nil {
		e.cache.SetGrant(ctx, g)
	}

	return g.ActiveAt(now)
}

// GranularAvailable reports whether the office may use a single gated
// operation. The (feature, operation) pair must be wired into the feature
// registry at boot; an unregistered pair fails with ErrFeatureNotRegistered
// rather than a quiet false.
func (e *Evaluator) GranularAvailable(ctx context.Context, officeID, featureName, operation string) (bool, error) {
	if e.registry == nil || !e.registry.IsRegistered(featureName, operation) {
		return false, fmt.Errorf("%w: %s/%s", ErrFeatureNotRegistered, featureName, operation)
	}

	g, err := e.store.GetFeatureGroupByFeature(ctx, featureName)
	if err != nil {
		e.logger.Debug("owning group lookup failed",
			slog.String("feature", featureName),
			slog.String("error", err.Error()),
		)
		return false, nil
	}

	return e.GroupActiveByID(ctx, officeID, g.ID), nil
}

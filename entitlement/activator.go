package entitlement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/officegrid/sentinel/grant"
	"github.com/officegrid/sentinel/id"
	"github.com/officegrid/sentinel/plugin"
	"github.com/officegrid/sentinel/store"
	"github.com/officegrid/sentinel/token"
)

// Activator owns the grant write lifecycle: token redemption, direct
// activation, and deactivation.
type Activator struct {
	store  store.Store
	hooks  *plugin.Registry
	logger *slog.Logger
	clock  Clock
	cache  Cache
}

// NewActivator creates an activator over the given gateway. The hook
// registry may be nil.
func NewActivator(s store.Store, hooks *plugin.Registry, opts ...Option) *Activator {
	o := applyOptions(opts)
	return &Activator{
		store:  s,
		hooks:  hooks,
		logger: o.logger,
		clock:  o.clock,
		cache:  o.cache,
	}
}

// Activate grants the feature group to the office, optionally through a
// token. With a token, the token must be active and minted for this group,
// and ExpiresInDays (when set) time-boxes the grant from activation.
//
// Re-activating an already-active, non-expired grant without a token is
// idempotent: the existing grant is returned untouched. Supplying a token
// always refreshes ActivatedAt/ExpiresAt.
func (a *Activator) Activate(ctx context.Context, officeID string, groupID id.FeatureGroupID, tok *token.Token) (*grant.Grant, error) {
	if _, err := a.store.GetFeatureGroup(ctx, groupID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}

	if tok != nil {
		if !tok.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrTokenInactive, tok.Name)
		}
		if tok.FeatureGroupID.String() != groupID.String() {
			return nil, fmt.Errorf("%w: token %s is for group %s", ErrTokenGroupMismatch, tok.Name, tok.FeatureGroupID)
		}
	}

	now := a.clock()

	existing, err := a.store.GetGrant(ctx, officeID, groupID)
	if err == nil && tok == nil && existing.ActiveAt(now) {
		return existing, nil
	}

	g := &grant.Grant{
		ID:             id.NewGrantID(),
		OfficeID:       officeID,
		FeatureGroupID: groupID,
		IsActive:       true,
		ActivatedAt:    now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err == nil {
		// Preserve row identity across re-activations: one row per
		// (office, feature group), always.
		g.ID = existing.ID
		g.CreatedAt = existing.CreatedAt
	}
	if tok != nil {
		g.TokenID = tok.ID
		if tok.ExpiresInDays != nil {
			exp := now.AddDate(0, 0, *tok.ExpiresInDays)
			g.ExpiresAt = &exp
		}
	}

	if err := a.store.UpsertGrant(ctx, g); err != nil {
		return nil, fmt.Errorf("entitlement: activate %s for office %s: %w", groupID, officeID, err)
	}

	if a.cache != nil {
		a.cache.Invalidate(ctx, officeID, groupID)
	}
	if a.hooks != nil {
		a.hooks.EmitGrantActivated(ctx, g)
	}

	a.logger.Info("feature group activated",
		slog.String("office_id", officeID),
		slog.String("feature_group_id", groupID.String()),
		slog.Bool("via_token", tok != nil),
	)

	return g, nil
}

// RedeemToken resolves a token credential and activates its feature group
// for the office.
func (a *Activator) RedeemToken(ctx context.Context, officeID, tokenName string) (*grant.Grant, error) {
	tok, err := a.store.GetTokenByName(ctx, tokenName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, tokenName)
	}

	g, err := a.Activate(ctx, officeID, tok.FeatureGroupID, tok)
	if err != nil {
		return nil, err
	}

	if a.hooks != nil {
		a.hooks.EmitTokenRedeemed(ctx, tok, officeID)
	}

	return g, nil
}

// Deactivate flips the grant inactive. The row is kept — deactivation is an
// audit-visible state change, not a delete. Deactivating an already-inactive
// grant is a no-op.
func (a *Activator) Deactivate(ctx context.Context, officeID string, groupID id.FeatureGroupID) error {
	g, err := a.store.GetGrant(ctx, officeID, groupID)
	if err != nil {
		return fmt.Errorf("%w: office %s, group %s", ErrGrantNotFound, officeID, groupID)
	}

	if !g.IsActive {
		return nil
	}

	g.IsActive = false
	g.UpdatedAt = a.clock()

	if err := a.store.UpsertGrant(ctx, g); err != nil {
		return fmt.Errorf("entitlement: deactivate %s for office %s: %w", groupID, officeID, err)
	}

	if a.cache != nil {
		a.cache.Invalidate(ctx, officeID, groupID)
	}
	if a.hooks != nil {
		a.hooks.EmitGrantDeactivated(ctx, g)
	}

	a.logger.Info("feature group deactivated",
		slog.String("office_id", officeID),
		slog.String("feature_group_id", groupID.String()),
	)

	return nil
}

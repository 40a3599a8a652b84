// Package plugin defines the plugin system for sentinel.
// Plugins are notified of lifecycle events (decision made, grant activated,
// token redeemed, etc.) and can react — logging, metrics, tracing, etc.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/officegrid/sentinel/grant"
	"github.com/officegrid/sentinel/token"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Authorization lifecycle hooks
// ──────────────────────────────────────────────────

// BeforeAuthorize is called before the pipeline evaluates a request.
// The req parameter is *sentinel.Request (passed as any to avoid import cycle).
type BeforeAuthorize interface {
	OnBeforeAuthorize(ctx context.Context, req any) error
}

// AfterAuthorize is called after the pipeline reaches a decision.
// The req parameter is *sentinel.Request; decision is *sentinel.Decision.
type AfterAuthorize interface {
	OnAfterAuthorize(ctx context.Context, req, decision any) error
}

// ──────────────────────────────────────────────────
// Entitlement lifecycle hooks
// ──────────────────────────────────────────────────

// GrantActivated is called after a feature group is activated for an office.
type GrantActivated interface {
	OnGrantActivated(ctx context.Context, g *grant.Grant) error
}

// GrantDeactivated is called after a grant is explicitly deactivated.
type GrantDeactivated interface {
	OnGrantDeactivated(ctx context.Context, g *grant.Grant) error
}

// TokenRedeemed is called after a token is successfully redeemed for an office.
type TokenRedeemed interface {
	OnTokenRedeemed(ctx context.Context, t *token.Token, officeID string) error
}

// ──────────────────────────────────────────────────
// Registry lifecycle hooks
// ──────────────────────────────────────────────────

// FeatureRegistered is called after a granular feature operation is registered.
type FeatureRegistered interface {
	OnFeatureRegistered(ctx context.Context, featureName, operation string) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}

package plugin

import (
	"context"
	"log/slog"

	"github.com/officegrid/sentinel/grant"
	"github.com/officegrid/sentinel/token"
)

// Named entry types pair a hook with the plugin name for logging.

type beforeAuthorizeEntry struct {
	name string
	hook BeforeAuthorize
}
type afterAuthorizeEntry struct {
	name string
	hook AfterAuthorize
}
type grantActivatedEntry struct {
	name string
	hook GrantActivated
}
type grantDeactivatedEntry struct {
	name string
	hook GrantDeactivated
}
type tokenRedeemedEntry struct {
	name string
	hook TokenRedeemed
}
type featureRegisteredEntry struct {
	name string
	hook FeatureRegistered
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	beforeAuthorize   []beforeAuthorizeEntry
	afterAuthorize    []afterAuthorizeEntry
	grantActivated    []grantActivatedEntry
	grantDeactivated  []grantDeactivatedEntry
	tokenRedeemed     []tokenRedeemedEntry
	featureRegistered []featureRegisteredEntry
	shutdown          []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(BeforeAuthorize); ok {
		r.beforeAuthorize = append(r.beforeAuthorize, beforeAuthorizeEntry{name, h})
	}
	if h, ok := p.(AfterAuthorize); ok {
		r.afterAuthorize = append(r.afterAuthorize, afterAuthorizeEntry{name, h})
	}
	if h, ok := p.(GrantActivated); ok {
		r.grantActivated = append(r.grantActivated, grantActivatedEntry{name, h})
	}
	if h, ok := p.(GrantDeactivated); ok {
		r.grantDeactivated = append(r.grantDeactivated, grantDeactivatedEntry{name, h})
	}
	if h, ok := p.(TokenRedeemed); ok {
		r.tokenRedeemed = append(r.tokenRedeemed, tokenRedeemedEntry{name, h})
	}
	if h, ok := p.(FeatureRegistered); ok {
		r.featureRegistered = append(r.featureRegistered, featureRegisteredEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// ──────────────────────────────────────────────────
// Authorization event emitters
// ──────────────────────────────────────────────────

// EmitBeforeAuthorize notifies all plugins that implement BeforeAuthorize.
func (r *Registry) EmitBeforeAuthorize(ctx context.Context, req any) {
	for _, e := range r.beforeAuthorize {
		if err := e.hook.OnBeforeAuthorize(ctx, req); err != nil {
			r.logHookError("OnBeforeAuthorize", e.name, err)
		}
	}
}

// EmitAfterAuthorize notifies all plugins that implement AfterAuthorize.
func (r *Registry) EmitAfterAuthorize(ctx context.Context, req, decision any) {
	for _, e := range r.afterAuthorize {
		if err := e.hook.OnAfterAuthorize(ctx, req, decision); err != nil {
			r.logHookError("OnAfterAuthorize", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Entitlement event emitters
// ──────────────────────────────────────────────────

// EmitGrantActivated notifies all plugins that implement GrantActivated.
func (r *Registry) EmitGrantActivated(ctx context.Context, g *grant.Grant) {
	for _, e := range r.grantActivated {
		if err := e.hook.OnGrantActivated(ctx, g); err != nil {
			r.logHookError("OnGrantActivated", e.name, err)
		}
	}
}

// EmitGrantDeactivated notifies all plugins that implement GrantDeactivated.
func (r *Registry) EmitGrantDeactivated(ctx context.Context, g *grant.Grant) {
	for _, e := range r.grantDeactivated {
		if err := e.hook.OnGrantDeactivated(ctx, g); err != nil {
			r.logHookError("OnGrantDeactivated", e.name, err)
		}
	}
}

// EmitTokenRedeemed notifies all plugins that implement TokenRedeemed.
func (r *Registry) EmitTokenRedeemed(ctx context.Context, t *token.Token, officeID string) {
	for _, e := range r.tokenRedeemed {
		if err := e.hook.OnTokenRedeemed(ctx, t, officeID); err != nil {
			r.logHookError("OnTokenRedeemed", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Registry event emitters
// ──────────────────────────────────────────────────

// EmitFeatureRegistered notifies all plugins that implement FeatureRegistered.
func (r *Registry) EmitFeatureRegistered(ctx context.Context, featureName, operation string) {
	for _, e := range r.featureRegistered {
		if err := e.hook.OnFeatureRegistered(ctx, featureName, operation); err != nil {
			r.logHookError("OnFeatureRegistered", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Shutdown emitter
// ──────────────────────────────────────────────────

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the pipeline.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}

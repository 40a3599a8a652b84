package plugin

import (
	"context"
	"log/slog"
	"testing"

	"github.com/officegrid/sentinel/grant"
	"github.com/officegrid/sentinel/id"
	"github.com/officegrid/sentinel/token"
)

// testPlugin implements Plugin + GrantActivated + AfterAuthorize + TokenRedeemed.
type testPlugin struct {
	grantActivatedCalled bool
	afterAuthorizeCalled bool
	redeemedOffice       string
}

func (t *testPlugin) Name() string { return "test-plugin" }

func (t *testPlugin) OnGrantActivated(_ context.Context, _ *grant.Grant) error {
	t.grantActivatedCalled = true
	return nil
}

func (t *testPlugin) OnAfterAuthorize(_ context.Context, _, _ any) error {
	t.afterAuthorizeCalled = true
	return nil
}

func (t *testPlugin) OnTokenRedeemed(_ context.Context, _ *token.Token, officeID string) error {
	t.redeemedOffice = officeID
	return nil
}

// minimalPlugin only implements Plugin (no hooks).
type minimalPlugin struct{}

func (m *minimalPlugin) Name() string { return "minimal" }

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	tp := &testPlugin{}
	reg.Register(tp)
	reg.Register(&minimalPlugin{})

	if len(reg.Plugins()) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(reg.Plugins()))
	}

	// Should dispatch GrantActivated to testPlugin only.
	reg.EmitGrantActivated(ctx, &grant.Grant{ID: id.NewGrantID(), OfficeID: "off-1"})
	if !tp.grantActivatedCalled {
		t.Fatal("OnGrantActivated was not called")
	}

	// Should dispatch AfterAuthorize.
	reg.EmitAfterAuthorize(ctx, nil, nil)
	if !tp.afterAuthorizeCalled {
		t.Fatal("OnAfterAuthorize was not called")
	}

	// Should carry hook arguments through.
	reg.EmitTokenRedeemed(ctx, &token.Token{ID: id.NewTokenID()}, "off-9")
	if tp.redeemedOffice != "off-9" {
		t.Fatalf("expected office off-9, got %q", tp.redeemedOffice)
	}

	// Should not panic on hooks with no listeners.
	reg.EmitBeforeAuthorize(ctx, nil)
	reg.EmitGrantDeactivated(ctx, nil)
	reg.EmitFeatureRegistered(ctx, "sms", "send")
	reg.EmitShutdown(ctx)
}

// erroringPlugin returns an error from its hook; the registry must log and
// carry on, never propagate.
type erroringPlugin struct{ after *testPlugin }

func (e *erroringPlugin) Name() string { return "erroring" }

func (e *erroringPlugin) OnGrantActivated(_ context.Context, _ *grant.Grant) error {
	return context.DeadlineExceeded
}

func TestHookErrorsDoNotBlockLaterPlugins(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	reg.Register(&erroringPlugin{})
	tp := &testPlugin{}
	reg.Register(tp)

	reg.EmitGrantActivated(ctx, &grant.Grant{ID: id.NewGrantID()})
	if !tp.grantActivatedCalled {
		t.Fatal("later plugin must still be notified after an earlier hook error")
	}
}

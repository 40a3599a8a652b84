package entitlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/officegrid/sentinel/grant"
	"github.com/officegrid/sentinel/id"
	"github.com/officegrid/sentinel/plugin"
	"github.com/officegrid/sentinel/store/memory"
	"github.com/officegrid/sentinel/token"
)

func seedToken(t *testing.T, s *memory.Store, groupID id.FeatureGroupID, expiresInDays *int, active bool) *token.Token {
	t.Helper()
	tok := &token.Token{
		ID:             id.NewTokenID(),
		Name:           token.NewName(),
		FeatureGroupID: groupID,
		ExpiresInDays:  expiresInDays,
		IsActive:       active,
	}
	if err := s.CreateToken(context.Background(), tok); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	return tok
}

func TestActivateDirect(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g := seedGroup(t, s, "premium")

	act := NewActivator(s, nil)

	got, err := act.Activate(ctx, "office-1", g.ID, nil)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !got.IsActive {
		t.Error("new grant should be active")
	}
	if got.ExpiresAt != nil {
		t.Error("direct grant should not expire")
	}
	if !got.TokenID.IsNil() {
		t.Error("direct grant should carry no token")
	}

	eval := NewEvaluator(s, nil)
	if !eval.GroupActive(ctx, "office-1", "premium") {
		t.Error("read-after-write: activation must be immediately visible")
	}
}

func TestActivateUnknownGroup(t *testing.T) {
	ctx := context.Background()
	act := NewActivator(memory.New(), nil)

	if _, err := act.Activate(ctx, "office-1", id.NewFeatureGroupID(), nil); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("got err %v, want ErrGroupNotFound", err)
	}
}

func TestActivateIdempotent(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g := seedGroup(t, s, "premium")
	act := NewActivator(s, nil)

	first, err := act.Activate(ctx, "office-1", g.ID, nil)
	if err != nil {
		t.Fatalf("first Activate: %v", err)
	}
	second, err := act.Activate(ctx, "office-1", g.ID, nil)
	if err != nil {
		t.Fatalf("second Activate: %v", err)
	}
	if first.ID.String() != second.ID.String() {
		t.Error("re-activation must not mint a new grant row")
	}
	n, _ := s.CountGrants(ctx, &grant.ListFilter{OfficeID: "office-1"})
	if n != 1 {
		t.Errorf("got %d grant rows, want 1", n)
	}
}

func TestRedeemToken(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g := seedGroup(t, s, "premium")
	days := 30
	tok := seedToken(t, s, g.ID, &days, true)

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	act := NewActivator(s, nil, WithClock(func() time.Time { return t0 }))

	got, err := act.RedeemToken(ctx, "office-1", tok.Name)
	if err != nil {
		t.Fatalf("RedeemToken: %v", err)
	}
	if got.TokenID.String() != tok.ID.String() {
		t.Error("grant should record the redeemed token")
	}
	want := t0.AddDate(0, 0, 30)
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, want)
	}
}

func TestRedeemTokenErrors(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g := seedGroup(t, s, "premium")
	act := NewActivator(s, nil)

	if _, err := act.RedeemToken(ctx, "office-1", "no-such-token"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("got err %v, want ErrTokenNotFound", err)
	}

	dead := seedToken(t, s, g.ID, nil, false)
	if _, err := act.RedeemToken(ctx, "office-1", dead.Name); !errors.Is(err, ErrTokenInactive) {
		t.Errorf("got err %v, want ErrTokenInactive", err)
	}

	other := seedGroup(t, s, "other")
	mismatched := seedToken(t, s, other.ID, nil, true)
	if _, err := act.Activate(ctx, "office-1", g.ID, mismatched); !errors.Is(err, ErrTokenGroupMismatch) {
		t.Errorf("got err %v, want ErrTokenGroupMismatch", err)
	}
}

// Redeeming a token against an expired grant refreshes the window rather
// than returning the stale row.
func TestRedeemTokenRefreshesExpiredGrant(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g := seedGroup(t, s, "premium")
	days := 30
	tok := seedToken(t, s, g.ID, &days, true)

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := t0
	act := NewActivator(s, nil, WithClock(func() time.Time { return now }))

	first, err := act.RedeemToken(ctx, "office-1", tok.Name)
	if err != nil {
		t.Fatalf("first redemption: %v", err)
	}

	// 40 days later the grant has lapsed; redeeming again re-opens it.
	now = t0.AddDate(0, 0, 40)
	second, err := act.RedeemToken(ctx, "office-1", tok.Name)
	if err != nil {
		t.Fatalf("second redemption: %v", err)
	}
	if first.ID.String() != second.ID.String() {
		t.Error("refresh must reuse the existing grant row")
	}
	want := now.AddDate(0, 0, 30)
	if second.ExpiresAt == nil || !second.ExpiresAt.Equal(want) {
		t.Errorf("refreshed ExpiresAt = %v, want %v", second.ExpiresAt, want)
	}

	eval := NewEvaluator(s, nil, WithClock(func() time.Time { return now }))
	if !eval.GroupActive(ctx, "office-1", "premium") {
		t.Error("refreshed grant should be entitled again")
	}
}

func TestDeactivate(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g := seedGroup(t, s, "premium")
	act := NewActivator(s, nil)

	if _, err := act.Activate(ctx, "office-1", g.ID, nil); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := act.Deactivate(ctx, "office-1", g.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	eval := NewEvaluator(s, nil)
	if eval.GroupActive(ctx, "office-1", "premium") {
		t.Error("deactivated grant should not be entitled")
	}

	// Row survives as audit state.
	row, err := s.GetGrant(ctx, "office-1", g.ID)
	if err != nil {
		t.Fatalf("grant row deleted on deactivation: %v", err)
	}
	if row.IsActive {
		t.Error("row should be inactive")
	}

	// Already inactive: no-op, no error.
	if err := act.Deactivate(ctx, "office-1", g.ID); err != nil {
		t.Errorf("repeat Deactivate: %v", err)
	}

	if err := act.Deactivate(ctx, "office-2", g.ID); !errors.Is(err, ErrGrantNotFound) {
		t.Errorf("got err %v, want ErrGrantNotFound", err)
	}
}

// recorderPlugin captures lifecycle hook invocations.
type recorderPlugin struct {
	activated   int
	deactivated int
	redeemed    int
}

func (p *recorderPlugin) Name() string { return "recorder" }

func (p *recorderPlugin) OnGrantActivated(_ context.Context, _ *grant.Grant) error {
	p.activated++
	return nil
}

func (p *recorderPlugin) OnGrantDeactivated(_ context.Context, _ *grant.Grant) error {
	p.deactivated++
	return nil
}

func (p *recorderPlugin) OnTokenRedeemed(_ context.Context, _ *token.Token, _ string) error {
	p.redeemed++
	return nil
}

func TestActivatorHooks(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g := seedGroup(t, s, "premium")
	tok := seedToken(t, s, g.ID, nil, true)

	rec := &recorderPlugin{}
	hooks := plugin.NewRegistry(nil)
	hooks.Register(rec)

	act := NewActivator(s, hooks)

	if _, err := act.RedeemToken(ctx, "office-1", tok.Name); err != nil {
		t.Fatalf("RedeemToken: %v", err)
	}
	if err := act.Deactivate(ctx, "office-1", g.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	if rec.activated != 1 || rec.redeemed != 1 || rec.deactivated != 1 {
		t.Errorf("hook counts = %d/%d/%d, want 1/1/1", rec.activated, rec.redeemed, rec.deactivated)
	}

	// Invalid activation must not fire hooks.
	if _, err := act.Activate(ctx, "office-1", id.NewFeatureGroupID(), nil); err == nil {
		t.Fatal("expected error for unknown group")
	}
	if rec.activated != 1 {
		t.Errorf("failed activation fired a hook: %d", rec.activated)
	}
}

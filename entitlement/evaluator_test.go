package entitlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/officegrid/sentinel/feature"
	"github.com/officegrid/sentinel/grant"
	"github.com/officegrid/sentinel/id"
	"github.com/officegrid/sentinel/registry"
	"github.com/officegrid/sentinel/store/memory"
)

func seedGroup(t *testing.T, s *memory.Store, name string) *feature.FeatureGroup {
	t.Helper()
	g := &feature.FeatureGroup{ID: id.NewFeatureGroupID(), Name: name, AppName: name}
	if err := s.CreateFeatureGroup(context.Background(), g); err != nil {
		t.Fatalf("seed group: %v", err)
	}
	return g
}

func seedFeatureInGroup(t *testing.T, s *memory.Store, g *feature.FeatureGroup, name string) *feature.Feature {
	t.Helper()
	ctx := context.Background()
	f := &feature.Feature{ID: id.NewFeatureID(), Name: name, IsActive: true}
	if err := s.CreateFeature(ctx, f); err != nil {
		t.Fatalf("seed feature: %v", err)
	}
	if err := s.AddFeatureToGroup(ctx, g.ID, f.ID); err != nil {
		t.Fatalf("seed membership: %v", err)
	}
	return f
}

func seedGrant(t *testing.T, s *memory.Store, officeID string, groupID id.FeatureGroupID, active bool, expiresAt *time.Time) {
	t.Helper()
	g := &grant.Grant{
		ID:             id.NewGrantID(),
		OfficeID:       officeID,
		FeatureGroupID: groupID,
		IsActive:       active,
		ActivatedAt:    time.Now().UTC(),
		ExpiresAt:      expiresAt,
	}
	if err := s.UpsertGrant(context.Background(), g); err != nil {
		t.Fatalf("seed grant: %v", err)
	}
}

func TestGroupActive(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g := seedGroup(t, s, "premium")
	seedGrant(t, s, "office-1", g.ID, true, nil)

	eval := NewEvaluator(s, nil)

	if !eval.GroupActive(ctx, "office-1", "premium") {
		t.Error("active grant should report entitled")
	}
	if eval.GroupActive(ctx, "office-2", "premium") {
		t.Error("office without a grant should not be entitled")
	}
	if eval.GroupActive(ctx, "office-1", "no-such-group") {
		t.Error("unknown group should report not entitled, not error")
	}
}

func TestGroupActiveInactiveGrant(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g := seedGroup(t, s, "premium")
	seedGrant(t, s, "office-1", g.ID, false, nil)

	eval := NewEvaluator(s, nil)
	if eval.GroupActive(ctx, "office-1", "premium") {
		t.Error("deactivated grant should not be entitled")
	}
}

// Expiry is evaluated lazily against the injected clock. A grant that was
// never touched after its expiry instant must flip to unavailable the
// moment the clock passes it, including at the exact boundary.
func TestGroupActiveExpiry(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g := seedGroup(t, s, "premium")

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	exp := t0.AddDate(0, 0, 30)
	seedGrant(t, s, "office-1", g.ID, true, &exp)

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before expiry", t0.AddDate(0, 0, 29), true},
		{"at expiry boundary", exp, false},
		{"after expiry", t0.AddDate(0, 0, 31), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			now := tc.now
			eval := NewEvaluator(s, nil, WithClock(func() time.Time { return now }))
			if got := eval.GroupActive(ctx, "office-1", "premium"); got != tc.want {
				t.Errorf("at %v: got %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestGranularAvailable(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g := seedGroup(t, s, "premium")
	seedFeatureInGroup(t, s, g, "exports")
	seedGrant(t, s, "office-1", g.ID, true, nil)

	reg := registry.New(nil)
	reg.Register("exports", "download", func(ctx context.Context, args ...any) (any, error) {
		return nil, nil
	}, "")

	eval := NewEvaluator(s, reg)

	ok, err := eval.GranularAvailable(ctx, "office-1", "exports", "download")
	if err != nil {
		t.Fatalf("GranularAvailable: %v", err)
	}
	if !ok {
		t.Error("entitled office should have the granular feature")
	}

	ok, err = eval.GranularAvailable(ctx, "office-2", "exports", "download")
	if err != nil {
		t.Fatalf("GranularAvailable(office-2): %v", err)
	}
	if ok {
		t.Error("office without a grant should not have the granular feature")
	}
}

// An unregistered (feature, operation) pair is a configuration defect: the
// check must fail with a distinct error, never a quiet false.
func TestGranularAvailableUnregistered(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	eval := NewEvaluator(s, registry.New(nil))

	ok, err := eval.GranularAvailable(ctx, "office-1", "exports", "download")
	if !errors.Is(err, ErrFeatureNotRegistered) {
		t.Fatalf("got err %v, want ErrFeatureNotRegistered", err)
	}
	if ok {
		t.Error("unregistered check must not report available")
	}

	// Nil registry behaves the same as an empty one.
	eval = NewEvaluator(s, nil)
	if _, err := eval.GranularAvailable(ctx, "office-1", "exports", "download"); !errors.Is(err, ErrFeatureNotRegistered) {
		t.Errorf("nil registry: got err %v, want ErrFeatureNotRegistered", err)
	}
}

// A feature registered for invocation but not assigned to any group is
// simply unavailable; the lookup failure never propagates.
func TestGranularAvailableNoOwningGroup(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	reg := registry.New(nil)
	reg.Register("orphan", "run", func(ctx context.Context, args ...any) (any, error) {
		return nil, nil
	}, "")

	eval := NewEvaluator(s, reg)
	ok, err := eval.GranularAvailable(ctx, "office-1", "orphan", "run")
	if err != nil {
		t.Fatalf("GranularAvailable: %v", err)
	}
	if ok {
		t.Error("feature with no owning group should be unavailable")
	}
}

// fakeCache records reads and writes so cache interaction is observable.
type fakeCache struct {
	entries map[string]*grant.Grant
	hits    int
	sets    int
}

func newFakeCache() *fakeCache { return &fakeCache{entries: make(map[string]*grant.Grant)} }

func (c *fakeCache) key(officeID string, groupID id.FeatureGroupID) string {
	return officeID + "|" + groupID.String()
}

func (c *fakeCache) GetGrant(_ context.Context, officeID string, groupID id.FeatureGroupID) (*grant.Grant, bool) {
	g, ok := c.entries[c.key(officeID, groupID)]
	if ok {
		c.hits++
	}
	return g, ok
}

func (c *fakeCache) SetGrant(_ context.Context, g *grant.Grant) {
	c.sets++
	c.entries[c.key(g.OfficeID, g.FeatureGroupID)] = g
}

func (c *fakeCache) Invalidate(_ context.Context, officeID string, groupID id.FeatureGroupID) {
	delete(c.entries, c.key(officeID, groupID))
}

// A cached grant row must still honor expiry: the verdict is recomputed
// from ExpiresAt on every read, so a hit can flip from true to false as
// the clock advances, without any store traffic.
func TestGroupActiveCachedExpiryRecheck(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g := seedGroup(t, s, "premium")

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	exp := t0.Add(time.Hour)
	seedGrant(t, s, "office-1", g.ID, true, &exp)

	now := t0
	cache := newFakeCache()
	eval := NewEvaluator(s, nil,
		WithClock(func() time.Time { return now }),
		WithCache(cache),
	)

	if !eval.GroupActive(ctx, "office-1", "premium") {
		t.Fatal("expected entitled before expiry")
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache fill, got %d", cache.sets)
	}

	// Second read hits the cache while still valid.
	if !eval.GroupActive(ctx, "office-1", "premium") {
		t.Fatal("expected entitled on cache hit")
	}
	if cache.hits != 1 {
		t.Fatalf("expected one cache hit, got %d", cache.hits)
	}

	// Advance past expiry: the same cached row must now deny.
	now = exp.Add(time.Minute)
	if eval.GroupActive(ctx, "office-1", "premium") {
		t.Error("cached grant past expiry must not be entitled")
	}
}

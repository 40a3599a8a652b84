package sentinel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/officegrid/sentinel/decisionlog"
	"github.com/officegrid/sentinel/feature"
	"github.com/officegrid/sentinel/grant"
	"github.com/officegrid/sentinel/id"
	"github.com/officegrid/sentinel/permission"
	"github.com/officegrid/sentinel/principal"
	"github.com/officegrid/sentinel/scope"
	"github.com/officegrid/sentinel/store/memory"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *memory.Store) {
	t.Helper()
	s := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	all := append([]Option{WithStore(s), WithLogger(logger)}, opts...)
	e, err := NewEngine(all...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e, s
}

// grantGroup seeds an active grant for the office. The group is created
// on first use and reused afterwards; group names are unique.
func grantGroup(t *testing.T, s *memory.Store, officeID, groupName string) *feature.FeatureGroup {
	t.Helper()
	ctx := context.Background()
	g, err := s.GetFeatureGroupByName(ctx, groupName)
	if err != nil {
		g = &feature.FeatureGroup{ID: id.NewFeatureGroupID(), Name: groupName, AppName: groupName}
		if err := s.CreateFeatureGroup(ctx, g); err != nil {
			t.Fatalf("seed group: %v", err)
		}
	}
	gr := &grant.Grant{
		ID:             id.NewGrantID(),
		OfficeID:       officeID,
		FeatureGroupID: g.ID,
		IsActive:       true,
		ActivatedAt:    time.Now().UTC(),
	}
	if err := s.UpsertGrant(ctx, gr); err != nil {
		t.Fatalf("seed grant: %v", err)
	}
	return g
}

func user(id string) *principal.Principal {
	return &principal.Principal{ID: id, Role: principal.RoleUser}
}

func TestNewEngineRequiresStore(t *testing.T) {
	if _, err := NewEngine(); !errors.Is(err, ErrStoreRequired) {
		t.Fatalf("expected ErrStoreRequired, got %v", err)
	}
}

func TestAuthorizeUnauthenticated(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	for _, p := range []*principal.Principal{nil, {ID: ""}} {
		d, err := e.Authorize(ctx, &Request{Principal: p, Operation: "reports.view"})
		if err != nil {
			t.Fatalf("Authorize: %v", err)
		}
		if d.Allowed || d.Reason != ReasonUnauthenticated {
			t.Errorf("principal %+v: got (%v, %s), want denied unauthenticated", p, d.Allowed, d.Reason)
		}
		if d.Predicate.Kind != scope.KindMatchNothing {
			t.Errorf("unauthenticated denial should carry a match-nothing predicate, got %s", d.Predicate.Kind)
		}
	}
}

func TestAuthorizePublic(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	// Anonymous caller passes a public operation.
	d, err := e.Authorize(ctx, &Request{
		Operation: "offices.list",
		Require:   Requirements{Public: true},
	})
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("public operation denied: %s", d.Reason)
	}
	if d.Predicate.Kind != scope.KindUnrestricted {
		t.Errorf("anonymous public request predicate = %s, want unrestricted", d.Predicate.Kind)
	}

	// Public skips roles and permissions, not feature gating.
	d, err = e.Authorize(ctx, &Request{
		Operation: "offices.list",
		Require: Requirements{
			Public:  true,
			Feature: &FeatureRef{Group: "premium"},
		},
		Meta: RequestMeta{Query: map[string]string{"office_id": "off-1"}},
	})
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if d.Allowed || d.Reason != ReasonFeatureUnavailable {
		t.Errorf("got (%v, %s), want denied feature_unavailable", d.Allowed, d.Reason)
	}

	grantGroup(t, s, "off-1", "premium")
	d, err = e.Authorize(ctx, &Request{
		Operation: "offices.list",
		Require: Requirements{
			Public:  true,
			Feature: &FeatureRef{Group: "premium"},
		},
		Meta: RequestMeta{Query: map[string]string{"office_id": "off-1"}},
	})
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !d.Allowed {
		t.Errorf("entitled public request denied: %s", d.Reason)
	}
}

func TestAuthorizeRoles(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	req := &Request{
		Principal: &principal.Principal{ID: "u1", Role: principal.Role("manager")},
		Operation: "offices.view",
		Require:   Requirements{Roles: []principal.Role{principal.RoleAdmin, principal.RoleManager}},
	}

	d, err := e.Authorize(ctx, req)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !d.Allowed {
		t.Errorf("role match is case-insensitive; got denied %s", d.Reason)
	}

	req.Principal.Role = principal.RoleUser
	d, err = e.Authorize(ctx, req)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if d.Allowed || d.Reason != ReasonRoleDenied {
		t.Errorf("got (%v, %s), want denied role_denied", d.Allowed, d.Reason)
	}
}

func TestAuthorizePermissions(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		principal *principal.Principal
		require   []permission.Permission
		allowed   bool
	}{
		{"role default", &principal.Principal{ID: "u1", Role: principal.RoleManager}, []permission.Permission{permission.ViewReports}, true},
		{"missing from role", user("u2"), []permission.Permission{permission.ViewReports}, false},
		{"explicit grant", &principal.Principal{ID: "u3", Role: principal.RoleUser, Granted: []string{"VIEW_REPORTS"}}, []permission.Permission{permission.ViewReports}, true},
		{"ban beats role default", &principal.Principal{ID: "u4", Role: principal.RoleAdmin, Banned: []string{"DELETE_USER"}}, []permission.Permission{permission.DeleteUser}, false},
		{"ban beats explicit grant", &principal.Principal{ID: "u5", Role: principal.RoleUser, Granted: []string{"VIEW_REPORTS"}, Banned: []string{"VIEW_REPORTS"}}, []permission.Permission{permission.ViewReports}, false},
		{"unknown grant dropped", &principal.Principal{ID: "u6", Role: principal.RoleUser, Granted: []string{"LAUNCH_MISSILES"}}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := e.Authorize(ctx, &Request{
				Principal: tt.principal,
				Operation: "test.op",
				Require:   Requirements{Permissions: tt.require},
			})
			if err != nil {
				t.Fatalf("Authorize: %v", err)
			}
			if d.Allowed != tt.allowed {
				t.Errorf("got allowed=%v reason=%s, want allowed=%v", d.Allowed, d.Reason, tt.allowed)
			}
			if !tt.allowed && d.Reason != ReasonPermissionDenied {
				t.Errorf("reason = %s, want permission_denied", d.Reason)
			}
		})
	}
}

func TestAuthorizePredicate(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name string
		p    *principal.Principal
		want scope.Predicate
	}{
		{
			"unscoped role is unrestricted",
			&principal.Principal{ID: "u1", Role: principal.RoleAdmin},
			scope.Unrestricted(),
		},
		{
			"state admin",
			&principal.Principal{
				ID:    "u2",
				Role:  principal.RoleStateAdmin,
				Scope: &scope.AdminScope{Level: scope.LevelState, CountryID: 44, StateID: 7},
			},
			scope.ByCountryState(44, 7),
		},
		{
			"scoped role without scope fails closed",
			&principal.Principal{ID: "u3", Role: principal.RoleCityAdmin},
			scope.MatchNothing(),
		},
		{
			"scoped role with malformed scope fails closed",
			&principal.Principal{
				ID:    "u4",
				Role:  principal.RoleCityAdmin,
				Scope: &scope.AdminScope{Level: scope.LevelCity, CountryID: 44},
			},
			scope.MatchNothing(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := e.Authorize(ctx, &Request{Principal: tt.p, Operation: "records.list"})
			if err != nil {
				t.Fatalf("Authorize: %v", err)
			}
			if !d.Allowed {
				t.Fatalf("predicate derivation must not deny; got %s", d.Reason)
			}
			if d.Predicate != tt.want {
				t.Errorf("predicate = %+v, want %+v", d.Predicate, tt.want)
			}
		})
	}
}

func TestAuthorizeFeatureGroup(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()
	grantGroup(t, s, "office-1", "premium")

	req := &Request{
		Principal: &principal.Principal{ID: "u1", OfficeID: "office-1", Role: principal.RoleUser},
		Operation: "premium.use",
		Require:   Requirements{Feature: &FeatureRef{Group: "premium"}},
	}

	d, err := e.Authorize(ctx, req)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("granted office should be entitled; got %s", d.Reason)
	}
	if d.OfficeID != "office-1" {
		t.Errorf("decision office = %q, want office-1", d.OfficeID)
	}

	req.Principal.OfficeID = "office-2"
	d, err = e.Authorize(ctx, req)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if d.Allowed || d.Reason != ReasonFeatureUnavailable {
		t.Errorf("got (%v, %s), want denied feature_unavailable", d.Allowed, d.Reason)
	}
}

func TestAuthorizeMissingOffice(t *testing.T) {
	e, _ := newTestEngine(t)

	d, err := e.Authorize(context.Background(), &Request{
		Principal: user("u1"),
		Operation: "premium.use",
		Require:   Requirements{Feature: &FeatureRef{Group: "premium"}},
	})
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if d.Allowed || d.Reason != ReasonMissingOffice {
		t.Errorf("got (%v, %s), want denied missing_office", d.Allowed, d.Reason)
	}
}

// Office resolution walks query, body, path, then the principal. Each layer
// is only consulted when every layer above it is silent.
func TestOfficeResolutionPriority(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()
	grantGroup(t, s, "office-q", "premium")
	grantGroup(t, s, "office-b", "premium")
	grantGroup(t, s, "office-p", "premium")
	grantGroup(t, s, "office-own", "premium")

	p := &principal.Principal{ID: "u1", OfficeID: "office-own", Role: principal.RoleUser}
	meta := RequestMeta{
		Query: map[string]string{"office_id": "office-q"},
		Body:  map[string]string{"office_id": "office-b"},
		Path:  map[string]string{"office_id": "office-p"},
	}

	tests := []struct {
		name string
		trim func(*RequestMeta)
		want string
	}{
		{"query wins", func(*RequestMeta) {}, "office-q"},
		{"body next", func(m *RequestMeta) { m.Query = nil }, "office-b"},
		{"path next", func(m *RequestMeta) { m.Query, m.Body = nil, nil }, "office-p"},
		{"principal last", func(m *RequestMeta) { m.Query, m.Body, m.Path = nil, nil, nil }, "office-own"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := meta
			tt.trim(&m)
			d, err := e.Authorize(ctx, &Request{
				Principal: p,
				Operation: "premium.use",
				Require:   Requirements{Feature: &FeatureRef{Group: "premium"}},
				Meta:      m,
			})
			if err != nil {
				t.Fatalf("Authorize: %v", err)
			}
			if !d.Allowed || d.OfficeID != tt.want {
				t.Errorf("resolved office %q (allowed=%v), want %q", d.OfficeID, d.Allowed, tt.want)
			}
		})
	}
}

func TestOfficeParamConfigurable(t *testing.T) {
	e, s := newTestEngine(t, WithConfig(Config{OfficeParam: "branch_id"}))
	grantGroup(t, s, "office-1", "premium")

	d, err := e.Authorize(context.Background(), &Request{
		Principal: user("u1"),
		Operation: "premium.use",
		Require:   Requirements{Feature: &FeatureRef{Group: "premium"}},
		Meta:      RequestMeta{Query: map[string]string{"branch_id": "office-1"}},
	})
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !d.Allowed || d.OfficeID != "office-1" {
		t.Errorf("got (%v, %q), want allowed for office-1", d.Allowed, d.OfficeID)
	}
}

func TestAuthorizeGranular(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()
	e.RegisterOperation(ctx, "bulk-export", "download", func(ctx context.Context, args ...any) (any, error) {
		return nil, nil
	}, "bulk data export")

	g := grantGroup(t, s, "office-1", "exports")
	f := &feature.Feature{ID: id.NewFeatureID(), Name: "bulk-export", IsActive: true}
	if err := s.CreateFeature(ctx, f); err != nil {
		t.Fatalf("seed feature: %v", err)
	}
	if err := s.AddFeatureToGroup(ctx, g.ID, f.ID); err != nil {
		t.Fatalf("seed membership: %v", err)
	}

	req := &Request{
		Principal: &principal.Principal{ID: "u1", OfficeID: "office-1", Role: principal.RoleUser},
		Operation: "exports.download",
		Require:   Requirements{Feature: &FeatureRef{Feature: "bulk-export", Operation: "download"}},
	}

	d, err := e.Authorize(ctx, req)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !d.Allowed {
		t.Errorf("registered feature in a granted group should be available; got %s", d.Reason)
	}

	// An unregistered feature is a wiring defect and surfaces as an error,
	// never as a quiet denial.
	req.Require.Feature = &FeatureRef{Feature: "ghost-feature", Operation: "download"}
	if _, err := e.Authorize(ctx, req); !errors.Is(err, ErrFeatureNotRegistered) {
		t.Errorf("expected ErrFeatureNotRegistered, got %v", err)
	}
}

func TestAuthorizeExpiredGrant(t *testing.T) {
	now := time.Now().UTC()
	clock := func() time.Time { return now }
	e, s := newTestEngine(t, WithClock(clock))
	ctx := context.Background()

	g := grantGroup(t, s, "office-1", "premium")
	expires := now.Add(time.Hour)
	gr := &grant.Grant{
		ID:             id.NewGrantID(),
		OfficeID:       "office-1",
		FeatureGroupID: g.ID,
		IsActive:       true,
		ActivatedAt:    now,
		ExpiresAt:      &expires,
	}
	if err := s.UpsertGrant(ctx, gr); err != nil {
		t.Fatalf("seed grant: %v", err)
	}

	req := &Request{
		Principal: &principal.Principal{ID: "u1", OfficeID: "office-1", Role: principal.RoleUser},
		Operation: "premium.use",
		Require:   Requirements{Feature: &FeatureRef{Group: "premium"}},
	}

	d, err := e.Authorize(ctx, req)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("grant inside its window should be entitled; got %s", d.Reason)
	}

	now = now.Add(2 * time.Hour)
	d, err = e.Authorize(ctx, req)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if d.Allowed || d.Reason != ReasonFeatureUnavailable {
		t.Errorf("got (%v, %s), want denied feature_unavailable after expiry", d.Allowed, d.Reason)
	}
}

func TestDecisionLogging(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.Authorize(ctx, &Request{
		Principal: &principal.Principal{ID: "u1", Role: principal.RoleManager},
		Operation: "reports.view",
		Require:   Requirements{Permissions: []permission.Permission{permission.ViewReports}},
	}); err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if _, err := e.Authorize(ctx, &Request{
		Principal: user("u2"),
		Operation: "reports.view",
		Require:   Requirements{Permissions: []permission.Permission{permission.ViewReports}},
	}); err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	entries, err := s.ListDecisions(ctx, &decisionlog.QueryFilter{})
	if err != nil {
		t.Fatalf("ListDecisions: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("logged %d decisions, want 2", len(entries))
	}
	for _, entry := range entries {
		if entry.Operation != "reports.view" {
			t.Errorf("entry operation = %q", entry.Operation)
		}
		if entry.PrincipalID == "u2" {
			if entry.Allowed || entry.Reason != string(ReasonPermissionDenied) {
				t.Errorf("denial logged as (%v, %s)", entry.Allowed, entry.Reason)
			}
		}
	}
}

func TestDecisionLoggingDisabled(t *testing.T) {
	off := false
	e, s := newTestEngine(t, WithConfig(Config{LogDecisions: &off}))
	ctx := context.Background()

	if _, err := e.Authorize(ctx, &Request{Principal: user("u1"), Operation: "x"}); err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	entries, err := s.ListDecisions(ctx, nil)
	if err != nil {
		t.Fatalf("ListDecisions: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("logged %d decisions with auditing disabled", len(entries))
	}
}

func TestEnforce(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	got, err := e.Enforce(ctx, &Request{
		Principal: &principal.Principal{
			ID:    "u1",
			Role:  principal.RoleCountryAdmin,
			Scope: &scope.AdminScope{Level: scope.LevelCountry, CountryID: 44},
		},
		Operation: "records.list",
	})
	if err != nil {
		t.Fatalf("Enforce: %v", err)
	}
	pred, ok := PredicateFromContext(got)
	if !ok {
		t.Fatal("enforced context should carry the predicate")
	}
	if pred != scope.ByCountry(44) {
		t.Errorf("predicate = %+v, want country 44", pred)
	}

	_, err = e.Enforce(ctx, &Request{Principal: nil, Operation: "records.list"})
	if !errors.Is(err, ErrAccessDenied) {
		t.Errorf("expected ErrAccessDenied, got %v", err)
	}
}

func TestCan(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := ContextWithPrincipal(context.Background(), &principal.Principal{ID: "u1", Role: principal.RoleManager})

	ok, err := e.Can(ctx, "reports.view", permission.ViewReports)
	if err != nil {
		t.Fatalf("Can: %v", err)
	}
	if !ok {
		t.Error("manager should hold VIEW_REPORTS")
	}

	ok, err = e.Can(ctx, "users.delete", permission.DeleteUser)
	if err != nil {
		t.Fatalf("Can: %v", err)
	}
	if ok {
		t.Error("manager should not hold DELETE_USER")
	}

	// No principal in context behaves as anonymous.
	ok, err = e.Can(context.Background(), "reports.view", permission.ViewReports)
	if err != nil {
		t.Fatalf("Can: %v", err)
	}
	if ok {
		t.Error("anonymous context should never authorize")
	}
}

type countingPlugin struct {
	before, after, registered int
}

func (p *countingPlugin) Name() string { return "counting" }

func (p *countingPlugin) OnBeforeAuthorize(_ context.Context, _ any) error {
	p.before++
	return nil
}

func (p *countingPlugin) OnAfterAuthorize(_ context.Context, _, decision any) error {
	p.after++
	if _, ok := decision.(*Decision); !ok {
		return errors.New("decision has unexpected type")
	}
	return nil
}

func (p *countingPlugin) OnFeatureRegistered(_ context.Context, _, _ string) error {
	p.registered++
	return nil
}

func TestAuthorizePluginHooks(t *testing.T) {
	rec := &countingPlugin{}
	e, _ := newTestEngine(t, WithPlugin(rec))

	if _, err := e.Authorize(context.Background(), &Request{Principal: user("u1"), Operation: "x"}); err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if rec.before != 1 || rec.after != 1 {
		t.Errorf("hook counts = (%d, %d), want (1, 1)", rec.before, rec.after)
	}
}

func TestRegisterOperationFiresHook(t *testing.T) {
	rec := &countingPlugin{}
	e, _ := newTestEngine(t, WithPlugin(rec))
	ctx := context.Background()

	e.RegisterOperation(ctx, "bulk-export", "download", func(ctx context.Context, args ...any) (any, error) {
		return nil, nil
	}, "bulk data export")

	if !e.Registry().IsRegistered("bulk-export", "download") {
		t.Error("operation not registered")
	}
	if rec.registered != 1 {
		t.Errorf("feature-registered hook count = %d, want 1", rec.registered)
	}
}

func TestEvalTimeRecorded(t *testing.T) {
	e, _ := newTestEngine(t)
	d, err := e.Authorize(context.Background(), &Request{Principal: user("u1"), Operation: "x"})
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if d.EvalTimeNs <= 0 {
		t.Errorf("EvalTimeNs = %d, want > 0", d.EvalTimeNs)
	}
}

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/officegrid/sentinel/decisionlog"
	"github.com/officegrid/sentinel/feature"
	"github.com/officegrid/sentinel/grant"
	"github.com/officegrid/sentinel/id"
	"github.com/officegrid/sentinel/token"
)

func TestFeatureCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	f := &feature.Feature{
		ID:        id.NewFeatureID(),
		Name:      "office.analytics",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateFeature(ctx, f); err != nil {
		t.Fatalf("CreateFeature: %v", err)
	}

	got, err := s.GetFeature(ctx, f.ID)
	if err != nil {
		t.Fatalf("GetFeature: %v", err)
	}
	if got.Name != "office.analytics" {
		t.Errorf("got name %q, want office.analytics", got.Name)
	}

	// Mutating the returned copy must not affect the stored entity.
	got.Name = "mutated"
	again, _ := s.GetFeature(ctx, f.ID)
	if again.Name != "office.analytics" {
		t.Error("store returned a shared reference, not a copy")
	}

	byName, err := s.GetFeatureByName(ctx, "office.analytics")
	if err != nil {
		t.Fatalf("GetFeatureByName: %v", err)
	}
	if byName.ID.String() != f.ID.String() {
		t.Errorf("GetFeatureByName returned wrong feature")
	}

	if err := s.DeactivateFeature(ctx, f.ID); err != nil {
		t.Fatalf("DeactivateFeature: %v", err)
	}
	got, _ = s.GetFeature(ctx, f.ID)
	if got.IsActive {
		t.Error("feature still active after deactivation")
	}

	if _, err := s.GetFeature(ctx, id.NewFeatureID()); err == nil {
		t.Error("expected error for missing feature")
	}
}

func TestFeatureList(t *testing.T) {
	ctx := context.Background()
	s := New()

	active := true
	for _, name := range []string{"alpha", "beta", "gamma"} {
		f := &feature.Feature{ID: id.NewFeatureID(), Name: name, IsActive: name != "beta"}
		if err := s.CreateFeature(ctx, f); err != nil {
			t.Fatalf("CreateFeature(%s): %v", name, err)
		}
	}

	all, err := s.ListFeatures(ctx, nil)
	if err != nil {
		t.Fatalf("ListFeatures: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d features, want 3", len(all))
	}
	if all[0].Name != "alpha" || all[2].Name != "gamma" {
		t.Errorf("list not sorted by name: %v, %v", all[0].Name, all[2].Name)
	}

	actives, err := s.ListFeatures(ctx, &feature.ListFilter{IsActive: &active})
	if err != nil {
		t.Fatalf("ListFeatures(active): %v", err)
	}
	if len(actives) != 2 {
		t.Errorf("got %d active features, want 2", len(actives))
	}

	n, err := s.CountFeatures(ctx, &feature.ListFilter{Search: "amm"})
	if err != nil {
		t.Fatalf("CountFeatures: %v", err)
	}
	if n != 1 {
		t.Errorf("got count %d, want 1", n)
	}

	page, err := s.ListFeatures(ctx, &feature.ListFilter{Offset: 1, Limit: 1})
	if err != nil {
		t.Fatalf("ListFeatures(page): %v", err)
	}
	if len(page) != 1 || page[0].Name != "beta" {
		t.Errorf("pagination returned %v", page)
	}
}

func TestGroupMembership(t *testing.T) {
	ctx := context.Background()
	s := New()

	g := &feature.FeatureGroup{ID: id.NewFeatureGroupID(), Name: "premium", AppName: "grid"}
	if err := s.CreateFeatureGroup(ctx, g); err != nil {
		t.Fatalf("CreateFeatureGroup: %v", err)
	}
	f := &feature.Feature{ID: id.NewFeatureID(), Name: "exports", IsActive: true}
	if err := s.CreateFeature(ctx, f); err != nil {
		t.Fatalf("CreateFeature: %v", err)
	}

	if err := s.AddFeatureToGroup(ctx, g.ID, f.ID); err != nil {
		t.Fatalf("AddFeatureToGroup: %v", err)
	}

	owner, err := s.GetFeatureGroupByFeature(ctx, "exports")
	if err != nil {
		t.Fatalf("GetFeatureGroupByFeature: %v", err)
	}
	if owner.ID.String() != g.ID.String() {
		t.Errorf("got owning group %s, want %s", owner.ID, g.ID)
	}

	members, err := s.ListGroupFeatures(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListGroupFeatures: %v", err)
	}
	if len(members) != 1 || members[0].Name != "exports" {
		t.Errorf("unexpected members: %v", members)
	}

	if err := s.RemoveFeatureFromGroup(ctx, g.ID, f.ID); err != nil {
		t.Fatalf("RemoveFeatureFromGroup: %v", err)
	}
	if _, err := s.GetFeatureGroupByFeature(ctx, "exports"); err == nil {
		t.Error("expected error after removing feature from its group")
	}

	byApp, err := s.GetFeatureGroupByAppName(ctx, "grid")
	if err != nil {
		t.Fatalf("GetFeatureGroupByAppName: %v", err)
	}
	if byApp.Name != "premium" {
		t.Errorf("got group %q, want premium", byApp.Name)
	}
}

func TestTokenCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	days := 30
	tok := &token.Token{
		ID:             id.NewTokenID(),
		Name:           token.NewName(),
		FeatureGroupID: id.NewFeatureGroupID(),
		ExpiresInDays:  &days,
		IsActive:       true,
	}
	if err := s.CreateToken(ctx, tok); err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	got, err := s.GetTokenByName(ctx, tok.Name)
	if err != nil {
		t.Fatalf("GetTokenByName: %v", err)
	}
	if got.ExpiresInDays == nil || *got.ExpiresInDays != 30 {
		t.Errorf("ExpiresInDays not preserved: %v", got.ExpiresInDays)
	}

	// Deep copy: the pointer field must not be shared.
	*got.ExpiresInDays = 99
	again, _ := s.GetToken(ctx, tok.ID)
	if *again.ExpiresInDays != 30 {
		t.Error("ExpiresInDays pointer shared between copies")
	}

	if err := s.DeactivateToken(ctx, tok.ID); err != nil {
		t.Fatalf("DeactivateToken: %v", err)
	}
	again, _ = s.GetToken(ctx, tok.ID)
	if again.IsActive {
		t.Error("token still active after deactivation")
	}

	n, err := s.CountTokens(ctx, &token.ListFilter{FeatureGroupID: &tok.FeatureGroupID})
	if err != nil {
		t.Fatalf("CountTokens: %v", err)
	}
	if n != 1 {
		t.Errorf("got count %d, want 1", n)
	}
}

func TestGrantUpsert(t *testing.T) {
	ctx := context.Background()
	s := New()

	groupID := id.NewFeatureGroupID()
	now := time.Now().UTC()
	g := &grant.Grant{
		ID:             id.NewGrantID(),
		OfficeID:       "office-1",
		FeatureGroupID: groupID,
		IsActive:       true,
		ActivatedAt:    now,
	}
	if err := s.UpsertGrant(ctx, g); err != nil {
		t.Fatalf("UpsertGrant: %v", err)
	}

	got, err := s.GetGrant(ctx, "office-1", groupID)
	if err != nil {
		t.Fatalf("GetGrant: %v", err)
	}
	if !got.IsActive {
		t.Error("grant not active")
	}

	// Upsert on the same (office, group) pair replaces, never duplicates.
	exp := now.Add(24 * time.Hour)
	g.ExpiresAt = &exp
	if err := s.UpsertGrant(ctx, g); err != nil {
		t.Fatalf("UpsertGrant(update): %v", err)
	}
	n, _ := s.CountGrants(ctx, &grant.ListFilter{OfficeID: "office-1"})
	if n != 1 {
		t.Fatalf("got %d grants after re-upsert, want 1", n)
	}
	got, _ = s.GetGrant(ctx, "office-1", groupID)
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt not updated: %v", got.ExpiresAt)
	}

	byID, err := s.GetGrantByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGrantByID: %v", err)
	}
	if byID.OfficeID != "office-1" {
		t.Errorf("got office %q", byID.OfficeID)
	}

	if _, err := s.GetGrant(ctx, "office-2", groupID); err == nil {
		t.Error("expected error for missing grant")
	}
}

func TestDecisionLog(t *testing.T) {
	ctx := context.Background()
	s := New()

	base := time.Now().UTC()
	for i, allowed := range []bool{true, false, true} {
		e := &decisionlog.Entry{
			ID:          id.NewDecisionLogID(),
			PrincipalID: "user-1",
			OfficeID:    "office-1",
			Operation:   "office.view",
			Allowed:     allowed,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.CreateDecision(ctx, e); err != nil {
			t.Fatalf("CreateDecision: %v", err)
		}
	}

	denied := false
	out, err := s.ListDecisions(ctx, &decisionlog.QueryFilter{Allowed: &denied})
	if err != nil {
		t.Fatalf("ListDecisions: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d denied decisions, want 1", len(out))
	}

	purged, err := s.PurgeDecisions(ctx, base.Add(90*time.Second))
	if err != nil {
		t.Fatalf("PurgeDecisions: %v", err)
	}
	if purged != 2 {
		t.Errorf("purged %d entries, want 2", purged)
	}
	n, _ := s.CountDecisions(ctx, nil)
	if n != 1 {
		t.Errorf("got %d remaining decisions, want 1", n)
	}
}

func TestErrNotFoundWrapping(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetFeatureByName(ctx, "nope")
	if err == nil || !errors.Is(err, errNotFound) {
		t.Errorf("expected wrapped errNotFound, got %v", err)
	}
}

// Names are unique per entity kind, matching the SQL schema constraints.
// Lookups by name must stay deterministic under duplicate seeding attempts.
func TestCreateRejectsDuplicateNames(t *testing.T) {
	ctx := context.Background()
	s := New()

	f := &feature.Feature{ID: id.NewFeatureID(), Name: "office.export"}
	if err := s.CreateFeature(ctx, f); err != nil {
		t.Fatalf("CreateFeature: %v", err)
	}
	dup := &feature.Feature{ID: id.NewFeatureID(), Name: "office.export"}
	if err := s.CreateFeature(ctx, dup); !errors.Is(err, errDuplicate) {
		t.Errorf("duplicate feature name: got %v, want errDuplicate", err)
	}

	g := &feature.FeatureGroup{ID: id.NewFeatureGroupID(), Name: "premium", AppName: "premium-app"}
	if err := s.CreateFeatureGroup(ctx, g); err != nil {
		t.Fatalf("CreateFeatureGroup: %v", err)
	}
	sameName := &feature.FeatureGroup{ID: id.NewFeatureGroupID(), Name: "premium"}
	if err := s.CreateFeatureGroup(ctx, sameName); !errors.Is(err, errDuplicate) {
		t.Errorf("duplicate group name: got %v, want errDuplicate", err)
	}
	sameApp := &feature.FeatureGroup{ID: id.NewFeatureGroupID(), Name: "basic", AppName: "premium-app"}
	if err := s.CreateFeatureGroup(ctx, sameApp); !errors.Is(err, errDuplicate) {
		t.Errorf("duplicate group app name: got %v, want errDuplicate", err)
	}

	// Groups without an app name do not collide with each other.
	blank1 := &feature.FeatureGroup{ID: id.NewFeatureGroupID(), Name: "starter"}
	blank2 := &feature.FeatureGroup{ID: id.NewFeatureGroupID(), Name: "trial"}
	if err := s.CreateFeatureGroup(ctx, blank1); err != nil {
		t.Fatalf("CreateFeatureGroup: %v", err)
	}
	if err := s.CreateFeatureGroup(ctx, blank2); err != nil {
		t.Errorf("second group with empty app name: %v", err)
	}

	tok := &token.Token{ID: id.NewTokenID(), Name: "tok-abc", FeatureGroupID: g.ID}
	if err := s.CreateToken(ctx, tok); err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	dupTok := &token.Token{ID: id.NewTokenID(), Name: "tok-abc", FeatureGroupID: g.ID}
	if err := s.CreateToken(ctx, dupTok); !errors.Is(err, errDuplicate) {
		t.Errorf("duplicate token name: got %v, want errDuplicate", err)
	}
}

func TestUpdateRejectsDuplicateNames(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := &feature.FeatureGroup{ID: id.NewFeatureGroupID(), Name: "premium"}
	b := &feature.FeatureGroup{ID: id.NewFeatureGroupID(), Name: "basic"}
	for _, g := range []*feature.FeatureGroup{a, b} {
		if err := s.CreateFeatureGroup(ctx, g); err != nil {
			t.Fatalf("CreateFeatureGroup: %v", err)
		}
	}

	// Renaming onto an existing name fails; saving under its own name is fine.
	b.Name = "premium"
	if err := s.UpdateFeatureGroup(ctx, b); !errors.Is(err, errDuplicate) {
		t.Errorf("rename onto taken name: got %v, want errDuplicate", err)
	}
	a.Description = "top tier"
	if err := s.UpdateFeatureGroup(ctx, a); err != nil {
		t.Errorf("update under own name: %v", err)
	}
}

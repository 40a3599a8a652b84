// Package memory provides an in-memory implementation of the sentinel
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/officegrid/sentinel/decisionlog"
	"github.com/officegrid/sentinel/feature"
	"github.com/officegrid/sentinel/grant"
	"github.com/officegrid/sentinel/id"
	"github.com/officegrid/sentinel/store"
	"github.com/officegrid/sentinel/token"
)

// Compile-time interface checks.
var (
	_ feature.Store     = (*Store)(nil)
	_ token.Store       = (*Store)(nil)
	_ grant.Store       = (*Store)(nil)
	_ decisionlog.Store = (*Store)(nil)
	_ store.Store       = (*Store)(nil)
)

// errNotFound and errDuplicate alias the shared store sentinels.
var (
	errNotFound  = store.ErrNotFound
	errDuplicate = store.ErrDuplicate
)

// Store is a thread-safe in-memory store for all sentinel entities.
type Store struct {
	mu sync.RWMutex

	features      map[string]*feature.Feature
	groups        map[string]*feature.FeatureGroup
	groupFeatures map[string]map[string]struct{} // groupID -> set of featureIDs
	tokens        map[string]*token.Token
	grants        map[string]*grant.Grant // officeID|groupID -> grant
	decisions     map[string]*decisionlog.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		features:      make(map[string]*feature.Feature),
		groups:        make(map[string]*feature.FeatureGroup),
		groupFeatures: make(map[string]map[string]struct{}),
		tokens:        make(map[string]*token.Token),
		grants:        make(map[string]*grant.Grant),
		decisions:     make(map[string]*decisionlog.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

func grantKey(officeID string, groupID id.FeatureGroupID) string {
	return officeID + "|" + groupID.String()
}

// ──────────────────────────────────────────────────
// Feature store
// ──────────────────────────────────────────────────

func (s *Store) CreateFeature(_ context.Context, f *feature.Feature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.features {
		if existing.Name == f.Name {
			return fmt.Errorf("feature name %q: %w", f.Name, errDuplicate)
		}
	}
	s.features[f.ID.String()] = copyFeature(f)
	return nil
}

func (s *Store) GetFeature(_ context.Context, featureID id.FeatureID) (*feature.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.features[featureID.String()]
	if !ok {
		return nil, fmt.Errorf("feature %s: %w", featureID, errNotFound)
	}
	return copyFeature(f), nil
}

func (s *Store) GetFeatureByName(_ context.Context, name string) (*feature.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.features {
		if f.Name == name {
			return copyFeature(f), nil
		}
	}
	return nil, fmt.Errorf("feature %q: %w", name, errNotFound)
}

func (s *Store) UpdateFeature(_ context.Context, f *feature.Feature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.features[f.ID.String()]; !ok {
		return fmt.Errorf("feature %s: %w", f.ID, errNotFound)
	}
	for fid, existing := range s.features {
		if fid != f.ID.String() && existing.Name == f.Name {
			return fmt.Errorf("feature name %q: %w", f.Name, errDuplicate)
		}
	}
	s.features[f.ID.String()] = copyFeature(f)
	return nil
}

func (s *Store) DeactivateFeature(_ context.Context, featureID id.FeatureID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.features[featureID.String()]
	if !ok {
		return fmt.Errorf("feature %s: %w", featureID, errNotFound)
	}
	cp := copyFeature(f)
	cp.IsActive = false
	cp.UpdatedAt = time.Now().UTC()
	s.features[featureID.String()] = cp
	return nil
}

func (s *Store) ListFeatures(_ context.Context, filter *feature.ListFilter) ([]*feature.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*feature.Feature
	for _, f := range s.features {
		if matchFeature(f, filter) {
			out = append(out, copyFeature(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if filter != nil {
		out = paginate(out, filter.Offset, filter.Limit)
	}
	return out, nil
}

func (s *Store) CountFeatures(_ context.Context, filter *feature.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, f := range s.features {
		if matchFeature(f, filter) {
			n++
		}
	}
	return n, nil
}

func matchFeature(f *feature.Feature, filter *feature.ListFilter) bool {
	if filter == nil {
		return true
	}
	if filter.IsActive != nil && f.IsActive != *filter.IsActive {
		return false
	}
	if filter.Search != "" && !strings.Contains(strings.ToLower(f.Name), strings.ToLower(filter.Search)) {
		return false
	}
	return true
}

// ──────────────────────────────────────────────────
// Feature group store
// ──────────────────────────────────────────────────

func (s *Store) CreateFeatureGroup(_ context.Context, g *feature.FeatureGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.groups {
		if existing.Name == g.Name {
			return fmt.Errorf("feature group name %q: %w", g.Name, errDuplicate)
		}
		if g.AppName != "" && existing.AppName == g.AppName {
			return fmt.Errorf("feature group app %q: %w", g.AppName, errDuplicate)
		}
	}
	s.groups[g.ID.String()] = copyGroup(g)
	return nil
}

func (s *Store) GetFeatureGroup(_ context.Context, groupID id.FeatureGroupID) (*feature.FeatureGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID.String()]
	if !ok {
		return nil, fmt.Errorf("feature group %s: %w", groupID, errNotFound)
	}
	return copyGroup(g), nil
}

func (s *Store) GetFeatureGroupByName(_ context.Context, name string) (*feature.FeatureGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.Name == name {
			return copyGroup(g), nil
		}
	}
	return nil, fmt.Errorf("feature group %q: %w", name, errNotFound)
}

func (s *Store) GetFeatureGroupByAppName(_ context.Context, appName string) (*feature.FeatureGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.AppName == appName {
			return copyGroup(g), nil
		}
	}
	return nil, fmt.Errorf("feature group app %q: %w", appName, errNotFound)
}

func (s *Store) GetFeatureGroupByFeature(_ context.Context, featureName string) (*feature.FeatureGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var featureID string
	for fid, f := range s.features {
		if f.Name == featureName {
			featureID = fid
			break
		}
	}
	if featureID == "" {
		return nil, fmt.Errorf("feature %q: %w", featureName, errNotFound)
	}

	for gid, members := range s.groupFeatures {
		if _, ok := members[featureID]; ok {
			if g, found := s.groups[gid]; found {
				return copyGroup(g), nil
			}
		}
	}
	return nil, fmt.Errorf("owning group for feature %q: %w", featureName, errNotFound)
}

func (s *Store) UpdateFeatureGroup(_ context.Context, g *feature.FeatureGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[g.ID.String()]; !ok {
		return fmt.Errorf("feature group %s: %w", g.ID, errNotFound)
	}
	for gid, existing := range s.groups {
		if gid == g.ID.String() {
			continue
		}
		if existing.Name == g.Name {
			return fmt.Errorf("feature group name %q: %w", g.Name, errDuplicate)
		}
		if g.AppName != "" && existing.AppName == g.AppName {
			return fmt.Errorf("feature group app %q: %w", g.AppName, errDuplicate)
		}
	}
	s.groups[g.ID.String()] = copyGroup(g)
	return nil
}

func (s *Store) ListFeatureGroups(_ context.Context, filter *feature.GroupListFilter) ([]*feature.FeatureGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*feature.FeatureGroup
	for _, g := range s.groups {
		if matchGroup(g, filter) {
			out = append(out, copyGroup(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if filter != nil {
		out = paginate(out, filter.Offset, filter.Limit)
	}
	return out, nil
}

func (s *Store) CountFeatureGroups(_ context.Context, filter *feature.GroupListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, g := range s.groups {
		if matchGroup(g, filter) {
			n++
		}
	}
	return n, nil
}

func matchGroup(g *feature.FeatureGroup, filter *feature.GroupListFilter) bool {
	if filter == nil {
		return true
	}
	if filter.IsPaid != nil && g.IsPaid != *filter.IsPaid {
		return false
	}
	if filter.Search != "" && !strings.Contains(strings.ToLower(g.Name), strings.ToLower(filter.Search)) {
		return false
	}
	return true
}

func (s *Store) AddFeatureToGroup(_ context.Context, groupID id.FeatureGroupID, featureID id.FeatureID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[groupID.String()]; !ok {
		return fmt.Errorf("feature group %s: %w", groupID, errNotFound)
	}
	if _, ok := s.features[featureID.String()]; !ok {
		return fmt.Errorf("feature %s: %w", featureID, errNotFound)
	}
	members, ok := s.groupFeatures[groupID.String()]
	if !ok {
		members = make(map[string]struct{})
		s.groupFeatures[groupID.String()] = members
	}
	members[featureID.String()] = struct{}{}
	return nil
}

func (s *Store) RemoveFeatureFromGroup(_ context.Context, groupID id.FeatureGroupID, featureID id.FeatureID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if members, ok := s.groupFeatures[groupID.String()]; ok {
		delete(members, featureID.String())
	}
	return nil
}

func (s *Store) ListGroupFeatures(_ context.Context, groupID id.FeatureGroupID) ([]*feature.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*feature.Feature
	for fid := range s.groupFeatures[groupID.String()] {
		if f, ok := s.features[fid]; ok {
			out = append(out, copyFeature(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ──────────────────────────────────────────────────
// Token store
// ──────────────────────────────────────────────────

func (s *Store) CreateToken(_ context.Context, t *token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tokens {
		if existing.Name == t.Name {
			return fmt.Errorf("token name %q: %w", t.Name, errDuplicate)
		}
	}
	s.tokens[t.ID.String()] = copyToken(t)
	return nil
}

func (s *Store) GetToken(_ context.Context, tokenID id.TokenID) (*token.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[tokenID.String()]
	if !ok {
		return nil, fmt.Errorf("token %s: %w", tokenID, errNotFound)
	}
	return copyToken(t), nil
}

func (s *Store) GetTokenByName(_ context.Context, name string) (*token.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tokens {
		if t.Name == name {
			return copyToken(t), nil
		}
	}
	return nil, fmt.Errorf("token %q: %w", name, errNotFound)
}

func (s *Store) UpdateToken(_ context.Context, t *token.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[t.ID.String()]; !ok {
		return fmt.Errorf("token %s: %w", t.ID, errNotFound)
	}
	for tid, existing := range s.tokens {
		if tid != t.ID.String() && existing.Name == t.Name {
			return fmt.Errorf("token name %q: %w", t.Name, errDuplicate)
		}
	}
	s.tokens[t.ID.String()] = copyToken(t)
	return nil
}

func (s *Store) DeactivateToken(_ context.Context, tokenID id.TokenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenID.String()]
	if !ok {
		return fmt.Errorf("token %s: %w", tokenID, errNotFound)
	}
	cp := copyToken(t)
	cp.IsActive = false
	cp.UpdatedAt = time.Now().UTC()
	s.tokens[tokenID.String()] = cp
	return nil
}

func (s *Store) ListTokens(_ context.Context, filter *token.ListFilter) ([]*token.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*token.Token
	for _, t := range s.tokens {
		if matchToken(t, filter) {
			out = append(out, copyToken(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if filter != nil {
		out = paginate(out, filter.Offset, filter.Limit)
	}
	return out, nil
}

func (s *Store) CountTokens(_ context.Context, filter *token.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, t := range s.tokens {
		if matchToken(t, filter) {
			n++
		}
	}
	return n, nil
}

func matchToken(t *token.Token, filter *token.ListFilter) bool {
	if filter == nil {
		return true
	}
	if filter.FeatureGroupID != nil && t.FeatureGroupID.String() != filter.FeatureGroupID.String() {
		return false
	}
	if filter.IsActive != nil && t.IsActive != *filter.IsActive {
		return false
	}
	return true
}

// ──────────────────────────────────────────────────
// Grant store
// ──────────────────────────────────────────────────

func (s *Store) UpsertGrant(_ context.Context, g *grant.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[grantKey(g.OfficeID, g.FeatureGroupID)] = copyGrant(g)
	return nil
}

func (s *Store) GetGrant(_ context.Context, officeID string, groupID id.FeatureGroupID) (*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[grantKey(officeID, groupID)]
	if !ok {
		return nil, fmt.Errorf("grant for office %s, group %s: %w", officeID, groupID, errNotFound)
	}
	return copyGrant(g), nil
}

func (s *Store) GetGrantByID(_ context.Context, grantID id.GrantID) (*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.grants {
		if g.ID.String() == grantID.String() {
			return copyGrant(g), nil
		}
	}
	return nil, fmt.Errorf("grant %s: %w", grantID, errNotFound)
}

func (s *Store) ListGrants(_ context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*grant.Grant
	for _, g := range s.grants {
		if matchGrant(g, filter) {
			out = append(out, copyGrant(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	if filter != nil {
		out = paginate(out, filter.Offset, filter.Limit)
	}
	return out, nil
}

func (s *Store) CountGrants(_ context.Context, filter *grant.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, g := range s.grants {
		if matchGrant(g, filter) {
			n++
		}
	}
	return n, nil
}

func matchGrant(g *grant.Grant, filter *grant.ListFilter) bool {
	if filter == nil {
		return true
	}
	if filter.OfficeID != "" && g.OfficeID != filter.OfficeID {
		return false
	}
	if filter.FeatureGroupID != nil && g.FeatureGroupID.String() != filter.FeatureGroupID.String() {
		return false
	}
	if filter.IsActive != nil && g.IsActive != *filter.IsActive {
		return false
	}
	return true
}

// ──────────────────────────────────────────────────
// Decision log store
// ──────────────────────────────────────────────────

func (s *Store) CreateDecision(_ context.Context, e *decisionlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions[e.ID.String()] = copyDecision(e)
	return nil
}

func (s *Store) GetDecision(_ context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.decisions[logID.String()]
	if !ok {
		return nil, fmt.Errorf("decision %s: %w", logID, errNotFound)
	}
	return copyDecision(e), nil
}

func (s *Store) ListDecisions(_ context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*decisionlog.Entry
	for _, e := range s.decisions {
		if matchDecision(e, filter) {
			out = append(out, copyDecision(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if filter != nil {
		out = paginate(out, filter.Offset, filter.Limit)
	}
	return out, nil
}

func (s *Store) CountDecisions(_ context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.decisions {
		if matchDecision(e, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) PurgeDecisions(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, e := range s.decisions {
		if e.CreatedAt.Before(before) {
			delete(s.decisions, k)
			n++
		}
	}
	return n, nil
}

func matchDecision(e *decisionlog.Entry, filter *decisionlog.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.PrincipalID != "" && e.PrincipalID != filter.PrincipalID {
		return false
	}
	if filter.OfficeID != "" && e.OfficeID != filter.OfficeID {
		return false
	}
	if filter.Allowed != nil && e.Allowed != *filter.Allowed {
		return false
	}
	if filter.Reason != "" && e.Reason != filter.Reason {
		return false
	}
	if filter.After != nil && !e.CreatedAt.After(*filter.After) {
		return false
	}
	if filter.Before != nil && !e.CreatedAt.Before(*filter.Before) {
		return false
	}
	return true
}

// ──────────────────────────────────────────────────
// Copy + pagination helpers
// ──────────────────────────────────────────────────

func copyFeature(f *feature.Feature) *feature.Feature {
	cp := *f
	return &cp
}

func copyGroup(g *feature.FeatureGroup) *feature.FeatureGroup {
	cp := *g
	return &cp
}

func copyToken(t *token.Token) *token.Token {
	cp := *t
	if t.ExpiresInDays != nil {
		d := *t.ExpiresInDays
		cp.ExpiresInDays = &d
	}
	return &cp
}

func copyGrant(g *grant.Grant) *grant.Grant {
	cp := *g
	if g.ExpiresAt != nil {
		e := *g.ExpiresAt
		cp.ExpiresAt = &e
	}
	return &cp
}

func copyDecision(e *decisionlog.Entry) *decisionlog.Entry {
	cp := *e
	return &cp
}

func paginate[T any](in []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(in) {
			return nil
		}
		in = in[offset:]
	}
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

// Package postgres provides a PostgreSQL implementation of the sentinel
// composite store using grove ORM with Go-based migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/officegrid/sentinel/decisionlog"
	"github.com/officegrid/sentinel/feature"
	"github.com/officegrid/sentinel/grant"
	"github.com/officegrid/sentinel/id"
	"github.com/officegrid/sentinel/store"
	"github.com/officegrid/sentinel/token"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// errNotFound aliases the shared not-found sentinel.
var errNotFound = store.ErrNotFound

// Store is a PostgreSQL implementation of the composite sentinel store.
type Store struct {
	db   *grove.DB
	pgdb *pgdriver.PgDB
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	return &Store{
		db:   db,
		pgdb: pgdriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("sentinel: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("sentinel: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ──────────────────────────────────────────────────
// Feature operations
// ──────────────────────────────────────────────────

func (s *Store) CreateFeature(ctx context.Context, f *feature.Feature) error {
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now
	m := featureToModel(f)
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("sentinel: create feature: %w", err)
	}
	return nil
}

func (s *Store) GetFeature(ctx context.Context, featureID id.FeatureID) (*feature.Feature, error) {
	m := new(featureModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", featureID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("feature %s: %w", featureID, errNotFound)
		}
		return nil, fmt.Errorf("sentinel: get feature: %w", err)
	}
	return featureFromModel(m), nil
}

func (s *Store) GetFeatureByName(ctx context.Context, name string) (*feature.Feature, error) {
	m := new(featureModel)
	err := s.pgdb.NewSelect(m).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("feature %q: %w", name, errNotFound)
		}
		return nil, fmt.Errorf("sentinel: get feature by name: %w", err)
	}
	return featureFromModel(m), nil
}

func (s *Store) UpdateFeature(ctx context.Context, f *feature.Feature) error {
	f.UpdatedAt = time.Now().UTC()
	m := featureToModel(f)
	if _, err := s.pgdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("sentinel: update feature: %w", err)
	}
	return nil
}

func (s *Store) DeactivateFeature(ctx context.Context, featureID id.FeatureID) error {
	_, err := s.pgdb.NewUpdate((*featureModel)(nil)).
		Set("is_active = ?", false).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", featureID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: deactivate feature: %w", err)
	}
	return nil
}

func (s *Store) ListFeatures(ctx context.Context, filter *feature.ListFilter) ([]*feature.Feature, error) {
	var models []featureModel
	q := s.pgdb.NewSelect(&models).OrderExpr("name ASC")
	if filter != nil {
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel: list features: %w", err)
	}
	result := make([]*feature.Feature, len(models))
	for i := range models {
		result[i] = featureFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountFeatures(ctx context.Context, filter *feature.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*featureModel)(nil))
	if filter != nil {
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel: count features: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Feature group operations
// ──────────────────────────────────────────────────

func (s *Store) CreateFeatureGroup(ctx context.Context, g *feature.FeatureGroup) error {
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	m := groupToModel(g)
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("sentinel: create feature group: %w", err)
	}
	return nil
}

func (s *Store) GetFeatureGroup(ctx context.Context, groupID id.FeatureGroupID) (*feature.FeatureGroup, error) {
	m := new(featureGroupModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", groupID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("feature group %s: %w", groupID, errNotFound)
		}
		return nil, fmt.Errorf("sentinel: get feature group: %w", err)
	}
	return groupFromModel(m), nil
}

func (s *Store) GetFeatureGroupByName(ctx context.Context, name string) (*feature.FeatureGroup, error) {
	m := new(featureGroupModel)
	err := s.pgdb.NewSelect(m).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("feature group %q: %w", name, errNotFound)
		}
		return nil, fmt.Errorf("sentinel: get feature group by name: %w", err)
	}
	return groupFromModel(m), nil
}

func (s *Store) GetFeatureGroupByAppName(ctx context.Context, appName string) (*feature.FeatureGroup, error) {
	m := new(featureGroupModel)
	err := s.pgdb.NewSelect(m).Where("app_name = ?", appName).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("feature group app %q: %w", appName, errNotFound)
		}
		return nil, fmt.Errorf("sentinel: get feature group by app: %w", err)
	}
	return groupFromModel(m), nil
}

func (s *Store) GetFeatureGroupByFeature(ctx context.Context, featureName string) (*feature.FeatureGroup, error) {
	m := new(featureGroupModel)
	err := s.pgdb.NewSelect(m).
		Join("JOIN", "sentinel_group_features AS gf", "gf.group_id = sentinel_feature_groups.id").
		Join("JOIN", "sentinel_features AS f", "f.id = gf.feature_id").
		Where("f.name = ?", featureName).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("owning group for feature %q: %w", featureName, errNotFound)
		}
		return nil, fmt.Errorf("sentinel: get group by feature: %w", err)
	}
	return groupFromModel(m), nil
}

func (s *Store) UpdateFeatureGroup(ctx context.Context, g *feature.FeatureGroup) error {
	g.UpdatedAt = time.Now().UTC()
	m := groupToModel(g)
	if _, err := s.pgdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("sentinel: update feature group: %w", err)
	}
	return nil
}

func (s *Store) ListFeatureGroups(ctx context.Context, filter *feature.GroupListFilter) ([]*feature.FeatureGroup, error) {
	var models []featureGroupModel
	q := s.pgdb.NewSelect(&models).OrderExpr("name ASC")
	if filter != nil {
		if filter.IsPaid != nil {
			q = q.Where("is_paid = ?", *filter.IsPaid)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel: list feature groups: %w", err)
	}
	result := make([]*feature.FeatureGroup, len(models))
	for i := range models {
		result[i] = groupFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountFeatureGroups(ctx context.Context, filter *feature.GroupListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*featureGroupModel)(nil))
	if filter != nil {
		if filter.IsPaid != nil {
			q = q.Where("is_paid = ?", *filter.IsPaid)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel: count feature groups: %w", err)
	}
	return count, nil
}

func (s *Store) AddFeatureToGroup(ctx context.Context, groupID id.FeatureGroupID, featureID id.FeatureID) error {
	m := &groupFeatureModel{
		GroupID:   groupID.String(),
		FeatureID: featureID.String(),
	}
	_, err := s.pgdb.NewInsert(m).
		OnConflict("(group_id, feature_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: add feature to group: %w", err)
	}
	return nil
}

func (s *Store) RemoveFeatureFromGroup(ctx context.Context, groupID id.FeatureGroupID, featureID id.FeatureID) error {
	_, err := s.pgdb.NewDelete((*groupFeatureModel)(nil)).
		Where("group_id = ?", groupID.String()).
		Where("feature_id = ?", featureID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: remove feature from group: %w", err)
	}
	return nil
}

func (s *Store) ListGroupFeatures(ctx context.Context, groupID id.FeatureGroupID) ([]*feature.Feature, error) {
	var models []featureModel
	err := s.pgdb.NewSelect(&models).
		Join("JOIN", "sentinel_group_features AS gf", "gf.feature_id = sentinel_features.id").
		Where("gf.group_id = ?", groupID.String()).
		OrderExpr("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("sentinel: list group features: %w", err)
	}
	result := make([]*feature.Feature, len(models))
	for i := range models {
		result[i] = featureFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Token operations
// ──────────────────────────────────────────────────

func (s *Store) CreateToken(ctx context.Context, t *token.Token) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	m := tokenToModel(t)
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("sentinel: create token: %w", err)
	}
	return nil
}

func (s *Store) GetToken(ctx context.Context, tokenID id.TokenID) (*token.Token, error) {
	m := new(tokenModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", tokenID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token %s: %w", tokenID, errNotFound)
		}
		return nil, fmt.Errorf("sentinel: get token: %w", err)
	}
	return tokenFromModel(m), nil
}

func (s *Store) GetTokenByName(ctx context.Context, name string) (*token.Token, error) {
	m := new(tokenModel)
	err := s.pgdb.NewSelect(m).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token %q: %w", name, errNotFound)
		}
		return nil, fmt.Errorf("sentinel: get token by name: %w", err)
	}
	return tokenFromModel(m), nil
}

func (s *Store) UpdateToken(ctx context.Context, t *token.Token) error {
	t.UpdatedAt = time.Now().UTC()
	m := tokenToModel(t)
	if _, err := s.pgdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("sentinel: update token: %w", err)
	}
	return nil
}

func (s *Store) DeactivateToken(ctx context.Context, tokenID id.TokenID) error {
	_, err := s.pgdb.NewUpdate((*tokenModel)(nil)).
		Set("is_active = ?", false).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", tokenID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: deactivate token: %w", err)
	}
	return nil
}

func (s *Store) ListTokens(ctx context.Context, filter *token.ListFilter) ([]*token.Token, error) {
	var models []tokenModel
	q := s.pgdb.NewSelect(&models).OrderExpr("name ASC")
	if filter != nil {
		if filter.FeatureGroupID != nil {
			q = q.Where("feature_group_id = ?", filter.FeatureGroupID.String())
		}
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel: list tokens: %w", err)
	}
	result := make([]*token.Token, len(models))
	for i := range models {
		result[i] = tokenFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountTokens(ctx context.Context, filter *token.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*tokenModel)(nil))
	if filter != nil {
		if filter.FeatureGroupID != nil {
			q = q.Where("feature_group_id = ?", filter.FeatureGroupID.String())
		}
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel: count tokens: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

// UpsertGrant writes the grant row, replacing any existing row for the same
// (office, feature group) pair. The write is immediately visible to readers.
func (s *Store) UpsertGrant(ctx context.Context, g *grant.Grant) error {
	g.UpdatedAt = time.Now().UTC()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = g.UpdatedAt
	}
	m := grantToModel(g)
	_, err := s.pgdb.NewInsert(m).
		OnConflict(`(office_id, feature_group_id) DO UPDATE SET
			token_id = EXCLUDED.token_id,
			is_active = EXCLUDED.is_active,
			activated_at = EXCLUDED.activated_at,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel: upsert grant: %w", err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, officeID string, groupID id.FeatureGroupID) (*grant.Grant, error) {
	m := new(grantModel)
	err := s.pgdb.NewSelect(m).
		Where("office_id = ?", officeID).
		Where("feature_group_id = ?", groupID.String()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("grant for office %s, group %s: %w", officeID, groupID, errNotFound)
		}
		return nil, fmt.Errorf("sentinel: get grant: %w", err)
	}
	return grantFromModel(m), nil
}

func (s *Store) GetGrantByID(ctx context.Context, grantID id.GrantID) (*grant.Grant, error) {
	m := new(grantModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", grantID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("grant %s: %w", grantID, errNotFound)
		}
		return nil, fmt.Errorf("sentinel: get grant by id: %w", err)
	}
	return grantFromModel(m), nil
}

func (s *Store) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	var models []grantModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.OfficeID != "" {
			q = q.Where("office_id = ?", filter.OfficeID)
		}
		if filter.FeatureGroupID != nil {
			q = q.Where("feature_group_id = ?", filter.FeatureGroupID.String())
		}
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel: list grants: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		result[i] = grantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountGrants(ctx context.Context, filter *grant.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*grantModel)(nil))
	if filter != nil {
		if filter.OfficeID != "" {
			q = q.Where("office_id = ?", filter.OfficeID)
		}
		if filter.FeatureGroupID != nil {
			q = q.Where("feature_group_id = ?", filter.FeatureGroupID.String())
		}
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel: count grants: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Decision log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateDecision(ctx context.Context, e *decisionlog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m := decisionToModel(e)
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("sentinel: create decision: %w", err)
	}
	return nil
}

func (s *Store) GetDecision(ctx context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	m := new(decisionModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", logID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("decision %s: %w", logID, errNotFound)
		}
		return nil, fmt.Errorf("sentinel: get decision: %w", err)
	}
	return decisionFromModel(m), nil
}

func (s *Store) ListDecisions(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	var models []decisionModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.PrincipalID != "" {
			q = q.Where("principal_id = ?", filter.PrincipalID)
		}
		if filter.OfficeID != "" {
			q = q.Where("office_id = ?", filter.OfficeID)
		}
		if filter.Allowed != nil {
			q = q.Where("allowed = ?", *filter.Allowed)
		}
		if filter.Reason != "" {
			q = q.Where("reason = ?", filter.Reason)
		}
		if filter.After != nil {
			q = q.Where("created_at > ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at < ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel: list decisions: %w", err)
	}
	result := make([]*decisionlog.Entry, len(models))
	for i := range models {
		result[i] = decisionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountDecisions(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	q := s.pgdb.NewSelect((*decisionModel)(nil))
	if filter != nil {
		if filter.PrincipalID != "" {
			q = q.Where("principal_id = ?", filter.PrincipalID)
		}
		if filter.OfficeID != "" {
			q = q.Where("office_id = ?", filter.OfficeID)
		}
		if filter.Allowed != nil {
			q = q.Where("allowed = ?", *filter.Allowed)
		}
		if filter.Reason != "" {
			q = q.Where("reason = ?", filter.Reason)
		}
		if filter.After != nil {
			q = q.Where("created_at > ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at < ?", *filter.Before)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel: count decisions: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeDecisions(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.pgdb.NewDelete((*decisionModel)(nil)).
		Where("created_at < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel: purge decisions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sentinel: purge decisions rows: %w", err)
	}
	return n, nil
}

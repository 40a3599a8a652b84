// Package mongo provides a MongoDB implementation of the sentinel composite
// store backed by grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/officegrid/sentinel/decisionlog"
	"github.com/officegrid/sentinel/feature"
	"github.com/officegrid/sentinel/grant"
	"github.com/officegrid/sentinel/id"
	"github.com/officegrid/sentinel/store"
	"github.com/officegrid/sentinel/token"
)

// Collection name constants.
const (
	colFeatures      = "sentinel_features"
	colFeatureGroups = "sentinel_feature_groups"
	colGroupFeatures = "sentinel_group_features"
	colTokens        = "sentinel_tokens"
	colGrants        = "sentinel_grants"
	colDecisionLogs  = "sentinel_decision_logs"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// errNotFound aliases the shared not-found sentinel.
var errNotFound = store.ErrNotFound

// Store is a MongoDB implementation of the composite sentinel store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all sentinel collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("sentinel/mongo: migrate %s indexes: %w", col, err)
		}
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

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all sentinel collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colFeatures: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "is_active", Value: 1}}},
		},
		colFeatureGroups: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				// Unique only where set; the empty app name is the default.
				Keys: bson.D{{Key: "app_name", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"app_name": bson.M{"$gt": ""}}),
			},
		},
		colGroupFeatures: {
			{
				Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "feature_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "feature_id", Value: 1}}},
		},
		colTokens: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "feature_group_id", Value: 1}}},
		},
		colGrants: {
			{
				Keys:    bson.D{{Key: "office_id", Value: 1}, {Key: "feature_group_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "feature_group_id", Value: 1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		},
		colDecisionLogs: {
			{Keys: bson.D{{Key: "principal_id", Value: 1}}},
			{Keys: bson.D{{Key: "office_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Feature operations
// ──────────────────────────────────────────────────

func (s *Store) CreateFeature(ctx context.Context, f *feature.Feature) error {
	t := now()
	f.CreatedAt = t
	f.UpdatedAt = t
	m := featureToModel(f)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("sentinel/mongo: create feature: %w", err)
	}
	return nil
}

func (s *Store) GetFeature(ctx context.Context, featureID id.FeatureID) (*feature.Feature, error) {
	var m featureModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": featureID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("feature %s: %w", featureID, errNotFound)
		}
		return nil, fmt.Errorf("sentinel/mongo: get feature: %w", err)
	}
	return featureFromModel(&m), nil
}

func (s *Store) GetFeatureByName(ctx context.Context, name string) (*feature.Feature, error) {
	var m featureModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"name": name}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("feature %q: %w", name, errNotFound)
		}
		return nil, fmt.Errorf("sentinel/mongo: get feature by name: %w", err)
	}
	return featureFromModel(&m), nil
}

func (s *Store) UpdateFeature(ctx context.Context, f *feature.Feature) error {
	f.UpdatedAt = now()
	m := featureToModel(f)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel/mongo: update feature: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("feature %s: %w", f.ID, errNotFound)
	}
	return nil
}

func (s *Store) DeactivateFeature(ctx context.Context, featureID id.FeatureID) error {
	f, err := s.GetFeature(ctx, featureID)
	if err != nil {
		return err
	}
	f.IsActive = false
	return s.UpdateFeature(ctx, f)
}

func (s *Store) ListFeatures(ctx context.Context, filter *feature.ListFilter) ([]*feature.Feature, error) {
	var models []featureModel
	f := bson.M{}
	if filter != nil {
		if filter.IsActive != nil {
			f["is_active"] = *filter.IsActive
		}
		if filter.Search != "" {
			f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "name", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel/mongo: list features: %w", err)
	}
	result := make([]*feature.Feature, len(models))
	for i := range models {
		result[i] = featureFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountFeatures(ctx context.Context, filter *feature.ListFilter) (int64, error) {
	f := bson.M{}
	if filter != nil {
		if filter.IsActive != nil {
			f["is_active"] = *filter.IsActive
		}
		if filter.Search != "" {
			f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	count, err := s.mdb.NewFind((*featureModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel/mongo: count features: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Feature group operations
// ──────────────────────────────────────────────────

func (s *Store) CreateFeatureGroup(ctx context.Context, g *feature.FeatureGroup) error {
	t := now()
	g.CreatedAt = t
	g.UpdatedAt = t
	m := groupToModel(g)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("sentinel/mongo: create feature group: %w", err)
	}
	return nil
}

func (s *Store) GetFeatureGroup(ctx context.Context, groupID id.FeatureGroupID) (*feature.FeatureGroup, error) {
	var m featureGroupModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": groupID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("feature group %s: %w", groupID, errNotFound)
		}
		return nil, fmt.Errorf("sentinel/mongo: get feature group: %w", err)
	}
	return groupFromModel(&m), nil
}

func (s *Store) GetFeatureGroupByName(ctx context.Context, name string) (*feature.FeatureGroup, error) {
	var m featureGroupModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"name": name}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("feature group %q: %w", name, errNotFound)
		}
		return nil, fmt.Errorf("sentinel/mongo: get feature group by name: %w", err)
	}
	return groupFromModel(&m), nil
}

func (s *Store) GetFeatureGroupByAppName(ctx context.Context, appName string) (*feature.FeatureGroup, error) {
	var m featureGroupModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"app_name": appName}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("feature group app %q: %w", appName, errNotFound)
		}
		return nil, fmt.Errorf("sentinel/mongo: get feature group by app: %w", err)
	}
	return groupFromModel(&m), nil
}

func (s *Store) GetFeatureGroupByFeature(ctx context.Context, featureName string) (*feature.FeatureGroup, error) {
	f, err := s.GetFeatureByName(ctx, featureName)
	if err != nil {
		return nil, err
	}

	var link groupFeatureModel
	err = s.mdb.NewFind(&link).
		Filter(bson.M{"feature_id": f.ID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("owning group for feature %q: %w", featureName, errNotFound)
		}
		return nil, fmt.Errorf("sentinel/mongo: get group by feature: %w", err)
	}

	gid, err := id.ParseFeatureGroupID(link.GroupID)
	if err != nil {
		return nil, fmt.Errorf("sentinel/mongo: get group by feature: %w", err)
	}
	return s.GetFeatureGroup(ctx, gid)
}

func (s *Store) UpdateFeatureGroup(ctx context.Context, g *feature.FeatureGroup) error {
	g.UpdatedAt = now()
	m := groupToModel(g)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel/mongo: update feature group: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("feature group %s: %w", g.ID, errNotFound)
	}
	return nil
}

func (s *Store) ListFeatureGroups(ctx context.Context, filter *feature.GroupListFilter) ([]*feature.FeatureGroup, error) {
	var models []featureGroupModel
	f := bson.M{}
	if filter != nil {
		if filter.IsPaid != nil {
			f["is_paid"] = *filter.IsPaid
		}
		if filter.Search != "" {
			f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "name", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel/mongo: list feature groups: %w", err)
	}
	result := make([]*feature.FeatureGroup, len(models))
	for i := range models {
		result[i] = groupFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountFeatureGroups(ctx context.Context, filter *feature.GroupListFilter) (int64, error) {
	f := bson.M{}
	if filter != nil {
		if filter.IsPaid != nil {
			f["is_paid"] = *filter.IsPaid
		}
		if filter.Search != "" {
			f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
		}
	}
	count, err := s.mdb.NewFind((*featureGroupModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel/mongo: count feature groups: %w", err)
	}
	return count, nil
}

func (s *Store) AddFeatureToGroup(ctx context.Context, groupID id.FeatureGroupID, featureID id.FeatureID) error {
	m := &groupFeatureModel{
		GroupID:   groupID.String(),
		FeatureID: featureID.String(),
	}
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return nil // already a member
		}
		return fmt.Errorf("sentinel/mongo: add feature to group: %w", err)
	}
	return nil
}

func (s *Store) RemoveFeatureFromGroup(ctx context.Context, groupID id.FeatureGroupID, featureID id.FeatureID) error {
	_, err := s.mdb.NewDelete((*groupFeatureModel)(nil)).
		Filter(bson.M{"group_id": groupID.String(), "feature_id": featureID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel/mongo: remove feature from group: %w", err)
	}
	return nil
}

func (s *Store) ListGroupFeatures(ctx context.Context, groupID id.FeatureGroupID) ([]*feature.Feature, error) {
	var links []groupFeatureModel
	if err := s.mdb.NewFind(&links).
		Filter(bson.M{"group_id": groupID.String()}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel/mongo: list group features: %w", err)
	}
	if len(links) == 0 {
		return []*feature.Feature{}, nil
	}

	featureIDs := make([]string, len(links))
	for i, l := range links {
		featureIDs[i] = l.FeatureID
	}

	var models []featureModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"_id": bson.M{"$in": featureIDs}}).
		Sort(bson.D{{Key: "name", Value: 1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel/mongo: list group features: %w", err)
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
	ts := now()
	t.CreatedAt = ts
	t.UpdatedAt = ts
	m := tokenToModel(t)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("sentinel/mongo: create token: %w", err)
	}
	return nil
}

func (s *Store) GetToken(ctx context.Context, tokenID id.TokenID) (*token.Token, error) {
	var m tokenModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": tokenID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("token %s: %w", tokenID, errNotFound)
		}
		return nil, fmt.Errorf("sentinel/mongo: get token: %w", err)
	}
	return tokenFromModel(&m), nil
}

func (s *Store) GetTokenByName(ctx context.Context, name string) (*token.Token, error) {
	var m tokenModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"name": name}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("token %q: %w", name, errNotFound)
		}
		return nil, fmt.Errorf("sentinel/mongo: get token by name: %w", err)
	}
	return tokenFromModel(&m), nil
}

func (s *Store) UpdateToken(ctx context.Context, t *token.Token) error {
	t.UpdatedAt = now()
	m := tokenToModel(t)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sentinel/mongo: update token: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("token %s: %w", t.ID, errNotFound)
	}
	return nil
}

func (s *Store) DeactivateToken(ctx context.Context, tokenID id.TokenID) error {
	t, err := s.GetToken(ctx, tokenID)
	if err != nil {
		return err
	}
	t.IsActive = false
	return s.UpdateToken(ctx, t)
}

func (s *Store) ListTokens(ctx context.Context, filter *token.ListFilter) ([]*token.Token, error) {
	var models []tokenModel
	f := bson.M{}
	if filter != nil {
		if filter.FeatureGroupID != nil {
			f["feature_group_id"] = filter.FeatureGroupID.String()
		}
		if filter.IsActive != nil {
			f["is_active"] = *filter.IsActive
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "name", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel/mongo: list tokens: %w", err)
	}
	result := make([]*token.Token, len(models))
	for i := range models {
		result[i] = tokenFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountTokens(ctx context.Context, filter *token.ListFilter) (int64, error) {
	f := bson.M{}
	if filter != nil {
		if filter.FeatureGroupID != nil {
			f["feature_group_id"] = filter.FeatureGroupID.String()
		}
		if filter.IsActive != nil {
			f["is_active"] = *filter.IsActive
		}
	}
	count, err := s.mdb.NewFind((*tokenModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel/mongo: count tokens: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

// UpsertGrant replaces the grant document for the (office, feature group)
// pair, inserting it if absent. The write is immediately visible to readers.
func (s *Store) UpsertGrant(ctx context.Context, g *grant.Grant) error {
	g.UpdatedAt = now()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = g.UpdatedAt
	}
	m := grantToModel(g)
	_, err := s.mdb.Collection(colGrants).ReplaceOne(ctx,
		bson.M{"office_id": m.OfficeID, "feature_group_id": m.FeatureGroupID},
		m,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("sentinel/mongo: upsert grant: %w", err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, officeID string, groupID id.FeatureGroupID) (*grant.Grant, error) {
	var m grantModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"office_id": officeID, "feature_group_id": groupID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("grant for office %s, group %s: %w", officeID, groupID, errNotFound)
		}
		return nil, fmt.Errorf("sentinel/mongo: get grant: %w", err)
	}
	return grantFromModel(&m), nil
}

func (s *Store) GetGrantByID(ctx context.Context, grantID id.GrantID) (*grant.Grant, error) {
	var m grantModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": grantID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("grant %s: %w", grantID, errNotFound)
		}
		return nil, fmt.Errorf("sentinel/mongo: get grant by id: %w", err)
	}
	return grantFromModel(&m), nil
}

func (s *Store) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	var models []grantModel
	f := bson.M{}
	if filter != nil {
		if filter.OfficeID != "" {
			f["office_id"] = filter.OfficeID
		}
		if filter.FeatureGroupID != nil {
			f["feature_group_id"] = filter.FeatureGroupID.String()
		}
		if filter.IsActive != nil {
			f["is_active"] = *filter.IsActive
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel/mongo: list grants: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		result[i] = grantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountGrants(ctx context.Context, filter *grant.ListFilter) (int64, error) {
	f := bson.M{}
	if filter != nil {
		if filter.OfficeID != "" {
			f["office_id"] = filter.OfficeID
		}
		if filter.FeatureGroupID != nil {
			f["feature_group_id"] = filter.FeatureGroupID.String()
		}
		if filter.IsActive != nil {
			f["is_active"] = *filter.IsActive
		}
	}
	count, err := s.mdb.NewFind((*grantModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel/mongo: count grants: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Decision log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateDecision(ctx context.Context, e *decisionlog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	m := decisionToModel(e)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("sentinel/mongo: create decision: %w", err)
	}
	return nil
}

func (s *Store) GetDecision(ctx context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	var m decisionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": logID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("decision %s: %w", logID, errNotFound)
		}
		return nil, fmt.Errorf("sentinel/mongo: get decision: %w", err)
	}
	return decisionFromModel(&m), nil
}

func decisionFilter(filter *decisionlog.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.PrincipalID != "" {
		f["principal_id"] = filter.PrincipalID
	}
	if filter.OfficeID != "" {
		f["office_id"] = filter.OfficeID
	}
	if filter.Allowed != nil {
		f["allowed"] = *filter.Allowed
	}
	if filter.Reason != "" {
		f["reason"] = filter.Reason
	}
	created := bson.M{}
	if filter.After != nil {
		created["$gt"] = *filter.After
	}
	if filter.Before != nil {
		created["$lt"] = *filter.Before
	}
	if len(created) > 0 {
		f["created_at"] = created
	}
	return f
}

func (s *Store) ListDecisions(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	var models []decisionModel
	q := s.mdb.NewFind(&models).
		Filter(decisionFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("sentinel/mongo: list decisions: %w", err)
	}
	result := make([]*decisionlog.Entry, len(models))
	for i := range models {
		result[i] = decisionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountDecisions(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	count, err := s.mdb.NewFind((*decisionModel)(nil)).
		Filter(decisionFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel/mongo: count decisions: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeDecisions(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*decisionModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("sentinel/mongo: purge decisions: %w", err)
	}
	return res.DeletedCount(), nil
}

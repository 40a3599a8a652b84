package feature

import (
	"context"

	"github.com/officegrid/sentinel/id"
)

// Store defines persistence operations for features and feature groups.
type Store interface {
	// CreateFeature persists a new feature.
	CreateFeature(ctx context.Context, f *Feature) error

	// GetFeature retrieves a feature by ID.
	GetFeature(ctx context.Context, featureID id.FeatureID) (*Feature, error)

	// GetFeatureByName retrieves a feature by its unique name.
	GetFeatureByName(ctx context.Context, name string) (*Feature, error)

	// UpdateFeature persists changes to a feature.
	UpdateFeature(ctx context.Context, f *Feature) error

	// DeactivateFeature soft-deletes a feature. The row survives because
	// feature groups may still reference it.
	DeactivateFeature(ctx context.Context, featureID id.FeatureID) error

	// ListFeatures returns features matching the filter.
	ListFeatures(ctx context.Context, filter *ListFilter) ([]*Feature, error)

	// CountFeatures returns the number of features matching the filter.
	CountFeatures(ctx context.Context, filter *ListFilter) (int64, error)

	// CreateFeatureGroup persists a new feature group.
	CreateFeatureGroup(ctx context.Context, g *FeatureGroup) error

	// GetFeatureGroup retrieves a feature group by ID.
	GetFeatureGroup(ctx context.Context, groupID id.FeatureGroupID) (*FeatureGroup, error)

	// GetFeatureGroupByName retrieves a feature group by its unique name.
	GetFeatureGroupByName(ctx context.Context, name string) (*FeatureGroup, error)

	// GetFeatureGroupByAppName retrieves a feature group by its unique app name.
	GetFeatureGroupByAppName(ctx context.Context, appName string) (*FeatureGroup, error)

	// GetFeatureGroupByFeature retrieves the group owning the named feature.
	GetFeatureGroupByFeature(ctx context.Context, featureName string) (*FeatureGroup, error)

	// UpdateFeatureGroup persists changes to a feature group.
	UpdateFeatureGroup(ctx context.Context, g *FeatureGroup) error

	// ListFeatureGroups returns feature groups matching the filter.
	ListFeatureGroups(ctx context.Context, filter *GroupListFilter) ([]*FeatureGroup, error)

	// CountFeatureGroups returns the number of groups matching the filter.
	CountFeatureGroups(ctx context.Context, filter *GroupListFilter) (int64, error)

	// AddFeatureToGroup links a feature into a group.
	AddFeatureToGroup(ctx context.Context, groupID id.FeatureGroupID, featureID id.FeatureID) error

	// RemoveFeatureFromGroup unlinks a feature from a group.
	RemoveFeatureFromGroup(ctx context.Context, groupID id.FeatureGroupID, featureID id.FeatureID) error

	// ListGroupFeatures returns all features bundled in a group.
	ListGroupFeatures(ctx context.Context, groupID id.FeatureGroupID) ([]*Feature, error)
}

package grant

import (
	"context"

	"github.com/officegrid/sentinel/id"
)

// Store defines persistence operations for office grants.
// Implementations must provide read-after-write consistency for a single
// caller: an activation followed by an entitlement check from the same
// caller never observes the pre-activation state.
type Store interface {
	// UpsertGrant creates or replaces the grant for the row's
	// (OfficeID, FeatureGroupID) pair.
	UpsertGrant(ctx context.Context, g *Grant) error

	// GetGrant retrieves the grant for an (office, feature group) pair.
	GetGrant(ctx context.Context, officeID string, groupID id.FeatureGroupID) (*Grant, error)

	// GetGrantByID retrieves a grant by ID.
	GetGrantByID(ctx context.Context, grantID id.GrantID) (*Grant, error)

	// ListGrants returns grants matching the filter.
	ListGrants(ctx context.Context, filter *ListFilter) ([]*Grant, error)

	// CountGrants returns the number of grants matching the filter.
	CountGrants(ctx context.Context, filter *ListFilter) (int64, error)
}

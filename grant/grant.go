// Package grant defines the Grant entity: an office's (possibly time-boxed)
// hold on a feature group.
package grant

import (
	"time"

	"github.com/officegrid/sentinel/id"
)

// Grant records that an office holds a feature group. Unique per
// (OfficeID, FeatureGroupID). Expiry is lazy: a grant becomes inert the
// moment the clock passes ExpiresAt, without any write. Deactivation flips
// IsActive and keeps the row as an audit trail.
type Grant struct {
	ID             id.GrantID        `json:"id" db:"id"`
	OfficeID       string            `json:"office_id" db:"office_id"`
	FeatureGroupID id.FeatureGroupID `json:"feature_group_id" db:"feature_group_id"`
	TokenID        id.TokenID        `json:"token_id,omitempty" db:"token_id"` // Nil for direct admin grants
	IsActive       bool              `json:"is_active" db:"is_active"`
	ActivatedAt    time.Time         `json:"activated_at" db:"activated_at"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty" db:"expires_at"` // nil means non-expiring
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// ActiveAt reports whether the grant entitles its office at the given
// instant: active and either non-expiring or not yet expired. This is the
// sole "currently entitled" condition; an evaluation time at or past
// ExpiresAt is already expired.
func (g *Grant) ActiveAt(now time.Time) bool {
	if g == nil || !g.IsActive {
		return false
	}
	return g.ExpiresAt == nil || g.ExpiresAt.After(now)
}

// ListFilter contains filters for listing grants.
type ListFilter struct {
	OfficeID       string             `json:"office_id,omitempty"`
	FeatureGroupID *id.FeatureGroupID `json:"feature_group_id,omitempty"`
	IsActive       *bool              `json:"is_active,omitempty"`
	Limit          int                `json:"limit,omitempty"`
	Offset         int                `json:"offset,omitempty"`
}

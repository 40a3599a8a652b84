// Package token defines the FeatureToken entity: an activation credential
// for a feature group.
package token

import (
	"time"

	"github.com/google/uuid"

	"github.com/officegrid/sentinel/id"
)

// Token is an activation credential for a feature group. Redeeming an active
// token grants its group to an office; ExpiresInDays, when set, time-boxes
// that grant starting from activation. A nil ExpiresInDays never expires.
type Token struct {
	ID             id.TokenID        `json:"id" db:"id"`
	Name           string            `json:"name" db:"name"` // unique credential string
	FeatureGroupID id.FeatureGroupID `json:"feature_group_id" db:"feature_group_id"`
	ExpiresInDays  *int              `json:"expires_in_days,omitempty" db:"expires_in_days"`
	IsActive       bool              `json:"is_active" db:"is_active"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// NewName mints a fresh unique token credential.
func NewName() string {
	return "tok-" + uuid.NewString()
}

// ListFilter contains filters for listing tokens.
type ListFilter struct {
	FeatureGroupID *id.FeatureGroupID `json:"feature_group_id,omitempty"`
	IsActive       *bool              `json:"is_active,omitempty"`
	Limit          int                `json:"limit,omitempty"`
	Offset         int                `json:"offset,omitempty"`
}

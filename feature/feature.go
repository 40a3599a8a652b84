// Package feature defines the Feature and FeatureGroup entities and their
// store interface.
//
// A Feature is an atomic capability descriptor; a FeatureGroup bundles
// features and is the unit offices are entitled to. Features are soft
// deleted only: a referenced feature is deactivated, never removed.
package feature

import (
	"time"

	"github.com/officegrid/sentinel/id"
)

// Feature is an atomic capability descriptor.
type Feature struct {
	ID          id.FeatureID `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"` // globally unique
	Description string       `json:"description,omitempty" db:"description"`
	IsActive    bool         `json:"is_active" db:"is_active"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// FeatureGroup is a bundle of features distributed and entitled as a unit.
// Name and AppName are each unique across the platform.
type FeatureGroup struct {
	ID          id.FeatureGroupID `json:"id" db:"id"`
	Name        string            `json:"name" db:"name"`
	AppName     string            `json:"app_name" db:"app_name"`
	Description string            `json:"description,omitempty" db:"description"`
	IsPaid      bool              `json:"is_paid" db:"is_paid"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing features.
type ListFilter struct {
	IsActive *bool  `json:"is_active,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// GroupListFilter contains filters for listing feature groups.
type GroupListFilter struct {
	IsPaid *bool  `json:"is_paid,omitempty"`
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

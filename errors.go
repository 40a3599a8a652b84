package sentinel

import (
	"errors"

	"github.com/officegrid/sentinel/entitlement"
)

var (
	// ErrAccessDenied is returned by Enforce when a decision denies.
	ErrAccessDenied = errors.New("sentinel: access denied")

	// ErrStoreRequired is returned by NewEngine without a store.
	ErrStoreRequired = errors.New("sentinel: store is required")

	// ErrFeatureNotRegistered reports a granular feature check against a
	// pair never wired into the feature registry. It is a configuration
	// defect, surfaced as an error rather than a denial.
	ErrFeatureNotRegistered = entitlement.ErrFeatureNotRegistered
)

package api

import (
	"errors"

	"github.com/xraph/forge"

	"github.com/officegrid/sentinel"
	"github.com/officegrid/sentinel/entitlement"
	"github.com/officegrid/sentinel/store"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, entitlement.ErrTokenInactive) || errors.Is(err, entitlement.ErrTokenGroupMismatch) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, store.ErrDuplicate) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, sentinel.ErrAccessDenied) {
		return forge.Forbidden(err.Error())
	}
	// ErrFeatureNotRegistered is a wiring defect and falls through as a
	// server error.
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, entitlement.ErrGroupNotFound) ||
		errors.Is(err, entitlement.ErrGrantNotFound) ||
		errors.Is(err, entitlement.ErrTokenNotFound)
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

// Package id defines TypeID-based identity types for sentinel entities.
//
// Every persisted entitlement entity uses a single ID struct with a prefix
// that identifies the entity type. IDs are K-sortable (UUIDv7-based),
// globally unique, and URL-safe in the format "prefix_suffix".
//
// Office identifiers are deliberately NOT minted here: offices live in the
// host platform and reach sentinel as opaque strings.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all sentinel entity types.
const (
	PrefixFeature      Prefix = "feat"
	PrefixFeatureGroup Prefix = "fgrp"
	PrefixToken        Prefix = "ftok"
	PrefixGrant        Prefix = "grant"
	PrefixDecisionLog  Prefix = "declog"
)

// ID is the primary identifier type for all sentinel entities.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "fgrp_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Per-entity aliases
// ──────────────────────────────────────────────────

// FeatureID is a type-safe identifier for features (prefix: "feat").
type FeatureID = ID

// FeatureGroupID is a type-safe identifier for feature groups (prefix: "fgrp").
type FeatureGroupID = ID

// TokenID is a type-safe identifier for feature tokens (prefix: "ftok").
type TokenID = ID

// GrantID is a type-safe identifier for office grants (prefix: "grant").
type GrantID = ID

// DecisionLogID is a type-safe identifier for decision log entries (prefix: "declog").
type DecisionLogID = ID

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewFeatureID generates a new unique feature ID.
func NewFeatureID() ID { return New(PrefixFeature) }

// NewFeatureGroupID generates a new unique feature group ID.
func NewFeatureGroupID() ID { return New(PrefixFeatureGroup) }

// NewTokenID generates a new unique feature token ID.
func NewTokenID() ID { return New(PrefixToken) }

// NewGrantID generates a new unique grant ID.
func NewGrantID() ID { return New(PrefixGrant) }

// NewDecisionLogID generates a new unique decision log entry ID.
func NewDecisionLogID() ID { return New(PrefixDecisionLog) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParseFeatureID parses a string and validates the "feat" prefix.
func ParseFeatureID(s string) (ID, error) { return ParseWithPrefix(s, PrefixFeature) }

// ParseFeatureGroupID parses a string and validates the "fgrp" prefix.
func ParseFeatureGroupID(s string) (ID, error) { return ParseWithPrefix(s, PrefixFeatureGroup) }

// ParseTokenID parses a string and validates the "ftok" prefix.
func ParseTokenID(s string) (ID, error) { return ParseWithPrefix(s, PrefixToken) }

// ParseGrantID parses a string and validates the "grant" prefix.
func ParseGrantID(s string) (ID, error) { return ParseWithPrefix(s, PrefixGrant) }

// ParseDecisionLogID parses a string and validates the "declog" prefix.
func ParseDecisionLogID(s string) (ID, error) { return ParseWithPrefix(s, PrefixDecisionLog) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}

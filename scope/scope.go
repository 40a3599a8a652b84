// Package scope implements hierarchical geographic data-visibility scoping.
//
// A hierarchical admin (city, state, or country level) may only see records
// inside their administrative subtree. The scope is parsed once per request
// into an AdminScope, then lowered into a Predicate the data-access layer
// applies as a query constraint. Sentinel never issues those queries itself.
package scope

import (
	"fmt"
	"strconv"
)

// Level is the administrative level of a scope.
type Level string

const (
	// LevelCountry scopes visibility to a whole country.
	LevelCountry Level = "country"

	// LevelState scopes visibility to a state within a country.
	LevelState Level = "state"

	// LevelCity scopes visibility to a city within a state.
	LevelCity Level = "city"
)

// AdminScope is the geographic subtree a hierarchical admin may see.
// Immutable once parsed for a request.
type AdminScope struct {
	Level     Level `json:"level"`
	CountryID int64 `json:"country_id"`
	StateID   int64 `json:"state_id,omitempty"`
	CityID    int64 `json:"city_id,omitempty"`
}

// Validate enforces the level/field invariants: country level carries only a
// country, state level carries country+state, city level carries all three.
func (s *AdminScope) Validate() error {
	if s == nil {
		return fmt.Errorf("scope: nil admin scope")
	}

	switch s.Level {
	case LevelCountry:
		if s.CountryID == 0 {
			return fmt.Errorf("scope: country level requires a country id")
		}
		if s.StateID != 0 || s.CityID != 0 {
			return fmt.Errorf("scope: country level must not carry state or city ids")
		}
	case LevelState:
		if s.CountryID == 0 || s.StateID == 0 {
			return fmt.Errorf("scope: state level requires country and state ids")
		}
		if s.CityID != 0 {
			return fmt.Errorf("scope: state level must not carry a city id")
		}
	case LevelCity:
		if s.CountryID == 0 || s.StateID == 0 || s.CityID == 0 {
			return fmt.Errorf("scope: city level requires country, state and city ids")
		}
	default:
		return fmt.Errorf("scope: unknown level %q", s.Level)
	}

	return nil
}

// Parse builds an AdminScope from raw stored values. Identifier fields that
// are irrelevant for the level may be empty. Any malformed value is an error;
// callers are expected to fall back to a fail-closed predicate, never to an
// unrestricted one.
func Parse(level, countryID, stateID, cityID string) (*AdminScope, error) {
	s := &AdminScope{Level: Level(level)}

	var err error
	if s.CountryID, err = parseID("country", countryID); err != nil {
		return nil, err
	}
	if s.StateID, err = parseID("state", stateID); err != nil {
		return nil, err
	}
	if s.CityID, err = parseID("city", cityID); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func parseID(field, raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("scope: invalid %s id %q", field, raw)
	}

	return v, nil
}

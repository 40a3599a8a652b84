package scope

import "fmt"

// Kind identifies the shape of a visibility predicate.
type Kind string

const (
	// KindUnrestricted applies no geographic filtering.
	KindUnrestricted Kind = "unrestricted"

	// KindCountry filters records to a single country.
	KindCountry Kind = "country"

	// KindCountryState filters records to a state within a country.
	KindCountryState Kind = "country_state"

	// KindCountryStateCity filters records to an exact (country, state, city) triple.
	KindCountryStateCity Kind = "country_state_city"

	// KindMatchNothing matches no records at all. It is the fail-closed
	// fallback for malformed or missing scope data on a scoped role.
	KindMatchNothing Kind = "match_nothing"
)

// Predicate is a data-visibility constraint handed to the data-access layer.
// It is a pure value: safe to copy, compare, and share across goroutines.
type Predicate struct {
	Kind      Kind  `json:"kind"`
	CountryID int64 `json:"country_id,omitempty"`
	StateID   int64 `json:"state_id,omitempty"`
	CityID    int64 `json:"city_id,omitempty"`
}

// Unrestricted returns the predicate applying no filtering.
func Unrestricted() Predicate { return Predicate{Kind: KindUnrestricted} }

// MatchNothing returns the fail-closed predicate matching no records.
func MatchNothing() Predicate { return Predicate{Kind: KindMatchNothing} }

// ByCountry returns a predicate matching every record in the given country.
func ByCountry(countryID int64) Predicate {
	return Predicate{Kind: KindCountry, CountryID: countryID}
}

// ByCountryState returns a predicate matching records in the given state.
func ByCountryState(countryID, stateID int64) Predicate {
	return Predicate{Kind: KindCountryState, CountryID: countryID, StateID: stateID}
}

// ByCountryStateCity returns a predicate matching only the exact triple.
func ByCountryStateCity(countryID, stateID, cityID int64) Predicate {
	return Predicate{Kind: KindCountryStateCity, CountryID: countryID, StateID: stateID, CityID: cityID}
}

// PredicateFor lowers an AdminScope into its Predicate. A nil or invalid
// scope yields MatchNothing: a scoped admin with unusable scope data can
// see nothing, not everything.
func PredicateFor(s *AdminScope) Predicate {
	if err := s.Validate(); err != nil {
		return MatchNothing()
	}

	switch s.Level {
	case LevelCountry:
		return ByCountry(s.CountryID)
	case LevelState:
		return ByCountryState(s.CountryID, s.StateID)
	case LevelCity:
		return ByCountryStateCity(s.CountryID, s.StateID, s.CityID)
	default:
		return MatchNothing()
	}
}

// Matches reports whether a record tagged with the given geographic ids is
// visible under this predicate. Data layers translating the predicate into
// query clauses must preserve exactly this containment semantics.
func (p Predicate) Matches(countryID, stateID, cityID int64) bool {
	switch p.Kind {
	case KindUnrestricted:
		return true
	case KindCountry:
		return countryID == p.CountryID
	case KindCountryState:
		return countryID == p.CountryID && stateID == p.StateID
	case KindCountryStateCity:
		return countryID == p.CountryID && stateID == p.StateID && cityID == p.CityID
	case KindMatchNothing:
		return false
	default:
		return false
	}
}

// Restricted reports whether the predicate constrains visibility at all.
func (p Predicate) Restricted() bool { return p.Kind != KindUnrestricted }

// String renders the predicate for logs.
func (p Predicate) String() string {
	switch p.Kind {
	case KindCountry:
		return fmt.Sprintf("country(%d)", p.CountryID)
	case KindCountryState:
		return fmt.Sprintf("country_state(%d,%d)", p.CountryID, p.StateID)
	case KindCountryStateCity:
		return fmt.Sprintf("country_state_city(%d,%d,%d)", p.CountryID, p.StateID, p.CityID)
	default:
		return string(p.Kind)
	}
}

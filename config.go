package sentinel

import "time"

// Config holds configuration for the sentinel engine.
type Config struct {
	// OfficeParam is the parameter name the office resolver looks for in
	// query, body, and path maps. Defaults to "office_id".
	OfficeParam string `json:"office_param,omitempty"`

	// CacheTTL is the time-to-live for cached grant rows.
	// Zero means no caching.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`

	// LogDecisions enables writing every decision to the decision log.
	// Defaults to true.
	LogDecisions *bool `json:"log_decisions,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	t := true
	return Config{
		OfficeParam:  "office_id",
		LogDecisions: &t,
	}
}

func (c Config) officeParam() string {
	if c.OfficeParam == "" {
		return "office_id"
	}
	return c.OfficeParam
}

func (c Config) logDecisions() bool { return c.LogDecisions == nil || *c.LogDecisions }

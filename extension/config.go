package extension

// Config holds the sentinel extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.sentinel" or "sentinel" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// OfficeParam is the request parameter carrying the office ID for
	// entitlement checks (default: "office_id").
	OfficeParam string `json:"office_param" mapstructure:"office_param" yaml:"office_param"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		OfficeParam: "office_id",
	}
}

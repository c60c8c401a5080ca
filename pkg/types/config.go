package types

import "errors"

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StorageConfig selects and parameterises the field storage backend.
type StorageConfig struct {
	Driver  string `json:"driver" yaml:"driver"`
	DataDir string `json:"data_dir" yaml:"data_dir"`
	DSN     string `json:"dsn" yaml:"dsn"`
}

// Storage config validation errors.
var (
	ErrDriverEmpty   = errors.New("storage driver must not be empty")
	ErrDriverUnknown = errors.New("unknown storage driver")
	ErrDSNEmpty      = errors.New("postgres driver needs a DSN")
)

var knownDrivers = map[string]bool{
	DriverSQLite:   true,
	DriverPostgres: true,
}

// Validate checks that the StorageConfig is well-formed.
func (c StorageConfig) Validate() error {
	if c.Driver == "" {
		return ErrDriverEmpty
	}
	if !knownDrivers[c.Driver] {
		return ErrDriverUnknown
	}
	if c.Driver == DriverPostgres && c.DSN == "" {
		return ErrDSNEmpty
	}
	return nil
}

// Settings is the global configuration of the property editor.
type Settings struct {
	// FieldTypes lists the field types offered when declaring a property.
	FieldTypes []string `json:"field_types" yaml:"field_types"`
	// ShowAllProperties makes listings include base fields.
	ShowAllProperties bool `json:"show_all_properties" yaml:"show_all_properties"`
}

// DefaultFieldTypes is the field type selection used until an administrator
// saves settings.
var DefaultFieldTypes = []string{
	"boolean", "datetime", "decimal", "email", "float", "integer", "link",
	"list_integer", "list_string", "string", "string_long", "timestamp", "uri",
}

// DefaultSettings returns the settings used when none were saved.
func DefaultSettings() Settings {
	ft := make([]string, len(DefaultFieldTypes))
	copy(ft, DefaultFieldTypes)
	return Settings{FieldTypes: ft}
}

// AllowsFieldType reports whether t is enabled in the settings.
func (s Settings) AllowsFieldType(t string) bool {
	for _, ft := range s.FieldTypes {
		if ft == t {
			return true
		}
	}
	return false
}

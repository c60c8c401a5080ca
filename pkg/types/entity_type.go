package types

// EntityType describes an entity type properties can be attached to.
type EntityType struct {
	ID      string   `json:"id" yaml:"id" mapstructure:"id"`
	Label   string   `json:"label" yaml:"label" mapstructure:"label"`
	Bundles []string `json:"bundles,omitempty" yaml:"bundles,omitempty" mapstructure:"bundles"`
	// FieldUI marks entity types that appear in the administrative overview.
	FieldUI    bool        `json:"field_ui" yaml:"field_ui" mapstructure:"field_ui"`
	BaseFields []BaseField `json:"base_fields,omitempty" yaml:"-" mapstructure:"-"`
}

// BaseField is a field every entity of a type carries regardless of the
// declared properties.
type BaseField struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

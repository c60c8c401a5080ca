package types

import (
	"fmt"
	"regexp"
)

// ProviderEntityProperty is recorded as the owner of every storage field
// installed for a property.
const ProviderEntityProperty = "entity_property"

// RegionContent is the display region new fields are placed in.
const RegionContent = "content"

// ColumnType is the storage-agnostic type of a column. Backends map it to
// their own SQL types.
type ColumnType string

// Column types.
const (
	ColumnVarchar ColumnType = "varchar"
	ColumnText    ColumnType = "text"
	ColumnInt     ColumnType = "int"
	ColumnFloat   ColumnType = "float"
	ColumnNumeric ColumnType = "numeric"
	ColumnBool    ColumnType = "boolean"
)

// Column describes one storage column of a field.
type Column struct {
	Name      string     `json:"name"`
	Type      ColumnType `json:"type"`
	Length    int        `json:"length,omitempty"`
	Precision int        `json:"precision,omitempty"`
	Scale     int        `json:"scale,omitempty"`
	Unsigned  bool       `json:"unsigned,omitempty"`
}

// DisplayOptions places a field in a form or view display.
type DisplayOptions struct {
	Region string `json:"region"`
}

// FieldDefinition is the storage-level definition built for a property.
// It doubles as the field storage definition handed to the installer.
type FieldDefinition struct {
	Name                string                    `json:"name"`
	Label               string                    `json:"label"`
	Type                string                    `json:"type"`
	TargetEntityType    string                    `json:"target_entity_type"`
	Provider            string                    `json:"provider"`
	Revisionable        bool                      `json:"revisionable"`
	Required            bool                      `json:"required"`
	Settings            map[string]any            `json:"settings,omitempty"`
	DisplayConfigurable map[string]bool           `json:"display_configurable,omitempty"`
	DisplayOptions      map[string]DisplayOptions `json:"display_options,omitempty"`
	Columns             []Column                  `json:"columns"`
}

var identPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// ValidIdentifier reports whether s is safe to use as a quoted table or
// column name.
func ValidIdentifier(s string) bool {
	return len(s) <= 63 && identPattern.MatchString(s)
}

// Setting returns a single setting value.
func (d *FieldDefinition) Setting(key string) any {
	if d.Settings == nil {
		return nil
	}
	return d.Settings[key]
}

// SetSetting sets a single setting value.
func (d *FieldDefinition) SetSetting(key string, v any) {
	if d.Settings == nil {
		d.Settings = map[string]any{}
	}
	d.Settings[key] = v
}

// ColumnName returns the physical column name for one of the field's
// columns. Single-column fields use the field name; multi-column fields use
// "<field>__<column>".
func (d *FieldDefinition) ColumnName(col Column) string {
	if len(d.Columns) == 1 {
		return d.Name
	}
	return d.Name + "__" + col.Name
}

// Validate checks that the definition can be installed.
func (d *FieldDefinition) Validate() error {
	if !ValidIdentifier(d.Name) {
		return fmt.Errorf("%w: field name %q", ErrInvalidDefinition, d.Name)
	}
	if !ValidIdentifier(d.TargetEntityType) {
		return fmt.Errorf("%w: entity type %q", ErrInvalidDefinition, d.TargetEntityType)
	}
	if len(d.Columns) == 0 {
		return fmt.Errorf("%w: field %q has no storage columns", ErrInvalidDefinition, d.Name)
	}
	for _, c := range d.Columns {
		if !ValidIdentifier(c.Name) {
			return fmt.Errorf("%w: column %q", ErrInvalidDefinition, c.Name)
		}
		if c.Type == ColumnNumeric && c.Scale > c.Precision {
			return fmt.Errorf("%w: %s scale %d exceeds precision %d", ErrInvalidDefinition, d.Name, c.Scale, c.Precision)
		}
	}
	return nil
}

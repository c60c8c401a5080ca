package fieldtype

import (
	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// Item is a field type instantiated for one field definition.
type Item struct {
	Type       *Type
	Definition *types.FieldDefinition
}

// Schema returns the storage columns for the item's current settings.
func (i *Item) Schema() []types.Column {
	return i.Type.columns(i.Definition.Settings)
}

// StorageSettingsForm returns the elements editing the storage settings.
// Settings that change the schema are disabled when the field has data.
func (i *Item) StorageSettingsForm(hasData bool) []types.Element {
	if i.Type.storageForm == nil {
		return nil
	}
	return i.Type.storageForm(i, hasData)
}

// FieldSettingsForm returns the elements editing the field settings. The
// boolean is false when the type does not support editing field settings
// on a property.
func (i *Item) FieldSettingsForm() ([]types.Element, bool) {
	if i.Type.fieldForm == nil {
		return nil, false
	}
	return i.Type.fieldForm(i), true
}

// Setting returns a setting value of the underlying definition.
func (i *Item) Setting(key string) any {
	return i.Definition.Setting(key)
}

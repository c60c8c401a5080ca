package listing

import "net/url"

// SettingsPath is the path of the settings form.
const SettingsPath = "/settings"

// TypesPath is the path of the entity type overview.
const TypesPath = "/entity-types"

// PropertiesPath is the listing of an entity type's properties.
func PropertiesPath(entityType string) string {
	return TypesPath + "/" + url.PathEscape(entityType) + "/properties"
}

// EditPath is the edit form of one property.
func EditPath(entityType, name string) string {
	return PropertiesPath(entityType) + "/" + url.PathEscape(name)
}

// DeletePath is the delete confirmation of one property.
func DeletePath(entityType, name string) string {
	return EditPath(entityType, name) + "/delete"
}

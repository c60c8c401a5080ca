package entityprop

import (
	"context"

	"github.com/mesh-intelligence/entityprop/internal/fieldtype"
	"github.com/mesh-intelligence/entityprop/internal/selection"
	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// PropertyStore persists property declarations and the global settings.
// Implemented by store.Store.
type PropertyStore interface {
	Properties(entityType string) ([]types.Property, error)
	Property(entityType, name string) (*types.Property, error)
	Exists(entityType, name string) (bool, error)
	SetProperty(entityType string, p types.Property) error
	ClearProperty(entityType, name string) error
	Settings() (types.Settings, error)
	SaveSettings(settings types.Settings) error
}

// FieldStorage installs and removes storage fields. Implemented by
// storage.Backend.
type FieldStorage interface {
	GetFieldStorageDefinition(ctx context.Context, entityType, name string) (*types.FieldDefinition, error)
	FieldStorageDefinitions(ctx context.Context, entityType string) ([]types.FieldDefinition, error)
	InstallFieldStorageDefinition(ctx context.Context, def types.FieldDefinition) error
	UninstallFieldStorageDefinition(ctx context.Context, def types.FieldDefinition) error
	UpdateEntityType(ctx context.Context, et types.EntityType) error
	CountFieldData(ctx context.Context, entityType, name string) (int64, error)
}

// EntityTypes looks up entity types. Implemented by entitytype.Registry.
type EntityTypes interface {
	Definition(id string) (types.EntityType, error)
	Definitions() []types.EntityType
	Labels() []types.Option
}

// FieldTypes enumerates and instantiates field types. Implemented by
// fieldtype.Registry.
type FieldTypes interface {
	Definition(id string) (*fieldtype.Type, error)
	Definitions() []*fieldtype.Type
	UIDefinitions() []*fieldtype.Type
	CreateInstance(id string, def *types.FieldDefinition) (*fieldtype.Item, error)
}

// Selections resolves reference selection handlers. Implemented by
// selection.Registry.
type Selections interface {
	SelectionGroups(target string) []selection.Group
	SelectionHandler(id, target string) (*selection.Handler, error)
}

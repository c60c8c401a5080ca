// Package entityprop keeps the storage schema of each entity type in step
// with its declared properties. The Service is the synchronizer plus the
// lookups the editor and listing build on.
package entityprop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/mesh-intelligence/entityprop/internal/fieldtype"
	"github.com/mesh-intelligence/entityprop/internal/selection"
	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// EntityReferenceLabel is the option label of the reference field type.
const EntityReferenceLabel = "Entity Reference"

// Config wires a Service to its collaborators.
type Config struct {
	Store       PropertyStore
	Storage     FieldStorage
	EntityTypes EntityTypes
	FieldTypes  FieldTypes
	Selections  Selections
	// DefaultTargetType is used for reference properties without a target.
	// Empty means types.DefaultTargetType.
	DefaultTargetType string
	Logger            *log.Logger
}

// Service synchronizes declared properties with field storage.
type Service struct {
	store         PropertyStore
	storage       FieldStorage
	entityTypes   EntityTypes
	fieldTypes    FieldTypes
	selections    Selections
	defaultTarget string
	logger        *log.Logger

	mu sync.Mutex
	// installed caches the installed field definitions per entity type.
	installed map[string]map[string]types.FieldDefinition
}

// New creates a Service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	target := cfg.DefaultTargetType
	if target == "" {
		target = types.DefaultTargetType
	}
	return &Service{
		store:         cfg.Store,
		storage:       cfg.Storage,
		entityTypes:   cfg.EntityTypes,
		fieldTypes:    cfg.FieldTypes,
		selections:    cfg.Selections,
		defaultTarget: target,
		logger:        logger,
		installed:     make(map[string]map[string]types.FieldDefinition),
	}
}

// DefaultTargetType returns the target used by reference properties that
// name none.
func (s *Service) DefaultTargetType() string { return s.defaultTarget }

// BuildFieldDefinition builds the storage definition for property p named
// name on entity type entityTypeID. Settings are the field type's defaults
// overlaid with the property's settings.
func (s *Service) BuildFieldDefinition(name, entityTypeID string, p types.Property) (types.FieldDefinition, error) {
	p.Normalize(s.defaultTarget)

	def := &types.FieldDefinition{
		Name:             name,
		Label:            p.Label,
		TargetEntityType: entityTypeID,
		Provider:         types.ProviderEntityProperty,
		Revisionable:     true,
		Required:         p.Required,
		Settings:         make(map[string]any, len(p.Settings)),
		DisplayOptions: map[string]types.DisplayOptions{
			types.ContextForm: {Region: types.RegionContent},
			types.ContextView: {Region: types.RegionContent},
		},
	}
	for k, v := range p.Settings {
		def.Settings[k] = v
	}
	if len(p.Configurable) > 0 {
		def.DisplayConfigurable = make(map[string]bool, len(p.Configurable))
		for ctx, on := range p.Configurable {
			def.DisplayConfigurable[ctx] = on
		}
	}

	item, err := s.fieldTypes.CreateInstance(p.Type, def)
	if err != nil {
		return types.FieldDefinition{}, fmt.Errorf("building field %s.%s: %w", entityTypeID, name, err)
	}
	def.Columns = item.Schema()
	return *def, nil
}

// UpdateFieldDefinitions installs a storage field for every declared
// property of entityTypeID that has none, then updates the entity type.
// Installed fields are never compared or altered. A field that fails to
// install does not stop the others; the failures are returned joined. It
// returns the names it installed, in declaration order.
func (s *Service) UpdateFieldDefinitions(ctx context.Context, entityTypeID string) ([]string, error) {
	et, err := s.entityTypes.Definition(entityTypeID)
	if err != nil {
		return nil, err
	}
	props, err := s.store.Properties(entityTypeID)
	if err != nil {
		return nil, fmt.Errorf("reading properties of %s: %w", entityTypeID, err)
	}

	var (
		added []string
		errs  []error
	)
	for _, p := range props {
		existing, err := s.storage.GetFieldStorageDefinition(ctx, entityTypeID, p.Name)
		if err != nil {
			return added, err
		}
		if existing != nil {
			continue
		}
		def, err := s.BuildFieldDefinition(p.Name, entityTypeID, p)
		if err == nil {
			err = s.storage.InstallFieldStorageDefinition(ctx, def)
		}
		if err != nil {
			s.logger.Printf("entity type %s: installing %s failed: %v", entityTypeID, p.Name, err)
			errs = append(errs, fmt.Errorf("installing %s.%s: %w", entityTypeID, p.Name, err))
			continue
		}
		added = append(added, p.Name)
	}

	if err := s.storage.UpdateEntityType(ctx, et); err != nil {
		errs = append(errs, fmt.Errorf("updating entity type %s: %w", entityTypeID, err))
	}
	if len(added) > 0 {
		s.logger.Printf("entity type %s: installed %v", entityTypeID, added)
	}
	return added, errors.Join(errs...)
}

// RebuildEntityType drops the cached field definitions and runs
// UpdateFieldDefinitions.
func (s *Service) RebuildEntityType(ctx context.Context, entityTypeID string) ([]string, error) {
	s.clearCachedFieldDefinitions()
	return s.UpdateFieldDefinitions(ctx, entityTypeID)
}

func (s *Service) clearCachedFieldDefinitions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.installed = make(map[string]map[string]types.FieldDefinition)
}

// FieldDefinitions returns the installed field definitions of an entity
// type keyed by name. Results are cached until the next rebuild.
func (s *Service) FieldDefinitions(ctx context.Context, entityTypeID string) (map[string]types.FieldDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if defs, ok := s.installed[entityTypeID]; ok {
		return defs, nil
	}
	list, err := s.storage.FieldStorageDefinitions(ctx, entityTypeID)
	if err != nil {
		return nil, err
	}
	defs := make(map[string]types.FieldDefinition, len(list))
	for _, d := range list {
		defs[d.Name] = d
	}
	s.installed[entityTypeID] = defs
	return defs, nil
}

// HasData reports whether field is installed on entityTypeID and storage
// holds at least one value for it. It always asks storage: another process
// may have installed the field and written data since the cache was filled.
func (s *Service) HasData(ctx context.Context, entityTypeID, field string) (bool, error) {
	n, err := s.storage.CountFieldData(ctx, entityTypeID, field)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FieldTypeOptions returns the field types offered in the editor, grouped
// by category. Only types enabled in the settings are listed, except the
// reference type which is always offered.
func (s *Service) FieldTypeOptions() ([]types.OptionGroup, error) {
	settings, err := s.store.Settings()
	if err != nil {
		return nil, err
	}

	var groups []types.OptionGroup
	for _, g := range fieldtype.Grouped(s.fieldTypes.UIDefinitions()) {
		og := types.OptionGroup{Label: g.Category}
		for _, t := range g.Types {
			if settings.AllowsFieldType(t.ID) {
				og.Options = append(og.Options, types.Option{Value: t.ID, Label: t.Label})
			}
		}
		if len(og.Options) > 0 {
			groups = append(groups, og)
		}
	}

	ref := types.Option{Value: types.FieldTypeEntityReference, Label: EntityReferenceLabel}
	for i := range groups {
		if groups[i].Label != fieldtype.CategoryReference {
			continue
		}
		for j, o := range groups[i].Options {
			if o.Value == ref.Value {
				groups[i].Options[j] = ref
				return groups, nil
			}
		}
		groups[i].Options = append(groups[i].Options, ref)
		return groups, nil
	}
	return append(groups, types.OptionGroup{Label: fieldtype.CategoryReference, Options: []types.Option{ref}}), nil
}

// AllSelection returns the selection handler options for a target entity
// type. A group is offered through its base handler when one exists,
// otherwise through its derivative for the target.
func (s *Service) AllSelection(targetType string) []types.Option {
	var opts []types.Option
	for _, g := range s.selections.SelectionGroups(targetType) {
		if h, ok := g.Handlers[g.ID]; ok {
			opts = append(opts, types.Option{Value: g.ID, Label: h.Label})
			continue
		}
		id := g.ID + ":" + targetType
		if h, ok := g.Handlers[id]; ok {
			opts = append(opts, types.Option{Value: id, Label: h.BaseLabel})
		}
	}
	return opts
}

// EntityType returns an entity type definition.
func (s *Service) EntityType(id string) (types.EntityType, error) {
	return s.entityTypes.Definition(id)
}

// EntityTypes returns every entity type.
func (s *Service) EntityTypes() []types.EntityType {
	return s.entityTypes.Definitions()
}

// EntityTypeLabels returns the entity types as select options.
func (s *Service) EntityTypeLabels() []types.Option {
	return s.entityTypes.Labels()
}

// FieldTypes returns every registered field type ordered by id.
func (s *Service) FieldTypes() []*fieldtype.Type {
	return s.fieldTypes.Definitions()
}

// FieldTypeLabel returns the label of a field type, or its id when the
// type is unknown.
func (s *Service) FieldTypeLabel(id string) string {
	t, err := s.fieldTypes.Definition(id)
	if err != nil {
		return id
	}
	return t.Label
}

// CreateInstance instantiates a field type for def.
func (s *Service) CreateInstance(fieldType string, def *types.FieldDefinition) (*fieldtype.Item, error) {
	return s.fieldTypes.CreateInstance(fieldType, def)
}

// SelectionHandler resolves a selection handler for a target entity type.
func (s *Service) SelectionHandler(id, target string) (*selection.Handler, error) {
	return s.selections.SelectionHandler(id, target)
}

// Settings returns the global editor settings.
func (s *Service) Settings() (types.Settings, error) {
	return s.store.Settings()
}

// SaveSettings stores the global editor settings.
func (s *Service) SaveSettings(settings types.Settings) error {
	return s.store.SaveSettings(settings)
}

// Properties returns the declared properties of an entity type.
func (s *Service) Properties(entityTypeID string) ([]types.Property, error) {
	return s.store.Properties(entityTypeID)
}

// Property returns one declared property.
func (s *Service) Property(entityTypeID, name string) (*types.Property, error) {
	return s.store.Property(entityTypeID, name)
}

// Exists reports whether name is already declared on entityTypeID.
func (s *Service) Exists(entityTypeID, name string) (bool, error) {
	return s.store.Exists(entityTypeID, name)
}

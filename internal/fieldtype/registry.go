// Package fieldtype is the registry of field types a property can use. A
// field type knows its storage columns, its default settings and how to
// build its settings sub-forms.
package fieldtype

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// Categories used to group field types in selection lists.
const (
	CategoryGeneral   = "General"
	CategoryNumber    = "Number"
	CategoryText      = "Text"
	CategoryDate      = "Date"
	CategoryList      = "Selection list"
	CategoryReference = "Reference"
)

// Type is a field type definition.
type Type struct {
	ID          string
	Label       string
	Category    string
	Description string
	// NoUI types exist for base fields but are never offered to
	// administrators.
	NoUI bool

	StorageSettings map[string]any
	FieldSettings   map[string]any

	columns     func(settings map[string]any) []types.Column
	storageForm func(item *Item, hasData bool) []types.Element
	// fieldForm is nil for types whose field settings cannot be edited on a
	// property.
	fieldForm func(item *Item) []types.Element
}

// Group is a category of field types.
type Group struct {
	Category string
	Types    []*Type
}

// Registry holds field types by id.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewRegistry returns a registry with the built-in field types.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]*Type)}
	for _, t := range builtinTypes() {
		r.types[t.ID] = t
	}
	return r
}

// Register adds a field type. Registering an existing id replaces it.
func (r *Registry) Register(t *Type) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("register field type: empty id")
	}
	if t.columns == nil {
		return fmt.Errorf("register field type %q: no storage columns", t.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.ID] = t
	return nil
}

// Definition returns the field type with the given id.
func (r *Registry) Definition(id string) (*Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrFieldTypeNotFound, id)
	}
	return t, nil
}

// Has reports whether id is a registered field type.
func (r *Registry) Has(id string) bool {
	_, err := r.Definition(id)
	return err == nil
}

// Definitions returns every field type ordered by id.
func (r *Registry) Definitions() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Type, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UIDefinitions returns the field types administrators may pick.
func (r *Registry) UIDefinitions() []*Type {
	var out []*Type
	for _, t := range r.Definitions() {
		if !t.NoUI {
			out = append(out, t)
		}
	}
	return out
}

// Grouped groups defs by category. Categories are ordered by name and the
// types inside a category by label.
func Grouped(defs []*Type) []Group {
	byCat := map[string][]*Type{}
	for _, t := range defs {
		byCat[t.Category] = append(byCat[t.Category], t)
	}
	cats := make([]string, 0, len(byCat))
	for c := range byCat {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	groups := make([]Group, 0, len(cats))
	for _, c := range cats {
		ts := byCat[c]
		sort.Slice(ts, func(i, j int) bool { return ts[i].Label < ts[j].Label })
		groups = append(groups, Group{Category: c, Types: ts})
	}
	return groups
}

// CreateInstance instantiates field type id for a field definition. The
// definition's settings are completed with the type's defaults.
func (r *Registry) CreateInstance(id string, def *types.FieldDefinition) (*Item, error) {
	t, err := r.Definition(id)
	if err != nil {
		return nil, err
	}
	if def == nil {
		def = &types.FieldDefinition{Type: id}
	}
	merged := t.DefaultSettings()
	for k, v := range def.Settings {
		merged[k] = v
	}
	def.Settings = merged
	def.Type = id
	return &Item{Type: t, Definition: def}, nil
}

// DefaultSettings returns the storage and field setting defaults merged
// into a fresh map.
func (t *Type) DefaultSettings() map[string]any {
	out := make(map[string]any, len(t.StorageSettings)+len(t.FieldSettings))
	for k, v := range t.StorageSettings {
		out[k] = cloneSetting(v)
	}
	for k, v := range t.FieldSettings {
		out[k] = cloneSetting(v)
	}
	return out
}

func cloneSetting(v any) any {
	switch x := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, vv := range x {
			m[k] = cloneSetting(vv)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, vv := range x {
			s[i] = cloneSetting(vv)
		}
		return s
	default:
		return v
	}
}

// Package entitytype holds the entity types properties can be attached to.
package entitytype

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// Base fields carried by every entity type. They match the system columns
// of the storage backend.
var baseFields = []types.BaseField{
	{Name: "id", Label: "ID", Type: "string"},
	{Name: "uuid", Label: "UUID", Type: "uuid"},
	{Name: "bundle", Label: "Bundle", Type: "string"},
	{Name: "label", Label: "Label", Type: "string"},
	{Name: "created_at", Label: "Created", Type: "created"},
	{Name: "updated_at", Label: "Changed", Type: "changed"},
}

// ReservedPrefix starts the names of the storage bookkeeping tables, so
// entity type ids may not use it.
const ReservedPrefix = "entityprop_"

// Defaults are the entity types available when none are configured.
func Defaults() []types.EntityType {
	return []types.EntityType{
		{ID: "node", Label: "Content", Bundles: []string{"article", "page"}, FieldUI: true},
		{ID: "user", Label: "User", Bundles: []string{"user"}, FieldUI: true},
		{ID: "taxonomy_term", Label: "Taxonomy term", Bundles: []string{"tags"}, FieldUI: true},
		{ID: "comment", Label: "Comment", Bundles: []string{"comment"}, FieldUI: true},
	}
}

// Registry looks up entity types by id.
type Registry struct {
	byID  map[string]types.EntityType
	order []string
}

// NewRegistry builds a registry from ets. Ids must be valid identifiers and
// unique. Every entity type gets the standard base fields.
func NewRegistry(ets []types.EntityType) (*Registry, error) {
	r := &Registry{byID: make(map[string]types.EntityType, len(ets))}
	for _, et := range ets {
		et.ID = strings.TrimSpace(et.ID)
		if !types.ValidIdentifier(et.ID) {
			return nil, fmt.Errorf("entity type id %q: must match [a-z0-9_]+", et.ID)
		}
		if strings.HasPrefix(et.ID, ReservedPrefix) {
			return nil, fmt.Errorf("entity type id %q: prefix %q is reserved", et.ID, ReservedPrefix)
		}
		if _, dup := r.byID[et.ID]; dup {
			return nil, fmt.Errorf("entity type %q declared twice", et.ID)
		}
		if et.Label == "" {
			et.Label = et.ID
		}
		et.BaseFields = append([]types.BaseField(nil), baseFields...)
		r.byID[et.ID] = et
		r.order = append(r.order, et.ID)
	}
	return r, nil
}

// Definition returns the entity type with the given id.
func (r *Registry) Definition(id string) (types.EntityType, error) {
	et, ok := r.byID[id]
	if !ok {
		return types.EntityType{}, fmt.Errorf("%w: %q", types.ErrEntityTypeNotFound, id)
	}
	return et, nil
}

// Definitions returns the entity types in declaration order.
func (r *Registry) Definitions() []types.EntityType {
	out := make([]types.EntityType, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Labels returns select options of every entity type, ordered by label.
func (r *Registry) Labels() []types.Option {
	opts := make([]types.Option, 0, len(r.order))
	for _, id := range r.order {
		opts = append(opts, types.Option{Value: id, Label: r.byID[id].Label})
	}
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].Label < opts[j].Label })
	return opts
}

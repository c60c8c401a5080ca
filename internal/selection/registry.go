// Package selection holds the reference selection handlers: the plugins
// that decide which entities a reference property may point at.
package selection

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// Handler is a selection handler definition. Derived handlers have ids of
// the form "<group>:<entity_type>" and apply to that entity type only.
type Handler struct {
	ID        string
	Group     string
	Label     string
	BaseLabel string
	Weight    int
	// EntityTypes restricts the handler to these target types; empty means
	// every type.
	EntityTypes []string

	configForm func(target types.EntityType, settings map[string]any) []types.Element
}

// AppliesTo reports whether the handler can select entities of target.
func (h *Handler) AppliesTo(target string) bool {
	if len(h.EntityTypes) == 0 {
		return true
	}
	for _, et := range h.EntityTypes {
		if et == target {
			return true
		}
	}
	return false
}

// ConfigurationForm returns the handler_settings elements for target.
func (h *Handler) ConfigurationForm(target types.EntityType, settings map[string]any) []types.Element {
	if h.configForm == nil {
		return nil
	}
	return h.configForm(target, settings)
}

// Group is the set of handlers sharing a group id that apply to one target.
type Group struct {
	ID       string
	Weight   int
	Handlers map[string]*Handler
}

// Registry holds selection handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]*Handler
}

// NewRegistry returns a registry with the "default" handler derived for
// every entity type and the "views" handler.
func NewRegistry(entityTypes []types.EntityType) *Registry {
	r := &Registry{handlers: make(map[string]*Handler)}
	for _, et := range entityTypes {
		h := &Handler{
			ID:          types.DefaultHandler(et.ID),
			Group:       "default",
			Label:       fmt.Sprintf("%s selection", et.Label),
			BaseLabel:   "Default",
			EntityTypes: []string{et.ID},
			configForm:  defaultConfigForm,
		}
		r.handlers[h.ID] = h
	}
	r.handlers["views"] = &Handler{
		ID:         "views",
		Group:      "views",
		Label:      "Views: Filter by an entity reference view",
		BaseLabel:  "Views: Filter by an entity reference view",
		Weight:     10,
		configForm: viewsConfigForm,
	}
	return r
}

// Register adds or replaces a handler.
func (r *Registry) Register(h *Handler) error {
	if h == nil || h.ID == "" || h.Group == "" {
		return fmt.Errorf("register selection handler: id and group are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.ID] = h
	return nil
}

// SelectionGroups returns the handler groups applicable to target, ordered
// by weight then id.
func (r *Registry) SelectionGroups(target string) []Group {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byID := map[string]*Group{}
	for _, h := range r.handlers {
		if !h.AppliesTo(target) {
			continue
		}
		g, ok := byID[h.Group]
		if !ok {
			g = &Group{ID: h.Group, Weight: h.Weight, Handlers: map[string]*Handler{}}
			byID[h.Group] = g
		}
		if h.Weight < g.Weight {
			g.Weight = h.Weight
		}
		g.Handlers[h.ID] = h
	}

	out := make([]Group, 0, len(byID))
	for _, g := range byID {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight < out[j].Weight
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SelectionHandler resolves the handler configured on a reference field. A
// bare group id such as "default" resolves to the group's derivative for
// the target type.
func (r *Registry) SelectionHandler(id, target string) (*Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if h, ok := r.handlers[id]; ok && h.AppliesTo(target) {
		return h, nil
	}
	if !strings.Contains(id, ":") {
		if h, ok := r.handlers[id+":"+target]; ok {
			return h, nil
		}
	}
	return nil, fmt.Errorf("%w: %q for %q", types.ErrHandlerNotFound, id, target)
}

func defaultConfigForm(target types.EntityType, settings map[string]any) []types.Element {
	bundles := make([]types.Option, 0, len(target.Bundles))
	for _, b := range target.Bundles {
		bundles = append(bundles, types.Option{Value: b, Label: b})
	}
	sortField, _ := nested(settings, "sort", "field").(string)
	if sortField == "" {
		sortField = "_none"
	}
	direction, _ := nested(settings, "sort", "direction").(string)
	if direction == "" {
		direction = "ASC"
	}
	autoCreate, _ := settings["auto_create"].(bool)

	return []types.Element{
		{
			Key:      "target_bundles",
			Kind:     types.KindCheckboxes,
			Title:    "Bundles",
			Options:  bundles,
			Default:  settings["target_bundles"],
			Required: false,
		},
		{
			Key:   "sort",
			Kind:  types.KindContainer,
			Title: "Sort",
			Children: []types.Element{
				{
					Key:     "field",
					Kind:    types.KindSelect,
					Title:   "Sort by",
					Default: sortField,
					Options: []types.Option{
						{Value: "_none", Label: "- None -"},
						{Value: "label", Label: "Label"},
						{Value: "created_at", Label: "Created"},
					},
				},
				{
					Key:     "direction",
					Kind:    types.KindSelect,
					Title:   "Sort direction",
					Default: direction,
					Options: []types.Option{{Value: "ASC", Label: "Ascending"}, {Value: "DESC", Label: "Descending"}},
				},
			},
		},
		{
			Key:     "auto_create",
			Kind:    types.KindCheckbox,
			Title:   "Create referenced entities if they don't already exist",
			Default: autoCreate,
		},
	}
}

func viewsConfigForm(_ types.EntityType, settings map[string]any) []types.Element {
	view, _ := nested(settings, "view", "view_name").(string)
	args, _ := nested(settings, "view", "arguments").(string)
	return []types.Element{{
		Key:   "view",
		Kind:  types.KindContainer,
		Title: "View used to select the entities",
		Children: []types.Element{
			{Key: "view_name", Kind: types.KindTextfield, Title: "View", Default: view, Required: true},
			{Key: "arguments", Kind: types.KindTextfield, Title: "View arguments", Default: args, Description: "Comma separated."},
		},
	}}
}

func nested(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = mm[k]
	}
	return cur
}

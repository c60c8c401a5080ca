package form

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/entityprop/internal/listing"
	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// SettingsFormID identifies the settings form.
const SettingsFormID = "entity_property_settings"

// SettingsForm edits the global editor settings.
type SettingsForm struct {
	base
}

// NewSettingsForm creates the settings form.
func NewSettingsForm(svc Service) *SettingsForm {
	return &SettingsForm{base{svc: svc}}
}

func (f *SettingsForm) typeOptions() []types.Option {
	var opts []types.Option
	for _, t := range f.svc.FieldTypes() {
		opts = append(opts, types.Option{Value: t.ID, Label: t.Label})
	}
	return opts
}

// Build describes the form with the saved settings as defaults.
func (f *SettingsForm) Build(ctx context.Context) (*types.Form, error) {
	settings, err := f.svc.Settings()
	if err != nil {
		return nil, err
	}
	return &types.Form{
		ID:    SettingsFormID,
		Title: "Entity property settings",
		Elements: []types.Element{
			{
				Key:         "show_all_properties",
				Kind:        types.KindCheckbox,
				Title:       "Show base properties",
				Description: "List the base fields of an entity type next to its properties.",
				Default:     settings.ShowAllProperties,
			},
			{
				Key:   "field_types",
				Kind:  types.KindFieldset,
				Title: "Field types",
				Children: []types.Element{{
					Key:      "field_types",
					Kind:     types.KindCheckboxes,
					Title:    "Field types",
					Options:  f.typeOptions(),
					Default:  settings.FieldTypes,
					Required: true,
				}},
			},
			{
				Key:      "actions",
				Kind:     types.KindContainer,
				Children: []types.Element{{Key: "submit", Kind: types.KindSubmit, Title: "Save configuration"}},
			},
		},
	}, nil
}

// Submit validates and saves the settings.
func (f *SettingsForm) Submit(ctx context.Context, st *State) (*Result, error) {
	if st == nil {
		st = &State{}
	}
	known := map[string]bool{}
	for _, o := range f.typeOptions() {
		known[o.Value] = true
	}

	errs := Errors{}
	selected := sortedKeys(valueSet(st.Values, "field_types"))
	if len(selected) == 0 {
		errs.add("field_types", "Field types field is required.")
	}
	for _, id := range selected {
		if !known[id] {
			errs.add("field_types", fmt.Sprintf("The field type %q does not exist.", id))
		}
	}
	if err := errs.errOrNil(); err != nil {
		return nil, err
	}

	settings := types.Settings{
		FieldTypes:        selected,
		ShowAllProperties: valueBool(st.Values, "show_all_properties"),
	}
	if err := f.svc.SaveSettings(settings); err != nil {
		return nil, err
	}
	return &Result{
		Messages: []string{"The configuration options have been saved."},
		Redirect: st.redirect(listing.SettingsPath),
	}, nil
}

package form

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// User-facing texts.
const (
	emptyTypeOption = "- Select a field type -"

	msgMachineName = `The machine-readable name must be unique, and can only contain lowercase letters, numbers, and underscores. Additionally, it can not be the reserved word "custom".`
	msgNameInUse   = "The machine-readable name is already in use. It must be unique."
	msgNameFixed   = "The machine name cannot be changed."
	msgNameColumns = "The machine-readable name is taken by a base field or by the storage columns of another property."
	msgEditHasData = "The property %s holds data and can no longer be changed."
	msgUnsupported = "This field type does not support being used as a property."
)

var contextOptions = []types.Option{
	{Value: types.ContextForm, Label: "Form"},
	{Value: types.ContextView, Label: "View"},
}

type rowOptions struct {
	typeOptions []types.OptionGroup
	// required marks type, label and name as required elements.
	required bool
	// original is the stored name of the property being edited.
	original string
	hasData  bool
}

// rowElements builds the elements editing one property.
func (f *base) rowElements(et types.EntityType, row map[string]any, o rowOptions) []types.Element {
	settings := types.Element{Key: "settings", Kind: types.KindContainer, Title: "Settings"}
	if valueString(row, "type") != "" {
		settings.Kind = types.KindFieldset
		settings.Children = f.settingsElements(et, row, o.hasData)
	}

	return []types.Element{
		{
			Key:          "type",
			Kind:         types.KindSelect,
			Title:        "Type",
			OptionGroups: o.typeOptions,
			Default:      valueString(row, "type"),
			EmptyOption:  emptyTypeOption,
			Required:     o.required,
			Reactive:     true,
		},
		{
			Key:       "label",
			Kind:      types.KindTextfield,
			Title:     "Label",
			MaxLength: types.LabelMaxLength,
			Default:   valueString(row, "label"),
			Required:  o.required,
		},
		{
			Key:         "name",
			Kind:        types.KindMachineName,
			Title:       "Machine name",
			Description: msgMachineName,
			MaxLength:   types.MachineNameMaxLength,
			Default:     valueString(row, "name"),
			Required:    o.required,
			Disabled:    o.original != "",
		},
		{
			Key:     "required",
			Kind:    types.KindCheckbox,
			Title:   "Required field",
			Default: valueBool(row, "required"),
		},
		{
			Key:     "configurable",
			Kind:    types.KindCheckboxes,
			Title:   "Display configurable",
			Options: contextOptions,
			Default: sortedKeys(valueSet(row, "configurable")),
		},
		settings,
	}
}

// settingsElements builds the type-specific settings of a row. Reference
// types get target and handler selects; other types get the field type's
// own storage and field settings forms.
func (f *base) settingsElements(et types.EntityType, row map[string]any, hasData bool) []types.Element {
	typ := valueString(row, "type")
	def := &types.FieldDefinition{
		Name:             valueString(row, "name"),
		Label:            valueString(row, "label"),
		TargetEntityType: et.ID,
		Settings:         cloneMap(valueMap(row, "settings")),
	}

	if typ == types.FieldTypeEntityReference {
		target, handler := f.resolveReference(def.Settings)
		def.SetSetting(types.SettingTargetType, target.ID)
		def.SetSetting(types.SettingHandler, handler)
		if _, err := f.svc.CreateInstance(typ, def); err != nil {
			return nil
		}

		handlerSettings := types.Element{Key: types.SettingHandlerSettings, Kind: types.KindContainer}
		if h, err := f.svc.SelectionHandler(handler, target.ID); err == nil {
			hs, _ := def.Setting(types.SettingHandlerSettings).(map[string]any)
			handlerSettings.Children = h.ConfigurationForm(target, hs)
		}
		return []types.Element{
			{
				Key:      types.SettingTargetType,
				Kind:     types.KindSelect,
				Title:    "Type of item to reference",
				Options:  f.svc.EntityTypeLabels(),
				Default:  target.ID,
				Required: true,
				Reactive: true,
			},
			{
				Key:      types.SettingHandler,
				Kind:     types.KindSelect,
				Title:    "Reference method",
				Options:  f.svc.AllSelection(target.ID),
				Default:  handler,
				Required: true,
				Reactive: true,
			},
			handlerSettings,
		}
	}

	item, err := f.svc.CreateInstance(typ, def)
	if err != nil {
		// Unknown types are reported by validation.
		return nil
	}
	elements := item.StorageSettingsForm(hasData)
	fieldSettings, ok := item.FieldSettingsForm()
	if !ok {
		return append(elements, types.Element{Key: "error", Kind: types.KindMarkup, Markup: msgUnsupported})
	}
	return append(elements, fieldSettings...)
}

// resolveReference picks the target entity type and handler of a reference
// row. An unknown target falls back to the default target, and a handler
// that does not apply to the target is reset to the target's default
// handler.
func (f *base) resolveReference(settings map[string]any) (types.EntityType, string) {
	id := types.SettingString(settings, types.SettingTargetType)
	target, err := f.svc.EntityType(id)
	if id == "" || err != nil {
		id = f.svc.DefaultTargetType()
		target, err = f.svc.EntityType(id)
		if err != nil {
			target = types.EntityType{ID: id, Label: id}
		}
	}

	handler := types.SettingString(settings, types.SettingHandler)
	if handler == "" {
		return target, types.DefaultHandler(target.ID)
	}
	if _, err := f.svc.SelectionHandler(handler, target.ID); err != nil {
		return target, types.DefaultHandler(target.ID)
	}
	return target, handler
}

// validateRow checks one row. path maps an element key to its error path.
// original is the stored name when editing, empty when adding.
func (f *base) validateRow(et types.EntityType, row map[string]any, offered map[string]bool, original string, path func(string) string, errs Errors) error {
	typ := valueString(row, "type")
	label := valueString(row, "label")
	name := valueString(row, "name")

	switch {
	case typ == "":
		errs.add(path("type"), "Type field is required.")
	case !offered[typ]:
		errs.add(path("type"), fmt.Sprintf("The field type %q is not available.", typ))
	}

	switch {
	case label == "":
		errs.add(path("label"), "Label field is required.")
	case utf8.RuneCountInString(label) > types.LabelMaxLength:
		errs.add(path("label"), fmt.Sprintf("Label cannot be longer than %d characters.", types.LabelMaxLength))
	}

	switch {
	case name == "":
		errs.add(path("name"), "Machine name field is required.")
	case types.ValidateMachineName(name) != nil:
		errs.add(path("name"), msgMachineName)
	case original != "" && name != original:
		errs.add(path("name"), msgNameFixed)
	case original == "":
		exists, err := f.svc.Exists(et.ID, name)
		if err != nil {
			return err
		}
		if exists {
			errs.add(path("name"), msgNameInUse)
			break
		}
		err = f.svc.CheckPropertyName(et.ID, name)
		if errors.Is(err, types.ErrNameReserved) {
			errs.add(path("name"), msgNameColumns)
		} else if err != nil {
			return err
		}
	}

	if typ == types.FieldTypeEntityReference {
		settings := valueMap(row, "settings")
		target := types.SettingString(settings, types.SettingTargetType)
		if target != "" {
			if _, err := f.svc.EntityType(target); err != nil {
				errs.add(path("settings."+types.SettingTargetType), fmt.Sprintf("The %q entity type does not exist.", target))
			}
		}
	}
	return nil
}

// rowProperty turns validated input into a property.
func (f *base) rowProperty(row map[string]any) types.Property {
	p := types.Property{
		Name:         valueString(row, "name"),
		Label:        valueString(row, "label"),
		Type:         valueString(row, "type"),
		Required:     valueBool(row, "required"),
		Configurable: map[string]bool{},
	}
	checked := valueSet(row, "configurable")
	for _, c := range types.DisplayContexts {
		p.Configurable[c] = checked[c]
	}
	if s := valueMap(row, "settings"); len(s) > 0 {
		p.Settings = cloneMap(s)
	}
	if p.IsReference() {
		if p.Settings == nil {
			p.Settings = map[string]any{}
		}
		target, handler := f.resolveReference(p.Settings)
		p.Settings[types.SettingTargetType] = target.ID
		p.Settings[types.SettingHandler] = handler
	}
	return p
}

func (f *base) offeredTypes() ([]types.OptionGroup, map[string]bool, error) {
	groups, err := f.svc.FieldTypeOptions()
	if err != nil {
		return nil, nil, err
	}
	offered := map[string]bool{}
	for _, g := range groups {
		for _, o := range g.Options {
			offered[o.Value] = true
		}
	}
	return groups, offered, nil
}

func (f *base) hasData(ctx context.Context, entityType, name string) (bool, error) {
	if name == "" {
		return false, nil
	}
	return f.svc.HasData(ctx, entityType, name)
}

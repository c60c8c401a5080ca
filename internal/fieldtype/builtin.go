package fieldtype

import (
	"strconv"

	"github.com/mesh-intelligence/entityprop/pkg/types"
)

func builtinTypes() []*Type {
	return []*Type{
		{
			ID:            "boolean",
			Label:         "Boolean",
			Category:      CategoryGeneral,
			Description:   "Stores true or false.",
			FieldSettings: map[string]any{"on_label": "On", "off_label": "Off"},
			columns:       singleColumn(types.Column{Name: "value", Type: types.ColumnBool}),
			fieldForm: func(i *Item) []types.Element {
				return []types.Element{
					textfield("on_label", `"On" label`, StringSetting(i.Definition.Settings, "on_label", "On"), true),
					textfield("off_label", `"Off" label`, StringSetting(i.Definition.Settings, "off_label", "Off"), true),
				}
			},
		},
		{
			ID:              "string",
			Label:           "Text (plain)",
			Category:        CategoryText,
			Description:     "A short plain text value, up to the configured length.",
			StorageSettings: map[string]any{"max_length": 255, "is_ascii": false, "case_sensitive": false},
			columns: func(s map[string]any) []types.Column {
				return []types.Column{{Name: "value", Type: types.ColumnVarchar, Length: IntSetting(s, "max_length", 255)}}
			},
			storageForm: func(i *Item, hasData bool) []types.Element {
				el := number("max_length", "Maximum length", IntSetting(i.Definition.Settings, "max_length", 255), 1)
				el.Required = true
				el.Description = "The maximum length of the field in characters."
				el.Disabled = hasData
				return []types.Element{el}
			},
			fieldForm: noFieldSettings,
		},
		{
			ID:              "string_long",
			Label:           "Text (plain, long)",
			Category:        CategoryText,
			Description:     "A long plain text value.",
			StorageSettings: map[string]any{"case_sensitive": false},
			columns:         singleColumn(types.Column{Name: "value", Type: types.ColumnText}),
			fieldForm:       noFieldSettings,
		},
		{
			ID:          "email",
			Label:       "Email",
			Category:    CategoryGeneral,
			Description: "An email address.",
			columns:     singleColumn(types.Column{Name: "value", Type: types.ColumnVarchar, Length: 254}),
			fieldForm:   noFieldSettings,
		},
		{
			ID:              "uri",
			Label:           "URI",
			Category:        CategoryGeneral,
			Description:     "A URI of any scheme.",
			StorageSettings: map[string]any{"max_length": 2048, "case_sensitive": false},
			columns: func(s map[string]any) []types.Column {
				return []types.Column{{Name: "value", Type: types.ColumnVarchar, Length: IntSetting(s, "max_length", 2048)}}
			},
			fieldForm: noFieldSettings,
		},
		{
			ID:            "link",
			Label:         "Link",
			Category:      CategoryGeneral,
			Description:   "A URI with an optional link text.",
			FieldSettings: map[string]any{"title": 1},
			columns: func(map[string]any) []types.Column {
				return []types.Column{
					{Name: "uri", Type: types.ColumnVarchar, Length: 2048},
					{Name: "title", Type: types.ColumnVarchar, Length: 255},
				}
			},
			fieldForm: func(i *Item) []types.Element {
				return []types.Element{{
					Key:     "title",
					Kind:    types.KindSelect,
					Title:   "Allow link text",
					Default: strconv.Itoa(IntSetting(i.Definition.Settings, "title", 1)),
					Options: []types.Option{
						{Value: "0", Label: "Disabled"},
						{Value: "1", Label: "Optional"},
						{Value: "2", Label: "Required"},
					},
				}}
			},
		},
		{
			ID:              "integer",
			Label:           "Number (integer)",
			Category:        CategoryNumber,
			Description:     "A whole number.",
			StorageSettings: map[string]any{"unsigned": false, "size": "normal"},
			FieldSettings:   numericFieldDefaults(),
			columns: func(s map[string]any) []types.Column {
				return []types.Column{{Name: "value", Type: types.ColumnInt, Unsigned: BoolSetting(s, "unsigned", false)}}
			},
			fieldForm: numericFieldForm,
		},
		{
			ID:              "decimal",
			Label:           "Number (decimal)",
			Category:        CategoryNumber,
			Description:     "A fixed point number with a configured precision and scale.",
			StorageSettings: map[string]any{"precision": 10, "scale": 2},
			FieldSettings:   numericFieldDefaults(),
			columns: func(s map[string]any) []types.Column {
				return []types.Column{{
					Name:      "value",
					Type:      types.ColumnNumeric,
					Precision: IntSetting(s, "precision", 10),
					Scale:     IntSetting(s, "scale", 2),
				}}
			},
			storageForm: func(i *Item, hasData bool) []types.Element {
				precision := types.Element{
					Key:         "precision",
					Kind:        types.KindSelect,
					Title:       "Precision",
					Description: "The total number of digits to store in the database, including those to the right of the decimal.",
					Default:     strconv.Itoa(IntSetting(i.Definition.Settings, "precision", 10)),
					Options:     rangeOptions(10, 32),
					Disabled:    hasData,
				}
				scale := types.Element{
					Key:         "scale",
					Kind:        types.KindSelect,
					Title:       "Scale",
					Description: "The number of digits to the right of the decimal.",
					Default:     strconv.Itoa(IntSetting(i.Definition.Settings, "scale", 2)),
					Options:     rangeOptions(0, 10),
					Disabled:    hasData,
				}
				return []types.Element{precision, scale}
			},
			fieldForm: numericFieldForm,
		},
		{
			ID:            "float",
			Label:         "Number (float)",
			Category:      CategoryNumber,
			Description:   "A floating point number.",
			FieldSettings: numericFieldDefaults(),
			columns:       singleColumn(types.Column{Name: "value", Type: types.ColumnFloat}),
			fieldForm:     numericFieldForm,
		},
		{
			ID:          "timestamp",
			Label:       "Timestamp",
			Category:    CategoryDate,
			Description: "A Unix timestamp.",
			columns:     singleColumn(types.Column{Name: "value", Type: types.ColumnInt}),
			fieldForm:   noFieldSettings,
		},
		{
			ID:              "datetime",
			Label:           "Date",
			Category:        CategoryDate,
			Description:     "A date, optionally with a time of day.",
			StorageSettings: map[string]any{"datetime_type": "datetime"},
			columns:         singleColumn(types.Column{Name: "value", Type: types.ColumnVarchar, Length: 20}),
			storageForm: func(i *Item, hasData bool) []types.Element {
				return []types.Element{{
					Key:      "datetime_type",
					Kind:     types.KindSelect,
					Title:    "Date type",
					Default:  StringSetting(i.Definition.Settings, "datetime_type", "datetime"),
					Options:  []types.Option{{Value: "datetime", Label: "Date and time"}, {Value: "date", Label: "Date only"}},
					Disabled: hasData,
				}}
			},
			fieldForm: noFieldSettings,
		},
		{
			ID:              "list_string",
			Label:           "List (text)",
			Category:        CategoryList,
			Description:     "A value picked from a list of allowed text keys.",
			StorageSettings: map[string]any{"allowed_values": []any{}},
			columns:         singleColumn(types.Column{Name: "value", Type: types.ColumnVarchar, Length: 255}),
			storageForm:     allowedValuesForm,
			fieldForm:       noFieldSettings,
		},
		{
			ID:              "list_integer",
			Label:           "List (integer)",
			Category:        CategoryList,
			Description:     "A value picked from a list of allowed integer keys.",
			StorageSettings: map[string]any{"allowed_values": []any{}},
			columns:         singleColumn(types.Column{Name: "value", Type: types.ColumnInt}),
			storageForm:     allowedValuesForm,
			fieldForm:       noFieldSettings,
		},
		{
			ID:              types.FieldTypeEntityReference,
			Label:           "Entity reference",
			Category:        CategoryReference,
			Description:     "A reference to another entity.",
			StorageSettings: map[string]any{types.SettingTargetType: types.DefaultTargetType},
			FieldSettings:   map[string]any{types.SettingHandler: "default", types.SettingHandlerSettings: map[string]any{}},
			columns:         singleColumn(types.Column{Name: "target_id", Type: types.ColumnVarchar, Length: 255}),
			fieldForm:       noFieldSettings,
		},
		{
			ID:          "map",
			Label:       "Map",
			Category:    CategoryGeneral,
			Description: "Serialized key/value data.",
			columns:     singleColumn(types.Column{Name: "value", Type: types.ColumnText}),
		},
		{
			ID:       "uuid",
			Label:    "UUID",
			Category: CategoryGeneral,
			NoUI:     true,
			columns:  singleColumn(types.Column{Name: "value", Type: types.ColumnVarchar, Length: 128}),
		},
		{
			ID:       "created",
			Label:    "Created",
			Category: CategoryDate,
			NoUI:     true,
			columns:  singleColumn(types.Column{Name: "value", Type: types.ColumnInt}),
		},
		{
			ID:       "changed",
			Label:    "Last changed",
			Category: CategoryDate,
			NoUI:     true,
			columns:  singleColumn(types.Column{Name: "value", Type: types.ColumnInt}),
		},
	}
}

func singleColumn(c types.Column) func(map[string]any) []types.Column {
	return func(map[string]any) []types.Column { return []types.Column{c} }
}

func noFieldSettings(*Item) []types.Element { return []types.Element{} }

func numericFieldDefaults() map[string]any {
	return map[string]any{"min": "", "max": "", "prefix": "", "suffix": ""}
}

func numericFieldForm(i *Item) []types.Element {
	s := i.Definition.Settings
	return []types.Element{
		textfield("min", "Minimum", StringSetting(s, "min", ""), false),
		textfield("max", "Maximum", StringSetting(s, "max", ""), false),
		textfield("prefix", "Prefix", StringSetting(s, "prefix", ""), false),
		textfield("suffix", "Suffix", StringSetting(s, "suffix", ""), false),
	}
}

func allowedValuesForm(i *Item, hasData bool) []types.Element {
	return []types.Element{{
		Key:         "allowed_values",
		Kind:        types.KindTextfield,
		Title:       "Allowed values list",
		Description: "One value per line, in the format key|label.",
		Default:     i.Definition.Setting("allowed_values"),
		Disabled:    hasData,
	}}
}

func textfield(key, title, def string, required bool) types.Element {
	return types.Element{Key: key, Kind: types.KindTextfield, Title: title, Default: def, Required: required, MaxLength: types.LabelMaxLength}
}

func number(key, title string, def, min int) types.Element {
	m := float64(min)
	return types.Element{Key: key, Kind: types.KindNumber, Title: title, Default: def, Min: &m}
}

func rangeOptions(from, to int) []types.Option {
	opts := make([]types.Option, 0, to-from+1)
	for n := from; n <= to; n++ {
		s := strconv.Itoa(n)
		opts = append(opts, types.Option{Value: s, Label: s})
	}
	return opts
}

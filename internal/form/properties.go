package form

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mesh-intelligence/entityprop/internal/listing"
	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// PropertiesFormID identifies the multi-row form.
const PropertiesFormID = "entity_properties_form"

// PropertiesForm adds several properties at once. The number of rows lives
// in State.ItemsCount.
type PropertiesForm struct {
	base
}

// NewPropertiesForm creates the multi-row form.
func NewPropertiesForm(svc Service) *PropertiesForm {
	return &PropertiesForm{base{svc: svc}}
}

// ItemsCount returns the row count of st, at least one.
func ItemsCount(st *State) int {
	if st == nil || st.ItemsCount < 1 {
		return 1
	}
	return st.ItemsCount
}

// AddItem adds a row.
func (f *PropertiesForm) AddItem(st *State) {
	st.ItemsCount = ItemsCount(st) + 1
}

// DeleteItem removes the last row, keeping at least one.
func (f *PropertiesForm) DeleteItem(st *State) {
	n := ItemsCount(st)
	if n > 1 {
		n--
	}
	st.ItemsCount = n
}

func rowPath(i int) func(string) string {
	prefix := "properties." + strconv.Itoa(i) + "."
	return func(k string) string { return prefix + k }
}

// Build describes the form with one row per item.
func (f *PropertiesForm) Build(ctx context.Context, entityType string, st *State) (*types.Form, error) {
	if st == nil {
		st = &State{}
	}
	et, err := f.entityType(entityType)
	if err != nil {
		return nil, err
	}
	groups, _, err := f.offeredTypes()
	if err != nil {
		return nil, err
	}
	st.ItemsCount = ItemsCount(st)

	rows := valueRows(st.Values, "properties")
	table := types.Element{Key: "properties", Kind: types.KindContainer}
	for i := 0; i < st.ItemsCount; i++ {
		table.Children = append(table.Children, types.Element{
			Key:      strconv.Itoa(i),
			Kind:     types.KindContainer,
			Children: f.rowElements(et, rows[i], rowOptions{typeOptions: groups}),
		})
	}

	return &types.Form{
		ID:    PropertiesFormID,
		Title: fmt.Sprintf("Add properties to %s", et.Label),
		Elements: []types.Element{
			table,
			{
				Key:  "actions",
				Kind: types.KindContainer,
				Children: []types.Element{
					{Key: "add", Kind: types.KindSubmit, Title: "Add"},
					{Key: "delete", Kind: types.KindSubmit, Title: "Delete"},
					{Key: "submit", Kind: types.KindSubmit, Title: "Save"},
				},
			},
		},
	}, nil
}

// complete reports whether a row has type, label and name. Incomplete rows
// are ignored on submit.
func complete(row map[string]any) bool {
	return valueString(row, "type") != "" && valueString(row, "label") != "" && valueString(row, "name") != ""
}

// Validate checks every complete row and rejects names used twice in the
// batch.
func (f *PropertiesForm) Validate(ctx context.Context, entityType string, st *State) (Errors, error) {
	if st == nil {
		st = &State{}
	}
	et, err := f.entityType(entityType)
	if err != nil {
		return nil, err
	}
	_, offered, err := f.offeredTypes()
	if err != nil {
		return nil, err
	}

	errs := Errors{}
	rows := valueRows(st.Values, "properties")
	seen := map[string]int{}
	for i := 0; i < ItemsCount(st); i++ {
		row := rows[i]
		if !complete(row) {
			continue
		}
		path := rowPath(i)
		if err := f.validateRow(et, row, offered, "", path, errs); err != nil {
			return nil, err
		}
		name := valueString(row, "name")
		if first, dup := seen[name]; dup {
			errs.add(path("name"), fmt.Sprintf("The machine name %s is also used by row %d.", name, first+1))
			continue
		}
		seen[name] = i
	}
	return errs, nil
}

// Submit saves every complete row and rebuilds the entity type once.
func (f *PropertiesForm) Submit(ctx context.Context, entityType string, st *State) (*Result, error) {
	if st == nil {
		st = &State{}
	}
	errs, err := f.Validate(ctx, entityType, st)
	if err != nil {
		return nil, err
	}
	if err := errs.errOrNil(); err != nil {
		return nil, err
	}

	rows := valueRows(st.Values, "properties")
	var (
		props    []types.Property
		messages []string
	)
	for i := 0; i < ItemsCount(st); i++ {
		if !complete(rows[i]) {
			continue
		}
		p := f.rowProperty(rows[i])
		props = append(props, p)
		messages = append(messages, fmt.Sprintf("Property %s has been added.", p.Label))
	}
	if err := f.svc.SaveProperties(ctx, entityType, props); err != nil {
		return nil, err
	}
	return &Result{Messages: messages, Redirect: st.redirect(listing.PropertiesPath(entityType))}, nil
}

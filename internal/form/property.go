package form

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/entityprop/internal/listing"
	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// PropertyFormID identifies the single-property form.
const PropertyFormID = "entity_property_form"

// PropertyForm adds or edits one property.
type PropertyForm struct {
	base
}

// NewPropertyForm creates the single-property form.
func NewPropertyForm(svc Service) *PropertyForm {
	return &PropertyForm{base{svc: svc}}
}

// prepare resolves the entity type and, when editing without a trigger,
// loads the stored property into the state.
func (f *PropertyForm) prepare(entityType, name string, st *State) (types.EntityType, *types.Property, error) {
	et, err := f.entityType(entityType)
	if err != nil {
		return et, nil, err
	}
	if name == "" {
		return et, nil, nil
	}
	p, err := f.svc.Property(et.ID, name)
	if err != nil {
		return et, nil, err
	}
	if st.Trigger == "" && st.Values == nil {
		st.Values = propertyValues(p)
	}
	return et, p, nil
}

// Build describes the form for entityType. A non-empty name edits the
// stored property of that name.
func (f *PropertyForm) Build(ctx context.Context, entityType, name string, st *State) (*types.Form, error) {
	if st == nil {
		st = &State{}
	}
	et, stored, err := f.prepare(entityType, name, st)
	if err != nil {
		return nil, err
	}
	groups, _, err := f.offeredTypes()
	if err != nil {
		return nil, err
	}
	hasData, err := f.hasData(ctx, et.ID, name)
	if err != nil {
		return nil, err
	}

	opts := rowOptions{typeOptions: groups, required: true, hasData: hasData}
	title := "Add property"
	if stored != nil {
		opts.original = stored.Name
		title = fmt.Sprintf("Edit property %s", stored.Label)
	}

	elements := f.rowElements(et, st.Values, opts)
	elements = append(elements, types.Element{
		Key:  "actions",
		Kind: types.KindContainer,
		Children: []types.Element{
			{Key: "submit", Kind: types.KindSubmit, Title: "Save"},
		},
	})
	return &types.Form{ID: PropertyFormID, Title: title, Elements: elements}, nil
}

// Validate checks the submitted values. Input errors are returned as
// Errors; other failures as error.
func (f *PropertyForm) Validate(ctx context.Context, entityType, name string, st *State) (Errors, error) {
	if st == nil {
		st = &State{}
	}
	et, stored, err := f.prepare(entityType, name, st)
	if err != nil {
		return nil, err
	}
	_, offered, err := f.offeredTypes()
	if err != nil {
		return nil, err
	}
	original := ""
	if stored != nil {
		original = stored.Name
		// A type disabled after the property was created stays valid for it.
		offered[stored.Type] = true
	}

	errs := Errors{}
	if err := f.validateRow(et, st.Values, offered, original, func(k string) string { return k }, errs); err != nil {
		return nil, err
	}
	return errs, nil
}

// Submit validates and saves the property, then rebuilds the entity type.
// Validation failures are returned as Errors. Editing a property whose
// field holds data fails with ErrHasData.
func (f *PropertyForm) Submit(ctx context.Context, entityType, name string, st *State) (*Result, error) {
	if st == nil {
		st = &State{}
	}
	errs, err := f.Validate(ctx, entityType, name, st)
	if err != nil {
		return nil, err
	}
	if err := errs.errOrNil(); err != nil {
		return nil, err
	}

	if name != "" {
		hasData, err := f.hasData(ctx, entityType, name)
		if err != nil {
			return nil, err
		}
		if hasData {
			return nil, &UserError{
				Message: fmt.Sprintf(msgEditHasData, name),
				Err:     fmt.Errorf("%w: %s.%s", types.ErrHasData, entityType, name),
			}
		}
	}

	p := f.rowProperty(st.Values)
	if err := f.svc.SaveProperties(ctx, entityType, []types.Property{p}); err != nil {
		return nil, err
	}

	verb := "added"
	if name != "" {
		verb = "updated"
	}
	return &Result{
		Messages: []string{fmt.Sprintf("Property %s has been %s.", p.Label, verb)},
		Redirect: st.redirect(listing.PropertiesPath(entityType)),
	}, nil
}

package form

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/entityprop/internal/listing"
	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// DeleteConfirmFormID identifies the delete confirmation.
const DeleteConfirmFormID = "entity_property_delete_confirm"

// DeleteConfirmForm asks before deleting a property.
type DeleteConfirmForm struct {
	base
}

// NewDeleteConfirmForm creates the delete confirmation.
func NewDeleteConfirmForm(svc Service) *DeleteConfirmForm {
	return &DeleteConfirmForm{base{svc: svc}}
}

// Question is the confirmation question for p.
func Question(p *types.Property) string {
	return fmt.Sprintf("Are you sure you want to delete the property %s(%s)?", p.Label, p.Name)
}

// Build describes the confirmation. A missing property yields a form
// titled accordingly that offers only the way back.
func (f *DeleteConfirmForm) Build(ctx context.Context, entityType, name string) (*types.Form, error) {
	et, err := f.entityType(entityType)
	if err != nil {
		return nil, err
	}
	cancel := types.Element{
		Key:    "cancel",
		Kind:   types.KindMarkup,
		Title:  "Cancel",
		Markup: listing.PropertiesPath(et.ID),
	}

	p, err := f.svc.Property(et.ID, name)
	if errors.Is(err, types.ErrPropertyNotFound) {
		return &types.Form{
			ID:    DeleteConfirmFormID,
			Title: fmt.Sprintf("The property %s not found", name),
			Elements: []types.Element{
				{Key: "actions", Kind: types.KindContainer, Children: []types.Element{cancel}},
			},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	return &types.Form{
		ID:    DeleteConfirmFormID,
		Title: Question(p),
		Elements: []types.Element{
			{Key: "description", Kind: types.KindMarkup, Markup: "This action cannot be undone."},
			{Key: "confirm", Kind: types.KindHidden, Default: 1},
			{
				Key:  "actions",
				Kind: types.KindContainer,
				Children: []types.Element{
					{Key: "submit", Kind: types.KindSubmit, Title: "Delete"},
					cancel,
				},
			},
		},
	}, nil
}

// Submit deletes the property. It fails with ErrHasData while storage holds
// values for it.
func (f *DeleteConfirmForm) Submit(ctx context.Context, entityType, name string, st *State) (*Result, error) {
	et, err := f.entityType(entityType)
	if err != nil {
		return nil, err
	}
	p, err := f.svc.DeleteProperty(ctx, et.ID, name)
	if err != nil {
		return nil, err
	}
	return &Result{
		Messages: []string{fmt.Sprintf("The property %s(%s) has been deleted", p.Label, p.Name)},
		Redirect: st.redirect(listing.PropertiesPath(et.ID)),
	}, nil
}

// Package listing renders the administrative overviews: the entity types
// that accept properties and the property table of one entity type.
package listing

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// Header is the column header of the property table.
var Header = []string{"Label", "Name", "Type", "Display configurable", "Operation(s)"}

// Service is what the listing reads. Implemented by entityprop.Service.
type Service interface {
	EntityType(id string) (types.EntityType, error)
	EntityTypes() []types.EntityType
	Settings() (types.Settings, error)
	Properties(entityTypeID string) ([]types.Property, error)
	FieldTypeLabel(id string) string
	HasData(ctx context.Context, entityTypeID, field string) (bool, error)
}

// TypeLink is one entry of the entity type overview.
type TypeLink struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Operation is a link offered on a property row.
type Operation struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Row is one line of the property table. Base rows describe base fields
// and never carry operations.
type Row struct {
	Label        string      `json:"label"`
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	Configurable string      `json:"configurable"`
	Operations   []Operation `json:"operations"`
	Base         bool        `json:"base,omitempty"`
}

// Table is the property table of an entity type.
type Table struct {
	Title  string   `json:"title"`
	Header []string `json:"header"`
	Rows   []Row    `json:"rows"`
}

// Listing builds the overviews.
type Listing struct {
	svc Service
}

// New creates a Listing.
func New(svc Service) *Listing {
	return &Listing{svc: svc}
}

// Types lists the entity types that opt into field UI.
func (l *Listing) Types() []TypeLink {
	var out []TypeLink
	for _, et := range l.svc.EntityTypes() {
		if !et.FieldUI {
			continue
		}
		out = append(out, TypeLink{ID: et.ID, Title: et.Label, Path: PropertiesPath(et.ID)})
	}
	return out
}

// Title is the page title of an entity type's property table.
func (l *Listing) Title(entityTypeID string) (string, error) {
	et, err := l.svc.EntityType(entityTypeID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Properties of %s", et.Label), nil
}

// Properties builds the property table. With show_all_properties on, the
// base fields come first. Edit and delete are offered only for properties
// without stored data.
func (l *Listing) Properties(ctx context.Context, entityTypeID string) (*Table, error) {
	et, err := l.svc.EntityType(entityTypeID)
	if err != nil {
		return nil, err
	}
	settings, err := l.svc.Settings()
	if err != nil {
		return nil, err
	}
	props, err := l.svc.Properties(et.ID)
	if err != nil {
		return nil, err
	}

	t := &Table{
		Title:  fmt.Sprintf("Properties of %s", et.Label),
		Header: append([]string(nil), Header...),
		Rows:   []Row{},
	}
	if settings.ShowAllProperties {
		for _, bf := range et.BaseFields {
			t.Rows = append(t.Rows, Row{
				Label:      bf.Label,
				Name:       bf.Name,
				Type:       l.svc.FieldTypeLabel(bf.Type),
				Operations: []Operation{},
				Base:       true,
			})
		}
	}

	for _, p := range props {
		row := Row{
			Label:        p.Label,
			Name:         p.Name,
			Type:         l.svc.FieldTypeLabel(p.Type),
			Configurable: p.ConfigurableLabel(),
			Operations:   []Operation{},
		}
		hasData, err := l.svc.HasData(ctx, et.ID, p.Name)
		if err != nil {
			return nil, err
		}
		if !hasData {
			row.Operations = append(row.Operations,
				Operation{Title: "Edit", Path: EditPath(et.ID, p.Name)},
				Operation{Title: "Delete", Path: DeletePath(et.ID, p.Name)},
			)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

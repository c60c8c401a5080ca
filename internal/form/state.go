// Package form builds, validates and submits the property editor forms.
// Forms are described as element trees (types.Form) and driven by a
// per-request State, so any client can render them.
package form

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/entityprop/internal/fieldtype"
	"github.com/mesh-intelligence/entityprop/internal/selection"
	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// Service is what the forms need from the property service. Implemented
// by entityprop.Service.
type Service interface {
	EntityType(id string) (types.EntityType, error)
	EntityTypeLabels() []types.Option
	DefaultTargetType() string
	FieldTypes() []*fieldtype.Type
	FieldTypeOptions() ([]types.OptionGroup, error)
	AllSelection(targetType string) []types.Option
	CreateInstance(fieldType string, def *types.FieldDefinition) (*fieldtype.Item, error)
	SelectionHandler(id, target string) (*selection.Handler, error)

	Property(entityTypeID, name string) (*types.Property, error)
	Exists(entityTypeID, name string) (bool, error)
	CheckPropertyName(entityTypeID, name string) error
	HasData(ctx context.Context, entityTypeID, field string) (bool, error)
	SaveProperties(ctx context.Context, entityTypeID string, ps []types.Property) error
	DeleteProperty(ctx context.Context, entityTypeID, name string) (*types.Property, error)
	Settings() (types.Settings, error)
	SaveSettings(settings types.Settings) error
}

// State is the transient state of one form interaction.
type State struct {
	// Values holds the submitted input, nested the way the form's element
	// tree is nested.
	Values map[string]any `json:"values,omitempty"`
	// Trigger is the key of the reactive element that caused a rebuild.
	Trigger string `json:"trigger,omitempty"`
	// ItemsCount is the number of rows of the multi-row form.
	ItemsCount int `json:"items_count,omitempty"`
	// Destination overrides the redirect after a successful submit.
	Destination string `json:"destination,omitempty"`
}

// Result is the outcome of a successful submit.
type Result struct {
	Messages []string `json:"messages"`
	Redirect string   `json:"redirect"`
}

func (st *State) redirect(fallback string) string {
	if st != nil && st.Destination != "" {
		return st.Destination
	}
	return fallback
}

// Errors maps element paths such as "name" or "properties.1.label" to
// messages. A non-empty Errors is returned as the error of Submit.
type Errors map[string]string

// Error lists the messages ordered by path.
func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e Errors) add(path, msg string) {
	if _, ok := e[path]; !ok {
		e[path] = msg
	}
}

func (e Errors) errOrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// UserError is an error whose message is shown to the person using the
// form. It wraps the sentinel describing the failure.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Err }

func (f *base) entityType(id string) (types.EntityType, error) {
	et, err := f.svc.EntityType(id)
	if err != nil {
		return types.EntityType{}, &UserError{
			Message: fmt.Sprintf("The %q entity type does not exist.", id),
			Err:     err,
		}
	}
	return et, nil
}

type base struct {
	svc Service
}

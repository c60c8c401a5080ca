package types

import (
	"errors"
	"testing"
)

func TestFieldDefinitionColumnName(t *testing.T) {
	single := &FieldDefinition{Name: "priority", Columns: []Column{{Name: "value", Type: ColumnInt}}}
	if got := single.ColumnName(single.Columns[0]); got != "priority" {
		t.Errorf("single column name = %q, want priority", got)
	}

	multi := &FieldDefinition{Name: "homepage", Columns: []Column{
		{Name: "uri", Type: ColumnText},
		{Name: "title", Type: ColumnVarchar, Length: 255},
	}}
	if got := multi.ColumnName(multi.Columns[1]); got != "homepage__title" {
		t.Errorf("multi column name = %q, want homepage__title", got)
	}
}

func TestFieldDefinitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		def     FieldDefinition
		wantErr bool
	}{
		{
			name: "valid",
			def:  FieldDefinition{Name: "priority", TargetEntityType: "node", Columns: []Column{{Name: "value", Type: ColumnInt}}},
		},
		{
			name:    "no columns",
			def:     FieldDefinition{Name: "priority", TargetEntityType: "node"},
			wantErr: true,
		},
		{
			name:    "bad entity type",
			def:     FieldDefinition{Name: "priority", TargetEntityType: "node; drop", Columns: []Column{{Name: "value", Type: ColumnInt}}},
			wantErr: true,
		},
		{
			name:    "scale exceeds precision",
			def:     FieldDefinition{Name: "price", TargetEntityType: "node", Columns: []Column{{Name: "value", Type: ColumnNumeric, Precision: 4, Scale: 6}}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidDefinition) {
				t.Fatalf("Validate() = %v, want ErrInvalidDefinition", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}

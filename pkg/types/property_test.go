package types

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateMachineName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "priority", false},
		{"digits and underscores", "field_2", false},
		{"empty", "", true},
		{"uppercase", "Priority", true},
		{"dash", "due-date", true},
		{"reserved", "custom", true},
		{"reserved as prefix is fine", "custom_value", false},
		{"max length", strings.Repeat("a", MachineNameMaxLength), false},
		{"too long", strings.Repeat("a", MachineNameMaxLength+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMachineName(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidName) {
					t.Fatalf("ValidateMachineName(%q) = %v, want ErrInvalidName", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateMachineName(%q) = %v, want nil", tt.input, err)
			}
		})
	}
}

func TestNormalizeReference(t *testing.T) {
	t.Run("defaults target and handler", func(t *testing.T) {
		p := &Property{Name: "author", Type: FieldTypeEntityReference}
		p.Normalize("")
		if got := SettingString(p.Settings, SettingTargetType); got != "node" {
			t.Errorf("target_type = %q, want node", got)
		}
		if got := SettingString(p.Settings, SettingHandler); got != "default:node" {
			t.Errorf("handler = %q, want default:node", got)
		}
	})

	t.Run("handler follows explicit target", func(t *testing.T) {
		p := &Property{Name: "owner", Type: FieldTypeEntityReference, Settings: map[string]any{"target_type": "user"}}
		p.Normalize("")
		if got := SettingString(p.Settings, SettingHandler); got != "default:user" {
			t.Errorf("handler = %q, want default:user", got)
		}
	})

	t.Run("keeps explicit handler", func(t *testing.T) {
		p := &Property{Type: FieldTypeEntityReference, Settings: map[string]any{"target_type": "user", "handler": "views"}}
		p.Normalize("")
		if got := SettingString(p.Settings, SettingHandler); got != "views" {
			t.Errorf("handler = %q, want views", got)
		}
	})

	t.Run("configured default target", func(t *testing.T) {
		p := &Property{Type: FieldTypeEntityReference}
		p.Normalize("taxonomy_term")
		if got := SettingString(p.Settings, SettingHandler); got != "default:taxonomy_term" {
			t.Errorf("handler = %q, want default:taxonomy_term", got)
		}
	})

	t.Run("non reference untouched", func(t *testing.T) {
		p := &Property{Type: "integer"}
		p.Normalize("")
		if p.Settings != nil {
			t.Errorf("settings = %v, want nil", p.Settings)
		}
		if p.Configurable == nil {
			t.Error("configurable map not allocated")
		}
	})
}

func TestConfigurableLabel(t *testing.T) {
	p := &Property{Configurable: map[string]bool{"view": true, "form": true, "teaser": false}}
	if got := p.ConfigurableLabel(); got != "Form, View" {
		t.Errorf("ConfigurableLabel() = %q, want %q", got, "Form, View")
	}
	p.Configurable = map[string]bool{"view": true}
	if got := p.ConfigurableLabel(); got != "View" {
		t.Errorf("ConfigurableLabel() = %q, want View", got)
	}
	p.Configurable = nil
	if got := p.ConfigurableLabel(); got != "" {
		t.Errorf("ConfigurableLabel() = %q, want empty", got)
	}
}

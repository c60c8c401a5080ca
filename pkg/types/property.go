package types

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Display contexts a property can be made configurable in.
const (
	ContextForm = "form"
	ContextView = "view"
)

// DisplayContexts lists the display contexts in presentation order.
var DisplayContexts = []string{ContextForm, ContextView}

// Reference properties.
const (
	FieldTypeEntityReference = "entity_reference"

	SettingTargetType      = "target_type"
	SettingHandler         = "handler"
	SettingHandlerSettings = "handler_settings"

	// DefaultTargetType is the entity type a reference property points at
	// when no target type was chosen.
	DefaultTargetType = "node"
)

// Machine name constraints.
const (
	MachineNameMaxLength = 32
	LabelMaxLength       = 255
	reservedMachineName  = "custom"
)

var machineNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Property is a user-declared field attached to an entity type.
type Property struct {
	Name         string          `json:"name" yaml:"name"`
	Label        string          `json:"label" yaml:"label"`
	Type         string          `json:"type" yaml:"type"`
	Settings     map[string]any  `json:"settings,omitempty" yaml:"settings,omitempty"`
	Required     bool            `json:"required" yaml:"required"`
	Configurable map[string]bool `json:"configurable,omitempty" yaml:"configurable,omitempty"`
}

// ValidateMachineName checks the format of a property machine name. It does
// not check uniqueness; that needs the store.
func ValidateMachineName(name string) error {
	if name == "" {
		return ErrInvalidName
	}
	if len(name) > MachineNameMaxLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidName, MachineNameMaxLength)
	}
	if !machineNamePattern.MatchString(name) || name == reservedMachineName {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// IsReference reports whether the property references another entity type.
func (p *Property) IsReference() bool {
	return p.Type == FieldTypeEntityReference
}

// Normalize fills in the settings every reference property must carry.
// target_type defaults to defaultTarget (DefaultTargetType when empty) and
// handler defaults to "default:<target_type>". Non-reference properties are
// left untouched apart from a nil Configurable map being allocated.
func (p *Property) Normalize(defaultTarget string) {
	if p.Configurable == nil {
		p.Configurable = map[string]bool{}
	}
	if !p.IsReference() {
		return
	}
	if p.Settings == nil {
		p.Settings = map[string]any{}
	}
	target := SettingString(p.Settings, SettingTargetType)
	if target == "" {
		target = defaultTarget
		if target == "" {
			target = DefaultTargetType
		}
		p.Settings[SettingTargetType] = target
	}
	if SettingString(p.Settings, SettingHandler) == "" {
		p.Settings[SettingHandler] = DefaultHandler(target)
	}
}

// DefaultHandler returns the default selection handler id for a target
// entity type.
func DefaultHandler(targetType string) string {
	return "default:" + targetType
}

// ConfigurableContexts returns the enabled display contexts, in
// presentation order, followed by any unknown enabled contexts sorted.
func (p *Property) ConfigurableContexts() []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range DisplayContexts {
		seen[c] = true
		if p.Configurable[c] {
			out = append(out, c)
		}
	}
	var extra []string
	for c, on := range p.Configurable {
		if on && !seen[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// ConfigurableLabel renders the enabled contexts for listings, e.g.
// "Form, View".
func (p *Property) ConfigurableLabel() string {
	ctxs := p.ConfigurableContexts()
	for i, c := range ctxs {
		ctxs[i] = capitalize(c)
	}
	return strings.Join(ctxs, ", ")
}

// SettingString reads a string setting, returning "" when absent or not a
// string.
func SettingString(settings map[string]any, key string) string {
	if settings == nil {
		return ""
	}
	s, _ := settings[key].(string)
	return strings.TrimSpace(s)
}

// Casers are stateful, so each call gets its own.
func capitalize(s string) string {
	return cases.Title(language.English).String(s)
}

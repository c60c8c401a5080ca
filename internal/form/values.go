package form

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/entityprop/pkg/types"
)

func valueString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func valueBool(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	return truthy(m[key])
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case string:
		b, err := strconv.ParseBool(x)
		if err == nil {
			return b
		}
		return x == "yes" || x == "on"
	}
	return false
}

func valueMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	if sub, ok := m[key].(map[string]any); ok {
		return sub
	}
	return nil
}

// valueSet reads checkboxes input. Both a list of checked keys and a map of
// key to checked state are accepted.
func valueSet(m map[string]any, key string) map[string]bool {
	out := map[string]bool{}
	if m == nil {
		return out
	}
	switch v := m[key].(type) {
	case []any:
		for _, item := range v {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out[s] = true
			}
		}
	case []string:
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out[s] = true
			}
		}
	case map[string]any:
		for k, on := range v {
			// Checkbox maps post the key itself as the checked value.
			if s, ok := on.(string); ok && s == k {
				out[k] = true
				continue
			}
			if truthy(on) {
				out[k] = true
			}
		}
	case map[string]bool:
		for k, on := range v {
			if on {
				out[k] = true
			}
		}
	}
	return out
}

// valueRows reads the rows of the multi-row form, given as a list or as a
// map keyed by row index.
func valueRows(m map[string]any, key string) map[int]map[string]any {
	out := map[int]map[string]any{}
	if m == nil {
		return out
	}
	switch v := m[key].(type) {
	case []any:
		for i, row := range v {
			if r, ok := row.(map[string]any); ok {
				out[i] = r
			}
		}
	case map[string]any:
		for k, row := range v {
			i, err := strconv.Atoi(k)
			if err != nil {
				continue
			}
			if r, ok := row.(map[string]any); ok {
				out[i] = r
			}
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k, on := range m {
		if on {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var machineNameReplace = regexp.MustCompile(`[^a-z0-9_]+`)

// MachineName derives a machine name from a label: lowercased, runs of
// other characters replaced by "_", trimmed to the maximum length.
func MachineName(label string) string {
	name := machineNameReplace.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), "_")
	name = strings.Trim(name, "_")
	if len(name) > types.MachineNameMaxLength {
		name = strings.TrimRight(name[:types.MachineNameMaxLength], "_")
	}
	if name == "custom" {
		name = "custom_"
	}
	return name
}

// propertyValues turns a stored property into form input.
func propertyValues(p *types.Property) map[string]any {
	configurable := map[string]any{}
	for c, on := range p.Configurable {
		configurable[c] = on
	}
	return map[string]any{
		"type":         p.Type,
		"label":        p.Label,
		"name":         p.Name,
		"required":     p.Required,
		"configurable": configurable,
		"settings":     cloneMap(p.Settings),
	}
}

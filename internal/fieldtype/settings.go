package fieldtype

import (
	"encoding/json"
	"strconv"
	"strings"
)

// IntSetting reads an integer setting. Values decoded from YAML, JSON or
// form input arrive as different Go types; all numeric forms and numeric
// strings are accepted.
func IntSetting(settings map[string]any, key string, def int) int {
	if settings == nil {
		return def
	}
	switch v := settings[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// BoolSetting reads a boolean setting, accepting booleans, numbers and the
// strings "1", "true" and "yes".
func BoolSetting(settings map[string]any, key string, def bool) bool {
	if settings == nil {
		return def
	}
	switch v := settings[key].(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off", "":
			return false
		}
	}
	return def
}

// StringSetting reads a string setting.
func StringSetting(settings map[string]any, key, def string) string {
	if settings == nil {
		return def
	}
	if s, ok := settings[key].(string); ok {
		return s
	}
	return def
}

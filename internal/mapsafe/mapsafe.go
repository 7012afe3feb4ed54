// Package mapsafe reads typed values out of loosely decoded JSON documents.
package mapsafe

import "encoding/json"

// Get retrieves a typed value from a map[string]any.
// If the key is missing or the type cannot be converted, it returns the default value.
func Get[T any](m map[string]any, key string, defaultValue T) T {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}

	switch any(defaultValue).(type) {
	case int:
		if n, ok := toFloat(val); ok {
			return any(int(n)).(T)
		}
	case float64:
		if n, ok := toFloat(val); ok {
			return any(n).(T)
		}
	case string:
		if s, ok := val.(string); ok {
			return any(s).(T)
		}
	case bool:
		if b, ok := val.(bool); ok {
			return any(b).(T)
		}
	default:
		if v, ok := val.(T); ok {
			return v
		}
	}

	return defaultValue
}

func toFloat(val any) (float64, bool) {
	switch x := val.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}

	return 0, false
}

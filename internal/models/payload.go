package models

import (
	"encoding/json"
	"strings"
)

// Payload holds untyped vendor data such as tool_input.
// Accessors never fail: an absent key or a value of the wrong type
// is reported through the boolean result.
type Payload map[string]any

// Get retrieves a raw value.
func (p Payload) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	value, ok := p[key]
	return value, ok
}

// GetString retrieves a string value.
// Returns the value and true if found, empty string and false if not found.
func (p Payload) GetString(key string) (string, bool) {
	value, ok := p.Get(key)
	if !ok {
		return "", false
	}

	strValue, ok := value.(string)
	if !ok {
		return "", false
	}

	return strValue, true
}

// GetBool retrieves a boolean value.
// Returns the value and true if found, false and false if not found.
func (p Payload) GetBool(key string) (bool, bool) {
	value, ok := p.Get(key)
	if !ok {
		return false, false
	}

	boolValue, ok := value.(bool)
	if !ok {
		return false, false
	}

	return boolValue, true
}

// Lookup resolves a dotted path such as "options.recursive".
// Every intermediate segment must be an object.
func (p Payload) Lookup(path string) (any, bool) {
	if p == nil || path == "" {
		return nil, false
	}

	var current any = map[string]any(p)
	for _, segment := range strings.Split(path, ".") {
		object, ok := asObject(current)
		if !ok {
			return nil, false
		}
		current, ok = object[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// SetDefault stores value under key unless the key is already present.
func (p Payload) SetDefault(key string, value any) {
	if _, exists := p[key]; exists {
		return
	}
	p[key] = value
}

// Clone returns a shallow copy of the payload. A nil payload stays nil.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func asObject(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case Payload:
		return v, true
	default:
		return nil, false
	}
}

// JSONType reports the JSON type name of a decoded value:
// string, number, boolean, array, object, null or unknown.
func JSONType(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any, Payload:
		return "object"
	default:
		return "unknown"
	}
}

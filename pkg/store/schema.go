package store

import (
	"encoding/json"
	"fmt"
)

// Value is a single element stored under a key. It holds JSON-compatible data:
// strings, numbers, booleans, nil, []any and map[string]any.
type Value = any

// ValueType names the kind of a Value, using JSON type names.
type ValueType string

const (
	// Any disables the type constraint.
	Any     ValueType = ""
	String  ValueType = "string"
	Number  ValueType = "number"
	Bool    ValueType = "boolean"
	Object  ValueType = "object"
	Array   ValueType = "array"
	Null    ValueType = "null"
	Unknown ValueType = "unknown"
)

// Schema is fixed when a Store is created.
type Schema struct {
	// Unique limits every key to at most one value.
	Unique bool `json:"unique"`

	// Type, when set, is the only ValueType accepted.
	Type ValueType `json:"type,omitempty"`
}

// TypeOf reports the ValueType of v.
func TypeOf(v Value) ValueType {
	switch v.(type) {
	case nil:
		return Null
	case string:
		return String
	case bool:
		return Bool
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return Number
	case map[string]any:
		return Object
	case []any, []string:
		return Array
	default:
		return Unknown
	}
}

// ParseValueType converts a type name such as "string" into a ValueType.
// The empty string and "any" both mean no constraint.
func ParseValueType(name string) (ValueType, error) {
	switch name {
	case "", "any":
		return Any, nil
	case "string", "number", "boolean", "object", "array":
		return ValueType(name), nil
	}
	return Any, fmt.Errorf("unknown value type %q", name)
}

// accepts reports whether v satisfies the schema type.
func (sc Schema) accepts(v Value) bool {
	if sc.Type == Any {
		return true
	}
	return TypeOf(v) == sc.Type
}

func (sc Schema) checkValues(values []Value) error {
	for i, v := range values {
		if !sc.accepts(v) {
			return fmt.Errorf("%w: value %d is %s, want %s", ErrInvalidValueType, i, TypeOf(v), sc.Type)
		}
	}
	return nil
}

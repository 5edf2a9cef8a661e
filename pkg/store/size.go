package store

import (
	"encoding/json"
	"fmt"
)

// sizeOf counts string bytes, 8 per number and 4 per boolean, recursing into
// maps and slices. Map keys are not counted.
func sizeOf(v Value) int {
	switch t := v.(type) {
	case string:
		return len(t)
	case bool:
		return 4
	case []Value:
		total := 0
		for _, e := range t {
			total += sizeOf(e)
		}
		return total
	case []string:
		total := 0
		for _, e := range t {
			total += len(e)
		}
		return total
	case map[string]any:
		total := 0
		for _, e := range t {
			total += sizeOf(e)
		}
		return total
	}
	if TypeOf(v) == Number {
		return 8
	}
	return 0
}

func cloneValues(values []Value) []Value {
	out := make([]Value, len(values))
	for i, v := range values {
		out[i] = cloneValue(v)
	}
	return out
}

func cloneValue(v Value) Value {
	switch t := v.(type) {
	case []Value:
		return cloneValues(t)
	case []string:
		return append([]string(nil), t...)
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	}
	return v
}

// Text renders a value as template text. Strings are returned unchanged,
// objects and arrays are encoded as JSON and everything else uses fmt.
func Text(v Value) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case map[string]any, []Value, []string:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}

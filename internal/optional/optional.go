// Package optional provides a JSON field wrapper that records whether the
// field appeared in the payload, so patch requests can tell "absent" apart
// from "set to the zero value" and from an explicit null.
package optional

import (
	"bytes"
	"encoding/json"
)

// Value holds a possibly-absent, possibly-null T.
type Value[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a present, non-null value.
func Some[T any](v T) Value[T] {
	return Value[T]{Set: true, Value: v}
}

// Null returns a present value that was explicitly null.
func Null[T any]() Value[T] {
	return Value[T]{Set: true, Null: true}
}

// Get returns the value and whether it is present and non-null.
func (v Value[T]) Get() (T, bool) {
	return v.Value, v.Set && !v.Null
}

// UnmarshalJSON is only invoked by encoding/json when the key is present.
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	v.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		v.Null = true
		v.Value = zero
		return nil
	}
	v.Null = false
	return json.Unmarshal(data, &v.Value)
}

// MarshalJSON writes null for absent or null values.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.Set || v.Null {
		return []byte("null"), nil
	}
	return json.Marshal(v.Value)
}

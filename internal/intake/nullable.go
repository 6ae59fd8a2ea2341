package intake

import (
	"bytes"
	"encoding/json"
)

// Nullable holds a value that the form may leave blank. A present JSON null
// decodes to an invalid Nullable; a missing key is rejected by the schema.
type Nullable[T any] struct {
	Value T
	Valid bool
}

// Some returns a valid Nullable.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Value: v, Valid: true}
}

// None returns an empty Nullable.
func None[T any]() Nullable[T] {
	return Nullable[T]{}
}

// Get returns the value and whether it is set.
func (n Nullable[T]) Get() (T, bool) {
	return n.Value, n.Valid
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		n.Value, n.Valid = zero, false
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

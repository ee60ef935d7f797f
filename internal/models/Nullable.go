package models

import (
	"bytes"

	json "github.com/goccy/go-json"
)

var jsonNull = []byte("null")

// Nullable is an optional value. The zero value is absent and encodes as
// JSON null.
type Nullable[T any] struct {
	Value T
	Valid bool
}

func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Value: v, Valid: true}
}

func None[T any]() Nullable[T] {
	return Nullable[T]{}
}

func (n Nullable[T]) Get() (T, bool) {
	return n.Value, n.Valid
}

func (n Nullable[T]) OrElse(def T) T {
	if !n.Valid {
		return def
	}
	return n.Value
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return jsonNull, nil
	}
	return json.Marshal(n.Value)
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*n = Nullable[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Nullable[T]{Value: v, Valid: true}
	return nil
}

package models

import (
	"bytes"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
)

// Optional is a tagged option for nullable fields. The zero value is None.
// It maps to a nullable column and to JSON null.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an empty Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsSome reports whether a value is present.
func (o Optional[T]) IsSome() bool { return o.ok }

// OrElse returns the value, or fallback when empty.
func (o Optional[T]) OrElse(fallback T) T {
	if o.ok {
		return o.value
	}
	return fallback
}

// MarshalJSON implements json.Marshaler.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// Scan implements sql.Scanner.
func (o *Optional[T]) Scan(src any) error {
	var n sql.Null[T]
	if err := n.Scan(src); err != nil {
		return err
	}
	o.value, o.ok = n.V, n.Valid
	return nil
}

// Value implements driver.Valuer, delegating to the wrapped value when it is
// itself a Valuer (decimal amounts, for example).
func (o Optional[T]) Value() (driver.Value, error) {
	if !o.ok {
		return nil, nil
	}
	if v, ok := any(o.value).(driver.Valuer); ok {
		return v.Value()
	}
	return o.value, nil
}

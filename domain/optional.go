package domain

import "github.com/bytedance/sonic"

// Optional marks a field of a partial update. A field that is absent from the
// payload, or explicitly null, is left unset and must not touch the entity.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Get returns the value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// ApplyTo copies the value into dst when set.
func (o Optional[T]) ApplyTo(dst *T) {
	if o.Set {
		*dst = o.Value
	}
}

// ApplyToPtr stores a pointer to the value into dst when set.
func (o Optional[T]) ApplyToPtr(dst **T) {
	if o.Set {
		v := o.Value
		*dst = &v
	}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := sonic.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = v
	o.Set = true
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return sonic.Marshal(o.Value)
}

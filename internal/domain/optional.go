package domain

// Optional is a patch field that is either unset or set to a value. Setting a
// pointer-typed Optional to nil is distinct from leaving it unset.
type Optional[T any] struct {
	value   T
	present bool
}

// Set returns an Optional holding v.
func Set[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// Unset returns an empty Optional.
func Unset[T any]() Optional[T] {
	return Optional[T]{}
}

// IsSet reports whether a value is present.
func (o Optional[T]) IsSet() bool {
	return o.present
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

// Value returns the value, or the zero value when unset.
func (o Optional[T]) Value() T {
	return o.value
}

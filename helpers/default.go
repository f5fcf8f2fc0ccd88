package helpers

// Default returns fallback when value is the zero value of its type.
// Use it only where the zero value means "not set".
func Default[T comparable](value T, fallback T) T {
	var zero T
	if value == zero {
		return fallback
	}
	return value
}

// DefaultPositive returns fallback unless value is greater than zero. It suits
// sizes, counts and durations where zero and negative values are both unusable.
func DefaultPositive[T ~int | ~int32 | ~int64](value T, fallback T) T {
	if value <= 0 {
		return fallback
	}
	return value
}

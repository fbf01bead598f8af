package utils

// Ptr returns a pointer to the given value. Test helper.
func Ptr[T any](v T) *T {
	return &v
}

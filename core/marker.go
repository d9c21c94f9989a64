package core

// MethodMarker is the metadata attached to a method designated for invocation.
// It is immutable once attached to a registry entry.
type MethodMarker struct {
	// ReturnType is the expected type of the value returned by the marked method.
	// Defaults to AnyObject.
	ReturnType ReturnType
}

// MarkerOption customizes a MethodMarker.
type MarkerOption func(*MethodMarker)

// NewMethodMarker builds a marker. Without options the return type is AnyObject.
func NewMethodMarker(opts ...MarkerOption) MethodMarker {
	marker := MethodMarker{ReturnType: AnyObject}
	for _, opt := range opts {
		if opt != nil {
			opt(&marker)
		}
	}
	if marker.ReturnType.IsAny() {
		marker.ReturnType = AnyObject
	}
	return marker
}

// WithReturnType declares the expected return type of the marked method.
func WithReturnType(rt ReturnType) MarkerOption {
	return func(m *MethodMarker) {
		m.ReturnType = rt
	}
}

// Returns declares T as the expected return type of the marked method.
func Returns[T any]() MarkerOption {
	return WithReturnType(TypeOf[T]())
}

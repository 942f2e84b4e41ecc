package resp

const (
	// defaultMaxDepth bounds how deeply a Decoder follows nested arrays.
	defaultMaxDepth = 512

	// maxEncodeDepth bounds nesting so a List that contains itself fails instead
	// of overflowing the stack.
	maxEncodeDepth = 1000
)

func (o DecodeOptions) withDefaults() DecodeOptions {
	o.MaxDepth = coalesce(o.MaxDepth, defaultMaxDepth)
	o.Logger = coalesce[Logger](o.Logger, NopLogger{})
	return o
}

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

package engine

// Helper is a named template function. Arguments arrive already resolved and
// the result is stringified into the output.
type Helper func(args ...any) any

// Helpers maps helper names to functions.
type Helpers map[string]Helper

// Merge returns a new table holding h overlaid with overrides. Neither input
// is modified.
func (h Helpers) Merge(overrides Helpers) Helpers {
	out := make(Helpers, len(h)+len(overrides))
	for name, fn := range h {
		out[name] = fn
	}
	for name, fn := range overrides {
		out[name] = fn
	}
	return out
}

// Lookup returns the helper registered under name.
func (h Helpers) Lookup(name string) (Helper, bool) {
	fn, ok := h[name]
	return fn, ok && fn != nil
}

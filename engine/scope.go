package engine

import (
	"strings"

	"github.com/ohler55/ojg/jp"
)

// Scope is an immutable, ordered list of data layers. Paths are resolved
// against the innermost layer that defines their first segment, so a field
// pushed by an inner layer shadows the outer field of the same name without
// touching the outer data.
type Scope struct {
	layers []any // outermost first
}

// NewScope returns a scope with data as its only layer. A *Scope is returned
// as is.
func NewScope(data any) *Scope {
	if s, ok := data.(*Scope); ok {
		return s
	}
	return &Scope{layers: []any{data}}
}

// With returns a new scope with layer added innermost. The receiver is left
// unchanged.
func (s *Scope) With(layer any) *Scope {
	layers := make([]any, len(s.layers), len(s.layers)+1)
	copy(layers, s.layers)
	return &Scope{layers: append(layers, layer)}
}

// Lookup returns the value bound to key by the innermost layer that has it.
func (s *Scope) Lookup(key string) (any, bool) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if v, ok := lookupKey(s.layers[i], key); ok {
			return v, true
		}
	}
	return nil, false
}

// Resolve resolves a dot-separated path. It returns nil when any segment is
// missing or an intermediate value is not an object.
func (s *Scope) Resolve(path string) any {
	head, rest, nested := strings.Cut(path, ".")
	v, ok := s.Lookup(head)
	if !ok {
		return nil
	}
	if !nested {
		return v
	}
	return Resolve(v, rest)
}

// Resolve walks a dot-separated path through data. Segments are plain names;
// there is no index syntax, so a segment applied to an array, a scalar or nil
// yields nil.
func Resolve(data any, path string) any {
	if data == nil {
		return nil
	}
	if s, ok := data.(*Scope); ok {
		return s.Resolve(path)
	}
	segs := strings.Split(path, ".")
	x := jp.C(segs[0])
	for _, seg := range segs[1:] {
		x = x.C(seg)
	}
	if got := x.Get(data); len(got) > 0 {
		return got[0]
	}
	return nil
}

func lookupKey(layer any, key string) (any, bool) {
	switch m := layer.(type) {
	case nil:
		return nil, false
	case map[string]any:
		v, ok := m[key]
		return v, ok
	}
	if got := jp.C(key).Get(layer); len(got) > 0 {
		return got[0], true
	}
	return nil, false
}

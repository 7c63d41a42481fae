package engine

import (
	"errors"
	"fmt"
)

// ErrMaxDepth is returned when block nesting exceeds the renderer's limit.
var ErrMaxDepth = errors.New("engine: maximum block nesting depth exceeded")

// ParseError reports malformed block markup: an opening tag with no matching
// close, a close tag with no opening, or an {{else}} outside an {{#if}} body.
// Offset is the byte offset of Tag within the template text being rendered,
// which for nested blocks is the enclosing block body.
type ParseError struct {
	Offset int
	Tag    string
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("engine: %s %s at offset %d", e.Msg, e.Tag, e.Offset)
}

// HelperError wraps a panic raised by a helper function.
type HelperError struct {
	Name  string
	Value any
}

func (e *HelperError) Error() string {
	return fmt.Sprintf("engine: helper %q panicked: %v", e.Name, e.Value)
}

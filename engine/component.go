package engine

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Component returns a templ.Component that renders tpl against data when it
// is rendered, so engine output can be composed with templ views and written
// through templ's HTTP helpers.
func (r *Renderer) Component(tpl string, data any, helpers Helpers) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out, err := r.Render(tpl, data, helpers)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	})
}

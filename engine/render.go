// Package engine implements the page template language: {{path}}
// interpolation, {{#each}} iteration, {{#if}}/{{else}} and {{#unless}}
// conditionals and {{helper arg ...}} calls, evaluated against a layered
// data scope.
//
// A template is rewritten by four passes in a fixed order: each-blocks,
// if/unless-blocks, helper calls, then plain interpolation. Block bodies are
// rendered as independent templates with the scope in effect for the block,
// so a condition inside a loop body sees the loop's bindings. The output of a
// block is final: markup that reaches it from data is not evaluated again.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// DefaultMaxDepth is the block nesting limit used when none is configured.
const DefaultMaxDepth = 64

var (
	reTag         = regexp.MustCompile(`\{\{([^{}]*)\}\}`)
	reHelper      = regexp.MustCompile(`\{\{\s*([A-Za-z_$][\w$]*)\s+([^\s{}][^{}]*?)\s*\}\}`)
	reArg         = regexp.MustCompile(`"[^"]*"|'[^']*'|\S+`)
	reNumber      = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	reInterpolate = regexp.MustCompile(`\{\{\s*([^\s{}#/][^\s{}]*)\s*\}\}`)
)

// Renderer renders templates. The zero value is not usable; call New.
// A Renderer holds no per-render state and is safe for concurrent use.
type Renderer struct {
	maxDepth int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMaxDepth sets how deeply blocks may nest before rendering fails with
// ErrMaxDepth. Values below 1 select DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// New returns a Renderer configured by opts.
func New(opts ...Option) *Renderer {
	r := &Renderer{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxDepth returns the configured nesting limit.
func (r *Renderer) MaxDepth() int {
	return r.maxDepth
}

var defaultRenderer = New()

// Render renders tpl against data with the default Renderer.
func Render(tpl string, data any, helpers Helpers) (string, error) {
	return defaultRenderer.Render(tpl, data, helpers)
}

// Render renders tpl against data. data may be any value Resolve understands
// or a *Scope built by the caller.
func (r *Renderer) Render(tpl string, data any, helpers Helpers) (string, error) {
	return r.render([]segment{{text: tpl}}, NewScope(data), helpers, 0)
}

// segment is a piece of text being rendered. Block output is added as a
// done segment: it has already been through every pass and later passes
// leave it alone, so markup appearing in data is never evaluated.
type segment struct {
	text string
	done bool
}

// pos addresses a byte within a segment list.
type pos struct {
	seg, off int
}

func hasMarkup(segs []segment) bool {
	for _, sg := range segs {
		if !sg.done && strings.Contains(sg.text, "{{") {
			return true
		}
	}
	return false
}

func join(segs []segment) string {
	var b strings.Builder
	for _, sg := range segs {
		b.WriteString(sg.text)
	}
	return b.String()
}

// between returns the segments spanning from up to to.
func between(segs []segment, from, to pos) []segment {
	var out []segment
	for i := from.seg; i <= to.seg && i < len(segs); i++ {
		sg := segs[i]
		lo, hi := 0, len(sg.text)
		if i == from.seg {
			lo = from.off
		}
		if i == to.seg {
			hi = to.off
		}
		if lo < hi {
			out = append(out, segment{text: sg.text[lo:hi], done: sg.done})
		}
	}
	return out
}

func endPos(segs []segment) pos {
	if len(segs) == 0 {
		return pos{}
	}
	last := len(segs) - 1
	return pos{seg: last, off: len(segs[last].text)}
}

// offset converts p to a byte offset in the joined text.
func offset(segs []segment, p pos) int {
	n := p.off
	for _, sg := range segs[:p.seg] {
		n += len(sg.text)
	}
	return n
}

func (r *Renderer) render(segs []segment, sc *Scope, h Helpers, depth int) (string, error) {
	if depth > r.maxDepth {
		return "", fmt.Errorf("%w (limit %d)", ErrMaxDepth, r.maxDepth)
	}
	if !hasMarkup(segs) {
		return join(segs), nil
	}
	segs, err := r.eachPass(segs, sc, h, depth)
	if err != nil {
		return "", err
	}
	segs, err = r.conditionalPass(segs, sc, h, depth)
	if err != nil {
		return "", err
	}
	segs, err = helperPass(segs, sc, h)
	if err != nil {
		return "", err
	}
	return interpolatePass(segs, sc), nil
}

type tagKind int

const (
	tagOpen tagKind = iota + 1
	tagClose
	tagElse
)

// tag is a block marker found in template text.
type tag struct {
	start, end pos
	kind       tagKind
	block      string
	arg        string
	text       string
}

func scanTags(segs []segment) []tag {
	var tags []tag
	for si, sg := range segs {
		if sg.done {
			continue
		}
		for _, loc := range reTag.FindAllStringSubmatchIndex(sg.text, -1) {
			inner := strings.TrimSpace(sg.text[loc[2]:loc[3]])
			t := tag{
				start: pos{si, loc[0]},
				end:   pos{si, loc[1]},
				text:  sg.text[loc[0]:loc[1]],
			}
			switch {
			case inner == "else":
				t.kind = tagElse
			case strings.HasPrefix(inner, "#"):
				t.kind = tagOpen
				t.block, t.arg = splitHead(inner[1:])
			case strings.HasPrefix(inner, "/"):
				t.kind = tagClose
				t.block = strings.TrimSpace(inner[1:])
			default:
				continue
			}
			tags = append(tags, t)
		}
	}
	return tags
}

func parseError(segs []segment, t tag, msg string) *ParseError {
	return &ParseError{Offset: offset(segs, t.start), Tag: t.text, Msg: msg}
}

func splitHead(s string) (string, string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// matchClose returns the index of the tag closing tags[open], counting
// nested blocks of the same name, or -1.
func matchClose(tags []tag, open int) int {
	name := tags[open].block
	depth := 0
	for j := open + 1; j < len(tags); j++ {
		if tags[j].block != name {
			continue
		}
		switch tags[j].kind {
		case tagOpen:
			depth++
		case tagClose:
			if depth == 0 {
				return j
			}
			depth--
		}
	}
	return -1
}

// elseIndex returns the index of the {{else}} belonging to the if-block
// spanning tags[open] to tags[end], or -1.
func elseIndex(tags []tag, open, end int) int {
	depth := 0
	for j := open + 1; j < end; j++ {
		t := tags[j]
		switch {
		case t.kind == tagOpen && isConditional(t.block):
			depth++
		case t.kind == tagClose && isConditional(t.block):
			depth--
		case t.kind == tagElse && depth == 0:
			return j
		}
	}
	return -1
}

func isConditional(block string) bool {
	return block == "if" || block == "unless"
}

func (r *Renderer) eachPass(segs []segment, sc *Scope, h Helpers, depth int) ([]segment, error) {
	tags := scanTags(segs)
	var out []segment
	last, replaced := pos{}, false
	for i := 0; i < len(tags); i++ {
		t := tags[i]
		if t.block != "each" {
			continue
		}
		if t.kind == tagClose {
			return nil, parseError(segs, t, "close tag without open")
		}
		end := matchClose(tags, i)
		if end < 0 {
			return nil, parseError(segs, t, "unterminated block")
		}
		text, err := r.each(t.arg, between(segs, t.end, tags[end].start), sc, h, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, between(segs, last, t.start)...)
		out = append(out, segment{text: text, done: true})
		last, replaced = tags[end].end, true
		i = end
	}
	if !replaced {
		return segs, nil
	}
	return append(out, between(segs, last, endPos(segs))...), nil
}

func (r *Renderer) each(path string, body []segment, sc *Scope, h Helpers, depth int) (string, error) {
	items, ok := List(sc.Resolve(path))
	if !ok {
		return "", nil
	}
	var b strings.Builder
	for i, item := range items {
		inner := sc
		if obj, ok := Object(item); ok {
			inner = inner.With(obj)
		}
		inner = inner.With(map[string]any{
			"@index": i,
			"@first": i == 0,
			"@last":  i == len(items)-1,
		})
		out, err := r.render(body, inner, h, depth+1)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

func (r *Renderer) conditionalPass(segs []segment, sc *Scope, h Helpers, depth int) ([]segment, error) {
	tags := scanTags(segs)
	var out []segment
	last, replaced := pos{}, false
	for i := 0; i < len(tags); i++ {
		t := tags[i]
		switch {
		case t.kind == tagElse:
			return nil, parseError(segs, t, "else outside if block")
		case !isConditional(t.block):
			continue
		case t.kind == tagClose:
			return nil, parseError(segs, t, "close tag without open")
		}
		end := matchClose(tags, i)
		if end < 0 {
			return nil, parseError(segs, t, "unterminated block")
		}

		cond := Truthy(sc.Resolve(t.arg))
		var branch []segment
		if t.block == "if" {
			yes, no := between(segs, t.end, tags[end].start), []segment(nil)
			if k := elseIndex(tags, i, end); k >= 0 {
				yes = between(segs, t.end, tags[k].start)
				no = between(segs, tags[k].end, tags[end].start)
			}
			branch = no
			if cond {
				branch = yes
			}
		} else if !cond {
			branch = between(segs, t.end, tags[end].start)
		}

		text, err := r.render(branch, sc, h, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, between(segs, last, t.start)...)
		out = append(out, segment{text: text, done: true})
		last, replaced = tags[end].end, true
		i = end
	}
	if !replaced {
		return segs, nil
	}
	return append(out, between(segs, last, endPos(segs))...), nil
}

func helperPass(segs []segment, sc *Scope, h Helpers) ([]segment, error) {
	if len(h) == 0 {
		return segs, nil
	}
	out := make([]segment, len(segs))
	for i, sg := range segs {
		if !sg.done {
			text, err := expandHelpers(sg.text, sc, h)
			if err != nil {
				return nil, err
			}
			sg.text = text
		}
		out[i] = sg
	}
	return out, nil
}

func expandHelpers(s string, sc *Scope, h Helpers) (string, error) {
	var failed error
	out := reHelper.ReplaceAllStringFunc(s, func(m string) string {
		if failed != nil {
			return m
		}
		match := reHelper.FindStringSubmatch(m)
		fn, ok := h.Lookup(match[1])
		if !ok {
			return m
		}
		v, err := call(match[1], fn, helperArgs(match[2], sc))
		if err != nil {
			failed = err
			return m
		}
		return Stringify(v)
	})
	return out, failed
}

// helperArgs resolves whitespace-separated argument tokens. Quoted tokens are
// literals; others are paths, with unresolved numeric tokens read as numbers.
func helperArgs(raw string, sc *Scope) []any {
	tokens := reArg.FindAllString(raw, -1)
	args := make([]any, len(tokens))
	for i, tok := range tokens {
		if n := len(tok); n >= 2 && (tok[0] == '"' || tok[0] == '\'') && tok[n-1] == tok[0] {
			args[i] = tok[1 : n-1]
			continue
		}
		v := sc.Resolve(tok)
		if v == nil && reNumber.MatchString(tok) {
			v, _ = strconv.ParseFloat(tok, 64)
		}
		args[i] = v
	}
	return args
}

func call(name string, fn Helper, args []any) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &HelperError{Name: name, Value: p}
		}
	}()
	return fn(args...), nil
}

func interpolatePass(segs []segment, sc *Scope) string {
	var b strings.Builder
	for _, sg := range segs {
		if sg.done {
			b.WriteString(sg.text)
			continue
		}
		b.WriteString(reInterpolate.ReplaceAllStringFunc(sg.text, func(m string) string {
			return Stringify(sc.Resolve(reInterpolate.FindStringSubmatch(m)[1]))
		}))
	}
	return b.String()
}

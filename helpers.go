package sitegen

import (
	"bytes"
	"encoding/json"
	"math"
	"net/url"
	"path"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/eringen/sitegen/engine"
	"github.com/eringen/sitegen/markdown"
)

// DefaultHelpers returns a new table holding the built-in template helpers.
// Callers may modify the returned map.
func DefaultHelpers() engine.Helpers {
	return engine.Helpers{
		"formatDate":     formatDate,
		"formatCurrency": formatCurrency,
		"pluralize":      pluralize,
		"truncate":       truncate,
		"json":           toJSON,
		"stars":          stars,
		"checkmark":      checkmark,
		"slugify":        slugify,
		"eq":             eq,
		"gt":             gt,
		"lt":             lt,
		"markdown":       markdownHelper,
		"titleCase":      titleCase,
		"upper":          upper,
		"lower":          lower,
		"join":           join,
		"url":            buildURL,
	}
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func argString(args []any, i int) string {
	return engine.Stringify(arg(args, i))
}

// toNumber coerces a helper argument to a number. Numeric strings are
// parsed; anything else is NaN.
func toNumber(v any) float64 {
	if f, ok := engine.Number(v); ok {
		return f
	}
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case bool:
		if x {
			return 1
		}
		return 0
	}
	return math.NaN()
}

// pluralize(count, singular, plural): singular only when count is exactly 1.
// plural defaults to singular + "s".
func pluralize(args ...any) any {
	singular := argString(args, 1)
	if n, ok := engine.Number(arg(args, 0)); ok && n == 1 {
		return singular
	}
	if p := arg(args, 2); p != nil {
		return engine.Stringify(p)
	}
	return singular + "s"
}

// truncate(text, length): text cut to length characters, right-trimmed, with
// "..." appended. length defaults to 100.
func truncate(args ...any) any {
	text := argString(args, 0)
	n := 100
	if l := arg(args, 1); l != nil {
		f := toNumber(l)
		if math.IsNaN(f) {
			f = 0
		}
		n = int(math.Max(f, 0))
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return strings.TrimRightFunc(string(runes[:n]), unicode.IsSpace) + "..."
}

// json(value): two-space indented JSON.
func toJSON(args ...any) any {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(arg(args, 0)); err != nil {
		return "null"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// stars(rating): five symbols, ★ per whole point, ½ for a remaining half
// point, ☆ for the rest. rating is clamped to 0..5.
func stars(args ...any) any {
	r := toNumber(arg(args, 0))
	if math.IsNaN(r) {
		r = 0
	}
	r = math.Min(math.Max(r, 0), 5)
	full := int(math.Floor(r))
	half := 0
	if r-float64(full) >= 0.5 {
		half = 1
	}
	return strings.Repeat("★", full) + strings.Repeat("½", half) + strings.Repeat("☆", 5-full-half)
}

func checkmark(args ...any) any {
	if engine.Truthy(arg(args, 0)) {
		return "✓"
	}
	return "✗"
}

func slugify(args ...any) any {
	return Slugify(argString(args, 0))
}

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// eq(a, b): strict equality. Numbers compare by value regardless of Go type.
func eq(args ...any) any {
	return strictEqual(arg(args, 0), arg(args, 1))
}

func strictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := engine.Number(a); ok {
		y, ok := engine.Number(b)
		return ok && x == y
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

func gt(args ...any) any {
	c, ok := compare(arg(args, 0), arg(args, 1))
	return ok && c > 0
}

func lt(args ...any) any {
	c, ok := compare(arg(args, 0), arg(args, 1))
	return ok && c < 0
}

// compare orders two strings lexically and anything else numerically. ok is
// false when either side is not a number.
func compare(a, b any) (int, bool) {
	if x, ok := a.(string); ok {
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
	}
	x, y := toNumber(a), toNumber(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}

// markdown(text): text rendered as HTML. Conversion errors leave the text
// unchanged.
func markdownHelper(args ...any) any {
	text := argString(args, 0)
	html, err := markdown.Convert([]byte(text))
	if err != nil {
		return text
	}
	return strings.TrimSuffix(html, "\n")
}

func titleCase(args ...any) any {
	return cases.Title(language.English).String(argString(args, 0))
}

func upper(args ...any) any {
	return cases.Upper(language.Und).String(argString(args, 0))
}

func lower(args ...any) any {
	return cases.Lower(language.Und).String(argString(args, 0))
}

// join(list, sep): list elements joined by sep (default ", ").
func join(args ...any) any {
	list, ok := engine.List(arg(args, 0))
	if !ok {
		return argString(args, 0)
	}
	sep := ", "
	if s := arg(args, 1); s != nil {
		sep = engine.Stringify(s)
	}
	parts := make([]string, len(list))
	for i, v := range list {
		parts[i] = engine.Stringify(v)
	}
	return strings.Join(parts, sep)
}

// url(base, segments...): see BuildURL.
func buildURL(args ...any) any {
	segs := make([]string, 0, len(args))
	for i := 1; i < len(args); i++ {
		segs = append(segs, engine.Stringify(args[i]))
	}
	return BuildURL(argString(args, 0), segs...)
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

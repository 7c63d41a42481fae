package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRenderInterpolation(t *testing.T) {
	tests := []struct {
		tpl      string
		data     any
		expected string
	}{
		{"{{a.b}}", map[string]any{"a": map[string]any{"b": "x"}}, "x"},
		{"{{a.b}}", map[string]any{}, ""},
		{"{{a.b}}", nil, ""},
		{"Hi {{ name }}!", map[string]any{"name": "Ada"}, "Hi Ada!"},
		{"{{n}}", map[string]any{"n": float64(3)}, "3"},
		{"{{n}}", map[string]any{"n": 2.5}, "2.5"},
		{"{{ok}}", map[string]any{"ok": true}, "true"},
		{"{{list}}", map[string]any{"list": []any{1, "a", nil}}, "1,a,"},
		{"{{obj}}", map[string]any{"obj": map[string]any{"k": 1}}, "[object Object]"},
		{"{{missing}}", map[string]any{"missing": nil}, ""},
		{"no tags here", map[string]any{"x": 1}, "no tags here"},
	}
	for _, tt := range tests {
		got, err := Render(tt.tpl, tt.data, nil)
		if err != nil {
			t.Fatalf("Render(%q) error: %v", tt.tpl, err)
		}
		if got != tt.expected {
			t.Errorf("Render(%q) = %q, want %q", tt.tpl, got, tt.expected)
		}
	}
}

func TestRenderEach(t *testing.T) {
	tests := []struct {
		name     string
		tpl      string
		data     map[string]any
		expected string
	}{
		{
			"objects",
			"{{#each items}}{{name}}{{/each}}",
			map[string]any{"items": []any{map[string]any{"name": "a"}, map[string]any{"name": "b"}}},
			"ab",
		},
		{
			"loop metadata",
			"{{#each items}}{{@index}}:{{@first}}:{{@last}};{{/each}}",
			map[string]any{"items": []any{"x", "y"}},
			"0:true:false;1:false:true;",
		},
		{
			"not an array",
			"[{{#each items}}{{name}}{{/each}}]",
			map[string]any{"items": "nope"},
			"[]",
		},
		{
			"missing target",
			"[{{#each items}}x{{/each}}]",
			map[string]any{},
			"[]",
		},
		{
			"item shadows outer",
			"{{#each items}}{{title}}{{/each}}",
			map[string]any{"title": "outer", "items": []any{map[string]any{"title": "inner"}}},
			"inner",
		},
		{
			"outer visible inside",
			"{{#each items}}{{brand}}-{{name}} {{/each}}{{title}}",
			map[string]any{"brand": "acme", "title": "T", "items": []any{map[string]any{"name": "a"}}},
			"acme-a T",
		},
		{
			"nested each",
			"{{#each rows}}[{{#each cells}}{{v}}{{/each}}]{{/each}}",
			map[string]any{"rows": []any{
				map[string]any{"cells": []any{map[string]any{"v": 1}, map[string]any{"v": 2}}},
				map[string]any{"cells": []any{map[string]any{"v": 3}}},
			}},
			"[12][3]",
		},
		{
			"typed slice",
			"{{#each items}}{{@index}}{{/each}}",
			map[string]any{"items": []string{"a", "b", "c"}},
			"012",
		},
	}
	for _, tt := range tests {
		got, err := Render(tt.tpl, tt.data, nil)
		if err != nil {
			t.Fatalf("%s: Render error: %v", tt.name, err)
		}
		if got != tt.expected {
			t.Errorf("%s: Render(%q) = %q, want %q", tt.name, tt.tpl, got, tt.expected)
		}
	}
}

func TestRenderEachDoesNotLeakShadowing(t *testing.T) {
	data := map[string]any{"title": "outer", "items": []any{map[string]any{"title": "inner"}}}
	got, err := Render("{{#each items}}{{title}}{{/each}}|{{title}}", data, nil)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != "inner|outer" {
		t.Errorf("got %q, want %q", got, "inner|outer")
	}
	if data["title"] != "outer" {
		t.Errorf("outer data mutated: %v", data["title"])
	}
}

func TestRenderConditionals(t *testing.T) {
	tests := []struct {
		tpl      string
		data     map[string]any
		expected string
	}{
		{"{{#if flag}}Y{{else}}N{{/if}}", map[string]any{"flag": true}, "Y"},
		{"{{#if flag}}Y{{else}}N{{/if}}", map[string]any{"flag": false}, "N"},
		{"{{#if flag}}Y{{/if}}", map[string]any{}, ""},
		{"{{#unless flag}}Y{{/unless}}", map[string]any{"flag": false}, "Y"},
		{"{{#unless flag}}Y{{/unless}}", map[string]any{"flag": true}, ""},
		{"{{#if s}}Y{{else}}N{{/if}}", map[string]any{"s": ""}, "N"},
		{"{{#if n}}Y{{else}}N{{/if}}", map[string]any{"n": float64(0)}, "N"},
		{"{{#if n}}Y{{else}}N{{/if}}", map[string]any{"n": float64(-1)}, "Y"},
		{"{{#if list}}Y{{else}}N{{/if}}", map[string]any{"list": []any{}}, "Y"},
		{"{{#if a.b}}Y{{else}}N{{/if}}", map[string]any{"a": map[string]any{"b": "x"}}, "Y"},
		{
			"{{#if a}}{{#if b}}ab{{else}}a{{/if}}{{else}}none{{/if}}",
			map[string]any{"a": true, "b": false},
			"a",
		},
		{
			"{{#if a}}{{#unless b}}x{{/unless}}{{else}}y{{/if}}",
			map[string]any{"a": false},
			"y",
		},
	}
	for _, tt := range tests {
		got, err := Render(tt.tpl, tt.data, nil)
		if err != nil {
			t.Fatalf("Render(%q) error: %v", tt.tpl, err)
		}
		if got != tt.expected {
			t.Errorf("Render(%q) = %q, want %q", tt.tpl, got, tt.expected)
		}
	}
}

func TestRenderPassOrder(t *testing.T) {
	data := map[string]any{"show": true, "list": []any{1, 2, 3}}
	got, err := Render("{{#if show}}{{#each list}}{{@index}}{{/each}}{{/if}}", data, nil)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != "012" {
		t.Errorf("got %q, want %q", got, "012")
	}

	// Conditions inside a loop body see the loop bindings.
	got, err = Render("{{#each list}}{{#if @first}}first{{else}},{{/if}}{{/each}}", data, nil)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != "first,," {
		t.Errorf("got %q, want %q", got, "first,,")
	}
}

func TestRenderBlockOutputIsNotReparsed(t *testing.T) {
	helpers := Helpers{"shout": func(args ...any) any { return strings.ToUpper(Stringify(args[0])) }}
	tests := []struct {
		name     string
		tpl      string
		data     map[string]any
		expected string
	}{
		{
			"else in loop item",
			"{{#each items}}<li>{{name}}</li>{{/each}}",
			map[string]any{"items": []any{map[string]any{"name": "Use {{else}} in templates"}}},
			"<li>Use {{else}} in templates</li>",
		},
		{
			"close tags in loop item",
			"{{#each items}}{{name}};{{/each}}",
			map[string]any{"items": []any{
				map[string]any{"name": "{{/if}}"},
				map[string]any{"name": "{{/each}}"},
			}},
			"{{/if}};{{/each}};",
		},
		{
			"loop inside conditional",
			"{{#if show}}{{#each items}}{{name}}{{/each}}{{else}}none{{/if}}",
			map[string]any{"show": true, "items": []any{map[string]any{"name": "{{#if x}}"}}},
			"{{#if x}}",
		},
		{
			"tags in loop item not interpolated",
			"{{#each items}}{{name}}{{/each}} {{title}}",
			map[string]any{"title": "T", "items": []any{map[string]any{"name": "{{title}} {{shout title}}"}}},
			"{{title}} {{shout title}} T",
		},
		{
			"tags in branch not interpolated",
			"{{#if show}}{{name}}{{/if}}",
			map[string]any{"show": true, "name": "{{secret}}", "secret": "x"},
			"{{secret}}",
		},
	}
	for _, tt := range tests {
		got, err := Render(tt.tpl, tt.data, helpers)
		if err != nil {
			t.Fatalf("%s: Render error: %v", tt.name, err)
		}
		if got != tt.expected {
			t.Errorf("%s: Render(%q) = %q, want %q", tt.name, tt.tpl, got, tt.expected)
		}
	}
}

func TestRenderParseErrorOffsetInBlock(t *testing.T) {
	// Offsets inside a block body are relative to the body.
	_, err := Render("{{#each items}}ab{{else}}{{/each}}", map[string]any{"items": []any{1}}, nil)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Offset != 2 || pe.Tag != "{{else}}" {
		t.Errorf("ParseError = %+v, want offset 2 tag {{else}}", pe)
	}
}

func TestRenderHelpers(t *testing.T) {
	helpers := Helpers{
		"shout": func(args ...any) any { return strings.ToUpper(Stringify(args[0])) + "!" },
		"count": func(args ...any) any { return len(args) },
		"echo": func(args ...any) any {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = Stringify(a)
			}
			return strings.Join(parts, "|")
		},
		"nothing": func(args ...any) any { return nil },
	}
	tests := []struct {
		tpl      string
		data     map[string]any
		expected string
	}{
		{"{{shout name}}", map[string]any{"name": "hey"}, "HEY!"},
		{`{{echo "a b" 'c' name}}`, map[string]any{"name": "n"}, "a b|c|n"},
		{"{{echo 5 -2.5}}", map[string]any{}, "5|-2.5"},
		{"{{echo 5}}", map[string]any{"5": "five"}, "five"},
		{"{{count a b c}}", map[string]any{}, "3"},
		{"{{nothing x}}", map[string]any{}, ""},
		{"{{unknownHelper x}}", map[string]any{"x": 1}, "{{unknownHelper x}}"},
		{"{{shout}}", map[string]any{"shout": "plain"}, "plain"},
		{"{{#each items}}{{shout @index}}{{/each}}", map[string]any{"items": []any{"a", "b"}}, "0!1!"},
	}
	for _, tt := range tests {
		got, err := Render(tt.tpl, tt.data, helpers)
		if err != nil {
			t.Fatalf("Render(%q) error: %v", tt.tpl, err)
		}
		if got != tt.expected {
			t.Errorf("Render(%q) = %q, want %q", tt.tpl, got, tt.expected)
		}
	}
}

func TestRenderUnknownHelperWithoutHelpers(t *testing.T) {
	got, err := Render("{{unknownHelper x}}", map[string]any{"x": 1}, nil)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != "{{unknownHelper x}}" {
		t.Errorf("got %q, want literal tag", got)
	}
}

func TestRenderHelperPanic(t *testing.T) {
	helpers := Helpers{"boom": func(args ...any) any { panic("bad input") }}
	_, err := Render("{{boom x}}", nil, helpers)
	var he *HelperError
	if !errors.As(err, &he) {
		t.Fatalf("expected HelperError, got %v", err)
	}
	if he.Name != "boom" {
		t.Errorf("HelperError.Name = %q, want %q", he.Name, "boom")
	}
}

func TestRenderMalformedBlocks(t *testing.T) {
	tests := []struct {
		tpl string
		msg string
	}{
		{"{{#each items}}x", "unterminated block"},
		{"x{{/each}}", "close tag without open"},
		{"{{#if a}}x", "unterminated block"},
		{"{{#unless a}}x", "unterminated block"},
		{"x{{/if}}", "close tag without open"},
		{"x{{/unless}}", "close tag without open"},
		{"a{{else}}b", "else outside if block"},
		{"{{#unless a}}x{{else}}y{{/unless}}", "else outside if block"},
		{"{{#each items}}{{#each more}}{{/each}}", "unterminated block"},
	}
	for _, tt := range tests {
		_, err := Render(tt.tpl, map[string]any{}, nil)
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Render(%q) error = %v, want ParseError", tt.tpl, err)
			continue
		}
		if pe.Msg != tt.msg {
			t.Errorf("Render(%q) ParseError.Msg = %q, want %q", tt.tpl, pe.Msg, tt.msg)
		}
	}
}

func TestRenderParseErrorOffset(t *testing.T) {
	_, err := Render("abc{{/each}}", nil, nil)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Offset != 3 || pe.Tag != "{{/each}}" {
		t.Errorf("ParseError = %+v, want offset 3 tag {{/each}}", pe)
	}
}

func TestRenderMaxDepth(t *testing.T) {
	tpl := strings.Repeat("{{#if a}}", 12) + "deep" + strings.Repeat("{{/if}}", 12)
	data := map[string]any{"a": true}

	r := New(WithMaxDepth(8))
	if _, err := r.Render(tpl, data, nil); !errors.Is(err, ErrMaxDepth) {
		t.Fatalf("expected ErrMaxDepth, got %v", err)
	}

	got, err := New(WithMaxDepth(16)).Render(tpl, data, nil)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got != "deep" {
		t.Errorf("got %q, want %q", got, "deep")
	}
}

func TestRenderDeterministic(t *testing.T) {
	tpl := "{{#each items}}{{name}}{{#if @last}}.{{else}}, {{/if}}{{/each}}"
	data := map[string]any{"items": []any{
		map[string]any{"name": "a"},
		map[string]any{"name": "b"},
	}}
	first, err := Render(tpl, data, nil)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	for i := 0; i < 5; i++ {
		got, _ := Render(tpl, data, nil)
		if got != first {
			t.Fatalf("render %d = %q, want %q", i, got, first)
		}
	}
	if first != "a, b." {
		t.Errorf("got %q, want %q", first, "a, b.")
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	cmp := New().Component("<h1>{{title}}</h1>", map[string]any{"title": "Hello"}, nil)
	if err := cmp.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Component render error: %v", err)
	}
	if buf.String() != "<h1>Hello</h1>" {
		t.Errorf("got %q, want %q", buf.String(), "<h1>Hello</h1>")
	}
}

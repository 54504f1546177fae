// Package markup compiles a small inline styled-text syntax —
// "**bold**", "_underline_", "#color(...)" — into flat per-cell attribute
// tuples a widget can paint directly, without building an attributed-run
// document model of its own.
//
// Adapted from the teacher's basement package: parser.go's recursive
// inlineTokenRe tokenizer and ast.go's NodeStyle nesting survive as the
// parse strategy, but the AST no longer terminates in ast.Style's ANSI
// escape-code strings (style.go's GetColorCode); it terminates in
// surface.Color/surface.Attrs tuples, and basement's block-level forms
// (headers, lists, quotes, horizontal rules, code fences) are dropped —
// out of scope for a single inline compiler whose only consumer is
// widget-level styled text, not a document renderer.
package markup

import (
	"regexp"
	"strings"

	"hex1b/surface"
	"hex1b/widget"
)

// Span is one run of compiled text sharing a single style, the same shape
// highlight.Span uses so widgets can paint either source through one loop.
type Span struct {
	Text  string
	Fg    surface.Color
	Attrs surface.Attrs
}

var inlineTokenRe = regexp.MustCompile(`(\*\*.+?\*\*)|(_.+?_)|(~~.+?~~)|(#[a-zA-Z]+\(.+?\))`)

// Compile parses text and returns the resulting flat span list in source
// order. Unrecognized or unterminated markers are left as literal text,
// matching the teacher's "fall through to NodeText" behavior for anything
// inlineTokenRe doesn't match.
func Compile(text string) []Span {
	nodes := parseInline(text)
	var spans []Span
	flatten(nodes, 0, surface.DefaultColor, &spans)
	return mergeAdjacent(spans)
}

type nodeKind int

const (
	kindText nodeKind = iota
	kindStyle
)

type node struct {
	kind     nodeKind
	text     string
	attrs    surface.Attrs
	fg       surface.Color
	hasColor bool
	children []*node
}

func parseInline(text string) []*node {
	var nodes []*node
	last := 0
	for _, m := range inlineTokenRe.FindAllStringIndex(text, -1) {
		start, end := m[0], m[1]
		if start > last {
			nodes = append(nodes, &node{kind: kindText, text: text[last:start]})
		}
		nodes = append(nodes, parseToken(text[start:end]))
		last = end
	}
	if last < len(text) {
		nodes = append(nodes, &node{kind: kindText, text: text[last:]})
	}
	return nodes
}

func parseToken(tok string) *node {
	switch {
	case strings.HasPrefix(tok, "**"):
		return &node{kind: kindStyle, attrs: surface.Bold, children: parseInline(tok[2 : len(tok)-2])}
	case strings.HasPrefix(tok, "~~"):
		return &node{kind: kindStyle, attrs: surface.Strikethrough, children: parseInline(tok[2 : len(tok)-2])}
	case strings.HasPrefix(tok, "_"):
		return &node{kind: kindStyle, attrs: surface.Underline, children: parseInline(tok[1 : len(tok)-1])}
	case strings.HasPrefix(tok, "#"):
		open := strings.IndexByte(tok, '(')
		shut := strings.LastIndexByte(tok, ')')
		if open < 0 || shut < open {
			return &node{kind: kindText, text: tok}
		}
		name := tok[1:open]
		content := tok[open+1 : shut]
		fg, ok := ColorByName(name)
		if !ok {
			return &node{kind: kindText, text: tok}
		}
		return &node{kind: kindStyle, fg: fg, hasColor: true, children: parseInline(content)}
	default:
		return &node{kind: kindText, text: tok}
	}
}

// flatten walks the node tree carrying inherited style down to leaf text
// nodes, since the spec's cell model has no notion of nested runs — only a
// flat sequence of (text, attrs, color) tuples.
func flatten(nodes []*node, inherited surface.Attrs, fg surface.Color, out *[]Span) {
	for _, n := range nodes {
		switch n.kind {
		case kindText:
			if n.text == "" {
				continue
			}
			*out = append(*out, Span{Text: n.text, Attrs: inherited, Fg: fg})
		case kindStyle:
			childAttrs := inherited | n.attrs
			childFg := fg
			if n.hasColor {
				childFg = n.fg
			}
			flatten(n.children, childAttrs, childFg, out)
		}
	}
}

// mergeAdjacent fuses consecutive spans sharing identical style, keeping
// Compile's output from fragmenting plain runs of text across the
// concat boundaries the tokenizer introduces between matches.
func mergeAdjacent(spans []Span) []Span {
	if len(spans) == 0 {
		return spans
	}
	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if last.Attrs == s.Attrs && last.Fg == s.Fg {
			last.Text += s.Text
			continue
		}
		out = append(out, s)
	}
	return out
}

// Widget compiles text and builds the widget tree a caller would otherwise
// hand-assemble: one widget.HStack of widget.Text leaves, one per compiled
// span, so markup output reaches the paint pipeline through the same
// Text/HStack widgets every other leaf does rather than its own renderer.
func Widget(key widget.Key, text string) widget.Widget {
	spans := Compile(text)
	items := make([]widget.Item, len(spans))
	for i, s := range spans {
		items[i] = widget.Item{Child: &widget.Text{Content: s.Text, Fg: s.Fg, Attrs: s.Attrs}}
	}
	return &widget.HStack{WidgetKey: key, Items: items}
}

// ColorByName resolves a basement-style color name to a surface.Color,
// generalized from the teacher's style.go GetColorCode (which returned a
// raw ANSI escape string) into the palette tuple surface.Cell expects.
func ColorByName(name string) (surface.Color, bool) {
	switch name {
	case "black":
		return surface.ANSIColor(0), true
	case "red":
		return surface.ANSIColor(1), true
	case "green":
		return surface.ANSIColor(2), true
	case "yellow":
		return surface.ANSIColor(3), true
	case "blue":
		return surface.ANSIColor(4), true
	case "magenta":
		return surface.ANSIColor(5), true
	case "cyan":
		return surface.ANSIColor(6), true
	case "white":
		return surface.ANSIColor(7), true
	case "grey", "gray":
		return surface.ANSIColor(8), true
	default:
		return surface.DefaultColor, false
	}
}

// Package highlight tokenizes source text into styled spans for
// widget.CodeBlock, using github.com/alecthomas/chroma the way the teacher's
// tui/highlight_chroma.go does, generalized from the teacher's ANSI-escape
// string styling to surface.Color/surface.Attrs tuples so a CodeBlock paints
// through the same cell pipeline as every other widget.
package highlight

import (
	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"

	"hex1b/surface"
)

// Span is one run of source text sharing a single style.
type Span struct {
	Text  string
	Fg    surface.Color
	Attrs surface.Attrs
}

// Theme is the chroma style name used to resolve per-token colors.
// Monokai reads reasonably on both dark and light terminal backgrounds,
// matching the teacher's choice.
const Theme = "monokai"

// Tokenize lexes source as language (a chroma lexer name, e.g. "go"; falls
// back to chroma's plain-text lexer when unknown or empty) and returns the
// resulting styled spans in source order. Never fails: a lexer or tokenizer
// error degrades to a single dim, unstyled span holding the whole source,
// mirroring the teacher's own fallback path.
func Tokenize(source, language string) []Span {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(Theme)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return []Span{{Text: source, Attrs: surface.Dim}}
	}

	var spans []Span
	for _, token := range iterator.Tokens() {
		entry := style.Get(token.Type)
		spans = append(spans, Span{
			Text:  token.Value,
			Fg:    tokenColor(token.Type),
			Attrs: tokenAttrs(entry),
		})
	}
	return spans
}

func tokenAttrs(entry chroma.StyleEntry) surface.Attrs {
	var a surface.Attrs
	if entry.Bold == chroma.Yes {
		a |= surface.Bold
	}
	if entry.Underline == chroma.Yes {
		a |= surface.Underline
	}
	if entry.Italic == chroma.Yes {
		a |= surface.Italic
	}
	return a
}

// tokenColor maps a token's broad category to an ANSI-16 color, the same
// category-based heuristic the teacher used instead of chroma's RGB style
// values (terminal ANSI palettes vary enough that a direct RGB passthrough
// looks worse than a curated category mapping).
func tokenColor(t chroma.TokenType) surface.Color {
	switch t.Category() {
	case chroma.Keyword:
		return surface.ANSIColor(5) // magenta
	case chroma.Name:
		return surface.ANSIColor(7) // white
	case chroma.LiteralString:
		return surface.ANSIColor(2) // green
	case chroma.LiteralNumber:
		return surface.ANSIColor(6) // cyan
	case chroma.Comment:
		return surface.ANSIColor(8) // bright black / grey
	case chroma.Operator, chroma.Punctuation:
		return surface.ANSIColor(7)
	default:
		return surface.DefaultColor
	}
}

package markup

import (
	"testing"

	"hex1b/surface"
	"hex1b/widget"
)

func TestCompilePlainTextIsOneSpan(t *testing.T) {
	spans := Compile("hello world")
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Text != "hello world" || spans[0].Attrs != 0 {
		t.Errorf("expected unstyled pass-through, got %+v", spans[0])
	}
}

func TestCompileBoldMarksAttr(t *testing.T) {
	spans := Compile("a **bold** b")
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d: %+v", len(spans), spans)
	}
	if spans[1].Text != "bold" || !spans[1].Attrs.Has(surface.Bold) {
		t.Errorf("expected middle span bold \"bold\", got %+v", spans[1])
	}
	if spans[0].Attrs.Has(surface.Bold) || spans[2].Attrs.Has(surface.Bold) {
		t.Errorf("expected surrounding spans unstyled, got %+v / %+v", spans[0], spans[2])
	}
}

func TestCompileUnderline(t *testing.T) {
	spans := Compile("_under_")
	if len(spans) != 1 || !spans[0].Attrs.Has(surface.Underline) {
		t.Fatalf("expected one underlined span, got %+v", spans)
	}
	if spans[0].Text != "under" {
		t.Errorf("expected marker stripped, got %q", spans[0].Text)
	}
}

func TestCompileColorResolvesNamedColor(t *testing.T) {
	spans := Compile("#red(alert)")
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %+v", spans)
	}
	want, _ := ColorByName("red")
	if spans[0].Fg != want || spans[0].Text != "alert" {
		t.Errorf("expected red-colored \"alert\", got %+v", spans[0])
	}
}

func TestCompileUnknownColorFallsBackToLiteralText(t *testing.T) {
	spans := Compile("#nope(x)")
	if len(spans) != 1 || spans[0].Text != "#nope(x)" {
		t.Fatalf("expected literal fallback, got %+v", spans)
	}
}

func TestCompileNestedBoldAndColor(t *testing.T) {
	spans := Compile("**#green(go)**")
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %+v", spans)
	}
	s := spans[0]
	want, _ := ColorByName("green")
	if s.Text != "go" || !s.Attrs.Has(surface.Bold) || s.Fg != want {
		t.Errorf("expected bold+green \"go\", got %+v", s)
	}
}

func TestWidgetBuildsOneHStackItemPerSpan(t *testing.T) {
	w := Widget("greeting", "hi **there**")
	stack, ok := w.(*widget.HStack)
	if !ok {
		t.Fatalf("expected *widget.HStack, got %T", w)
	}
	if stack.Key() != widget.Key("greeting") {
		t.Errorf("expected key to round-trip, got %v", stack.Key())
	}
	if len(stack.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(stack.Items))
	}
	text, ok := stack.Items[1].Child.(*widget.Text)
	if !ok || text.Content != "there" || !text.Attrs.Has(surface.Bold) {
		t.Errorf("expected second item bold \"there\", got %+v", stack.Items[1].Child)
	}
}

func TestCompileAlternatingRunsHaveNoEmptySpans(t *testing.T) {
	spans := Compile("a**b**c**d**e")
	// "a", bold "b", "c", bold "d", "e" — none of the plain runs are adjacent
	// to each other here, but verify no spurious empty spans appear.
	for _, s := range spans {
		if s.Text == "" {
			t.Errorf("expected no empty spans, got %+v", spans)
		}
	}
}

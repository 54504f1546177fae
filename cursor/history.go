package cursor

import (
	"time"

	"hex1b/document"
)

// EditGroup captures one undoable unit of work: cursor snapshots either
// side of the edit(s), the document versions either side, every applied
// operation in order, every inverse in reverse order (apply them in this
// order to undo), a creation timestamp and whether it may still absorb a
// coalesced follow-up edit. Base-spec §3 EditGroup.
type EditGroup struct {
	CursorsBefore Snapshot
	CursorsAfter  Snapshot
	VersionBefore int
	VersionAfter  int
	Source        string
	Applied       []document.Op
	Inverses      []document.Op
	CreatedAt     time.Time
	Coalescable   bool
}

// EditHistory is the undo/redo stack pair from base-spec §4.4, with
// explicit begin/commit grouping and typing coalescing.
type EditHistory struct {
	undo []*EditGroup
	redo []*EditGroup

	depth   int
	current *EditGroup

	// CoalesceTimeoutMs bounds how long a coalescable group stays open to
	// absorb the next matching single-character insert. Default 1000ms
	// per base-spec §4.4.
	CoalesceTimeoutMs int
}

// NewHistory returns an empty EditHistory with the default coalesce
// timeout.
func NewHistory() *EditHistory {
	return &EditHistory{CoalesceTimeoutMs: 1000}
}

// BeginGroup opens (or nests into) an explicit edit group.
func (h *EditHistory) BeginGroup(cursorsBefore Snapshot, versionBefore int, source string) {
	h.depth++
	if h.depth == 1 {
		h.current = &EditGroup{CursorsBefore: cursorsBefore, VersionBefore: versionBefore, Source: source, CreatedAt: time.Now()}
	}
}

// CommitGroup closes one nesting level; only the outermost commit pushes a
// non-empty group onto undo and clears redo.
func (h *EditHistory) CommitGroup(cursorsAfter Snapshot, versionAfter int) {
	if h.depth == 0 {
		return
	}
	h.depth--
	if h.depth > 0 {
		return
	}
	g := h.current
	h.current = nil
	if g == nil || len(g.Applied) == 0 {
		return
	}
	g.CursorsAfter = cursorsAfter
	g.VersionAfter = versionAfter
	h.undo = append(h.undo, g)
	h.redo = nil
}

// CancelGroup drops the in-progress group without pushing it; the caller
// is responsible for reverting any document state already applied.
func (h *EditHistory) CancelGroup() {
	if h.depth == 0 {
		return
	}
	h.depth--
	if h.depth == 0 {
		h.current = nil
	}
}

// InGroup reports whether a begin/commit group is currently open.
func (h *EditHistory) InGroup() bool { return h.depth > 0 }

// RecordEdit records one applied operation and its inverse. Inside an open
// group it appends to that group. Otherwise, if coalescable and the top of
// the undo stack is itself coalescable, younger than CoalesceTimeoutMs, and
// both the last and new operations are single-character inserts with
// newOp.Offset == lastOp.Offset + len(lastOp.Text) (in runes), it appends
// to that existing group instead of starting a new one. Base-spec §4.4
// describes this in terms of a single "cursors" snapshot; EditGroup needs
// both a before and after snapshot, so this takes both explicitly (see
// DESIGN.md).
func (h *EditHistory) RecordEdit(op, inverse document.Op, cursorsBefore, cursorsAfter Snapshot, versionBefore, versionAfter int, source string, coalescable bool) {
	if h.depth > 0 && h.current != nil {
		h.current.Applied = append(h.current.Applied, op)
		h.current.Inverses = append([]document.Op{inverse}, h.current.Inverses...)
		h.current.CursorsAfter = cursorsAfter
		h.current.VersionAfter = versionAfter
		return
	}

	if coalescable && len(h.undo) > 0 {
		top := h.undo[len(h.undo)-1]
		if top.Coalescable && time.Since(top.CreatedAt) < time.Duration(h.CoalesceTimeoutMs)*time.Millisecond && len(top.Applied) > 0 {
			last := top.Applied[len(top.Applied)-1]
			if isSingleCharInsert(last) && isSingleCharInsert(op) && op.Offset == last.Offset+runeLen(last.Text) {
				top.Applied = append(top.Applied, op)
				top.Inverses = append([]document.Op{inverse}, top.Inverses...)
				top.CursorsAfter = cursorsAfter
				top.VersionAfter = versionAfter
				return
			}
		}
	}

	h.undo = append(h.undo, &EditGroup{
		CursorsBefore: cursorsBefore,
		CursorsAfter:  cursorsAfter,
		VersionBefore: versionBefore,
		VersionAfter:  versionAfter,
		Source:        source,
		Applied:       []document.Op{op},
		Inverses:      []document.Op{inverse},
		CreatedAt:     time.Now(),
		Coalescable:   coalescable,
	})
	h.redo = nil
}

// Undo pops the most recent group from undo onto redo and returns it, or
// nil if undo is empty (the "no-op sentinel" per base-spec §4.4). The
// caller applies Inverses in order and restores CursorsBefore.
func (h *EditHistory) Undo() *EditGroup {
	if len(h.undo) == 0 {
		return nil
	}
	g := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, g)
	return g
}

// Redo pops the most recent group from redo onto undo and returns it, or
// nil if redo is empty. The caller re-applies Applied in order and
// restores CursorsAfter.
func (h *EditHistory) Redo() *EditGroup {
	if len(h.redo) == 0 {
		return nil
	}
	g := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, g)
	return g
}

// UndoLen and RedoLen expose stack depth for UI affordances (enabling a
// disabled undo/redo menu item).
func (h *EditHistory) UndoLen() int { return len(h.undo) }
func (h *EditHistory) RedoLen() int { return len(h.redo) }

func isSingleCharInsert(op document.Op) bool {
	return op.Kind == document.Insert && runeLen(op.Text) == 1
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

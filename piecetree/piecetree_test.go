package piecetree

import (
	"math/rand/v2"
	"testing"
)

// ground truth model: a flat byte buffer mirroring every insert/delete
// applied to the tree, against which we check FindAt/InOrder reconstruction
// and invariants after every mutation.

func reconstruct(t *testing.T, tr *Tree, buffers map[Source][]byte) []byte {
	t.Helper()
	out := make([]byte, 0, tr.TotalBytes())
	for _, p := range tr.InOrder() {
		buf := buffers[p.Source]
		out = append(out, buf[p.Start:p.Start+p.Length]...)
	}
	return out
}

func TestInsertAppendOnly(t *testing.T) {
	added := []byte("hello world")
	tr := New()
	tr.Insert(0, Piece{Source: Added, Start: 0, Length: 5})
	tr.Insert(5, Piece{Source: Added, Start: 5, Length: 6})
	if err := tr.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	got := reconstruct(t, tr, map[Source][]byte{Added: added})
	if string(got) != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestInsertMiddleSplitsPiece(t *testing.T) {
	original := []byte("helloworld")
	added := []byte(" ")
	tr := New()
	tr.Insert(0, Piece{Source: Original, Start: 0, Length: 10})
	tr.Insert(5, Piece{Source: Added, Start: 0, Length: 1})
	if err := tr.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	got := reconstruct(t, tr, map[Source][]byte{Original: original, Added: added})
	if string(got) != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestDeleteTrimStartEndAndMiddle(t *testing.T) {
	original := []byte("abcdefghij")
	tr := New()
	tr.Insert(0, Piece{Source: Original, Start: 0, Length: 10})

	tr.Delete(0, 2) // trim start -> "cdefghij"
	if err := tr.CheckInvariants(); err != nil {
		t.Fatalf("invariants after trim start: %v", err)
	}
	got := reconstruct(t, tr, map[Source][]byte{Original: original})
	if string(got) != "cdefghij" {
		t.Fatalf("after trim start: got %q", got)
	}

	tr.Delete(6, 2) // trim end -> "cdefgh"
	if err := tr.CheckInvariants(); err != nil {
		t.Fatalf("invariants after trim end: %v", err)
	}
	got = reconstruct(t, tr, map[Source][]byte{Original: original})
	if string(got) != "cdefgh" {
		t.Fatalf("after trim end: got %q", got)
	}

	tr.Delete(2, 2) // split middle -> "cdgh"
	if err := tr.CheckInvariants(); err != nil {
		t.Fatalf("invariants after split middle: %v", err)
	}
	got = reconstruct(t, tr, map[Source][]byte{Original: original})
	if string(got) != "cdgh" {
		t.Fatalf("after split middle: got %q", got)
	}
}

func TestDeleteSpanningMultipleNodes(t *testing.T) {
	original := []byte("AAAA")
	added1 := []byte("BBBB")
	added2 := []byte("CCCC")
	tr := New()
	tr.Insert(0, Piece{Source: Original, Start: 0, Length: 4}) // AAAA
	tr.Insert(4, Piece{Source: Added, Start: 0, Length: 4})     // AAAABBBB, not contiguous source mix so two nodes
	tr.Insert(8, Piece{Source: Added, Start: 4, Length: 4})     // contiguous with prior Added piece -> merges

	if err := tr.CheckInvariants(); err != nil {
		t.Fatalf("invariants after inserts: %v", err)
	}
	buffers := map[Source][]byte{Original: original, Added: append(append([]byte{}, added1...), added2...)}
	got := reconstruct(t, tr, buffers)
	if string(got) != "AAAABBBBCCCC" {
		t.Fatalf("got %q", got)
	}

	// delete spanning from inside the Original piece through into Added
	tr.Delete(2, 4) // remove "AABB" -> "AABBCCCC"
	if err := tr.CheckInvariants(); err != nil {
		t.Fatalf("invariants after spanning delete: %v", err)
	}
	got = reconstruct(t, tr, buffers)
	want := "AAAABBBBCCCC"
	want = want[:2] + want[6:]
	if string(got) != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestFindAtMatchesLinearScan(t *testing.T) {
	tr := New()
	src := []byte("0123456789")
	for i := 0; i < len(src); i++ {
		tr.Insert(i, Piece{Source: Original, Start: i, Length: 1})
	}
	for off := 0; off < len(src); off++ {
		p, inNode, ok := tr.FindAt(off)
		if !ok {
			t.Fatalf("FindAt(%d) not ok", off)
		}
		got := src[p.Start+inNode]
		if got != src[off] {
			t.Errorf("FindAt(%d): got byte %q, want %q", off, got, src[off])
		}
	}
	if _, _, ok := tr.FindAt(len(src)); ok {
		t.Errorf("FindAt at end should not be ok")
	}
}

// TestRandomEditsAgainstGroundTruth drives a fixed-seed sequence of random
// inserts and deletes against both the tree and a flat byte slice, checking
// invariants and full-content equality after every step.
func TestRandomEditsAgainstGroundTruth(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	var truth []byte
	added := make([]byte, 0, 4096)
	tr := New()

	const steps = 500
	for i := 0; i < steps; i++ {
		if len(truth) == 0 || rng.IntN(2) == 0 {
			// insert
			n := 1 + rng.IntN(5)
			chunk := make([]byte, n)
			for j := range chunk {
				chunk[j] = byte('a' + rng.IntN(26))
			}
			at := rng.IntN(len(truth) + 1)
			start := len(added)
			added = append(added, chunk...)
			tr.Insert(at, Piece{Source: Added, Start: start, Length: n})

			newTruth := make([]byte, 0, len(truth)+n)
			newTruth = append(newTruth, truth[:at]...)
			newTruth = append(newTruth, chunk...)
			newTruth = append(newTruth, truth[at:]...)
			truth = newTruth
		} else {
			at := rng.IntN(len(truth))
			maxLen := len(truth) - at
			n := 1 + rng.IntN(maxLen)
			tr.Delete(at, n)

			newTruth := make([]byte, 0, len(truth)-n)
			newTruth = append(newTruth, truth[:at]...)
			newTruth = append(newTruth, truth[at+n:]...)
			truth = newTruth
		}

		if err := tr.CheckInvariants(); err != nil {
			t.Fatalf("step %d: invariants broken: %v", i, err)
		}
		if tr.TotalBytes() != len(truth) {
			t.Fatalf("step %d: total bytes %d != ground truth length %d", i, tr.TotalBytes(), len(truth))
		}
		got := reconstruct(t, tr, map[Source][]byte{Added: added})
		if string(got) != string(truth) {
			t.Fatalf("step %d: content mismatch\n got: %q\nwant: %q", i, got, truth)
		}
	}
}

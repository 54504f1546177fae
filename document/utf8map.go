package document

import (
	"sort"
	"unicode/utf8"

	"hex1b/herrors"
)

// charEntry records where one character-index slot starts in the source
// byte buffer. A valid 4-byte sequence occupies two slots (a surrogate
// pair in char-index space): the first has byteLength 4, the second is a
// zero-width shadow at the same byteStart, per base-spec §4.3.
type charEntry struct {
	byteStart  int
	byteLength int
}

// ByteCharMap translates between byte offsets and character indices for a
// byte slice, tolerating invalid UTF-8 by treating every undecodable byte
// as its own U+FFFD replacement character.
type ByteCharMap struct {
	entries    []charEntry
	totalBytes int
}

// utf8LeadLength reports the sequence length c's high bits declare (1-4),
// independent of whether the bytes that would follow actually validate. A
// rejected multi-byte attempt must consume its whole declared length as
// individual replacement characters rather than re-scanning the trailing
// bytes as fresh input, per spec.md:121's "the others in the truncated
// sequence then yield one replacement each."
func utf8LeadLength(c byte) int {
	switch {
	case c&0x80 == 0x00:
		return 1
	case c&0xE0 == 0xC0:
		return 2
	case c&0xF0 == 0xE0:
		return 3
	case c&0xF8 == 0xF0:
		return 4
	default:
		return 1
	}
}

// BuildByteCharMap walks b once, producing one entry per character slot.
func BuildByteCharMap(b []byte) *ByteCharMap {
	m := &ByteCharMap{totalBytes: len(b)}
	i := 0
	for i < len(b) {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			n := utf8LeadLength(b[i])
			if i+n > len(b) {
				n = len(b) - i
			}
			for j := 0; j < n; j++ {
				m.entries = append(m.entries, charEntry{byteStart: i + j, byteLength: 1})
			}
			i += n
			continue
		}
		if size == 4 {
			m.entries = append(m.entries, charEntry{byteStart: i, byteLength: 4})
			m.entries = append(m.entries, charEntry{byteStart: i, byteLength: 0})
		} else {
			m.entries = append(m.entries, charEntry{byteStart: i, byteLength: size})
		}
		i += size
	}
	return m
}

// CharCount returns the number of character-index slots, including the
// low-surrogate shadow slots of astral characters.
func (m *ByteCharMap) CharCount() int { return len(m.entries) }

// CharStart returns the byte offset where character slot idx begins.
// idx == CharCount() is valid and returns totalBytes.
func (m *ByteCharMap) CharStart(idx int) int {
	if idx <= 0 {
		return 0
	}
	if idx >= len(m.entries) {
		return m.totalBytes
	}
	return m.entries[idx].byteStart
}

// ByteToChar finds the character slot containing byteOffset, always
// resolving to the "real" (non-zero-width) entry that covers it.
func (m *ByteCharMap) ByteToChar(byteOffset int) (int, error) {
	if byteOffset < 0 || byteOffset >= m.totalBytes {
		return 0, herrors.New(herrors.OutOfRange, "document.ByteToChar", "byte offset outside buffer")
	}
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].byteStart > byteOffset
	}) - 1
	for i > 0 && m.entries[i].byteLength == 0 {
		i--
	}
	return i, nil
}

package present

import (
	"sort"
	"unicode/utf8"
)

// Position is a 0-based line and a column counted in UTF-16 code units,
// which is how editors speaking LSP address text.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a half-open span of positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// LineIndex converts between byte offsets and positions in one text.
type LineIndex struct {
	text   string
	starts []int // byte offset of each line start
}

// NewLineIndex indexes text.
func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{text: text, starts: starts}
}

// Lines returns the number of lines.
func (li *LineIndex) Lines() int {
	return len(li.starts)
}

// Position converts a byte offset. Offsets past the end clamp to the end;
// an offset inside a multi-byte character counts up to that character.
func (li *LineIndex) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(li.text) {
		offset = len(li.text)
	}
	line := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	units := 0
	for off := li.starts[line]; off < offset; {
		r, size := utf8.DecodeRuneInString(li.text[off:])
		if off+size > offset {
			break
		}
		units += utf16Len(r)
		off += size
	}
	return Position{Line: line, Character: units}
}

// Offset converts a position back to a byte offset. Positions past the end
// of a line clamp to the line end, lines past the end clamp to the text end.
func (li *LineIndex) Offset(pos Position) int {
	if pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	if pos.Line >= len(li.starts) {
		return len(li.text)
	}
	off := li.starts[pos.Line]
	end := len(li.text)
	if pos.Line+1 < len(li.starts) {
		end = li.starts[pos.Line+1] - 1
	}
	units := 0
	for off < end {
		r, size := utf8.DecodeRuneInString(li.text[off:end])
		need := utf16Len(r)
		if units+need > pos.Character {
			break
		}
		units += need
		off += size
	}
	return off
}

// Range converts a byte span.
func (li *LineIndex) Range(start, end int) Range {
	return Range{Start: li.Position(start), End: li.Position(end)}
}

// PositionAt converts a byte offset in text to a Position.
func PositionAt(text string, offset int) Position {
	return NewLineIndex(text).Position(offset)
}

// OffsetAt converts a Position in text to a byte offset.
func OffsetAt(text string, pos Position) int {
	return NewLineIndex(text).Offset(pos)
}

func utf16Len(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}

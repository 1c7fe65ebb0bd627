package present

import (
	"strings"
	"testing"

	"badchars/internal/config"
	"badchars/internal/matcher"
	"badchars/internal/scan"
)

func findings(t *testing.T, text string) []scan.Finding {
	t.Helper()
	cfg := config.Default()
	return scan.Scan(text, cfg, matcher.Compile(cfg))
}

func TestPositionAtCountsUTF16Units(t *testing.T) {
	text := "a\U0001F600b\nx\u00E9y"
	cases := []struct {
		offset int
		want   Position
	}{
		{0, Position{0, 0}},
		{1, Position{0, 1}},
		{5, Position{0, 3}},
		{6, Position{0, 4}},
		{7, Position{1, 0}},
		{8, Position{1, 1}},
		{10, Position{1, 2}},
		{3, Position{0, 1}}, // inside the emoji
		{100, Position{1, 3}},
	}
	for _, tc := range cases {
		if got := PositionAt(text, tc.offset); got != tc.want {
			t.Fatalf("offset %d: expected %+v, got %+v", tc.offset, tc.want, got)
		}
	}
}

func TestOffsetAtInvertsPosition(t *testing.T) {
	text := "a\U0001F600b\nx\u00E9y\n"
	li := NewLineIndex(text)
	for off := 0; off <= len(text); off++ {
		pos := li.Position(off)
		back := li.Offset(pos)
		if back > off {
			t.Fatalf("offset %d -> %+v -> %d", off, pos, back)
		}
	}
	if got := li.Offset(Position{Line: 0, Character: 99}); got != strings.Index(text, "\n") {
		t.Fatalf("expected clamp to line end, got %d", got)
	}
	if got := li.Offset(Position{Line: 9, Character: 0}); got != len(text) {
		t.Fatalf("expected clamp to text end, got %d", got)
	}
}

func TestMultiLinePositions(t *testing.T) {
	line := "ab\u200Bcd\u00A0ef\u202E"
	text := strings.Repeat(line+"\n", 6)
	got := Diagnostics(text, config.SeverityWarning, findings(t, text))
	if len(got) != 18 {
		t.Fatalf("expected 18 diagnostics, got %d", len(got))
	}
	wantCols := []int{2, 5, 8}
	for i, d := range got {
		if d.Range.Start.Line != i/3 {
			t.Fatalf("diagnostic %d: expected line %d, got %d", i, i/3, d.Range.Start.Line)
		}
		if d.Range.Start.Character != wantCols[i%3] {
			t.Fatalf("diagnostic %d: expected column %d, got %d", i, wantCols[i%3], d.Range.Start.Character)
		}
		if d.Range.End.Character != wantCols[i%3]+1 {
			t.Fatalf("diagnostic %d: expected one unit wide, got %+v", i, d.Range)
		}
		if d.Severity != config.SeverityWarning {
			t.Fatalf("unexpected severity %s", d.Severity)
		}
	}
}

func TestEmptyProjectionsAreNotNil(t *testing.T) {
	if got := Highlights("clean", nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil highlights, got %#v", got)
	}
	if got := Diagnostics("clean", config.SeverityError, nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil diagnostics, got %#v", got)
	}
}

func TestHoverAndMessage(t *testing.T) {
	f := findings(t, "x\u200B")[0]
	hover := HoverText(f)
	if !strings.HasPrefix(hover, "Bad char \"**\u200B**\" (U+200B ZERO WIDTH SPACE)") {
		t.Fatalf("unexpected hover %q", hover)
	}
	if got := Message(f); got != "Bad character U+200B (ZERO WIDTH SPACE)" {
		t.Fatalf("unexpected message %q", got)
	}
	d := Diagnostics("x\u200B", config.SeverityError, []scan.Finding{f})[0]
	if d.Code != "200B" || d.Source != Source {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}

func TestLookalike(t *testing.T) {
	cases := map[rune]string{
		0x00A0: " ",
		0x037E: ";",
		0x2000: " ",
	}
	for r, want := range cases {
		got, ok := Lookalike(r)
		if !ok || got != want {
			t.Fatalf("U+%04X: expected %q, got %q (%v)", r, want, got, ok)
		}
	}
	for _, r := range []rune{0x200B, 0x202E, 'a'} {
		if _, ok := Lookalike(r); ok {
			t.Fatalf("U+%04X should have no lookalike", r)
		}
	}
	if Replacement(0x200B) != "" || Replacement(0x00A0) != " " {
		t.Fatal("unexpected replacements")
	}
}

package scan

import (
	"reflect"
	"strings"
	"sync"
	"testing"

	"badchars/internal/config"
	"badchars/internal/matcher"
)

func scanWith(t *testing.T, text string, raw config.Values) []Finding {
	t.Helper()
	cfg, err := config.Resolve(raw)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return Scan(text, cfg, matcher.Compile(cfg))
}

func TestZeroWidthSpaceScenario(t *testing.T) {
	text := "zero width space \u200B"
	got := scanWith(t, text, nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %+v", got)
	}
	f := got[0]
	if f.Start != strings.Index(text, "\u200B") || f.End != len(text) {
		t.Fatalf("unexpected offsets: %+v", f)
	}
	if f.Hex != "200B" || f.Char != 0x200B {
		t.Fatalf("unexpected identity: %+v", f)
	}
	if f.Label() != "U+200B ZERO WIDTH SPACE" {
		t.Fatalf("unexpected label %q", f.Label())
	}
}

func TestZeroWidthNonJoinerIsNotFlagged(t *testing.T) {
	if got := scanWith(t, "zero width non-joiner \u200C", nil); len(got) != 0 {
		t.Fatalf("expected no findings, got %+v", got)
	}
}

func TestDefaultTableScenarios(t *testing.T) {
	shown := []string{"\u00A0", "\u00AD", "\uFFFC", "\u202E", "\x00"}
	for _, s := range shown {
		if got := scanWith(t, "a"+s+"b", nil); len(got) != 1 {
			t.Fatalf("%q: expected 1 finding, got %+v", s, got)
		}
	}
	hidden := []string{"\u2029", "\u201C", "\u201D", "\t", "\r\n"}
	for _, s := range hidden {
		if got := scanWith(t, "a"+s+"b", nil); len(got) != 0 {
			t.Fatalf("%q: expected no findings, got %+v", s, got)
		}
	}
}

func TestAllowListScenario(t *testing.T) {
	text := "zero width space \u200B"
	if got := scanWith(t, text, nil); len(got) != 1 {
		t.Fatalf("expected 1 finding before allow, got %+v", got)
	}
	if got := scanWith(t, text, config.Values{config.KeyAllowed: []any{"\u200B"}}); len(got) != 0 {
		t.Fatalf("expected no findings after allow, got %+v", got)
	}
	if got := scanWith(t, text, config.Values{config.KeyAllowed: []any{"200b"}}); len(got) != 0 {
		t.Fatalf("expected hex allow entry to work, got %+v", got)
	}
}

func TestAllowListBeatsEverySource(t *testing.T) {
	raw := config.Values{
		config.KeyASCIIOnly:  true,
		config.KeyAdditional: []any{"q"},
		config.KeyAllowed:    []any{"q", "\u00E9", "\u00A0"},
	}
	got := scanWith(t, "q\u00E9\u00A0\u00F6", raw)
	if len(got) != 1 || got[0].Char != 0xF6 {
		t.Fatalf("expected only U+00F6, got %+v", got)
	}
}

func TestASCIIOnlyCoverage(t *testing.T) {
	var sb strings.Builder
	want := 0
	for r := rune(0x20); r < 0x3000; r += 7 {
		if r >= 0xD800 && r <= 0xDFFF {
			continue
		}
		sb.WriteRune(r)
		if r >= 0x80 {
			want++
		}
	}
	got := scanWith(t, sb.String(), config.Values{config.KeyASCIIOnly: true})
	count := 0
	for _, f := range got {
		if f.Char >= 0x80 {
			count++
		}
	}
	if count != want {
		t.Fatalf("expected %d non-ASCII findings, got %d", want, count)
	}
	for _, f := range got {
		if f.Char < 0x80 && f.Char != 0x7F {
			t.Fatalf("unexpected ASCII finding %+v", f)
		}
	}
}

func TestMultiLineScenario(t *testing.T) {
	line := "a\u200Bb\u00A0c\u202Ed"
	text := strings.Repeat(line+"\n", 6)
	got := scanWith(t, text, nil)
	if len(got) != 18 {
		t.Fatalf("expected 18 findings, got %d", len(got))
	}
	for i, f := range got {
		lineStart := (i / 3) * (len(line) + 1)
		rel := f.Start - lineStart
		wantRel := []int{1, 5, 8}[i%3]
		if rel != wantRel {
			t.Fatalf("finding %d: expected line offset %d, got %d", i, wantRel, rel)
		}
	}
}

func TestFindingsAreOrderedAndDisjoint(t *testing.T) {
	text := "\u200B\u200B x\u00A0\u202A\U0001F600"
	got := scanWith(t, text, config.Values{config.KeyAdditional: []any{"\U0001F600"}})
	if len(got) != 5 {
		t.Fatalf("expected 5 findings, got %+v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Start < got[i-1].End {
			t.Fatalf("findings overlap or are unordered: %+v", got)
		}
	}
}

func TestScanIsDeterministic(t *testing.T) {
	cfg := config.Default()
	m := matcher.Compile(cfg)
	text := strings.Repeat("x\u200By\u2066z ", 50)
	first := Scan(text, cfg, m)
	for i := 0; i < 5; i++ {
		if again := Scan(text, cfg, m); !reflect.DeepEqual(first, again) {
			t.Fatal("scan results differ between runs")
		}
	}
}

func TestHexFormatting(t *testing.T) {
	cases := map[rune]string{0: "0", 0xA0: "A0", 0x200B: "200B", 0x1F600: "1F600"}
	for r, want := range cases {
		if got := Hex(r); got != want {
			t.Fatalf("Hex(%U) = %q, want %q", r, got, want)
		}
	}
}

func TestControlCharacterLabel(t *testing.T) {
	got := scanWith(t, "a\x1bb", nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 finding, got %+v", got)
	}
	if got[0].Label() != "U+001B ESCAPE" {
		t.Fatalf("unexpected label %q", got[0].Label())
	}
}

func TestEngineSwapsWholeSnapshots(t *testing.T) {
	e := NewEngine(config.Default())
	first := e.Snapshot()
	if _, err := e.Reconfigure(config.Values{config.KeyAllowed: []any{"\u200B"}}); err != nil {
		t.Fatalf("reconfigure: %v", err)
	}
	second := e.Snapshot()
	if second.Gen <= first.Gen {
		t.Fatalf("expected newer generation, got %d after %d", second.Gen, first.Gen)
	}
	findings, used := e.Scan("\u200B")
	if used != second || len(findings) != 0 {
		t.Fatalf("expected scan with new snapshot, got %+v", findings)
	}
	if got := first.Scan("\u200B"); len(got) != 1 {
		t.Fatal("old snapshot must keep its own behaviour")
	}
}

func TestEngineConcurrentReaders(t *testing.T) {
	e := NewEngine(config.Default())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if i == 0 && j%20 == 0 {
					_, _ = e.Reconfigure(config.Values{config.KeyASCIIOnly: j%40 == 0})
					continue
				}
				findings, snap := e.Scan("\u00E9\u200B")
				want := 1
				if snap.Config.ASCIIOnly() {
					want = 2
				}
				if len(findings) != want {
					t.Errorf("snapshot %d: expected %d findings, got %d", snap.Gen, want, len(findings))
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"badchars/internal/config"
	"badchars/internal/scan"
)

type recordSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordSink) OnEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordSink) last(file string) Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out Event
	for _, ev := range s.events {
		if ev.File == file {
			out = ev
		}
	}
	return out
}

func writeFile(t *testing.T, path string, content []byte) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func snapshot(t *testing.T, raw config.Values) *scan.Snapshot {
	t.Helper()
	cfg, err := config.Resolve(raw)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return scan.NewEngine(cfg).Snapshot()
}

func TestListFilesSkipsAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.txt"), []byte("b"))
	writeFile(t, filepath.Join(dir, "a.txt"), []byte("a"))
	writeFile(t, filepath.Join(dir, "sub", "c.txt"), []byte("c"))
	writeFile(t, filepath.Join(dir, ".git", "HEAD"), []byte("ref"))
	writeFile(t, filepath.Join(dir, "node_modules", "x", "index.js"), []byte("x"))
	writeFile(t, filepath.Join(dir, "vendor", "v.go"), []byte("v"))

	files, err := ListFiles([]string{dir, filepath.Join(dir, "a.txt")})
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "sub", "c.txt"),
	}
	if strings.Join(files, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected files:\n%v\nwant:\n%v", files, want)
	}

	// a skipped directory named explicitly is still walked
	files, err = ListFiles([]string{filepath.Join(dir, "vendor")})
	if err != nil || len(files) != 1 {
		t.Fatalf("expected vendor/v.go, got %v (%v)", files, err)
	}

	if _, err := ListFiles([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestScanFilesKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	clean := writeFile(t, filepath.Join(dir, "clean.txt"), []byte("all good\n"))
	dirty := writeFile(t, filepath.Join(dir, "dirty.txt"), []byte("x\u200By\u00A0z\n"))
	big := writeFile(t, filepath.Join(dir, "big.txt"), []byte(strings.Repeat("a", 200)))
	binary := writeFile(t, filepath.Join(dir, "blob.bin"), []byte{0x7f, 'E', 'L', 'F', 0, 0})
	missing := filepath.Join(dir, "gone.txt")

	sink := &recordSink{}
	files := []string{clean, dirty, big, binary, missing}
	fileSet, results, err := ScanFiles(context.Background(), snapshot(t, nil), files, Options{
		Jobs:     2,
		MaxBytes: 100,
		Sink:     sink,
	})
	if err != nil {
		t.Fatalf("ScanFiles: %v", err)
	}
	if len(results) != len(files) {
		t.Fatalf("expected %d results, got %d", len(files), len(results))
	}
	for i, res := range results {
		if res.Path != files[i] {
			t.Fatalf("result %d is for %s, want %s", i, res.Path, files[i])
		}
	}

	if !results[0].Scanned() || len(results[0].Findings) != 0 {
		t.Fatalf("clean: %+v", results[0])
	}
	if got := results[1].Findings; len(got) != 2 || got[0].Hex != "200B" || got[1].Hex != "A0" {
		t.Fatalf("dirty: unexpected findings %+v", got)
	}
	if f := fileSet.Get(results[1].FileID); f == nil || f.Path != filepath.ToSlash(dirty) {
		t.Fatalf("dirty file not in file set: %+v", f)
	}
	if results[2].Skipped != SkipTooLarge || results[2].Loaded {
		t.Fatalf("big: %+v", results[2])
	}
	if results[3].Skipped != SkipNotText {
		t.Fatalf("binary: %+v", results[3])
	}
	if results[4].Err == nil || results[4].Scanned() {
		t.Fatalf("missing: %+v", results[4])
	}

	wantStatus := []Status{StatusDone, StatusDone, StatusSkipped, StatusSkipped, StatusError}
	for i, file := range files {
		if got := sink.last(file).Status; got != wantStatus[i] {
			t.Errorf("%s: last status %s, want %s", filepath.Base(file), got, wantStatus[i])
		}
	}
	if ev := sink.last(dirty); ev.Findings != 2 {
		t.Errorf("expected 2 findings in done event, got %d", ev.Findings)
	}
}

func TestScanFilesUsesCache(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "a.txt"), []byte("a\u200Bb"))
	cache, err := NewDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	snap := snapshot(t, nil)

	_, first, err := ScanFiles(context.Background(), snap, []string{path}, Options{Cache: cache})
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	if first[0].Cached || len(first[0].Findings) != 1 {
		t.Fatalf("first scan: %+v", first[0])
	}

	_, second, err := ScanFiles(context.Background(), snap, []string{path}, Options{Cache: cache})
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if !second[0].Cached || len(second[0].Findings) != 1 || second[0].Findings[0] != first[0].Findings[0] {
		t.Fatalf("second scan: %+v", second[0])
	}

	// another allow-list is another cache key
	allowing := snapshot(t, config.Values{config.KeyAllowed: []any{"200b"}})
	_, third, err := ScanFiles(context.Background(), allowing, []string{path}, Options{Cache: cache})
	if err != nil {
		t.Fatalf("third scan: %v", err)
	}
	if third[0].Cached || len(third[0].Findings) != 0 {
		t.Fatalf("third scan: %+v", third[0])
	}
}

func TestScanFilesCancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "a.txt"), []byte("text"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := ScanFiles(ctx, snapshot(t, nil), []string{path}, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestScanContentStripsBOM(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a\u200Bb")...)
	fileSet, res := ScanContent(snapshot(t, nil), "<stdin>", content)
	if !res.Scanned() || len(res.Findings) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Findings[0].Start != 1 {
		t.Fatalf("offset should not count the BOM, got %d", res.Findings[0].Start)
	}
	start, _ := fileSet.Resolve(fileSet.Get(res.FileID).Span(res.Findings[0].Start, res.Findings[0].End))
	if start.Line != 1 || start.Col != 2 {
		t.Fatalf("unexpected position %+v", start)
	}

	_, res = ScanContent(snapshot(t, nil), "<stdin>", []byte{'a', 0, 'b'})
	if res.Skipped != SkipNotText {
		t.Fatalf("expected binary stdin to be skipped, got %+v", res)
	}
}

func TestScanTextKeepsEveryRune(t *testing.T) {
	fileSet, res := ScanText(snapshot(t, nil), "<text>", "\uFEFFa\x00b")
	if !res.Scanned() {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Findings) != 2 || res.Findings[0].Char != 0xFEFF || res.Findings[0].Start != 0 || res.Findings[1].Char != 0 {
		t.Fatalf("expected the BOM and NUL to be reported, got %+v", res.Findings)
	}
	file := fileSet.Get(res.FileID)
	start, _ := fileSet.Resolve(file.Span(res.Findings[1].Start, res.Findings[1].End))
	if start.Line != 1 || start.Col != 5 {
		t.Fatalf("unexpected NUL position %+v", start)
	}
}

package watch

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"badchars/internal/config"
	"badchars/internal/schedule"
)

const delay = 500 * time.Millisecond

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// take returns what was written since the last call.
func (b *syncBuffer) take() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.buf.String()
	b.buf.Reset()
	return s
}

type fixture struct {
	w     *Watcher
	clock *schedule.ManualClock
	out   *syncBuffer
	path  string
	dir   string
}

func setup(t *testing.T, content string, opts Options) *fixture {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	write(t, path, content)

	clock := schedule.NewManualClock()
	out := &syncBuffer{}
	opts.Path = path
	opts.Out = out
	opts.Delay = delay
	opts.Clock = clock
	opts.Now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	w, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Controller().Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	t.Cleanup(w.Controller().Deactivate)
	return &fixture{w: w, clock: clock, out: out, path: path, dir: dir}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestWatchReportsAndClears(t *testing.T) {
	f := setup(t, "a\u200Bb\n", Options{})

	f.clock.Advance(delay)
	out := f.out.take()
	for _, want := range []string{"[03:04:05] " + f.path, "found 1 bad character in 1 of 1 file", "a<U+200B>b"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	write(t, f.path, "ab\n")
	if err := f.w.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	f.clock.Advance(delay)
	if out := f.out.take(); !strings.Contains(out, "no bad characters found") {
		t.Fatalf("expected clean report, got:\n%s", out)
	}

	// no change on disk: nothing is scheduled or printed
	if err := f.w.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if f.clock.Armed() != 0 {
		t.Fatal("unchanged file must not schedule a scan")
	}
	if out := f.out.take(); out != "" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestWatchDebouncesRapidChanges(t *testing.T) {
	f := setup(t, "clean\n", Options{})
	f.clock.Advance(delay)
	f.out.take()

	write(t, f.path, "one\u00A0\n")
	_ = f.w.Poll()
	f.clock.Advance(delay / 2)
	write(t, f.path, "two\u00A0\u200B\n")
	_ = f.w.Poll()
	f.clock.Advance(delay / 2)
	if out := f.out.take(); out != "" {
		t.Fatalf("scan ran before the quiet period ended:\n%s", out)
	}

	f.clock.Advance(delay)
	out := f.out.take()
	if strings.Count(out, "[03:04:05]") != 1 || !strings.Contains(out, "found 2 bad characters") {
		t.Fatalf("expected exactly one scan of the latest text, got:\n%s", out)
	}
}

func TestWatchRemovedAndRestored(t *testing.T) {
	f := setup(t, "x\u200B\n", Options{})
	f.clock.Advance(delay)
	f.out.take()

	if err := os.Remove(f.path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := f.w.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	out := f.out.take()
	if !strings.Contains(out, "removed") || strings.Contains(out, "no bad characters") {
		t.Fatalf("unexpected output after removal:\n%s", out)
	}
	if _, ok := f.w.Text(f.path); ok {
		t.Fatal("removed file must have no text")
	}

	write(t, f.path, "back\u200B\u200B\n")
	if err := f.w.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	f.clock.Advance(delay)
	if out := f.out.take(); !strings.Contains(out, "found 2 bad characters") {
		t.Fatalf("restored file not rescanned:\n%s", out)
	}
}

func TestWatchConfigReload(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, ".badchars.toml")
	write(t, cfgPath, "severity = \"warning\"\n")

	f := setup(t, "a\u200Bb\n", Options{ConfigFile: cfgPath})
	if f.w.ConfigPath() != cfgPath {
		t.Fatalf("unexpected config path %q", f.w.ConfigPath())
	}
	f.clock.Advance(delay)
	if out := f.out.take(); !strings.Contains(out, "warning: Bad character U+200B") {
		t.Fatalf("config severity not applied:\n%s", out)
	}

	write(t, cfgPath, "severity = \"warning\"\nallowed = [\"200b\"]\n")
	if err := f.w.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	f.clock.Advance(delay)
	if out := f.out.take(); !strings.Contains(out, "no bad characters found") {
		t.Fatalf("allow-list from reloaded config not applied:\n%s", out)
	}

	// a broken config keeps the previous values
	write(t, cfgPath, "severity = [unterminated\n")
	if err := f.w.Poll(); err == nil || !strings.Contains(err.Error(), "ignoring config file") {
		t.Fatalf("expected config error, got %v", err)
	}
	if _, ok := f.w.Values(config.Namespace)[config.KeyAllowed]; !ok {
		t.Fatal("previous config values were dropped")
	}
}

func TestWatchOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cfg.yaml")
	write(t, cfgPath, "severity: hint\n")

	f := setup(t, "x\u00A0\n", Options{
		ConfigFile: cfgPath,
		Overrides:  config.Values{config.KeySeverity: "error"},
	})
	f.clock.Advance(delay)
	if out := f.out.take(); !strings.Contains(out, "error: Bad character U+00A0") {
		t.Fatalf("override not applied:\n%s", out)
	}
}

func TestNewRejectsMissingAndBinary(t *testing.T) {
	dir := t.TempDir()
	if _, err := New(Options{Path: filepath.Join(dir, "missing.txt")}); err == nil {
		t.Fatal("expected error for missing file")
	}
	bin := filepath.Join(dir, "blob")
	write(t, bin, "a\x00b")
	if _, err := New(Options{Path: bin}); err == nil {
		t.Fatal("expected error for binary file")
	}
	if _, err := New(Options{Path: dir}); err == nil {
		t.Fatal("expected error for directory")
	}
}

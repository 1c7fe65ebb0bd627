package source

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("notes.txt", []byte("hello world"), 0)
	if id1 != 0 {
		t.Errorf("Expected first FileID to be 0, got %d", id1)
	}
	id2 := fs.Add("notes.txt", []byte("hello universe"), 0)
	if id2 != 1 {
		t.Errorf("Expected second FileID to be 1, got %d", id2)
	}

	latestID, exists := fs.GetLatest("notes.txt")
	if !exists || latestID != id2 {
		t.Fatalf("Expected latest ID %d, got %d (%v)", id2, latestID, exists)
	}
	if string(fs.Get(id1).Content) != "hello world" {
		t.Errorf("old version lost: %q", fs.Get(id1).Content)
	}
	if fs.Len() != 2 {
		t.Errorf("Expected 2 files, got %d", fs.Len())
	}
	if fs.Get(42) != nil {
		t.Error("Expected nil for unknown id")
	}
}

func TestAddVirtualLineIdx(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("<stdin>", []byte("a\nb\n"))
	file := fs.Get(id)

	expected := []uint32{1, 3}
	if len(file.LineIdx) != len(expected) {
		t.Fatalf("Expected LineIdx length %d, got %d", len(expected), len(file.LineIdx))
	}
	for i, val := range expected {
		if file.LineIdx[i] != val {
			t.Errorf("Expected LineIdx[%d] = %d, got %d", i, val, file.LineIdx[i])
		}
	}
	if file.Flags&FileVirtual == 0 {
		t.Error("Expected FileVirtual flag to be set")
	}
	if file.Path != "<stdin>" || file.FormatPath("absolute", "") != "<stdin>" {
		t.Errorf("virtual path rewritten: %q", file.Path)
	}
}

func TestLoadStripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.txt")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("x\r\ny")...)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	file := fs.Get(id)
	if file.Flags&FileHadBOM == 0 {
		t.Error("Expected FileHadBOM flag")
	}
	// CRLF is kept so offsets match the bytes on disk minus the BOM
	if !bytes.Equal(file.Content, []byte("x\r\ny")) {
		t.Errorf("unexpected content %q", file.Content)
	}

	if _, err := fs.Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("t", []byte("ab\ncd\n\nef"))
	file := fs.Get(id)
	cases := []struct {
		off  int
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}}, // the newline belongs to line 1
		{3, LineCol{2, 1}},
		{6, LineCol{3, 1}},
		{7, LineCol{4, 1}},
		{8, LineCol{4, 2}},
	}
	for _, tc := range cases {
		start, _ := fs.Resolve(file.Span(tc.off, tc.off+1))
		if start != tc.want {
			t.Errorf("offset %d: expected %+v, got %+v", tc.off, tc.want, start)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	file := fs.Get(fs.AddVirtual("t", []byte("first\nsecond\n\nlast")))
	want := []string{"", "first", "second", "", "last", ""}
	for n, line := range want {
		if got := file.GetLine(uint32(n)); got != line {
			t.Errorf("line %d: expected %q, got %q", n, line, got)
		}
	}
}

func TestLooksText(t *testing.T) {
	cases := map[string]struct {
		content []byte
		want    bool
	}{
		"ascii":   {[]byte("plain text\n"), true},
		"utf8":    {[]byte("caf\u00E9 \u200B"), true},
		"nul":     {[]byte("a\x00b"), false},
		"latin1":  {[]byte{'c', 'a', 'f', 0xE9}, false},
		"empty":   {nil, true},
		"cutRune": {append(bytes.Repeat([]byte("a"), sniffLen-1), []byte("\u00E9")...), true},
		"lateBad": {append(bytes.Repeat([]byte("a"), sniffLen+10), 0xFF), true},
	}
	for name, tc := range cases {
		if got := LooksText(tc.content); got != tc.want {
			t.Errorf("%s: expected %v, got %v", name, tc.want, got)
		}
	}
}

func TestFormatPath(t *testing.T) {
	fs := NewFileSet()
	long := "/very/long/absolute/path/that/goes/on/and/on/file.txt"
	file := fs.Get(fs.Add(long, nil, 0))
	if got := file.FormatPath("auto", ""); got != "file.txt" {
		t.Errorf("auto: expected basename, got %q", got)
	}
	if got := file.FormatPath("basename", ""); got != "file.txt" {
		t.Errorf("basename: got %q", got)
	}
	short := fs.Get(fs.Add("dir/a.txt", nil, 0))
	if got := short.FormatPath("auto", ""); got != "dir/a.txt" {
		t.Errorf("auto short: got %q", got)
	}
	if got := short.FormatPath("absolute", ""); !strings.HasSuffix(got, "/dir/a.txt") {
		t.Errorf("absolute: got %q", got)
	}
}

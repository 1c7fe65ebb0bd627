package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"badchars/internal/charset"
	"badchars/internal/version"
)

func TestRenderVersionJSON(t *testing.T) {
	info := version.Info{Version: "1.2.3", GitCommit: "abc123"}
	var buf bytes.Buffer
	if err := renderVersionJSON(&buf, info, versionOptions{showHash: true}); err != nil {
		t.Fatalf("renderVersionJSON: %v", err)
	}
	var got versionPayload
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Tool != "badchars" || got.Version != "1.2.3" || got.GitCommit != "abc123" {
		t.Fatalf("unexpected payload %+v", got)
	}
	if got.BuildDate != "" || got.Characters != charset.Len() {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestRenderVersionPretty(t *testing.T) {
	var buf bytes.Buffer
	renderVersionPretty(&buf, version.Info{Version: "0.1.0", Modified: true}, versionOptions{showHash: true, showDate: true})
	out := buf.String()
	for _, want := range []string{"badchars 0.1.0", "commit:  unknown (modified)", "built:   unknown"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "message:") {
		t.Fatalf("message shown without --message:\n%s", out)
	}
}

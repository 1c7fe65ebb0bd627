package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltersScopes(t *testing.T) {
	if LevelPhase.ShouldEmit(ScopeDocument) {
		t.Fatal("phase level must not emit document events")
	}
	if !LevelDetail.ShouldEmit(ScopeDocument) {
		t.Fatal("detail level should emit document events")
	}
	if !LevelError.ShouldEmit(ScopeError) || LevelError.ShouldEmit(ScopeSession) {
		t.Fatal("error level should only emit error events")
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)
	span := Begin(tr, ScopeDocument, "scan", 0)
	span.WithExtra("findings", "3").End("")
	Point(tr, ScopeMatch, "ignored", "")
	out := buf.String()
	if !strings.Contains(out, "> scan") || !strings.Contains(out, "< scan") {
		t.Fatalf("missing span lines: %q", out)
	}
	if !strings.Contains(out, "findings=3") {
		t.Fatalf("missing extra: %q", out)
	}
	if strings.Contains(out, "ignored") {
		t.Fatalf("match scope leaked at detail level: %q", out)
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Point(tr, ScopeSession, "reconfigure", "asciiOnly", "uri", "file:///a")
	var ev map[string]any
	if err := json.Unmarshal(buf.Bytes(), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev["name"] != "reconfigure" || ev["scope"] != "session" {
		t.Fatalf("unexpected event %v", ev)
	}
}

func TestRingTracerWraps(t *testing.T) {
	ring := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(ring, ScopeSession, name, "")
	}
	events := ring.Snapshot()
	if len(events) != 2 || events[0].Name != "b" || events[1].Name != "c" {
		t.Fatalf("unexpected ring contents: %+v", events)
	}
}

func TestContextDefaultsToNop(t *testing.T) {
	if FromContext(context.Background()).Enabled() {
		t.Fatal("expected nop tracer")
	}
	ring := NewRingTracer(4, LevelPhase)
	ctx := WithTracer(context.Background(), ring)
	if FromContext(ctx) != Tracer(ring) {
		t.Fatal("expected tracer from context")
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if tr.Enabled() {
		t.Fatal("expected disabled tracer")
	}
}

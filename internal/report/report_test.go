package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"badchars/internal/config"
	"badchars/internal/driver"
	"badchars/internal/scan"
	"badchars/internal/source"
)

const dirtyText = "ok\nx\u200By\u037E\n"

func testReport(t *testing.T, withProblems bool) Report {
	t.Helper()
	files := source.NewFileSet()
	id := files.AddVirtual("a.txt", []byte(dirtyText))
	snap := scan.NewEngine(config.Default()).Snapshot()
	results := []driver.FileResult{{
		Path:     "a.txt",
		FileID:   id,
		Loaded:   true,
		Findings: snap.Scan(dirtyText),
	}}
	if withProblems {
		results = append(results,
			driver.FileResult{Path: "b.bin", Skipped: driver.SkipNotText},
			driver.FileResult{Path: "c.txt", Err: errors.New("permission denied")},
		)
	}
	return Report{Files: files, Results: results, Severity: config.SeverityWarning}
}

func TestBuildItems(t *testing.T) {
	out := Build(testReport(t, true), Options{})
	if out.Count != 2 || len(out.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", out.Count)
	}

	first := out.Items[0]
	if first.Code != "200B" || first.Name != "ZERO WIDTH SPACE" || first.Severity != "warning" {
		t.Fatalf("unexpected first item %+v", first)
	}
	if first.Message != "Bad character U+200B (ZERO WIDTH SPACE)" {
		t.Fatalf("unexpected message %q", first.Message)
	}
	if loc := first.Location; loc.File != "a.txt" || loc.Line != 2 || loc.Col != 2 || loc.StartByte != 4 || loc.EndByte != 7 {
		t.Fatalf("unexpected location %+v", loc)
	}

	second := out.Items[1]
	if second.Code != "37E" || second.Lookalike != ";" || second.Location.Col != 6 {
		t.Fatalf("unexpected second item %+v", second)
	}

	want := Totals{Findings: 2, Scanned: 1, Dirty: 1, Skipped: 1, Errors: 1}
	if out.Totals != want {
		t.Fatalf("totals: got %+v, want %+v", out.Totals, want)
	}
	if len(out.Skipped) != 1 || out.Skipped[0].Reason != "not text" {
		t.Fatalf("unexpected skipped %+v", out.Skipped)
	}
	if len(out.Errors) != 1 || out.Errors[0].File != "c.txt" {
		t.Fatalf("unexpected errors %+v", out.Errors)
	}

	if limited := Build(testReport(t, false), Options{Max: 1}); limited.Count != 1 {
		t.Fatalf("Max: expected 1 item, got %d", limited.Count)
	}
}

func TestBuildCleanReportHasEmptyItems(t *testing.T) {
	files := source.NewFileSet()
	id := files.AddVirtual("clean.txt", []byte("fine"))
	r := Report{Files: files, Results: []driver.FileResult{{Path: "clean.txt", FileID: id, Loaded: true}}}

	var buf bytes.Buffer
	if err := JSON(&buf, r, Options{}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"items": []`) {
		t.Fatalf("expected empty items array, got:\n%s", buf.String())
	}
}

func TestJSONAndNDJSON(t *testing.T) {
	r := testReport(t, false)

	var buf bytes.Buffer
	if err := JSON(&buf, r, Options{}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out Output
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 2 || out.Items[1].Char != "\u037E" {
		t.Fatalf("unexpected decoded output %+v", out)
	}

	buf.Reset()
	if err := NDJSON(&buf, r, Options{}); err != nil {
		t.Fatalf("NDJSON: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", len(lines), buf.String())
	}
	var item ItemJSON
	if err := json.Unmarshal([]byte(lines[0]), &item); err != nil || item.Code != "200B" {
		t.Fatalf("bad first line %q: %v", lines[0], err)
	}
}

func TestMsgpack(t *testing.T) {
	r := testReport(t, true)
	var buf bytes.Buffer
	if err := Msgpack(&buf, r, Options{}); err != nil {
		t.Fatalf("Msgpack: %v", err)
	}
	out, err := DecodeMsgpack(&buf)
	if err != nil {
		t.Fatalf("DecodeMsgpack: %v", err)
	}
	want := Build(r, Options{})
	if out.Count != want.Count || out.Items[0].Location != want.Items[0].Location || out.Totals != want.Totals {
		t.Fatalf("msgpack output differs:\n got %+v\nwant %+v", out, want)
	}
}

func TestSarif(t *testing.T) {
	var buf bytes.Buffer
	if err := Sarif(&buf, testReport(t, true), Options{ToolVersion: "1.2.3"}); err != nil {
		t.Fatalf("Sarif: %v", err)
	}
	var log struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name    string `json:"name"`
					Version string `json:"version"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				Level     string `json:"level"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
						Region sarifRegion `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF JSON: %v", err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("unexpected log %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "badchars" || run.Tool.Driver.Version != "1.2.3" {
		t.Fatalf("unexpected driver %+v", run.Tool.Driver)
	}
	if len(run.Results) != 2 || run.Results[0].Level != "warning" {
		t.Fatalf("unexpected results %+v", run.Results)
	}
	// code points, not bytes: x, ZWSP, y, then U+037E
	region := run.Results[1].Locations[0].PhysicalLocation.Region
	if region.StartLine != 2 || region.StartColumn != 4 || region.ByteOffset != 8 || region.ByteLength != 2 {
		t.Fatalf("unexpected region %+v", region)
	}
}

func TestPrettyPlain(t *testing.T) {
	var buf bytes.Buffer
	if err := Pretty(&buf, testReport(t, true), Options{Context: true}); err != nil {
		t.Fatalf("Pretty: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"a.txt:2:2: warning: Bad character U+200B (ZERO WIDTH SPACE)\n",
		"a.txt:2:6: warning: Bad character U+037E (GREEK QUESTION MARK) (looks like \";\")\n",
		"    2 | x<U+200B>y<U+037E>\n",
		"      |  ^^^^^^^^\n",
		"      |           ^^^^^^^^\n",
		"c.txt: error: permission denied\n",
		"found 2 bad characters in 1 of 1 file\n",
		"skipped 1 file (binary or too large)\n",
		"1 file could not be read\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.ContainsAny(out, "\u200B\u037E\x1b") {
		t.Errorf("raw bad characters or escapes leaked into output:\n%q", out)
	}
}

func TestPrettyColorAndMax(t *testing.T) {
	var buf bytes.Buffer
	if err := Pretty(&buf, testReport(t, false), Options{Color: true, Max: 1}); err != nil {
		t.Fatalf("Pretty: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "\x1b[") {
		t.Errorf("expected ANSI colors, got %q", out)
	}
	if !strings.Contains(out, "... 1 more not shown") {
		t.Errorf("expected truncation note, got:\n%s", out)
	}
}

func TestPrettyClean(t *testing.T) {
	files := source.NewFileSet()
	id := files.AddVirtual("clean.txt", []byte("fine"))
	r := Report{Files: files, Results: []driver.FileResult{{Path: "clean.txt", FileID: id, Loaded: true}}}
	var buf bytes.Buffer
	if err := Pretty(&buf, r, Options{}); err != nil {
		t.Fatalf("Pretty: %v", err)
	}
	if got := buf.String(); got != "no bad characters found (1 file scanned)\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRenderLineEscapesControls(t *testing.T) {
	p := newPalette(false, config.SeverityError)
	text, spans := renderLine("\ta\x1bb\r", 0, []scan.Finding{{Start: 2, End: 3, Char: 0x1B, Hex: "1B"}}, p)
	if text != "    a<U+001B>b" {
		t.Fatalf("unexpected render %q", text)
	}
	if spans[0] != (displaySpan{col: 5, width: 8}) {
		t.Fatalf("unexpected span %+v", spans[0])
	}
}

func TestFailed(t *testing.T) {
	r := testReport(t, false)
	if Failed(r, false) {
		t.Fatal("warning findings must not fail without --strict")
	}
	if !Failed(r, true) {
		t.Fatal("strict mode must fail on any finding")
	}
	r.Severity = config.SeverityError
	if !Failed(r, false) {
		t.Fatal("error findings must fail")
	}
	if !Failed(testReport(t, true), false) {
		t.Fatal("unreadable files must fail")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatPretty, "JSON": FormatJSON, "jsonl": FormatNDJSON, "msgpack": FormatMsgpack, "sarif": FormatSarif} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

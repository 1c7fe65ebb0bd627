package report

import (
	"fmt"
	"strings"

	"badchars/internal/config"
	"badchars/internal/driver"
	"badchars/internal/source"
)

// Format selects an output encoder.
type Format uint8

const (
	FormatPretty Format = iota
	FormatJSON
	FormatNDJSON
	FormatMsgpack
	FormatSarif
)

// String returns the flag spelling of the format.
func (f Format) String() string {
	switch f {
	case FormatPretty:
		return "pretty"
	case FormatJSON:
		return "json"
	case FormatNDJSON:
		return "ndjson"
	case FormatMsgpack:
		return "msgpack"
	case FormatSarif:
		return "sarif"
	default:
		return "unknown"
	}
}

// ParseFormat parses a --format value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pretty", "text":
		return FormatPretty, nil
	case "json":
		return FormatJSON, nil
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	case "msgpack":
		return FormatMsgpack, nil
	case "sarif":
		return FormatSarif, nil
	default:
		return FormatPretty, fmt.Errorf("unknown format %q (expected pretty|json|ndjson|msgpack|sarif)", s)
	}
}

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto keeps short or relative paths and shortens long absolute ones.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// ParsePathMode parses a --path-mode value.
func ParsePathMode(s string) (PathMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return PathModeAuto, nil
	case "absolute", "abs":
		return PathModeAbsolute, nil
	case "relative", "rel":
		return PathModeRelative, nil
	case "basename", "base":
		return PathModeBasename, nil
	default:
		return PathModeAuto, fmt.Errorf("unknown path mode %q (expected auto|absolute|relative|basename)", s)
	}
}

func (m PathMode) key() string {
	switch m {
	case PathModeAbsolute:
		return "absolute"
	case PathModeRelative:
		return "relative"
	case PathModeBasename:
		return "basename"
	default:
		return "auto"
	}
}

// Options configure every encoder; each one reads the fields it needs.
type Options struct {
	Color    bool     // pretty only
	Context  bool     // pretty: print the offending line with a caret
	PathMode PathMode // all formats
	Max      int      // обрезка вывода, 0 - без ограничения

	ToolName    string // sarif
	ToolVersion string // sarif
}

// Report is the outcome of one batch run.
type Report struct {
	Files    *source.FileSet
	Results  []driver.FileResult
	Severity config.Severity
}

// Totals summarises a report.
type Totals struct {
	Findings int `json:"findings" msgpack:"findings"`
	Scanned  int `json:"scanned" msgpack:"scanned"`
	Dirty    int `json:"dirty" msgpack:"dirty"`
	Skipped  int `json:"skipped" msgpack:"skipped"`
	Errors   int `json:"errors" msgpack:"errors"`
}

// Totals counts findings and files by outcome.
func (r Report) Totals() Totals {
	var t Totals
	for _, res := range r.Results {
		switch {
		case res.Err != nil:
			t.Errors++
		case res.Skipped != "":
			t.Skipped++
		default:
			t.Scanned++
			t.Findings += len(res.Findings)
			if len(res.Findings) > 0 {
				t.Dirty++
			}
		}
	}
	return t
}

func (r Report) path(res driver.FileResult, mode PathMode) string {
	if res.Loaded && r.Files != nil {
		if f := r.Files.Get(res.FileID); f != nil {
			base := ""
			if mode == PathModeRelative {
				base = r.Files.BaseDir()
			}
			return f.FormatPath(mode.key(), base)
		}
	}
	return res.Path
}

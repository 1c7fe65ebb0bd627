package report

import (
	"encoding/json"
	"io"
	"unicode/utf8"

	"badchars/internal/config"
	"badchars/internal/present"
)

const (
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion = "2.1.0"
	sarifRuleID  = "bad-character"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool     `json:"tool"`
	ColumnKind string        `json:"columnKind"`
	Results    []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID     string            `json:"ruleId"`
	Level      string            `json:"level"`
	Message    sarifMessage      `json:"message"`
	Locations  []sarifLocation   `json:"locations"`
	Properties map[string]string `json:"properties,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           sarifRegion   `json:"region"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine"`
	StartColumn int    `json:"startColumn"`
	EndColumn   int    `json:"endColumn"`
	ByteOffset  uint32 `json:"byteOffset"`
	ByteLength  uint32 `json:"byteLength"`
}

func sarifLevel(s config.Severity) string {
	switch s {
	case config.SeverityError:
		return "error"
	case config.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

// Sarif форматирует находки в SARIF (v2.1.0). Columns are counted in code
// points, byte offsets are given alongside.
func Sarif(w io.Writer, r Report, opts Options) error {
	name := opts.ToolName
	if name == "" {
		name = "badchars"
	}
	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:    name,
			Version: opts.ToolVersion,
			Rules: []sarifRule{{
				ID:               sarifRuleID,
				ShortDescription: sarifMessage{Text: "Invisible or confusable Unicode character"},
			}},
		}},
		ColumnKind: "unicodeCodePoints",
		Results:    make([]sarifResult, 0),
	}

	level := sarifLevel(r.Severity)
	for _, res := range r.Results {
		if !res.Scanned() {
			continue
		}
		file := r.Files.Get(res.FileID)
		path := r.path(res, opts.PathMode)
		for _, f := range res.Findings {
			if opts.Max > 0 && len(run.Results) >= opts.Max {
				break
			}
			span := file.Span(f.Start, f.End)
			start, _ := r.Files.Resolve(span)
			line := file.GetLine(start.Line)
			col := utf8.RuneCountInString(line[:min(int(start.Col-1), len(line))]) + 1
			props := map[string]string{"codePoint": "U+" + f.Hex}
			if name := f.Name(); name != "" {
				props["name"] = name
			}
			run.Results = append(run.Results, sarifResult{
				RuleID:  sarifRuleID,
				Level:   level,
				Message: sarifMessage{Text: present.Message(f)},
				Locations: []sarifLocation{{PhysicalLocation: sarifPhysical{
					ArtifactLocation: sarifArtifact{URI: path},
					Region: sarifRegion{
						StartLine:   start.Line,
						StartColumn: col,
						EndColumn:   col + 1,
						ByteOffset:  span.Start,
						ByteLength:  span.Len(),
					},
				}}},
				Properties: props,
			})
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(sarifLog{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs:    []sarifRun{run},
	})
}

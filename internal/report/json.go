package report

import (
	"encoding/json"
	"io"

	"badchars/internal/present"
	"badchars/internal/scan"
	"badchars/internal/source"
)

// LocationJSON представляет местоположение в файле для JSON
type LocationJSON struct {
	File      string `json:"file" msgpack:"file"`
	StartByte uint32 `json:"start_byte" msgpack:"start_byte"`
	EndByte   uint32 `json:"end_byte" msgpack:"end_byte"`
	Line      uint32 `json:"line,omitempty" msgpack:"line,omitempty"`
	Col       uint32 `json:"col,omitempty" msgpack:"col,omitempty"` // 1-based, bytes
}

// ItemJSON is one finding.
type ItemJSON struct {
	Severity  string       `json:"severity" msgpack:"severity"`
	Code      string       `json:"code" msgpack:"code"` // hex code point, e.g. "200B"
	Char      string       `json:"char" msgpack:"char"`
	Name      string       `json:"name,omitempty" msgpack:"name,omitempty"`
	Message   string       `json:"message" msgpack:"message"`
	Lookalike string       `json:"lookalike,omitempty" msgpack:"lookalike,omitempty"`
	Location  LocationJSON `json:"location" msgpack:"location"`
}

// FileIssueJSON reports a file that was not scanned.
type FileIssueJSON struct {
	File   string `json:"file" msgpack:"file"`
	Reason string `json:"reason" msgpack:"reason"`
}

// Output представляет корневую структуру JSON вывода
type Output struct {
	Items   []ItemJSON      `json:"items" msgpack:"items"`
	Count   int             `json:"count" msgpack:"count"`
	Totals  Totals          `json:"totals" msgpack:"totals"`
	Skipped []FileIssueJSON `json:"skipped,omitempty" msgpack:"skipped,omitempty"`
	Errors  []FileIssueJSON `json:"errors,omitempty" msgpack:"errors,omitempty"`
}

// Build формирует структуру вывода без сериализации. Items follow the order
// of the results, then ascending offset within a file.
func Build(r Report, opts Options) Output {
	out := Output{
		Items:  make([]ItemJSON, 0),
		Totals: r.Totals(),
	}
	for _, res := range r.Results {
		path := r.path(res, opts.PathMode)
		switch {
		case res.Err != nil:
			out.Errors = append(out.Errors, FileIssueJSON{File: path, Reason: res.Err.Error()})
			continue
		case res.Skipped != "":
			out.Skipped = append(out.Skipped, FileIssueJSON{File: path, Reason: string(res.Skipped)})
			continue
		}
		file := r.Files.Get(res.FileID)
		for _, f := range res.Findings {
			if opts.Max > 0 && len(out.Items) >= opts.Max {
				break
			}
			out.Items = append(out.Items, r.item(file, path, f))
		}
	}
	out.Count = len(out.Items)
	return out
}

func (r Report) item(file *source.File, path string, f scan.Finding) ItemJSON {
	span := file.Span(f.Start, f.End)
	start, _ := r.Files.Resolve(span)
	item := ItemJSON{
		Severity: r.Severity.String(),
		Code:     f.Hex,
		Char:     string(f.Char),
		Name:     f.Name(),
		Message:  present.Message(f),
		Location: LocationJSON{
			File:      path,
			StartByte: span.Start,
			EndByte:   span.End,
			Line:      start.Line,
			Col:       start.Col,
		},
	}
	if look, ok := present.Lookalike(f.Char); ok {
		item.Lookalike = look
	}
	return item
}

// JSON writes the whole report as one indented JSON document.
func JSON(w io.Writer, r Report, opts Options) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(Build(r, opts))
}

// NDJSON writes one finding per line, for piping into line-oriented tools.
func NDJSON(w io.Writer, r Report, opts Options) error {
	encoder := json.NewEncoder(w)
	for _, item := range Build(r, opts).Items {
		if err := encoder.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

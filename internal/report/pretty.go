package report

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"badchars/internal/config"
	"badchars/internal/present"
	"badchars/internal/scan"
	"badchars/internal/source"
)

type palette struct {
	path   *color.Color
	sev    *color.Color
	marker *color.Color
	caret  *color.Color
	dim    *color.Color
	ok     *color.Color
}

func newPalette(on bool, sev config.Severity) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	var sevColor *color.Color
	switch sev {
	case config.SeverityError:
		sevColor = mk(color.FgRed, color.Bold)
	case config.SeverityWarning:
		sevColor = mk(color.FgYellow, color.Bold)
	case config.SeverityInformation:
		sevColor = mk(color.FgBlue, color.Bold)
	default:
		sevColor = mk(color.FgCyan)
	}
	return palette{
		path:   mk(color.Bold),
		sev:    sevColor,
		marker: mk(color.FgBlack, color.BgRed),
		caret:  mk(color.FgRed, color.Bold),
		dim:    mk(color.Faint),
		ok:     mk(color.FgGreen),
	}
}

// Pretty печатает находки в человекочитаемом виде:
//
//	notes.txt:3:4: warning: Bad character U+200B (ZERO WIDTH SPACE)
//	   3 | foo<U+200B>bar
//	     |    ^^^^^^^^
//
// Bad characters on the printed line are replaced by visible markers so
// bidi controls cannot reorder the terminal output. A summary line closes
// the report.
func Pretty(w io.Writer, r Report, opts Options) error {
	p := newPalette(opts.Color, r.Severity)
	pw := &errWriter{w: w}
	printed, total := 0, 0

	for _, res := range r.Results {
		path := r.path(res, opts.PathMode)
		if res.Err != nil {
			pw.printf("%s: %s: %v\n", p.path.Sprint(path), p.sev.Sprint("error"), res.Err)
			continue
		}
		if !res.Scanned() {
			continue
		}
		total += len(res.Findings)
		file := r.Files.Get(res.FileID)
		for _, group := range groupByLine(r.Files, file, res.Findings) {
			for i, f := range group.findings {
				if opts.Max > 0 && printed >= opts.Max {
					break
				}
				printed++
				pw.printf("%s:%d:%d: %s: %s%s\n",
					p.path.Sprint(path), group.line, group.cols[i],
					p.sev.Sprint(r.Severity.String()), present.Message(f), lookalikeSuffix(f))
				if opts.Context {
					text, spans := renderLine(file.GetLine(group.line), group.start, group.findings, p)
					pw.printf("%5d | %s\n", group.line, text)
					pw.printf("      | %s%s\n",
						strings.Repeat(" ", spans[i].col),
						p.caret.Sprint(strings.Repeat("^", max(spans[i].width, 1))))
				}
			}
		}
	}

	if printed < total {
		pw.printf("%s\n", p.dim.Sprintf("... %d more not shown", total-printed))
	}
	writeSummary(pw, r.Totals(), p)
	return pw.err
}

func writeSummary(pw *errWriter, t Totals, p palette) {
	if t.Findings == 0 {
		pw.printf("%s\n", p.ok.Sprintf("no bad characters found (%s scanned)", plural(t.Scanned, "file")))
	} else {
		pw.printf("%s\n", p.sev.Sprintf("found %s in %d of %s",
			plural(t.Findings, "bad character"), t.Dirty, plural(t.Scanned, "file")))
	}
	if t.Skipped > 0 {
		pw.printf("%s\n", p.dim.Sprintf("skipped %s (binary or too large)", plural(t.Skipped, "file")))
	}
	if t.Errors > 0 {
		pw.printf("%s\n", p.sev.Sprintf("%s could not be read", plural(t.Errors, "file")))
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func lookalikeSuffix(f scan.Finding) string {
	if look, ok := present.Lookalike(f.Char); ok {
		return fmt.Sprintf(" (looks like %q)", look)
	}
	return ""
}

// lineGroup holds the findings of one line, in offset order.
type lineGroup struct {
	line     uint32
	start    int      // byte offset of the line start
	cols     []uint32 // 1-based byte column per finding
	findings []scan.Finding
}

func groupByLine(files *source.FileSet, file *source.File, findings []scan.Finding) []lineGroup {
	var groups []lineGroup
	for _, f := range findings {
		pos, _ := files.Resolve(file.Span(f.Start, f.End))
		if n := len(groups); n == 0 || groups[n-1].line != pos.Line {
			groups = append(groups, lineGroup{line: pos.Line, start: f.Start - int(pos.Col-1)})
		}
		g := &groups[len(groups)-1]
		g.cols = append(g.cols, pos.Col)
		g.findings = append(g.findings, f)
	}
	return groups
}

type displaySpan struct {
	col   int // display column, 0-based
	width int
}

// renderLine returns line with every finding and every other non-printable
// rune replaced by a <U+XXXX> marker, plus the display span of each finding.
func renderLine(line string, lineStart int, findings []scan.Finding, p palette) (string, []displaySpan) {
	var sb strings.Builder
	spans := make([]displaySpan, len(findings))
	width, k := 0, 0

	for i := 0; i < len(line); {
		off := lineStart + i
		for k < len(findings) && findings[k].Start < off {
			spans[k] = displaySpan{col: width, width: 1}
			k++
		}
		if k < len(findings) && findings[k].Start == off {
			marker := fmt.Sprintf("<U+%04X>", findings[k].Char)
			spans[k] = displaySpan{col: width, width: len(marker)}
			sb.WriteString(p.marker.Sprint(marker))
			width += len(marker)
			i += max(findings[k].End-findings[k].Start, 1)
			k++
			continue
		}
		r, size := utf8.DecodeRuneInString(line[i:])
		switch {
		case r == '\t':
			sb.WriteString("    ")
			width += 4
		case r == '\r' && i+size == len(line):
			// хвост CRLF
		case r == utf8.RuneError && size == 1, !unicode.IsPrint(r) && r != ' ':
			marker := fmt.Sprintf("<U+%04X>", r)
			sb.WriteString(p.dim.Sprint(marker))
			width += len(marker)
		default:
			sb.WriteRune(r)
			width += runewidth.RuneWidth(r)
		}
		i += size
	}
	// находки за концом строки (например, сам перевод строки)
	for ; k < len(findings); k++ {
		spans[k] = displaySpan{col: width, width: 1}
	}
	return sb.String(), spans
}

// errWriter keeps the first write error so Pretty can report it once.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// Write dispatches to the encoder for format.
func Write(w io.Writer, format Format, r Report, opts Options) error {
	switch format {
	case FormatJSON:
		return JSON(w, r, opts)
	case FormatNDJSON:
		return NDJSON(w, r, opts)
	case FormatMsgpack:
		return Msgpack(w, r, opts)
	case FormatSarif:
		return Sarif(w, r, opts)
	default:
		return Pretty(w, r, opts)
	}
}

// Failed reports whether the run should exit non-zero: findings at error
// severity, or any finding when strict is set. Unreadable files always fail.
func Failed(r Report, strict bool) bool {
	t := r.Totals()
	if t.Errors > 0 {
		return true
	}
	if t.Findings == 0 {
		return false
	}
	return strict || r.Severity == config.SeverityError
}


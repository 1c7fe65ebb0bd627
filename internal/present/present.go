package present

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"badchars/internal/config"
	"badchars/internal/scan"
)

// Source is the diagnostic source name.
const Source = "badchars"

// Highlight is one inline decoration with its hover text.
type Highlight struct {
	Range Range  `json:"range"`
	Start int    `json:"-"`
	End   int    `json:"-"`
	Hover string `json:"hoverMessage"`
}

// Diagnostic is one entry for the problems panel.
type Diagnostic struct {
	Range    Range           `json:"range"`
	Severity config.Severity `json:"-"`
	Code     string          `json:"code"`
	Source   string          `json:"source"`
	Message  string          `json:"message"`
	Char     rune            `json:"-"`
	Start    int             `json:"-"`
	End      int             `json:"-"`
}

// Highlights projects findings onto decoration ranges. The result is never
// nil so an empty publish clears the editor.
func Highlights(text string, findings []scan.Finding) []Highlight {
	out := make([]Highlight, 0, len(findings))
	if len(findings) == 0 {
		return out
	}
	li := NewLineIndex(text)
	for _, f := range findings {
		out = append(out, Highlight{
			Range: li.Range(f.Start, f.End),
			Start: f.Start,
			End:   f.End,
			Hover: HoverText(f),
		})
	}
	return out
}

// Diagnostics projects findings onto diagnostics at the given severity. The
// result is never nil.
func Diagnostics(text string, sev config.Severity, findings []scan.Finding) []Diagnostic {
	out := make([]Diagnostic, 0, len(findings))
	if len(findings) == 0 {
		return out
	}
	li := NewLineIndex(text)
	for _, f := range findings {
		out = append(out, Diagnostic{
			Range:    li.Range(f.Start, f.End),
			Severity: sev,
			Code:     f.Hex,
			Source:   Source,
			Message:  Message(f),
			Char:     f.Char,
			Start:    f.Start,
			End:      f.End,
		})
	}
	return out
}

// HoverText is the markdown shown over a highlight:
// `Bad char "**x**" (U+00D7 MULTIPLICATION SIGN)` plus the table note and
// the lookalike, when there are any.
func HoverText(f scan.Finding) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Bad char \"**%s**\" (%s)", string(f.Char), f.Label())
	if note := f.Note(); note != "" && !strings.EqualFold(note, f.Name()) {
		sb.WriteString("\n\n")
		sb.WriteString(note)
	}
	if look, ok := Lookalike(f.Char); ok {
		fmt.Fprintf(&sb, "\n\nlooks like %q", look)
	}
	return sb.String()
}

// Message is the diagnostic text, e.g.
// "Bad character U+200B (ZERO WIDTH SPACE)".
func Message(f scan.Finding) string {
	label := f.Label()
	code, name, ok := strings.Cut(label, " ")
	if !ok {
		return "Bad character " + label
	}
	return fmt.Sprintf("Bad character %s (%s)", code, name)
}

// Lookalike returns the compatibility (NFKC) form of r when it differs from
// r and is made only of visible characters or plain spaces.
func Lookalike(r rune) (string, bool) {
	s := string(r)
	folded := norm.NFKC.String(s)
	if folded == "" || folded == s {
		return "", false
	}
	for _, c := range folded {
		if c != ' ' && !unicode.IsGraphic(c) {
			return "", false
		}
		if unicode.Is(unicode.Cf, c) {
			return "", false
		}
	}
	return folded, true
}

// Replacement returns the text a quick fix should substitute for r: its
// lookalike when there is one, otherwise nothing (delete).
func Replacement(r rune) string {
	if look, ok := Lookalike(r); ok {
		return look
	}
	return ""
}

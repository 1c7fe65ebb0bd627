package scan

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/runenames"

	"badchars/internal/charset"
	"badchars/internal/config"
	"badchars/internal/matcher"
)

// Finding is one detected bad character. Start and End are byte offsets
// into the scanned text.
type Finding struct {
	Start int    `json:"start" msgpack:"start"`
	End   int    `json:"end" msgpack:"end"`
	Char  rune   `json:"char" msgpack:"char"`
	Hex   string `json:"hex" msgpack:"hex"`
}

// Name returns the Unicode character name, or "" when unknown.
func (f Finding) Name() string {
	return Name(f.Char)
}

// Label renders the finding as "U+200B ZERO WIDTH SPACE".
func (f Finding) Label() string {
	label := "U+" + padHex(f.Hex)
	if name := f.Name(); name != "" {
		label += " " + name
	}
	return label
}

// Note returns the built-in table note for the character, if any.
func (f Finding) Note() string {
	if e, ok := charset.Lookup(f.Char); ok {
		return e.Note
	}
	return ""
}

// Name returns the Unicode name of r. Control characters have no name in
// the Unicode data, so their table note is used instead.
func Name(r rune) string {
	if name := runenames.Name(r); name != "" && !strings.HasPrefix(name, "<") {
		return name
	}
	if e, ok := charset.Lookup(r); ok {
		return strings.ToUpper(e.Note)
	}
	return ""
}

// Hex renders r as uppercase hexadecimal without padding.
func Hex(r rune) string {
	return strings.ToUpper(strconv.FormatInt(int64(r), 16))
}

func padHex(h string) string {
	if len(h) >= 4 {
		return h
	}
	return strings.Repeat("0", 4-len(h)) + h
}

// Scan reports every occurrence m finds in text whose character is not
// allowed by cfg. Findings come back in ascending offset order and never
// overlap. Scan does not retain text.
func Scan(text string, cfg config.Config, m *matcher.Matcher) []Finding {
	matches := m.FindAll(text)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Finding, 0, len(matches))
	for _, mt := range matches {
		if cfg.Allowed(mt.Rune) {
			continue
		}
		out = append(out, Finding{
			Start: mt.Start,
			End:   mt.End,
			Char:  mt.Rune,
			Hex:   Hex(mt.Rune),
		})
	}
	return out
}

package matcher

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"badchars/internal/charset"
	"badchars/internal/config"
)

// Match is one occurrence of a configured character. Offsets are byte
// offsets into the searched string.
type Match struct {
	Start int
	End   int
	Rune  rune
}

// Matcher finds configured characters in text. It is immutable and safe for
// concurrent use.
type Matcher struct {
	re        *regexp.Regexp
	pattern   string
	runes     []rune
	asciiOnly bool
}

// Compile builds a matcher for the built-in table plus the configuration's
// additional characters. The allow-list is not applied here.
func Compile(cfg config.Config) *Matcher {
	runes := append(charset.Default(), cfg.Additional()...)
	return build(runes, cfg.ASCIIOnly())
}

func build(runes []rune, asciiOnly bool) *Matcher {
	set := slices.Clone(runes)
	slices.Sort(set)
	set = slices.Compact(set)
	m := &Matcher{runes: set, asciiOnly: asciiOnly}
	class := charClass(set, asciiOnly)
	if class == "" {
		return m
	}
	m.pattern = "[" + class + "]"
	m.re = regexp.MustCompile(m.pattern)
	return m
}

// charClass renders runes as the body of a bracket expression, folding
// consecutive runs into ranges.
func charClass(set []rune, asciiOnly bool) string {
	var sb strings.Builder
	for i := 0; i < len(set); {
		j := i
		for j+1 < len(set) && set[j+1] == set[j]+1 {
			j++
		}
		sb.WriteString(escape(set[i]))
		if j > i {
			if j > i+1 {
				sb.WriteByte('-')
			}
			sb.WriteString(escape(set[j]))
		}
		i = j + 1
	}
	if asciiOnly {
		sb.WriteString(escape(0x80))
		sb.WriteByte('-')
		sb.WriteString(escape(utf8.MaxRune))
	}
	return sb.String()
}

func escape(r rune) string {
	return fmt.Sprintf(`\x{%X}`, r)
}

// FindAll returns every non-overlapping occurrence in text, left to right.
// A matcher built from an empty set finds nothing.
func (m *Matcher) FindAll(text string) []Match {
	if m == nil || m.re == nil || text == "" {
		return nil
	}
	locs := m.re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		// невалидный байт декодируется как U+FFFD ширины 1
		r, _ := utf8.DecodeRuneInString(text[loc[0]:loc[1]])
		out = append(out, Match{Start: loc[0], End: loc[1], Rune: r})
	}
	return out
}

// Pattern returns the compiled expression, or "" for an empty matcher.
func (m *Matcher) Pattern() string {
	if m == nil {
		return ""
	}
	return m.pattern
}

// Empty reports whether the matcher can never match.
func (m *Matcher) Empty() bool {
	return m == nil || m.re == nil
}

// Covers reports whether r is in the matcher's search space.
func (m *Matcher) Covers(r rune) bool {
	if m == nil || m.re == nil {
		return false
	}
	if m.asciiOnly && r >= 0x80 {
		return true
	}
	_, found := slices.BinarySearch(m.runes, r)
	return found
}

// Size is the number of explicitly listed runes, not counting the
// ascii-only range.
func (m *Matcher) Size() int {
	if m == nil {
		return 0
	}
	return len(m.runes)
}

package config

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// ParseEntry turns one settings list entry into a code point.
//
// A string holding exactly one code point is taken literally, so "A" is the
// letter A. Otherwise the entry may spell a code point in hex: "U+200B",
// "\u200b", "0x200B", or bare digits of at least four ("200b").
func ParseEntry(s string) (rune, error) {
	if s == "" {
		return 0, fmt.Errorf("empty entry")
	}
	if utf8.RuneCountInString(s) == 1 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			return 0, fmt.Errorf("entry %q is not valid UTF-8", s)
		}
		return r, nil
	}
	if r, ok := parseHexEntry(strings.TrimSpace(s)); ok {
		return r, nil
	}
	if n := uniseg.GraphemeClusterCount(s); n == 1 {
		// один видимый символ, но несколько code point'ов (emoji, комбинирующие знаки)
		return 0, fmt.Errorf("entry %q renders as one character but has %d code points; list each code point separately", s, utf8.RuneCountInString(s))
	}
	return 0, fmt.Errorf("entry %q is not a single character", s)
}

func parseHexEntry(s string) (rune, bool) {
	digits := s
	prefixed := false
	for _, p := range []string{"U+", "u+", `\u`, `\U`, "0x", "0X"} {
		if strings.HasPrefix(s, p) {
			digits = s[len(p):]
			prefixed = true
			break
		}
	}
	if strings.HasPrefix(digits, "{") && strings.HasSuffix(digits, "}") && prefixed {
		digits = digits[1 : len(digits)-1]
	}
	if len(digits) == 0 || len(digits) > 6 {
		return 0, false
	}
	if !prefixed && len(digits) < 4 {
		return 0, false
	}
	n, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, false
	}
	r := rune(n)
	if !utf8.ValidRune(r) {
		return 0, false
	}
	return r, true
}

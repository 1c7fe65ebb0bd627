package config

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Severity is the diagnostic level findings are reported at.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInformation
	SeverityHint
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	case SeverityHint:
		return "hint"
	default:
		return "unknown"
	}
}

// LSP returns the DiagnosticSeverity value (1 = Error .. 4 = Hint).
func (s Severity) LSP() int {
	return int(s) + 1
}

// ParseSeverity accepts an ordinal ("0".."3") or a name.
func ParseSeverity(s string) (Severity, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	switch trimmed {
	case "error", "err":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "information", "info":
		return SeverityInformation, nil
	case "hint":
		return SeverityHint, nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return SeverityError, fmt.Errorf("invalid severity: %q (expected: 0..3|error|warning|information|hint)", s)
	}
	return severityFromInt(n)
}

func severityFromInt(n int) (Severity, error) {
	if n < int(SeverityError) || n > int(SeverityHint) {
		return SeverityError, fmt.Errorf("severity %d out of range 0..3", n)
	}
	return Severity(n), nil
}

// Style is the decoration parameter object handed to the highlight
// renderer. Its contents are not interpreted here.
type Style map[string]any

// DefaultStyle returns the built-in decoration: translucent red fill with a
// solid border and a crosshair cursor.
func DefaultStyle() Style {
	return Style{
		"cursor":          "crosshair",
		"backgroundColor": "rgba(255,0,0,0.3)",
		"borderWidth":     "1px",
		"borderStyle":     "solid",
		"borderColor":     "rgba(255,0,0,0.6)",
	}
}

// Clone returns a deep copy of the style.
func (s Style) Clone() Style {
	if s == nil {
		return nil
	}
	out := make(Style, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, item := range typed {
			out[k] = cloneValue(item)
		}
		return out
	case Style:
		return typed.Clone()
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Config is an immutable scan configuration. The zero value has no
// additions, no allow-list, ascii-only off, no style and Error severity;
// use Default or Resolve to get the built-in style as well.
type Config struct {
	additional []rune
	allowed    map[rune]struct{}
	allowOrder []rune
	asciiOnly  bool
	style      Style
	severity   Severity
}

// Default is the configuration resolved from empty settings.
func Default() Config {
	cfg, _ := Resolve(nil)
	return cfg
}

// Additional returns user-added bad characters in the order given.
func (c Config) Additional() []rune {
	return slices.Clone(c.additional)
}

// Allowed reports whether r is exempt from detection.
func (c Config) Allowed(r rune) bool {
	_, ok := c.allowed[r]
	return ok
}

// AllowedRunes returns the allow-list in the order given.
func (c Config) AllowedRunes() []rune {
	return slices.Clone(c.allowOrder)
}

// ASCIIOnly reports whether every non-ASCII code point is considered bad.
func (c Config) ASCIIOnly() bool {
	return c.asciiOnly
}

// Style returns a copy of the decoration parameters.
func (c Config) Style() Style {
	return c.style.Clone()
}

// Severity returns the diagnostic level.
func (c Config) Severity() Severity {
	return c.severity
}

// Equal reports whether two configurations behave identically.
func (c Config) Equal(o Config) bool {
	if c.asciiOnly != o.asciiOnly || c.severity != o.severity {
		return false
	}
	if !slices.Equal(c.additional, o.additional) {
		return false
	}
	if !maps.Equal(c.allowed, o.allowed) {
		return false
	}
	return reflect.DeepEqual(c.style, o.style)
}

// Values renders the configuration back into canonical settings form.
func (c Config) Values() Values {
	return Values{
		KeyAdditional: runeStrings(c.additional),
		KeyAllowed:    runeStrings(c.allowOrder),
		KeyASCIIOnly:  c.asciiOnly,
		KeyStyle:      map[string]any(c.style.Clone()),
		KeySeverity:   int(c.severity),
	}
}

func runeStrings(rs []rune) []any {
	out := make([]any, 0, len(rs))
	for _, r := range rs {
		out = append(out, string(r))
	}
	return out
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Resolve builds a Config from raw settings. It never fails outright: any
// malformed value falls back to its default and is reported in the joined
// error, so the returned Config is always usable. Unknown keys are ignored.
func Resolve(raw Values) (Config, error) {
	cfg := Config{
		allowed:  make(map[rune]struct{}),
		style:    DefaultStyle(),
		severity: SeverityError,
	}
	known, _ := canonicalize(raw)
	var errs []error

	if v, ok := known[KeyAdditional]; ok {
		runes, issues := expectRuneList(v, KeyAdditional)
		errs = append(errs, issues...)
		cfg.additional = dedupe(runes)
	}
	if v, ok := known[KeyAllowed]; ok {
		runes, issues := expectRuneList(v, KeyAllowed)
		errs = append(errs, issues...)
		for _, r := range dedupe(runes) {
			cfg.allowed[r] = struct{}{}
			cfg.allowOrder = append(cfg.allowOrder, r)
		}
	}
	if v, ok := known[KeyASCIIOnly]; ok && v != nil {
		b, err := expectBool(v, KeyASCIIOnly)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.asciiOnly = b
		}
	}
	if v, ok := known[KeyStyle]; ok && v != nil {
		m, err := toStringKeyMap(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", KeyStyle, err))
		} else {
			cfg.style = Style(m).Clone()
		}
	}
	if v, ok := known[KeySeverity]; ok && v != nil {
		sev, err := expectSeverity(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", KeySeverity, err))
		} else {
			cfg.severity = sev
		}
	}
	return cfg, errors.Join(errs...)
}

func expectRuneList(value any, field string) ([]rune, []error) {
	var items []any
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		items = []any{v}
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	case []any:
		items = v
	default:
		return nil, []error{fmt.Errorf("expected list of characters for %s, got %T", field, value)}
	}
	var (
		out  []rune
		errs []error
	)
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			errs = append(errs, fmt.Errorf("%s[%d]: expected string, got %T", field, i, item))
			continue
		}
		r, err := ParseEntry(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s[%d]: %w", field, i, err))
			continue
		}
		out = append(out, r)
	}
	return out, errs
}

func expectBool(value any, field string) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("invalid bool value for %s: %q", field, v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("expected bool for %s, got %T", field, value)
	}
}

func expectSeverity(value any) (Severity, error) {
	switch v := value.(type) {
	case Severity:
		return severityFromInt(int(v))
	case int:
		return severityFromInt(v)
	case int64:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return SeverityError, fmt.Errorf("severity %d out of range 0..3", v)
		}
		return severityFromInt(int(v))
	case uint64:
		if v > 3 {
			return SeverityError, fmt.Errorf("severity %d out of range 0..3", v)
		}
		return Severity(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return SeverityError, fmt.Errorf("expected integer severity, got %v", v)
		}
		if v < 0 || v > 3 {
			return SeverityError, fmt.Errorf("severity %v out of range 0..3", v)
		}
		return Severity(int(v)), nil
	case json.Number:
		n, err := strconv.Atoi(v.String())
		if err != nil {
			return SeverityError, fmt.Errorf("invalid severity %q", v.String())
		}
		return severityFromInt(n)
	case string:
		return ParseSeverity(v)
	default:
		return SeverityError, fmt.Errorf("expected integer severity, got %T", value)
	}
}

func dedupe(rs []rune) []rune {
	if len(rs) == 0 {
		return nil
	}
	seen := make(map[rune]struct{}, len(rs))
	out := make([]rune, 0, len(rs))
	for _, r := range rs {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

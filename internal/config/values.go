package config

import (
	"fmt"
	"sort"
	"strings"
)

// Namespace is the settings section all keys live under.
const Namespace = "badchars"

// Canonical setting keys as the editor stores them.
const (
	KeyAdditional = "additionalUnicodeChars"
	KeyAllowed    = "allowedUnicodeChars"
	KeyASCIIOnly  = "asciiOnly"
	KeyStyle      = "badCharDecorationStyle"
	KeySeverity   = "severity"
)

// Values is a raw settings object as decoded from JSON, TOML or YAML.
type Values map[string]any

// keyMap folds spelling variants (camelCase, snake_case, kebab-case and a
// few short aliases) onto the canonical keys.
var keyMap = map[string]string{
	"additionalunicodechars": KeyAdditional,
	"additional":             KeyAdditional,
	"deny":                   KeyAdditional,
	"allowedunicodechars":    KeyAllowed,
	"allowed":                KeyAllowed,
	"allow":                  KeyAllowed,
	"asciionly":              KeyASCIIOnly,
	"badchardecorationstyle": KeyStyle,
	"decorationstyle":        KeyStyle,
	"style":                  KeyStyle,
	"severity":               KeySeverity,
}

func foldKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.ReplaceAll(k, "_", "")
	k = strings.ReplaceAll(k, "-", "")
	return k
}

// CanonicalKey maps a spelling variant to its canonical key.
func CanonicalKey(key string) (string, bool) {
	c, ok := keyMap[foldKey(key)]
	return c, ok
}

// Section returns the namespaced sub-object of raw when present, otherwise
// raw itself. Editors send either {"badchars": {...}} or the flat object.
func Section(raw Values, name string) Values {
	if raw == nil {
		return nil
	}
	for key, value := range raw {
		if foldKey(key) != foldKey(name) {
			continue
		}
		sub, err := toStringKeyMap(value)
		if err != nil {
			return raw
		}
		return Values(sub)
	}
	return raw
}

// Merge overlays layers left to right; a later layer overrides earlier keys.
// Known keys are normalised so "ascii_only" in a file and "asciiOnly" from
// the editor refer to the same setting. Nil layers are skipped.
func Merge(layers ...Values) Values {
	out := make(Values)
	for _, layer := range layers {
		for _, key := range sortedKeys(layer) {
			name := key
			if c, ok := CanonicalKey(key); ok {
				name = c
			}
			out[name] = layer[key]
		}
	}
	return out
}

// canonicalize returns known keys under their canonical names and the list
// of keys it did not recognise. Keys are visited in sorted order so the
// winner between two spellings of one setting is stable.
func canonicalize(raw Values) (Values, []string) {
	out := make(Values, len(raw))
	var unknown []string
	for _, key := range sortedKeys(raw) {
		c, ok := CanonicalKey(key)
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		out[c] = raw[key]
	}
	return out, unknown
}

func sortedKeys(raw Values) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toStringKeyMap(v any) (map[string]any, error) {
	switch typed := v.(type) {
	case Values:
		return typed, nil
	case map[string]any:
		return typed, nil
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, value := range typed {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key: %v", k)
			}
			out[key] = value
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected map, got %T", v)
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileNames are the config file names searched for, in priority order.
var FileNames = []string{
	".badchars.toml",
	".badchars.yaml",
	".badchars.yml",
	".badchars.json",
}

// Load reads a config file and returns its settings under canonical keys.
// The format is chosen by extension. Unlike editor settings, files are
// checked strictly: an unknown key is an error.
func Load(path string) (Values, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw := make(map[string]any)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, decodeErr := toml.Decode(string(data), &raw); decodeErr != nil {
			return nil, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	case ".yaml", ".yml":
		if decodeErr := yaml.Unmarshal(data, &raw); decodeErr != nil {
			return nil, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	case ".json":
		if decodeErr := json.Unmarshal(data, &raw); decodeErr != nil {
			return nil, fmt.Errorf("parse %s: %w", path, decodeErr)
		}
	default:
		return nil, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if raw == nil {
		return Values{}, nil
	}
	section := Section(Values(raw), Namespace)
	known, unknown := canonicalize(section)
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%s: unknown key: %s", path, unknown[0])
	}
	if _, err := Resolve(known); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return known, nil
}

// Find walks from startDir towards the filesystem root and returns the first
// config file it meets. It returns "" when there is none.
func Find(startDir string) (string, error) {
	start := strings.TrimSpace(startDir)
	if start == "" {
		start = "."
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if fileExists(candidate) {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// LoadNearest finds and loads the config file for startDir. A missing file
// yields empty settings and an empty path.
func LoadNearest(startDir string) (Values, string, error) {
	path, err := Find(startDir)
	if err != nil || path == "" {
		return nil, "", err
	}
	values, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return values, path, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

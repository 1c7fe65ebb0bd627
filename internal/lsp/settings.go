package lsp

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"

	"badchars/internal/config"
	"badchars/internal/trace"
)

// Values merges the config file, editor settings and command-line
// overrides, in that order.
func (s *Server) Values(string) config.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return config.Merge(s.fileSettings, s.editorSettings, s.overrides)
}

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	if len(msg.Params) == 0 {
		return nil
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil
	}
	s.applySettings(params.Settings)
	s.notifyConfig()
	return nil
}

// applySettings stores editor settings, sent either as {"badchars": {...}}
// or as the flat object. Anything but an object is ignored.
func (s *Server) applySettings(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var settings map[string]any
	if err := json.Unmarshal(raw, &settings); err != nil || settings == nil {
		return
	}
	section := config.Section(config.Values(settings), config.Namespace)
	s.mu.Lock()
	s.editorSettings = section
	s.mu.Unlock()
	trace.Point(s.tracer, trace.ScopeSession, "settings", "editor", "keys", fmt.Sprint(len(section)))
}

// loadConfigFile reads the pinned config file or the nearest one above the
// workspace root. A file that fails to load is ignored; the error says why.
func (s *Server) loadConfigFile() error {
	s.mu.Lock()
	root := s.workspaceRoot
	path := s.configFile
	pinned := s.configPinned
	s.mu.Unlock()

	var (
		values config.Values
		err    error
	)
	switch {
	case pinned:
		values, err = config.Load(path)
	case root != "":
		values, path, err = config.LoadNearest(root)
	default:
		return nil
	}
	if err != nil {
		values = nil
		err = fmt.Errorf("ignoring config file: %w", err)
	}

	s.mu.Lock()
	s.fileSettings = values
	if !pinned {
		s.configFile = path
	}
	s.mu.Unlock()
	trace.Point(s.tracer, trace.ScopeSession, "config file", path, "ok", fmt.Sprint(err == nil))
	return err
}

// isConfigFile reports whether uri names the loaded config file, or a
// config file that would be found from the workspace root.
func (s *Server) isConfigFile(uri string) bool {
	path := uriToPath(uri)
	if path == "" {
		return false
	}
	s.mu.Lock()
	current := s.configFile
	pinned := s.configPinned
	root := s.workspaceRoot
	s.mu.Unlock()
	if current != "" && filepath.Clean(current) == filepath.Clean(path) {
		return true
	}
	if pinned || root == "" {
		return false
	}
	return slices.Contains(config.FileNames, filepath.Base(path))
}

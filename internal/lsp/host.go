package lsp

import (
	"badchars/internal/config"
	"badchars/internal/live"
	"badchars/internal/present"
	"badchars/internal/scan"
	"badchars/internal/trace"
)

// Active returns the document touched last. LSP has no notion of focus, so
// the server never fires an active-document change on its own.
func (s *Server) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.openDocs[s.lastTouched]; !ok {
		return "", false
	}
	return s.lastTouched, true
}

// Text returns the current text of an open document.
func (s *Server) Text(uri string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.openDocs[uri]
	return text, ok
}

// Open lists open documents.
func (s *Server) Open() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.openDocs))
	for uri := range s.openDocs {
		out = append(out, uri)
	}
	return out
}

func (s *Server) OnActiveDocumentChanged(fn func(string)) live.Disposable {
	return s.activeChanged.Add(fn)
}

func (s *Server) OnDocumentTextChanged(fn func(string)) live.Disposable {
	return s.textChanged.Add(fn)
}

func (s *Server) OnConfigurationChanged(fn func()) live.Disposable {
	return s.configChanged.Add(fn)
}

func (s *Server) OnDocumentClosed(fn func(string)) live.Disposable {
	return s.docClosed.Add(fn)
}

// PublishHighlights sends the badchars/highlights notification.
func (s *Server) PublishHighlights(uri string, style config.Style, text string, findings []scan.Finding) {
	if s.stale(uri, text, findings) {
		return
	}
	params := highlightsParams{
		URI:    uri,
		Style:  style,
		Ranges: present.Highlights(text, findings),
	}
	if err := s.sendNotification("badchars/highlights", params); err != nil {
		s.logf("failed to publish highlights: %v", err)
	}
}

// PublishDiagnostics sends textDocument/publishDiagnostics and remembers the
// findings for hover and code actions.
func (s *Server) PublishDiagnostics(uri string, sev config.Severity, text string, findings []scan.Finding) {
	if s.stale(uri, text, findings) {
		trace.Point(s.tracer, trace.ScopeDocument, "drop", "stale result", "doc", uri)
		return
	}
	diags := present.Diagnostics(text, sev, findings)
	list := make([]lspDiagnostic, 0, len(diags))
	for _, d := range diags {
		list = append(list, toLSPDiagnostic(d))
	}

	s.mu.Lock()
	if len(findings) == 0 {
		delete(s.results, uri)
	} else {
		s.results[uri] = docResult{text: text, severity: sev, findings: findings}
	}
	s.mu.Unlock()

	params := publishDiagnosticsParams{URI: uri, Diagnostics: list}
	if err := s.sendNotification("textDocument/publishDiagnostics", params); err != nil {
		s.logf("failed to publish diagnostics: %v", err)
	}
}

// stale reports a non-empty result computed for text the document no longer
// has. A newer scan is already scheduled for it, or the document is closed.
func (s *Server) stale(uri, text string, findings []scan.Finding) bool {
	if len(findings) == 0 {
		return false
	}
	current, ok := s.Text(uri)
	return !ok || current != text
}

func toLSPDiagnostic(d present.Diagnostic) lspDiagnostic {
	return lspDiagnostic{
		Range:    d.Range,
		Severity: d.Severity.LSP(),
		Code:     d.Code,
		Source:   d.Source,
		Message:  d.Message,
	}
}

// result returns the published findings for uri when they still describe
// the current text.
func (s *Server) result(uri string) (docResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.results[uri]
	if !ok {
		return docResult{}, false
	}
	if text, open := s.openDocs[uri]; !open || text != res.text {
		return docResult{}, false
	}
	return res, true
}

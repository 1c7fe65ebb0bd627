package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"badchars/internal/config"
	"badchars/internal/live"
	"badchars/internal/scan"
	"badchars/internal/schedule"
	"badchars/internal/trace"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

// ServerOptions configures LSP server behavior.
type ServerOptions struct {
	Debounce time.Duration
	Clock    schedule.Clock
	Tracer   trace.Tracer
	Version  string
	// ConfigFile skips discovery from the workspace root when set.
	ConfigFile string
	// Overrides are applied over editor settings (command-line flags).
	Overrides config.Values
	// Log receives server messages; stderr when nil.
	Log io.Writer
}

type docResult struct {
	text     string
	severity config.Severity
	findings []scan.Finding
}

// Server handles stdio JSON-RPC for the badchars language server. It is the
// host of a live.Controller: documents, events, settings and publishing are
// all served from here.
type Server struct {
	in     *bufio.Reader
	out    *bufio.Writer
	log    io.Writer
	sendMu sync.Mutex
	mu     sync.Mutex

	openDocs    map[string]string
	versions    map[string]int
	lastTouched string
	results     map[string]docResult

	workspaceRoot     string
	shutdownRequested bool
	editorSettings    config.Values
	fileSettings      config.Values
	configFile        string
	configPinned      bool
	overrides         config.Values
	version           string
	tracer            trace.Tracer

	textChanged   live.Subscribers[func(string)]
	activeChanged live.Subscribers[func(string)]
	configChanged live.Subscribers[func()]
	docClosed     live.Subscribers[func(string)]

	controller *live.Controller
}

// NewServer constructs a new LSP server.
func NewServer(in io.Reader, out io.Writer, opts ServerOptions) *Server {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	logw := opts.Log
	if logw == nil {
		logw = os.Stderr
	}
	s := &Server{
		in:           bufio.NewReader(in),
		out:          bufio.NewWriter(out),
		log:          logw,
		openDocs:     make(map[string]string),
		versions:     make(map[string]int),
		results:      make(map[string]docResult),
		configFile:   opts.ConfigFile,
		configPinned: opts.ConfigFile != "",
		overrides:    opts.Overrides,
		version:      opts.Version,
		tracer:       tracer,
	}
	s.controller = live.New(s, s, s, s, live.Options{
		Delay:  opts.Debounce,
		Clock:  opts.Clock,
		Tracer: tracer,
	})
	return s
}

// Controller returns the controller driven by this server.
func (s *Server) Controller() *live.Controller {
	return s.controller
}

// Run serves LSP requests until exit or end of input.
func (s *Server) Run(ctx context.Context) error {
	defer s.controller.Deactivate()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		return s.handleShutdown(msg)
	case "exit":
		if s.isShutdown() {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "workspace/didChangeConfiguration":
		return s.handleDidChangeConfiguration(msg)
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/codeAction":
		return s.handleCodeAction(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, codeMethodNotFound, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	root := ""
	if params.RootURI != "" {
		root = uriToPath(params.RootURI)
	}
	if root == "" && params.RootPath != "" {
		root = params.RootPath
	}
	if root == "" && len(params.WorkspaceFolders) > 0 {
		root = uriToPath(params.WorkspaceFolders[0].URI)
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	s.mu.Lock()
	s.workspaceRoot = root
	s.mu.Unlock()
	if len(params.InitializationOptions) > 0 {
		s.applySettings(params.InitializationOptions)
	}
	if err := s.loadConfigFile(); err != nil {
		s.showMessage(messageWarning, err.Error())
	}

	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save: saveOptions{
					IncludeText: true,
				},
			},
			HoverProvider: true,
			CodeActionProvider: &codeActionOptions{
				CodeActionKinds: []string{kindQuickFix},
			},
		},
		ServerInfo: &serverInfo{Name: "badchars", Version: s.version},
	}
	if err := s.sendResponse(msg.ID, result); err != nil {
		return err
	}
	if err := s.controller.Activate(); err != nil {
		s.logf("settings fell back to defaults: %v", err)
	}
	return nil
}

func (s *Server) handleShutdown(msg *rpcMessage) error {
	s.mu.Lock()
	s.shutdownRequested = true
	s.mu.Unlock()
	s.controller.Deactivate()
	return s.sendResponse(msg.ID, nil)
}

func (s *Server) isShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdownRequested
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	s.openDocs[uri] = params.TextDocument.Text
	s.versions[uri] = params.TextDocument.Version
	s.lastTouched = uri
	s.mu.Unlock()
	s.notifyText(uri)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	text, ok := s.openDocs[uri]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	s.openDocs[uri] = applyChanges(text, params.ContentChanges)
	s.versions[uri] = params.TextDocument.Version
	s.lastTouched = uri
	s.mu.Unlock()
	trace.Point(s.tracer, trace.ScopeDocument, "didChange", "", "doc", uri, "version", fmt.Sprint(params.TextDocument.Version))
	s.notifyText(uri)
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	if s.isConfigFile(uri) {
		if err := s.loadConfigFile(); err != nil {
			s.showMessage(messageWarning, err.Error())
		}
		s.notifyConfig()
	}
	s.mu.Lock()
	_, open := s.openDocs[uri]
	if open && params.Text != nil {
		s.openDocs[uri] = *params.Text
	}
	s.lastTouched = uri
	s.mu.Unlock()
	if open {
		s.notifyText(uri)
	}
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}
	uri := canonicalURI(params.TextDocument.URI)
	if uri == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.openDocs, uri)
	delete(s.versions, uri)
	if s.lastTouched == uri {
		s.lastTouched = s.anyOpenLocked()
	}
	s.mu.Unlock()
	for _, fn := range s.docClosed.List() {
		fn(uri)
	}
	return nil
}

// anyOpenLocked picks a deterministic open document to stand in for the
// focused one after the last touched document closes.
func (s *Server) anyOpenLocked() string {
	best := ""
	for uri := range s.openDocs {
		if best == "" || uri < best {
			best = uri
		}
	}
	return best
}

func (s *Server) notifyText(uri string) {
	for _, fn := range s.textChanged.List() {
		fn(uri)
	}
}

func (s *Server) notifyConfig() {
	for _, fn := range s.configChanged.List() {
		fn()
	}
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	}
	return s.send(msg)
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"error": rpcError{
			Code:    code,
			Message: message,
		},
	}
	return s.send(msg)
}

func (s *Server) sendNotification(method string, params any) error {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	}
	return s.send(msg)
}

func (s *Server) showMessage(kind int, text string) {
	s.logf("%s", text)
	if err := s.sendNotification("window/showMessage", showMessageParams{Type: kind, Message: "badchars: " + text}); err != nil {
		s.logf("failed to show message: %v", err)
	}
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	fmt.Fprintf(s.log, "lsp: "+format+"\n", args...)
}

// OpenDocuments lists open document URIs in sorted order.
func (s *Server) OpenDocuments() []string {
	docs := s.Open()
	sort.Strings(docs)
	return docs
}

// Package watch is a terminal host for one file: it polls the file and its
// configuration on disk and prints findings whenever a debounced re-scan
// publishes them.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"

	"badchars/internal/config"
	"badchars/internal/driver"
	"badchars/internal/live"
	"badchars/internal/report"
	"badchars/internal/scan"
	"badchars/internal/schedule"
	"badchars/internal/source"
	"badchars/internal/trace"
)

// Options configure a Watcher.
type Options struct {
	Path       string
	ConfigFile string // pinned config file; discovered upward from Path when empty
	Overrides  config.Values
	Out        io.Writer
	Color      bool
	Delay      time.Duration
	Clock      schedule.Clock
	Tracer     trace.Tracer
	Now        func() time.Time
}

type stamp struct {
	mod  time.Time
	size int64
}

func stampOf(info fs.FileInfo) stamp {
	return stamp{mod: info.ModTime(), size: info.Size()}
}

// Watcher implements the live host interfaces over one file on disk.
type Watcher struct {
	opts Options
	path string
	out  io.Writer
	now  func() time.Time
	dim  *color.Color

	mu         sync.Mutex
	text       string
	exists     bool
	fileStamp  stamp
	cfgPath    string
	cfgStamp   stamp
	fileValues config.Values

	textChanged   live.Subscribers[func(string)]
	activeChanged live.Subscribers[func(string)]
	configChanged live.Subscribers[func()]
	closed        live.Subscribers[func(string)]

	outMu     sync.Mutex
	lastCount int

	ctrl *live.Controller
}

// New reads the file and its configuration. Both must be readable at start.
func New(opts Options) (*Watcher, error) {
	w := &Watcher{
		opts:      opts,
		path:      filepath.Clean(opts.Path),
		out:       opts.Out,
		now:       opts.Now,
		lastCount: -1,
	}
	if w.out == nil {
		w.out = os.Stdout
	}
	if w.now == nil {
		w.now = time.Now
	}
	w.dim = color.New(color.Faint)
	if opts.Color {
		w.dim.EnableColor()
	} else {
		w.dim.DisableColor()
	}

	info, err := os.Stat(w.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", w.path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", w.path)
	}
	if err := w.readFile(info); err != nil {
		return nil, err
	}
	if err := w.initConfig(); err != nil {
		return nil, err
	}

	w.ctrl = live.New(w, w, w, w, live.Options{
		Delay:  opts.Delay,
		Clock:  opts.Clock,
		Tracer: opts.Tracer,
	})
	return w, nil
}

func (w *Watcher) initConfig() error {
	if w.opts.ConfigFile != "" {
		w.cfgPath = w.opts.ConfigFile
		values, err := config.Load(w.cfgPath)
		if err != nil {
			return err
		}
		w.fileValues = values
	} else {
		values, path, err := config.LoadNearest(filepath.Dir(w.path))
		if err != nil {
			return err
		}
		w.fileValues, w.cfgPath = values, path
	}
	if w.cfgPath != "" {
		if info, err := os.Stat(w.cfgPath); err == nil {
			w.cfgStamp = stampOf(info)
		}
	}
	return nil
}

func (w *Watcher) readFile(info fs.FileInfo) error {
	// #nosec G304 -- path is provided by the user
	content, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", w.path, err)
	}
	if !source.LooksText(content) {
		return fmt.Errorf("%s does not look like UTF-8 text", w.path)
	}
	// offsets are relative to the content after the BOM, as in batch scans
	content, _ = source.StripBOM(content)
	w.mu.Lock()
	w.text = string(content)
	w.exists = true
	w.fileStamp = stampOf(info)
	w.mu.Unlock()
	return nil
}

// Controller returns the controller hosted by w.
func (w *Watcher) Controller() *live.Controller {
	return w.ctrl
}

// ConfigPath returns the config file in use, or "" when there is none.
func (w *Watcher) ConfigPath() string {
	return w.cfgPath
}

// Poll checks the file and the config file for changes and fires the
// matching events. A file that disappears counts as closed; when it comes
// back it is scanned again.
func (w *Watcher) Poll() error {
	var errs []error

	info, err := os.Stat(w.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		w.mu.Lock()
		gone := w.exists
		w.exists = false
		w.text = ""
		w.mu.Unlock()
		if gone {
			w.printf("%s\n", w.dim.Sprintf("[%s] %s removed", w.clock(), w.path))
			for _, fn := range w.closed.List() {
				fn(w.path)
			}
		}
	case err != nil:
		errs = append(errs, err)
	default:
		w.mu.Lock()
		changed := !w.exists || w.fileStamp != stampOf(info)
		w.mu.Unlock()
		if changed {
			if err := w.readFile(info); err != nil {
				errs = append(errs, err)
			} else {
				for _, fn := range w.textChanged.List() {
					fn(w.path)
				}
			}
		}
	}

	if w.cfgPath != "" {
		if info, err := os.Stat(w.cfgPath); err == nil && stampOf(info) != w.cfgStamp {
			w.cfgStamp = stampOf(info)
			values, err := config.Load(w.cfgPath)
			if err != nil {
				// остаёмся на прежних значениях
				errs = append(errs, fmt.Errorf("ignoring config file: %w", err))
			} else {
				w.mu.Lock()
				w.fileValues = values
				w.mu.Unlock()
				for _, fn := range w.configChanged.List() {
					fn()
				}
			}
		}
	}
	return errors.Join(errs...)
}

// Run activates the controller and polls every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) error {
	if err := w.ctrl.Activate(); err != nil {
		if errors.Is(err, live.ErrDeactivated) {
			return err
		}
		// контроллер активен, просто часть настроек откатилась к умолчаниям
		w.printf("%s\n", w.dim.Sprintf("[%s] %v", w.clock(), err))
	}
	defer w.ctrl.Deactivate()
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Poll(); err != nil {
				w.printf("%s\n", w.dim.Sprintf("[%s] %v", w.clock(), err))
			}
		}
	}
}

// Active returns the watched file while it exists.
func (w *Watcher) Active() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path, w.exists
}

// Text returns the last content read from disk.
func (w *Watcher) Text(docID string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if docID != w.path || !w.exists {
		return "", false
	}
	return w.text, true
}

// Open lists the watched file while it exists.
func (w *Watcher) Open() []string {
	if _, ok := w.Active(); !ok {
		return nil
	}
	return []string{w.path}
}

func (w *Watcher) OnActiveDocumentChanged(fn func(string)) live.Disposable {
	return w.activeChanged.Add(fn)
}

func (w *Watcher) OnDocumentTextChanged(fn func(string)) live.Disposable {
	return w.textChanged.Add(fn)
}

func (w *Watcher) OnConfigurationChanged(fn func()) live.Disposable {
	return w.configChanged.Add(fn)
}

func (w *Watcher) OnDocumentClosed(fn func(string)) live.Disposable {
	return w.closed.Add(fn)
}

// Values layers command-line overrides over the config file.
func (w *Watcher) Values(string) config.Values {
	w.mu.Lock()
	defer w.mu.Unlock()
	return config.Merge(w.fileValues, w.opts.Overrides)
}

// PublishHighlights is a no-op: a terminal has no decorations.
func (w *Watcher) PublishHighlights(string, config.Style, string, []scan.Finding) {}

// PublishDiagnostics prints the findings. Repeated clean results are only
// printed once, and the clear that follows a removal is not printed at all.
func (w *Watcher) PublishDiagnostics(docID string, severity config.Severity, text string, findings []scan.Finding) {
	_, exists := w.Active()
	w.outMu.Lock()
	defer w.outMu.Unlock()
	if !exists && len(findings) == 0 {
		w.lastCount = -1
		return
	}
	if len(findings) == 0 && w.lastCount == 0 {
		return
	}
	w.lastCount = len(findings)

	files := source.NewFileSet()
	id := files.Add(docID, []byte(text), 0)
	r := report.Report{
		Files:    files,
		Results:  []driver.FileResult{{Path: docID, FileID: id, Loaded: true, Findings: findings}},
		Severity: severity,
	}
	w.printfLocked("%s\n", w.dim.Sprintf("[%s] %s", w.clock(), docID))
	if err := report.Pretty(w.out, r, report.Options{Color: w.opts.Color, Context: true}); err != nil {
		trace.Point(w.opts.Tracer, trace.ScopeError, "watch_output", err.Error())
	}
}

func (w *Watcher) clock() string {
	return w.now().Format("15:04:05")
}

func (w *Watcher) printf(format string, args ...any) {
	w.outMu.Lock()
	defer w.outMu.Unlock()
	w.printfLocked(format, args...)
}

func (w *Watcher) printfLocked(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format, args...)
}

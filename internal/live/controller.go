package live

import (
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"badchars/internal/config"
	"badchars/internal/scan"
	"badchars/internal/schedule"
	"badchars/internal/trace"
)

var (
	// ErrNotActive is returned by operations that need an activated controller.
	ErrNotActive = errors.New("controller is not active")
	// ErrDeactivated is returned when activating a controller a second time.
	ErrDeactivated = errors.New("controller was deactivated")
)

// Options configures a Controller.
type Options struct {
	Namespace string        // settings namespace, default config.Namespace
	Delay     time.Duration // quiescence window, default schedule.DefaultDelay
	Clock     schedule.Clock
	Tracer    trace.Tracer
}

// Controller keeps a host's documents scanned: it listens to host events,
// debounces them per document and publishes findings through the host.
type Controller struct {
	docs      Documents
	events    Events
	settings  Settings
	pub       Publisher
	namespace string
	tracer    trace.Tracer

	engine *scan.Engine
	sched  *schedule.Debouncer

	mu        sync.Mutex
	subs      []Disposable
	active    string
	published map[string]struct{}
	activated bool
	done      bool
}

// New wires a controller to a host. Nothing happens until Activate.
func New(docs Documents, events Events, settings Settings, pub Publisher, opts Options) *Controller {
	ns := opts.Namespace
	if ns == "" {
		ns = config.Namespace
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	c := &Controller{
		docs:      docs,
		events:    events,
		settings:  settings,
		pub:       pub,
		namespace: ns,
		tracer:    tracer,
		engine:    scan.NewEngine(config.Default()),
		published: make(map[string]struct{}),
	}
	c.sched = schedule.New(c.run, schedule.Options{Delay: opts.Delay, Clock: opts.Clock})
	return c
}

// Engine exposes the active configuration snapshot.
func (c *Controller) Engine() *scan.Engine {
	return c.engine
}

// Scheduler exposes the per-document debouncer.
func (c *Controller) Scheduler() *schedule.Debouncer {
	return c.sched
}

// Activate subscribes to host events, resolves the configuration and
// schedules a scan of every open document. The returned error lists
// settings that fell back to defaults; the controller is active either way.
// A deactivated controller cannot be activated again.
func (c *Controller) Activate() error {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return ErrDeactivated
	}
	if c.activated {
		c.mu.Unlock()
		return nil
	}
	c.activated = true
	c.subs = append(c.subs,
		c.events.OnActiveDocumentChanged(c.activeChanged),
		c.events.OnDocumentTextChanged(c.textChanged),
		c.events.OnConfigurationChanged(c.configChanged),
		c.events.OnDocumentClosed(c.closed),
	)
	if id, ok := c.docs.Active(); ok {
		c.active = id
	}
	c.mu.Unlock()

	trace.Point(c.tracer, trace.ScopeSession, "activate", "")
	err := c.reload()
	c.triggerOpen()
	return err
}

// Deactivate releases subscriptions, cancels pending scans and clears
// everything that was published.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	if !c.activated {
		c.mu.Unlock()
		return
	}
	c.activated = false
	c.done = true
	subs := c.subs
	c.subs = nil
	docs := make([]string, 0, len(c.published))
	for id := range c.published {
		docs = append(docs, id)
	}
	c.published = make(map[string]struct{})
	c.mu.Unlock()

	for _, s := range subs {
		if s != nil {
			s.Dispose()
		}
	}
	c.sched.Close()
	sort.Strings(docs)
	for _, id := range docs {
		c.clear(id)
	}
	trace.Point(c.tracer, trace.ScopeSession, "deactivate", "", "cleared", strconv.Itoa(len(docs)))
}

// Rescan schedules a scan of docID as if its text had changed.
func (c *Controller) Rescan(docID string) error {
	if !c.isActive() {
		return ErrNotActive
	}
	c.textChanged(docID)
	return nil
}

// Published lists documents with findings currently published.
func (c *Controller) Published() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.published))
	for id := range c.published {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (c *Controller) isActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activated
}

func (c *Controller) reload() error {
	raw := config.Section(c.settings.Values(c.namespace), c.namespace)
	snap, err := c.engine.Reconfigure(raw)
	trace.Point(c.tracer, trace.ScopeSession, "reconfigure", "",
		"gen", strconv.FormatUint(snap.Gen, 10),
		"asciiOnly", strconv.FormatBool(snap.Config.ASCIIOnly()),
		"severity", snap.Config.Severity().String(),
	)
	if err != nil {
		trace.Point(c.tracer, trace.ScopeDocument, "config fallback", err.Error())
	}
	return err
}

func (c *Controller) triggerOpen() {
	for _, id := range c.docs.Open() {
		c.sched.Trigger(id)
	}
}

func (c *Controller) textChanged(docID string) {
	if _, ok := c.docs.Text(docID); !ok {
		return
	}
	trace.Point(c.tracer, trace.ScopeDocument, "schedule", "textChanged", "doc", docID)
	c.sched.Trigger(docID)
}

func (c *Controller) activeChanged(docID string) {
	c.mu.Lock()
	prev := c.active
	c.active = docID
	c.mu.Unlock()
	if prev != "" && prev != docID {
		c.sched.Discard(prev)
	}
	if docID == "" {
		return
	}
	trace.Point(c.tracer, trace.ScopeDocument, "schedule", "activeChanged", "doc", docID)
	c.sched.Trigger(docID)
}

func (c *Controller) configChanged() {
	_ = c.reload() // fallbacks are traced
	c.triggerOpen()
}

func (c *Controller) closed(docID string) {
	discarded := c.sched.Discard(docID)
	c.mu.Lock()
	delete(c.published, docID)
	if c.active == docID {
		c.active = ""
	}
	c.mu.Unlock()
	trace.Point(c.tracer, trace.ScopeDocument, "close", "", "doc", docID, "discarded", strconv.FormatBool(discarded))
	c.clear(docID)

	// the editor may still show another document; let it repopulate
	if next, ok := c.docs.Active(); ok && next != docID {
		c.mu.Lock()
		c.active = next
		c.mu.Unlock()
		c.sched.Trigger(next)
	}
}

func (c *Controller) clear(docID string) {
	snap := c.engine.Snapshot()
	c.pub.PublishHighlights(docID, snap.Config.Style(), "", []scan.Finding{})
	c.pub.PublishDiagnostics(docID, snap.Config.Severity(), "", []scan.Finding{})
}

// run is the scheduler callback: read the text now, scan with the current
// snapshot, publish both projections.
func (c *Controller) run(docID string) {
	text, ok := c.docs.Text(docID)
	if !ok {
		trace.Point(c.tracer, trace.ScopeDocument, "drop", "document gone", "doc", docID)
		return
	}
	span := trace.Begin(c.tracer, trace.ScopeDocument, "scan", 0)
	findings, snap := c.engine.Scan(text)
	if findings == nil {
		findings = []scan.Finding{}
	}
	span.WithExtra("doc", docID).
		WithExtra("findings", strconv.Itoa(len(findings))).
		WithExtra("gen", strconv.FormatUint(snap.Gen, 10)).
		End("")

	c.mu.Lock()
	if len(findings) > 0 {
		c.published[docID] = struct{}{}
	} else {
		delete(c.published, docID)
	}
	c.mu.Unlock()

	c.pub.PublishHighlights(docID, snap.Config.Style(), text, findings)
	c.pub.PublishDiagnostics(docID, snap.Config.Severity(), text, findings)
}

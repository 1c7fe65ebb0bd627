package schedule

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultDelay is the quiescence window used when Options.Delay is zero.
const DefaultDelay = 500 * time.Millisecond

// State is the per-document scheduler state.
type State uint8

const (
	// StateIdle means no scan is scheduled.
	StateIdle State = iota
	// StatePending means a timer is armed.
	StatePending
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	default:
		return "unknown"
	}
}

// RunFunc performs one scan-and-publish cycle for a document. It must read
// the document text and configuration at call time.
type RunFunc func(docID string)

// Options configures a Debouncer.
type Options struct {
	Delay time.Duration
	Clock Clock
}

// Debouncer coalesces bursts of triggers per document into a single run
// after the quiescence window. Runs never overlap.
type Debouncer struct {
	clock Clock
	delay time.Duration
	run   RunFunc

	mu      sync.Mutex
	pending map[string]pendingScan
	seq     uint64
	closed  bool

	runMu sync.Mutex
	runs  atomic.Uint64
}

type pendingScan struct {
	seq   uint64
	timer Timer
}

// New returns a Debouncer that calls run when a document's window elapses.
func New(run RunFunc, opts Options) *Debouncer {
	delay := opts.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}
	return &Debouncer{
		clock:   clock,
		delay:   delay,
		run:     run,
		pending: make(map[string]pendingScan),
	}
}

// Delay returns the quiescence window.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger arms a fresh timer for docID, cancelling any armed one.
func (d *Debouncer) Trigger(docID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if p, ok := d.pending[docID]; ok {
		p.timer.Stop()
	}
	d.seq++
	seq := d.seq
	// the timer may lose the race with Stop; fire checks seq so a late
	// callback for a replaced entry is dropped
	timer := d.clock.AfterFunc(d.delay, func() {
		d.fire(docID, seq)
	})
	d.pending[docID] = pendingScan{seq: seq, timer: timer}
}

// Discard cancels the pending scan for docID. It reports whether one was
// pending. A run already in progress finishes before Discard returns, so
// whatever the caller publishes next is not overwritten by that run.
// Must not be called from a RunFunc.
func (d *Debouncer) Discard(docID string) bool {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pending[docID]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(d.pending, docID)
	return true
}

// Flush runs a pending scan for docID now instead of waiting. It reports
// whether a scan ran.
func (d *Debouncer) Flush(docID string) bool {
	d.mu.Lock()
	p, ok := d.pending[docID]
	if !ok {
		d.mu.Unlock()
		return false
	}
	p.timer.Stop()
	d.mu.Unlock()
	return d.fire(docID, p.seq)
}

// State reports the scheduler state of docID.
func (d *Debouncer) State(docID string) State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pending[docID]; ok {
		return StatePending
	}
	return StateIdle
}

// Pending returns the documents with an armed timer, sorted.
func (d *Debouncer) Pending() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.pending))
	for id := range d.pending {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Runs returns how many scans have run.
func (d *Debouncer) Runs() uint64 {
	return d.runs.Load()
}

// Close cancels every pending timer. Later triggers are ignored.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for id, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, id)
	}
}

func (d *Debouncer) fire(docID string, seq uint64) bool {
	d.mu.Lock()
	p, ok := d.pending[docID]
	if !ok || p.seq != seq || d.closed {
		d.mu.Unlock()
		return false
	}
	delete(d.pending, docID)
	d.mu.Unlock()

	d.runMu.Lock()
	defer d.runMu.Unlock()
	d.runs.Add(1)
	d.run(docID)
	return true
}

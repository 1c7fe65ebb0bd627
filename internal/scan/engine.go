package scan

import (
	"sync/atomic"

	"badchars/internal/config"
	"badchars/internal/matcher"
)

// Snapshot pairs a configuration with the matcher compiled from it. The two
// are only ever replaced together.
type Snapshot struct {
	Config  config.Config
	Matcher *matcher.Matcher
	Gen     uint64
}

// Scan runs the snapshot over text.
func (s *Snapshot) Scan(text string) []Finding {
	return Scan(text, s.Config, s.Matcher)
}

// Engine holds the process-wide active snapshot. Readers always see a whole
// snapshot, old or new.
type Engine struct {
	cur atomic.Pointer[Snapshot]
	gen atomic.Uint64
}

// NewEngine returns an engine with cfg installed.
func NewEngine(cfg config.Config) *Engine {
	e := &Engine{}
	e.Install(cfg)
	return e
}

// Install compiles cfg and makes it the active snapshot.
func (e *Engine) Install(cfg config.Config) *Snapshot {
	snap := &Snapshot{
		Config:  cfg,
		Matcher: matcher.Compile(cfg),
		Gen:     e.gen.Add(1),
	}
	e.cur.Store(snap)
	return snap
}

// Reconfigure resolves raw settings and installs the result. The returned
// error lists values that fell back to defaults; the new snapshot is
// installed regardless.
func (e *Engine) Reconfigure(raw config.Values) (*Snapshot, error) {
	cfg, err := config.Resolve(raw)
	return e.Install(cfg), err
}

// Snapshot returns the active snapshot.
func (e *Engine) Snapshot() *Snapshot {
	return e.cur.Load()
}

// Scan scans text with the active snapshot and reports which one was used.
func (e *Engine) Scan(text string) ([]Finding, *Snapshot) {
	snap := e.cur.Load()
	return snap.Scan(text), snap
}

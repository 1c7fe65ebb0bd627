package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event; lower values are coarser.
type Scope uint8

const (
	ScopeError    Scope = iota + 1 // failures worth keeping at any level
	ScopeSession                   // server/CLI lifecycle, configuration reloads
	ScopeDocument                  // scheduling, scanning and publishing one document
	ScopeMatch                     // matcher internals and individual findings
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeError:
		return "error"
	case ScopeSession:
		return "session"
	case ScopeDocument:
		return "document"
	case ScopeMatch:
		return "match"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Name     string            // e.g. "reconfigure", "scan", "publish"
	Detail   string            // optional free text
	Extra    map[string]string // key-value pairs such as uri or count
}

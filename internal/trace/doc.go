// Package trace is the debug channel of badchars.
//
// Events describe the life of a session: configuration reloads, documents
// being scheduled and scanned, findings published. They are written to a
// stream (stderr or a file) or kept in a ring buffer that can be dumped when
// something goes wrong.
//
// # Usage
//
//	badchars lsp --trace=/tmp/badchars.ndjson --trace-level=detail
//
// # Levels
//
//   - LevelOff: nothing
//   - LevelError: only explicit error points
//   - LevelPhase: session lifecycle and configuration reloads
//   - LevelDetail: per-document scheduling and publishing
//   - LevelDebug: everything, including per-scan matcher details
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeDocument, "scan", 0)
//	defer span.End("")
package trace

package live

import (
	"badchars/internal/config"
	"badchars/internal/scan"
)

// Disposable releases an event subscription.
type Disposable interface {
	Dispose()
}

// DisposeFunc adapts a function to Disposable.
type DisposeFunc func()

// Dispose calls f.
func (f DisposeFunc) Dispose() {
	if f != nil {
		f()
	}
}

// Documents gives read access to the host's open documents.
type Documents interface {
	// Active returns the focused document, if any.
	Active() (string, bool)
	// Text returns the current text of docID; false when it is not open.
	Text(docID string) (string, bool)
	// Open lists every open document.
	Open() []string
}

// Events is the host's event source.
type Events interface {
	OnActiveDocumentChanged(func(docID string)) Disposable
	OnDocumentTextChanged(func(docID string)) Disposable
	OnConfigurationChanged(func()) Disposable
	OnDocumentClosed(func(docID string)) Disposable
}

// Settings reads the host's configuration store.
type Settings interface {
	Values(namespace string) config.Values
}

// Publisher renders results. An empty slice clears what was published for
// the document before.
type Publisher interface {
	PublishHighlights(docID string, style config.Style, text string, findings []scan.Finding)
	PublishDiagnostics(docID string, severity config.Severity, text string, findings []scan.Finding)
}

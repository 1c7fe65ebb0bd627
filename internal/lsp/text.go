package lsp

import "badchars/internal/present"

// applyChanges replays didChange events. A change without a range replaces
// the whole text; ranged changes are spliced in order, each against the
// result of the previous one.
func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		li := present.NewLineIndex(text)
		start := li.Offset(change.Range.Start)
		end := li.Offset(change.Range.End)
		if end < start {
			end = start
		}
		text = text[:start] + change.Text + text[end:]
	}
	return text
}

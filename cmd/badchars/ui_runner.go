package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"badchars/internal/driver"
	"badchars/internal/scan"
	"badchars/internal/source"
	"badchars/internal/ui"
)

type scanOutcome struct {
	files   *source.FileSet
	results []driver.FileResult
	err     error
}

// runScanWithUI runs the batch scan in the background and shows its progress
// until the event channel is closed. Quitting the UI early (Ctrl-C) cancels
// the scan.
func runScanWithUI(ctx context.Context, title string, files []string, snap *scan.Snapshot, opts driver.Options) (*source.FileSet, []driver.FileResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan scanOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Sink = driver.ChannelSink{Ch: events}
		fileSet, results, err := driver.ScanFiles(ctx, snap, files, optsCopy)
		outcomeCh <- scanOutcome{files: fileSet, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	cancel()
	// воркеры не должны блокироваться на полном канале после выхода UI
	go func() {
		for range events { //nolint:revive // drain
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.files, outcome.results, uiErr
	}
	return outcome.files, outcome.results, outcome.err
}

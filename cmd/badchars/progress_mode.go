package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"badchars/internal/report"
)

// progressMode is the value of scan --progress.
type progressMode string

const (
	progressAuto   progressMode = "auto"
	progressAlways progressMode = "always"
	progressNever  progressMode = "never"
)

func parseProgressMode(value string) (progressMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return progressAuto, nil
	case "always", "on":
		return progressAlways, nil
	case "never", "off":
		return progressNever, nil
	default:
		return "", fmt.Errorf("invalid --progress value %q (expected auto|always|never)", value)
	}
}

// showProgress decides whether a batch scan of files draws the progress view.
// The view shares stdout with the report, so machine formats never get it,
// and a single file finishes too fast to be worth it.
func showProgress(mode progressMode, format report.Format, files int, out io.Writer) bool {
	if format != report.FormatPretty || files < 2 {
		return false
	}
	switch mode {
	case progressAlways:
		return true
	case progressNever:
		return false
	default:
		f, ok := out.(*os.File)
		return ok && isTerminal(f)
	}
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"badchars/internal/trace"
	"badchars/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] <file>",
	Short: "Re-scan a file whenever it changes on disk",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().Duration("interval", 500*time.Millisecond, "how often to poll the file")
	watchCmd.Flags().Duration("debounce", 500*time.Millisecond, "quiet period before a change is re-scanned")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cleanup, err := setupRun(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	interval, err := cmd.Flags().GetDuration("interval")
	if err != nil {
		return fmt.Errorf("failed to get interval flag: %w", err)
	}
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return fmt.Errorf("failed to get debounce flag: %w", err)
	}
	overrides, err := flagOverrides(cmd)
	if err != nil {
		return err
	}
	configFile, err := configFlag(cmd)
	if err != nil {
		return err
	}
	colorOn, err := useColor(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	w, err := watch.New(watch.Options{
		Path:       args[0],
		ConfigFile: configFile,
		Overrides:  overrides,
		Out:        cmd.OutOrStdout(),
		Color:      colorOn,
		Delay:      debounce,
		Tracer:     trace.FromContext(cmd.Context()),
	})
	if err != nil {
		return err
	}
	if path := w.ConfigPath(); path != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "watching %s (config %s), Ctrl-C to stop\n", args[0], path)
	} else {
		fmt.Fprintf(cmd.ErrOrStderr(), "watching %s, Ctrl-C to stop\n", args[0])
	}
	return w.Run(cmd.Context(), interval)
}

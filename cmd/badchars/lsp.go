package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"badchars/internal/lsp"
	"badchars/internal/trace"
	"badchars/internal/version"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the badchars language server over stdio",
	RunE:  runLSP,
}

func init() {
	lspCmd.Flags().Duration("debounce", 500*time.Millisecond, "quiet period before a changed document is re-scanned")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	cleanup, err := setupRun(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

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

	server := lsp.NewServer(os.Stdin, os.Stdout, lsp.ServerOptions{
		Debounce:   debounce,
		Tracer:     trace.FromContext(cmd.Context()),
		Version:    version.Version,
		ConfigFile: configFile,
		Overrides:  overrides,
		Log:        cmd.ErrOrStderr(),
	})
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}

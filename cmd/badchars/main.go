package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"badchars/internal/version"
)

// errFindings is returned when a scan found something worth failing on. The
// report has already been printed, so main only sets the exit code.
var errFindings = errors.New("bad characters found")

var rootCmd = &cobra.Command{
	Use:   "badchars",
	Short: "Find invisible and lookalike Unicode characters",
	Long: `badchars reports zero-width, bidi, non-standard space and other lookalike
characters in text files, and serves the same checks to editors over LSP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// main registers subcommands and persistent flags and executes the root
// command with a context that is cancelled on SIGINT/SIGTERM.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(charsCmd)
	rootCmd.AddCommand(versionCmd)

	registerGlobalFlags(rootCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errFindings) {
			fmt.Fprintf(os.Stderr, "badchars: %v\n", err)
		}
		os.Exit(1)
	}
}

// registerGlobalFlags adds the persistent flags shared by every command.
func registerGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (default: nearest .badchars.{toml,yaml,yml,json})")
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("ascii-only", false, "report every non-ASCII character")
	flags.StringSlice("allow", nil, "characters or hex codes never to report (repeatable)")
	flags.StringSlice("deny", nil, "extra characters or hex codes to report (repeatable)")
	flags.String("severity", "", "diagnostic severity (error|warning|information|hint)")
	flags.Bool("timings", false, "show timing information")

	flags.String("trace", "", "trace output file (\"-\" for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	flags.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	flags.Int("trace-ring-size", 4096, "ring buffer capacity for ring/both trace modes")

	flags.String("cpu-profile", "", "write a CPU profile to file")
	flags.String("mem-profile", "", "write a heap profile to file on exit")
	flags.String("runtime-trace", "", "write a runtime execution trace to file")
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color flag against the given output. Writers that
// are not files never get color in auto mode.
func useColor(cmd *cobra.Command, out io.Writer) (bool, error) {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch colorFlag {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto", "":
		f, ok := out.(*os.File)
		return ok && isTerminal(f), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
}

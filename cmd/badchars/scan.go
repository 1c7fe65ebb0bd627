package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"badchars/internal/config"
	"badchars/internal/driver"
	"badchars/internal/observ"
	"badchars/internal/report"
	"badchars/internal/scan"
	"badchars/internal/source"
	"badchars/internal/trace"
	"badchars/internal/version"
)

var scanCmd = &cobra.Command{
	Use:   "scan [flags] [paths...|-]",
	Short: "Scan files or directories for bad characters",
	Long: `Scan walks the given files and directories (the current directory by
default) and reports every bad character. Use "-" to read from stdin.
The exit status is 1 when findings exist at error severity, or with --strict
whenever anything is found.`,
	RunE: runScan,
}

// init registers the scan flags.
func init() {
	scanCmd.Flags().String("format", "pretty", "output format (pretty|json|ndjson|msgpack|sarif)")
	scanCmd.Flags().String("progress", "auto", "progress view while scanning many files (auto|always|never)")
	scanCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	scanCmd.Flags().Int64("max-bytes", 10<<20, "skip files larger than this many bytes (0=no limit)")
	scanCmd.Flags().Bool("strict", false, "exit 1 on any finding, whatever the severity")
	scanCmd.Flags().Bool("cache", false, "reuse results from the on-disk cache")
	scanCmd.Flags().Bool("clear-cache", false, "drop the on-disk cache before scanning")
	scanCmd.Flags().String("path-mode", "auto", "how to print paths (auto|relative|absolute|basename)")
	scanCmd.Flags().Int("max", 0, "maximum number of findings to print (0=all)")
	scanCmd.Flags().Bool("context", true, "pretty: print the offending line under each finding")
}

// scanRequest is everything runScanPaths needs, detached from cobra.
type scanRequest struct {
	Paths    []string
	Stdin    io.Reader
	Config   config.Config
	Format   report.Format
	Report   report.Options
	Driver   driver.Options
	Strict   bool
	Progress progressMode
	Timings  io.Writer // nil disables the timing table
}

func runScan(cmd *cobra.Command, args []string) error {
	cleanup, err := setupRun(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := report.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	progressFlag, err := cmd.Flags().GetString("progress")
	if err != nil {
		return fmt.Errorf("failed to get progress flag: %w", err)
	}
	progress, err := parseProgressMode(progressFlag)
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	maxBytes, err := cmd.Flags().GetInt64("max-bytes")
	if err != nil {
		return fmt.Errorf("failed to get max-bytes flag: %w", err)
	}
	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return fmt.Errorf("failed to get strict flag: %w", err)
	}
	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}
	clearCache, err := cmd.Flags().GetBool("clear-cache")
	if err != nil {
		return fmt.Errorf("failed to get clear-cache flag: %w", err)
	}
	pathModeStr, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	pathMode, err := report.ParsePathMode(pathModeStr)
	if err != nil {
		return err
	}
	maxFindings, err := cmd.Flags().GetInt("max")
	if err != nil {
		return fmt.Errorf("failed to get max flag: %w", err)
	}
	withContext, err := cmd.Flags().GetBool("context")
	if err != nil {
		return fmt.Errorf("failed to get context flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	colorOn, err := useColor(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	// конфиг ищем от первого пути, а не от cwd
	configDir := cwd
	if len(args) > 0 && args[0] != "-" {
		configDir = args[0]
	}
	cfg, _, err := loadSettings(cmd, configDir)
	if err != nil {
		return err
	}

	var cache *driver.DiskCache
	if useCache || clearCache {
		cache, err = driver.OpenDiskCache("badchars")
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		if clearCache {
			if err := cache.DropAll(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
		}
		if !useCache {
			cache = nil
		}
	}

	req := scanRequest{
		Paths:  args,
		Stdin:  cmd.InOrStdin(),
		Config: cfg,
		Format: format,
		Report: report.Options{
			Color:       colorOn && format == report.FormatPretty,
			Context:     withContext,
			PathMode:    pathMode,
			Max:         maxFindings,
			ToolName:    "badchars",
			ToolVersion: version.Version,
		},
		Driver: driver.Options{
			Jobs:     jobs,
			MaxBytes: maxBytes,
			Cache:    cache,
			BaseDir:  cwd,
		},
		Strict:   strict,
		Progress: progress,
	}
	if showTimings {
		req.Timings = cmd.ErrOrStderr()
	}

	failed, err := runScanPaths(cmd.Context(), cmd.OutOrStdout(), req)
	if err != nil {
		return err
	}
	if failed {
		return errFindings
	}
	return nil
}

// runScanPaths scans req.Paths and writes the report to out. It reports
// whether the run should fail.
func runScanPaths(ctx context.Context, out io.Writer, req scanRequest) (bool, error) {
	tr := trace.FromContext(ctx)
	span := trace.Begin(tr, trace.ScopeSession, "scan", 0)
	defer span.End("")

	timer := observ.NewTimer()
	snap := scan.NewEngine(req.Config).Snapshot()

	var (
		fileSet *source.FileSet
		results []driver.FileResult
	)
	paths := req.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}

	if len(paths) == 1 && paths[0] == "-" {
		if err := timer.Measure("stdin", func() (int, error) {
			if req.Stdin == nil {
				return 0, fmt.Errorf("no stdin")
			}
			content, err := io.ReadAll(req.Stdin)
			if err != nil {
				return 0, fmt.Errorf("failed to read stdin: %w", err)
			}
			var res driver.FileResult
			fileSet, res = driver.ScanContent(snap, "<stdin>", content)
			results = []driver.FileResult{res}
			return len(content), nil
		}); err != nil {
			return false, err
		}
	} else {
		var files []string
		if err := timer.Measure("walk", func() (int, error) {
			var err error
			files, err = driver.ListFiles(paths)
			return len(files), err
		}); err != nil {
			return false, err
		}

		if err := timer.Measure("scan", func() (int, error) {
			var err error
			if showProgress(req.Progress, req.Format, len(files), out) {
				fileSet, results, err = runScanWithUI(ctx, "badchars", files, snap, req.Driver)
			} else {
				fileSet, results, err = driver.ScanFiles(ctx, snap, files, req.Driver)
			}
			return len(files), err
		}); err != nil {
			return false, err
		}
	}

	r := report.Report{Files: fileSet, Results: results, Severity: req.Config.Severity()}
	if err := timer.Measure("report", func() (int, error) {
		return r.Totals().Findings, report.Write(out, req.Format, r, req.Report)
	}); err != nil {
		return false, fmt.Errorf("failed to write report: %w", err)
	}

	if req.Timings != nil {
		_, _ = io.WriteString(req.Timings, timer.Summary())
	}
	return report.Failed(r, req.Strict), nil
}

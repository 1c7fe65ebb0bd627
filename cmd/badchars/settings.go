package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"badchars/internal/config"
	"badchars/internal/trace"
)

// flagOverrides collects the settings given on the command line. Only flags
// the user actually set are returned, so they do not mask the config file.
func flagOverrides(cmd *cobra.Command) (config.Values, error) {
	flags := cmd.Root().PersistentFlags()
	out := config.Values{}

	if flags.Changed("ascii-only") {
		v, err := flags.GetBool("ascii-only")
		if err != nil {
			return nil, fmt.Errorf("failed to get ascii-only flag: %w", err)
		}
		out[config.KeyASCIIOnly] = v
	}
	if flags.Changed("allow") {
		v, err := flags.GetStringSlice("allow")
		if err != nil {
			return nil, fmt.Errorf("failed to get allow flag: %w", err)
		}
		out[config.KeyAllowed] = v
	}
	if flags.Changed("deny") {
		v, err := flags.GetStringSlice("deny")
		if err != nil {
			return nil, fmt.Errorf("failed to get deny flag: %w", err)
		}
		out[config.KeyAdditional] = v
	}
	if flags.Changed("severity") {
		v, err := flags.GetString("severity")
		if err != nil {
			return nil, fmt.Errorf("failed to get severity flag: %w", err)
		}
		out[config.KeySeverity] = v
	}

	// флаги проверяются строго, в отличие от настроек редактора
	if _, err := config.Resolve(out); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return out, nil
}

// configFlag returns the --config value.
func configFlag(cmd *cobra.Command) (string, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return "", fmt.Errorf("failed to get config flag: %w", err)
	}
	return path, nil
}

// loadSettings resolves the effective configuration for a batch command:
// the pinned or nearest config file, with flag overrides on top. A config
// file that does not parse is an error. It returns the config file path, or
// "" when none was used.
func loadSettings(cmd *cobra.Command, dir string) (config.Config, string, error) {
	overrides, err := flagOverrides(cmd)
	if err != nil {
		return config.Config{}, "", err
	}
	pinned, err := configFlag(cmd)
	if err != nil {
		return config.Config{}, "", err
	}

	var (
		fileValues config.Values
		path       string
	)
	if pinned != "" {
		path = pinned
		fileValues, err = config.Load(pinned)
	} else {
		fileValues, path, err = config.LoadNearest(dir)
	}
	if err != nil {
		return config.Config{}, path, fmt.Errorf("failed to load config: %w", err)
	}

	cfg, err := config.Resolve(config.Merge(fileValues, overrides))
	if err != nil {
		// до сюда доходят только значения, которые Load уже проверил
		warnf(cmd.ErrOrStderr(), "config: %v", err)
	}
	trace.Point(trace.FromContext(cmd.Context()), trace.ScopeSession, "config", path,
		"severity", cfg.Severity().String())
	return cfg, path, nil
}

func warnf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, "warning: "+format+"\n", args...)
}

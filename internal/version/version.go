package version

import (
	"runtime/debug"
	"strings"

	"github.com/fatih/color"
)

// Build metadata. These variables can be overridden at build time via -ldflags:
//
//	-X badchars/internal/version.Version=1.0.0 -X badchars/internal/version.GitCommit=$(git rev-parse HEAD)
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorAttrs = []color.Attribute{color.FgYellow, color.Bold}
	minorAttrs = []color.Attribute{color.FgGreen, color.Bold}
	patchAttrs = []color.Attribute{color.FgBlue, color.Bold}
)

// Info is the resolved build metadata.
type Info struct {
	Version    string `json:"version"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
	Modified   bool   `json:"modified,omitempty"`
}

// Get returns the ldflags values, filling gaps from the VCS stamps the Go
// toolchain embeds (vcs.revision, vcs.time, vcs.modified).
func Get() Info {
	info := Info{
		Version:    strings.TrimSpace(Version),
		GitCommit:  strings.TrimSpace(GitCommit),
		GitMessage: strings.TrimSpace(GitMessage),
		BuildDate:  strings.TrimSpace(BuildDate),
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildDate == "" {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// Colored renders v with its major, minor and patch parts in distinct
// colors. Anything that is not a dotted triple comes back unchanged.
func Colored(v string, on bool) string {
	core, suffix, hasSuffix := strings.Cut(v, "-")
	parts := strings.Split(core, ".")
	if !on || len(parts) != 3 {
		return v
	}
	out := paint(majorAttrs, parts[0]) + "." + paint(minorAttrs, parts[1]) + "." + paint(patchAttrs, parts[2])
	if hasSuffix {
		out += "-" + suffix
	}
	return out
}

func paint(attrs []color.Attribute, s string) string {
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"badchars/internal/charset"
	"badchars/internal/config"
	"badchars/internal/driver"
	"badchars/internal/present"
	"badchars/internal/report"
	"badchars/internal/scan"
	"badchars/internal/trace"
	"badchars/internal/version"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve scan_text, fix_text and list_chars as MCP tools over stdio",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cleanup, err := setupRun(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	overrides, err := flagOverrides(cmd)
	if err != nil {
		return err
	}
	pinned, err := configFlag(cmd)
	if err != nil {
		return err
	}
	var fileValues config.Values
	if pinned != "" {
		fileValues, err = config.Load(pinned)
	} else {
		fileValues, _, err = config.LoadNearest(".")
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	srv := newMCPServer(config.Merge(fileValues, overrides), trace.FromContext(cmd.Context()))
	return srv.Run(cmd.Context(), &mcp.StdioTransport{})
}

// toolArgs are the per-call settings every text tool accepts. They are layered
// over the server's base settings.
type toolArgs struct {
	Text       string   `json:"text"`
	ASCIIOnly  *bool    `json:"asciiOnly,omitempty"`
	Allowed    []string `json:"allowed,omitempty"`
	Additional []string `json:"additional,omitempty"`
}

func (a toolArgs) values() config.Values {
	out := config.Values{}
	if a.ASCIIOnly != nil {
		out[config.KeyASCIIOnly] = *a.ASCIIOnly
	}
	if len(a.Allowed) > 0 {
		out[config.KeyAllowed] = a.Allowed
	}
	if len(a.Additional) > 0 {
		out[config.KeyAdditional] = a.Additional
	}
	return out
}

var textToolSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"text":       map[string]any{"type": "string", "description": "text to check"},
		"asciiOnly":  map[string]any{"type": "boolean", "description": "report every non-ASCII character"},
		"allowed":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "characters or hex codes never to report"},
		"additional": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "extra characters or hex codes to report"},
	},
	"required": []string{"text"},
}

// newMCPServer builds the tool server. base holds the settings from the
// config file and flags.
func newMCPServer(base config.Values, tr trace.Tracer) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "badchars", Version: version.Version}, nil)

	srv.AddTool(&mcp.Tool{
		Name:        "scan_text",
		Description: "Report invisible and lookalike Unicode characters in a text, with line and column",
		InputSchema: textToolSchema,
	}, func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, snap, err := prepareText(req, base)
		if err != nil {
			return toolError(err), nil
		}
		fileSet, res := driver.ScanText(snap, "<text>", args.Text)
		trace.Point(tr, trace.ScopeDocument, "mcp_scan", "", "findings", fmt.Sprint(len(res.Findings)))
		out := report.Build(report.Report{
			Files:    fileSet,
			Results:  []driver.FileResult{res},
			Severity: snap.Config.Severity(),
		}, report.Options{})
		return jsonResult(out)
	})

	srv.AddTool(&mcp.Tool{
		Name:        "fix_text",
		Description: "Return the text with every bad character replaced by its lookalike or removed",
		InputSchema: textToolSchema,
	}, func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, snap, err := prepareText(req, base)
		if err != nil {
			return toolError(err), nil
		}
		fixed, n := fixText(args.Text, snap)
		trace.Point(tr, trace.ScopeDocument, "mcp_fix", "", "replaced", fmt.Sprint(n))
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fixed}},
		}, nil
	})

	srv.AddTool(&mcp.Tool{
		Name:        "list_chars",
		Description: "List the built-in table of characters badchars reports",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"category": map[string]any{"type": "string", "description": "only this category"},
			},
		},
	}, func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Category string `json:"category"`
		}
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
			}
		}
		return jsonResult(charRows(args.Category))
	})

	return srv
}

func prepareText(req *mcp.CallToolRequest, base config.Values) (toolArgs, *scan.Snapshot, error) {
	var args toolArgs
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return args, nil, fmt.Errorf("invalid arguments: %w", err)
	}
	// вызовы инструментов проверяются строго, как флаги
	extra := args.values()
	if _, err := config.Resolve(extra); err != nil {
		return args, nil, err
	}
	cfg, _ := config.Resolve(config.Merge(base, extra))
	return args, scan.NewEngine(cfg).Snapshot(), nil
}

// fixText applies the quick-fix replacement for every finding.
func fixText(text string, snap *scan.Snapshot) (string, int) {
	findings := snap.Scan(text)
	if len(findings) == 0 {
		return text, 0
	}
	var sb strings.Builder
	sb.Grow(len(text))
	prev := 0
	for _, f := range findings {
		sb.WriteString(text[prev:f.Start])
		sb.WriteString(present.Replacement(f.Char))
		prev = f.End
	}
	sb.WriteString(text[prev:])
	return sb.String(), len(findings)
}

// charRow is one line of the built-in table.
type charRow struct {
	Code     string `json:"code"`
	Name     string `json:"name,omitempty"`
	Category string `json:"category"`
	Note     string `json:"note,omitempty"`
}

func charRows(category string) []charRow {
	category = strings.ToLower(strings.TrimSpace(category))
	entries := charset.Entries()
	rows := make([]charRow, 0, len(entries))
	for _, e := range entries {
		if category != "" && e.Category.String() != category {
			continue
		}
		rows = append(rows, charRow{
			Code:     fmt.Sprintf("U+%04X", e.Rune),
			Name:     scan.Name(e.Rune),
			Category: e.Category.String(),
			Note:     e.Note,
		})
	}
	return rows
}

// categories lists the category names present in the table.
func categories() []string {
	seen := make(map[string]struct{})
	for _, e := range charset.Entries() {
		seen[e.Category.String()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}

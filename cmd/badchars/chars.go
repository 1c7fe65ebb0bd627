package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"badchars/internal/present"
)

var charsCmd = &cobra.Command{
	Use:   "chars",
	Short: "List the built-in table of bad characters",
	RunE:  runChars,
}

func init() {
	charsCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	charsCmd.Flags().String("category", "", "only list one category (latin1|space|bidi|control|homoglyph)")
}

func runChars(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	category, err := cmd.Flags().GetString("category")
	if err != nil {
		return fmt.Errorf("failed to get category flag: %w", err)
	}
	if category != "" && !slices.Contains(categories(), strings.ToLower(category)) {
		return fmt.Errorf("unknown category %q (expected %s)", category, strings.Join(categories(), "|"))
	}

	rows := charRows(category)
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "pretty", "":
		colorOn, err := useColor(cmd, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return printCharTable(cmd.OutOrStdout(), rows, colorOn)
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}

// printCharTable aligns the columns by display width; names and lookalikes
// may contain wide characters.
func printCharTable(w io.Writer, rows []charRow, colorOn bool) error {
	head := color.New(color.Bold)
	dim := color.New(color.Faint)
	if colorOn {
		head.EnableColor()
		dim.EnableColor()
	} else {
		head.DisableColor()
		dim.DisableColor()
	}

	header := []string{"CODE", "LOOKS LIKE", "CATEGORY", "NAME"}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{r.Code, lookalikeCell(r.Code), r.Category, r.Name})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(c))
		}
	}

	ew := &lineWriter{w: w}
	ew.line(head.Sprint(padRow(header, widths)))
	for i, row := range cells {
		line := padRow(row, widths)
		if note := rows[i].Note; note != "" && !strings.EqualFold(note, rows[i].Name) {
			line += "  " + dim.Sprint(note)
		}
		ew.line(line)
	}
	ew.line(dim.Sprintf("%d characters", len(rows)))
	return ew.err
}

func padRow(cells []string, widths []int) string {
	var sb strings.Builder
	for i, c := range cells {
		if i > 0 {
			sb.WriteString("  ")
		}
		if i == len(cells)-1 {
			sb.WriteString(c)
			break
		}
		sb.WriteString(runewidth.FillRight(c, widths[i]))
	}
	return strings.TrimRight(sb.String(), " ")
}

// lookalikeCell shows what the character is mistaken for, quoted so spaces
// stay visible, or "-" when it has no visible form.
func lookalikeCell(code string) string {
	var r rune
	if _, err := fmt.Sscanf(code, "U+%X", &r); err != nil {
		return "-"
	}
	look, ok := present.Lookalike(r)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%q", look)
}

type lineWriter struct {
	w   io.Writer
	err error
}

func (lw *lineWriter) line(s string) {
	if lw.err != nil {
		return
	}
	_, lw.err = fmt.Fprintln(lw.w, s)
}

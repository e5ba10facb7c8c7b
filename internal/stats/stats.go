package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	sparkChars          = " .:-=+*#%@"
	minSentenceWidth    = 10
	terminalWidthBackup = 80
	colorSolved         = "\x1b[32m"
	colorReset          = "\x1b[0m"
	lastAtLayout        = "2006-01-02 15:04"
)

// Sparkline renders a single-line ASCII sparkline for values in [0,1].
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	var b strings.Builder
	for _, v := range values {
		v = math.Max(0, math.Min(1, v))
		idx := int(math.Round(v * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Render prints the summary and the per-problem table sized to the terminal.
func Render(w io.Writer, r Report) error {
	if err := RenderSummary(w, r); err != nil {
		return err
	}
	return RenderProblemTable(w, r, terminalWidth(), shouldUseColor(w))
}

// RenderSummary prints totals for the report.
func RenderSummary(w io.Writer, r Report) error {
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Set: %s\n", r.Hash); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Problems: %d\n", len(r.Rows)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Attempted: %d\n", r.Attempted()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Solved: %d\n", r.Solved()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Attempts: %d\n", r.TotalAttempts()); err != nil {
		return err
	}
	ratios := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		ratios[i] = row.LockRatio()
	}
	if _, err := fmt.Fprintf(w, "Progress: [%s]\n", Sparkline(ratios)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderProblemTable prints one row per problem. The sentence column is
// truncated so rows fit in totalWidth when it is positive.
func RenderProblemTable(w io.Writer, r Report, totalWidth int, useColor bool) error {
	if len(r.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No problems found.")
		return err
	}

	headers := []string{"#", "Sentence", "Tokens", "Attempts", "Best", "Solved", "Last"}
	tableRows := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		solved := "no"
		if row.Solved {
			solved = "yes"
		}
		last := "-"
		if !row.LastAt.IsZero() {
			last = row.LastAt.Local().Format(lastAtLayout)
		}
		tableRows = append(tableRows, []string{
			fmt.Sprintf("%d", row.Index+1),
			row.Sentence,
			fmt.Sprintf("%d", row.Tokens),
			fmt.Sprintf("%d", row.Attempts),
			fmt.Sprintf("%d/%d", row.BestLocked, row.Tokens),
			solved,
			last,
		})
	}
	if totalWidth > 0 {
		fitSentenceColumn(headers, tableRows, 1, totalWidth)
	}

	rightAlign := map[int]bool{0: true, 2: true, 3: true, 4: true}
	lines := formatTable(headers, tableRows, rightAlign)
	for i, line := range lines {
		if useColor && i > 0 && r.Rows[i-1].Solved {
			line = colorSolved + line + colorReset
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func fitSentenceColumn(headers []string, rows [][]string, col, totalWidth int) {
	widths := columnWidths(headers, rows, len(headers))
	used := len(widths) - 1
	for i, width := range widths {
		if i != col {
			used += width
		}
	}
	limit := totalWidth - used
	if limit < minSentenceWidth {
		limit = minSentenceWidth
	}
	for _, row := range rows {
		row[col] = truncateCell(row[col], limit)
	}
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

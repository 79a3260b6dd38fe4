package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/promptbatch/internal/engine"
	"github.com/rshade/promptbatch/internal/engine/batch"
)

// maxEstimateRows caps the per-row table in RenderEstimate.
const maxEstimateRows = 20

// BatchInfo describes one resumable checkpoint for RenderBatchList.
type BatchInfo struct {
	ID        string
	Processed int
	Total     int
	Critical  int
	StartTime time.Time
	SavedAt   time.Time
}

// RenderSummary renders the end-of-run report.
func RenderSummary(s batch.Summary) string {
	titleStyle := lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(ColorLabel).Width(14)
	valueStyle := lipgloss.NewStyle().Foreground(ColorValue).Bold(true)

	statusStyle := lipgloss.NewStyle().Foreground(ColorOK).Bold(true)
	if s.Status == batch.StatusFailed {
		statusStyle = statusStyle.Foreground(ColorError)
	}

	line := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	errText := FormatCount(int64(s.ErrorCount))
	if s.CriticalCount > 0 {
		errText += fmt.Sprintf(" (%s missing credentials)", FormatCount(int64(s.CriticalCount)))
	}

	models := "-"
	if len(s.ModelsUsed) > 0 {
		models = strings.Join(s.ModelsUsed, ", ")
	}

	lines := []string{
		titleStyle.Render("Batch " + s.BatchID),
		labelStyle.Render("Status") + statusStyle.Render(string(s.Status)),
		line("Rows", FormatCount(int64(s.TotalRows))),
		line("Succeeded", FormatCount(int64(s.SuccessCount))),
		line("Errors", errText),
		line("Total cost", FormatCost(s.TotalCost)),
		line("Avg latency", FormatDuration(time.Duration(s.AverageLatencyMs*float64(time.Millisecond)))),
		line("Duration", FormatDuration(time.Duration(s.DurationMs)*time.Millisecond)),
		line("Models", models),
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorMuted).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// RenderEstimate renders a pre-flight cost estimate. When showRows is set
// the first rows are listed individually.
func RenderEstimate(e *engine.Estimate, showRows bool) string {
	headerStyle := lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(ColorLabel)
	valueStyle := lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	muted := lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)

	if e == nil {
		return muted.Render("no estimate")
	}

	var tokens int64
	for _, r := range e.PerRow {
		tokens += int64(r.TokensIn)
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Estimated input cost"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Rows:        "), valueStyle.Render(FormatCount(int64(len(e.PerRow)))))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Input tokens:"), valueStyle.Render(FormatCount(tokens)))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Total:       "), valueStyle.Render(FormatCost(e.TotalUSD)))

	if showRows && len(e.PerRow) > 0 {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s\n", labelStyle.Render(fmt.Sprintf("%-24s %-32s %10s %12s", "ID", "MODEL", "TOKENS", "COST")))
		for i, r := range e.PerRow {
			if i == maxEstimateRows {
				b.WriteString(muted.Render(fmt.Sprintf("... %d more rows", len(e.PerRow)-maxEstimateRows)))
				b.WriteString("\n")
				break
			}
			fmt.Fprintf(&b, "%-24s %-32s %10s %12s\n",
				truncate(r.ID, 24), truncate(r.Model, 32), FormatCount(int64(r.TokensIn)), FormatCost(r.EstCost))
		}
	}

	b.WriteString(muted.Render("Output tokens are not included."))
	return b.String()
}

// RenderBatchList renders resumable checkpoints as a table.
func RenderBatchList(batches []BatchInfo) string {
	muted := lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	if len(batches) == 0 {
		return muted.Render("No resumable batches.")
	}

	headerStyle := lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(ColorWarn)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-28s %-14s %-8s %-20s", "BATCH", "PROGRESS", "FAILED", "SAVED")))
	for _, info := range batches {
		b.WriteString("\n")
		progress := fmt.Sprintf("%s/%s", FormatCount(int64(info.Processed)), FormatCount(int64(info.Total)))
		failed := fmt.Sprintf("%-8d", info.Critical)
		if info.Critical > 0 {
			failed = warnStyle.Render(failed)
		}
		saved := "-"
		if !info.SavedAt.IsZero() {
			saved = info.SavedAt.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(&b, "%-28s %-14s %s %-20s", info.ID, progress, failed, saved)
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

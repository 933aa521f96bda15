package main

import (
	"fmt"
	"strings"

	"dexsweep/internal/sweep"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	labelStyle = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("#9CA3AF"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)
)

func summaryRow(label string, value any) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), fmt.Sprint(value))
}

func snapshotRows(prefix string, s sweep.Snapshot) []string {
	rows := []string{summaryRow(prefix+" mon", s.Specimens), summaryRow(prefix+" eggs", s.Eggs)}
	if s.Trainer != nil {
		rows = append(rows, summaryRow(prefix+" lv",
			fmt.Sprintf("%d (%d/%d xp)", s.Trainer.Level, s.Trainer.Experience, s.Trainer.NextLevelXP)))
	}
	return rows
}

// renderSummary renders the end-of-run box.
func renderSummary(r *sweep.Report) string {
	title := "Sweep " + r.RunID
	if r.DryRun {
		title += " (dry run)"
	}

	rows := []string{titleStyle.Render(title)}
	rows = append(rows, snapshotRows("before", r.Before)...)
	rows = append(rows,
		summaryRow("kept", okStyle.Render(fmt.Sprint(r.Kept))),
		summaryRow("released", warnStyle.Render(fmt.Sprint(r.Released))),
	)
	if r.DryRun {
		rows = append(rows, summaryRow("would go", warnStyle.Render(fmt.Sprint(r.Pending))))
	}
	if r.After != nil {
		rows = append(rows, snapshotRows("after", *r.After)...)
	} else {
		rows = append(rows, dimStyle.Render("run stopped before the after snapshot"))
	}

	return boxStyle.Render(strings.Join(rows, "\n"))
}

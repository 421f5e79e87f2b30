package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/formpilot/pkg/inject"
)

var (
	mintGreen = lipgloss.Color("#A8E6CF")
	amber     = lipgloss.Color("#FFD580")
	salmon    = lipgloss.Color("#FFB3BA")
	mutedGray = lipgloss.Color("#6B7280")

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	okStyle   = lipgloss.NewStyle().Foreground(mintGreen)
	skipStyle = lipgloss.NewStyle().Foreground(mutedGray)
	failStyle = lipgloss.NewStyle().Foreground(salmon)
)

// summaryColor maps a batch outcome to the notification border.
func summaryColor(s inject.Summary) lipgloss.Color {
	switch {
	case s.Complete:
		return mintGreen
	case s.Successes > 0:
		return amber
	default:
		return salmon
	}
}

// renderSummary draws the notification box for a finished batch.
func renderSummary(result inject.Result) string {
	summary := result.Summary()

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(summary.Message))
	for _, o := range result.Outcomes {
		b.WriteString("\n")
		b.WriteString(outcomeLine(o))
	}
	return boxStyle.BorderForeground(summaryColor(summary)).Render(b.String())
}

func outcomeLine(o inject.Outcome) string {
	switch {
	case o.Written():
		return okStyle.Render(fmt.Sprintf("✓ %s ← %q (%s)", o.Label, o.Answer.Answer, o.Strategy))
	case o.Attempted():
		return failStyle.Render(fmt.Sprintf("✗ %s: %v", o.Label, o.Err))
	default:
		return skipStyle.Render(fmt.Sprintf("- %s: %v", o.Answer.FieldLabel, o.Err))
	}
}

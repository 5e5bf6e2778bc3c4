package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/JieWu02/nanochat/internal/ui/theme"
)

// ProgressBar renders a horizontal bar for batch progress, sized to fit
// a fixed terminal width.
type ProgressBar struct {
	Label       string  // optional prefix, usually the stage name
	Percent     float64 // 0 to 1
	ShowPercent bool
	Width       int // total width including label and percent suffix
}

// NewProgressBar creates a progress bar.
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{Label: label, Percent: percent, ShowPercent: showPercent, Width: width}
}

// View renders the bar.
func (p ProgressBar) View() string {
	var b strings.Builder

	if p.Label != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label))
		b.WriteString("  ")
	}

	// Reserve a fixed suffix slot so the bar doesn't resize as the
	// percentage gains digits during a run.
	reserved := lipgloss.Width(b.String())
	if p.ShowPercent {
		reserved += 6
	}

	barWidth := max(p.Width-reserved, 4)
	filled := min(max(int(float64(barWidth)*p.Percent), 0), barWidth)

	b.WriteString(lipgloss.NewStyle().
		Background(theme.Secondary).
		Render(strings.Repeat(" ", filled)))
	b.WriteString(lipgloss.NewStyle().
		Background(theme.Border).
		Render(strings.Repeat(" ", barWidth-filled)))

	if p.ShowPercent {
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("  %d%%", int(p.Percent*100))))
	}

	return b.String()
}

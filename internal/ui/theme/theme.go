package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette tuned for dark terminals. Accents need to stay readable on the
// card background, so everything sits in the mid-brightness range.
var (
	Primary   = lipgloss.Color("#7AA2F7") // Blue
	Secondary = lipgloss.Color("#2AC3DE") // Cyan
	Accent    = lipgloss.Color("#E0AF68") // Amber
	Success   = lipgloss.Color("#9ECE6A") // Green
	Error     = lipgloss.Color("#F7768E") // Red
	Text      = lipgloss.Color("#C0CAF5") // Foreground
	TextDim   = lipgloss.Color("#565F89") // Muted
	BgCard    = lipgloss.Color("#1F2335") // Raised background
	Border    = lipgloss.Color("#3B4261") // Border
)

// Text styles
var (
	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Verdict and stage states
var (
	Accept = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Reject = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	StageActive = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	StageDone = lipgloss.NewStyle().
			Foreground(TextDim)
)

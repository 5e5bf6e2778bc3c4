// Package monitor renders a live terminal view of a pipeline run. It
// consumes the pipeline's event stream and shows per-stage progress,
// accept/reject counts, and recent API health until the stream closes.
package monitor

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/JieWu02/nanochat/internal/llm"
	"github.com/JieWu02/nanochat/internal/pipeline"
	"github.com/JieWu02/nanochat/internal/ui/components"
	"github.com/JieWu02/nanochat/internal/ui/layout"
	"github.com/JieWu02/nanochat/internal/ui/theme"
)

type eventMsg pipeline.Event

type streamClosedMsg struct{}

type timerTickMsg time.Time

// Model is the root Bubble Tea model for the watch screen.
type Model struct {
	events <-chan pipeline.Event
	health *llm.HealthTracker

	width   int
	height  int
	spinner components.Spinner
	order   []string
	latest  map[string]pipeline.Event
	closed  bool
	started time.Time
}

// New creates a watch model over the given event stream. The health
// tracker is optional; pass nil to hide the API health readout.
func New(events <-chan pipeline.Event, health *llm.HealthTracker) Model {
	return Model{
		events:  events,
		health:  health,
		spinner: components.NewSpinner(),
		latest:  make(map[string]pipeline.Event),
		started: time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Init(), waitForEvent(m.events), tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		return m, nil

	case eventMsg:
		ev := pipeline.Event(msg)
		if _, seen := m.latest[ev.Stage]; !seen {
			m.order = append(m.order, ev.Stage)
		}
		m.latest[ev.Stage] = ev
		return m, waitForEvent(m.events)

	case streamClosedMsg:
		m.closed = true
		return m, tea.Quit

	case timerTickMsg:
		if m.closed {
			return m, nil
		}
		return m, tickCmd()
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	header := layout.RenderHeader("Pipeline Run", m.status(), m.width)
	footer := layout.RenderFooter([]layout.KeyHint{
		{Key: "Ctrl+C", Description: "Quit"},
	}, m.width)

	frame := layout.RenderFrame(header, m.renderStages(), footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// status builds the right-hand header readout: elapsed time plus the
// recent API success rate when a tracker is attached.
func (m Model) status() string {
	s := formatElapsed(time.Since(m.started))
	if m.health != nil && m.health.Samples() > 0 {
		s += fmt.Sprintf("   api %d%%", int(m.health.SuccessRate()*100))
	}
	return s
}

func (m Model) renderStages() string {
	if len(m.order) == 0 {
		return "\n  " + theme.Hint.Render("Waiting for the first stage to start...")
	}

	var b strings.Builder
	for _, stage := range m.order {
		ev := m.latest[stage]
		b.WriteString("\n  ")
		b.WriteString(m.renderStageTitle(ev))
		b.WriteString("\n  ")
		b.WriteString(m.renderStageBar(ev))
		counts := renderCounts(ev)
		if counts != "" {
			b.WriteString("\n  ")
			b.WriteString(counts)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderStageTitle(ev pipeline.Event) string {
	name := stageTitle(ev.Stage)
	if ev.Done {
		return theme.Accept.Render("✓") + " " + theme.StageDone.Render(name)
	}
	return m.spinner.View() + " " + theme.StageActive.Render(name)
}

func (m Model) renderStageBar(ev pipeline.Event) string {
	barWidth := m.width - 8
	if barWidth > 72 {
		barWidth = 72
	}
	bar := components.NewProgressBar("", stagePercent(ev), true, barWidth)
	return bar.View()
}

// stagePercent maps an event onto a 0..1 completion fraction. A stage
// with an unknown total reads as complete once it reports done.
func stagePercent(ev pipeline.Event) float64 {
	if ev.Total <= 0 {
		if ev.Done {
			return 1.0
		}
		return 0.0
	}
	return float64(ev.Completed) / float64(ev.Total)
}

func renderCounts(ev pipeline.Event) string {
	var parts []string
	switch ev.Stage {
	case pipeline.StageGeneration:
		parts = append(parts, theme.Accept.Render(fmt.Sprintf("ok %d", ev.Succeeded)))
		if ev.Failed > 0 {
			parts = append(parts, theme.Reject.Render(fmt.Sprintf("failed %d", ev.Failed)))
		}
	case pipeline.StageRuleFilter, pipeline.StageJudge:
		parts = append(parts, theme.Accept.Render(fmt.Sprintf("accepted %d", ev.Accepted)))
		parts = append(parts, theme.Reject.Render(fmt.Sprintf("rejected %d", ev.Rejected)))
	case pipeline.StageSamples:
		parts = append(parts, theme.Body.Render(fmt.Sprintf("files %d", ev.Completed)))
	}
	return strings.Join(parts, "   ")
}

func stageTitle(stage string) string {
	switch stage {
	case pipeline.StageGeneration:
		return "Generation"
	case pipeline.StageRuleFilter:
		return "Rule Filter"
	case pipeline.StageJudge:
		return "LLM Judge"
	case pipeline.StageSamples:
		return "Samples"
	default:
		return stage
	}
}

func formatElapsed(d time.Duration) string {
	total := int(d.Seconds())
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// waitForEvent blocks on the stream and converts the next event into a
// message. A closed channel signals the run is over.
func waitForEvent(events <-chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// tickCmd returns a 1-second tick command so the elapsed clock moves
// even when no events arrive.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg(t)
	})
}

// Watch runs the live view until the event stream closes or the user
// quits. The caller is expected to run the pipeline concurrently and
// wait for it after Watch returns.
func Watch(events <-chan pipeline.Event, health *llm.HealthTracker) error {
	p := tea.NewProgram(New(events, health))
	_, err := p.Run()
	return err
}

// Package ui renders a live view of a fixme run with Bubble Tea.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"upgrade/internal/fixme"
)

// Step identifies one row of the view.
type Step struct {
	Stage fixme.Stage
	Pass  int
}

func (s Step) label() string {
	if s.Pass == 0 {
		return string(s.Stage)
	}
	return fmt.Sprintf("pass %d: %s", s.Pass, s.Stage)
}

// Plan returns the steps a run is expected to go through. A second pass is
// only known once the formatter reports a change, so it is never planned.
func Plan(lint bool) []Step {
	steps := []Step{
		{fixme.StageAcquire, 1},
		{fixme.StageFilter, 1},
		{fixme.StageApply, 1},
	}
	if lint {
		steps = append(steps, Step{Stage: fixme.StageFormat})
	}
	return steps
}

type progressModel struct {
	title   string
	events  <-chan fixme.Event
	spinner spinner.Model
	prog    progress.Model
	items   []stepItem
	index   map[Step]int
	width   int
	done    bool
	failed  bool
}

type stepItem struct {
	step   Step
	status string
	detail string
}

type eventMsg fixme.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders run progress.
// The model quits when events is closed.
func NewProgressModel(title string, plan []Step, events <-chan fixme.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		index:   make(map[Step]int, len(plan)),
		width:   80,
	}
	for _, step := range plan {
		m.add(step)
	}
	return m
}

func (m *progressModel) add(step Step) int {
	if idx, ok := m.index[step]; ok {
		return idx
	}
	m.items = append(m.items, stepItem{step: step, status: "queued"})
	m.index[step] = len(m.items) - 1
	return len(m.items) - 1
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(fixme.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	switch {
	case m.done && m.failed:
		header = "failed: " + header
	case m.done:
		header = "done: " + header
	default:
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := m.width - 12 - 4
	if nameWidth < 20 {
		nameWidth = 20
	}
	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		line := item.step.label()
		if item.detail != "" {
			line += "  " + item.detail
		}
		fmt.Fprintf(&b, "  %s %s\n", status, truncate(line, nameWidth))
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev fixme.Event) tea.Cmd {
	step := Step{Stage: ev.Stage, Pass: ev.Pass}
	if ev.Pass == 2 && ev.Stage == fixme.StageAcquire {
		m.add(Step{fixme.StageAcquire, 2})
		m.add(Step{fixme.StageFilter, 2})
		m.add(Step{fixme.StageApply, 2})
	}
	idx := m.add(step)
	item := &m.items[idx]

	switch ev.Status {
	case fixme.StatusWorking:
		item.status = workingLabel(ev.Stage)
	case fixme.StatusDone:
		item.status = "done"
		item.detail = detail(ev)
	case fixme.StatusSkipped:
		item.status = "skipped"
	case fixme.StatusError:
		item.status = "error"
		m.failed = true
		if ev.Err != nil {
			item.detail = ev.Err.Error()
		}
	}
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	finished := 0
	for _, item := range m.items {
		switch item.status {
		case "done", "error", "skipped":
			finished++
		}
	}
	return float64(finished) / float64(len(m.items))
}

func detail(ev fixme.Event) string {
	switch ev.Stage {
	case fixme.StageFormat:
		if ev.Count > 0 {
			return "tree changed"
		}
		return "no changes"
	case fixme.StageApply:
		return fmt.Sprintf("%d suppressed", ev.Count)
	default:
		return fmt.Sprintf("%d diagnostics", ev.Count)
	}
}

func workingLabel(stage fixme.Stage) string {
	switch stage {
	case fixme.StageAcquire:
		return "acquiring"
	case fixme.StageFilter:
		return "filtering"
	case fixme.StageApply:
		return "applying"
	case fixme.StageFormat:
		return "formatting"
	default:
		return "working"
	}
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "acquiring", "filtering", "applying", "formatting", "working":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/drivequery/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/drivequery/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/drivequery/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/drivequery/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/drivequery/internal/core/domain"
)

// stageLabels are the human names shown for each pipeline stage.
var stageLabels = map[domain.Stage]string{
	domain.StageResolve:  "Resolve link",
	domain.StageCollect:  "Collect files",
	domain.StageDownload: "Download",
	domain.StageUpload:   "Upload",
	domain.StageIndex:    "Index",
	domain.StageAsk:      "Ask assistant",
	domain.StageWrite:    "Write document",
}

type tickMsg time.Time

// Model is the Bubbletea model for a single query run.
type Model struct {
	title    string
	question string
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	spinner  spinner.Model
	status   *status.Bar
	cancel   func()

	stages   []domain.Stage
	events   map[domain.Stage]domain.ProgressEvent
	current  domain.Stage
	started  time.Time
	finished bool
	aborted  bool

	run *domain.Run
	err error
}

// NewModel creates the progress model. cancel is invoked on the first
// cancel keypress.
func NewModel(title, question string, cancel func()) *Model {
	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Active

	if cancel == nil {
		cancel = func() {}
	}

	return &Model{
		title:    title,
		question: question,
		styles:   s,
		keymap:   km,
		spinner:  sp,
		status:   status.NewBar(s, km),
		cancel:   cancel,
		stages:   domain.Stages(),
		events:   make(map[domain.Stage]domain.ProgressEvent),
		started:  time.Now(),
	}
}

// Init starts the spinner and elapsed clock.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.status.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case messages.Progress:
		m.applyProgress(msg.Event)
		return m, nil

	case messages.Finished:
		m.finish(msg.Run, msg.Err)
		return m, tea.Quit

	case tickMsg:
		if m.finished {
			return m, nil
		}
		m.status.SetElapsed(time.Since(m.started))
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.finished {
		if key.Matches(msg, m.keymap.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	if !key.Matches(msg, m.keymap.Cancel) {
		return m, nil
	}
	if m.aborted {
		return m, tea.Quit
	}
	m.aborted = true
	m.status.SetState(status.StateCancelling)
	m.status.SetMessage("waiting for the pipeline to stop, press again to quit")
	m.cancel()
	return m, nil
}

func (m *Model) applyProgress(ev domain.ProgressEvent) {
	if ev.Stage == domain.StageDone {
		m.current = ev.Stage
		return
	}
	m.events[ev.Stage] = ev
	if m.stageIndex(ev.Stage) >= m.stageIndex(m.current) {
		m.current = ev.Stage
	}
	if ev.Message != "" && !m.aborted {
		m.status.SetMessage(ev.Message)
	}
}

func (m *Model) finish(run *domain.Run, err error) {
	m.finished = true
	m.run = run
	m.err = err
	m.status.SetElapsed(time.Since(m.started))
	if err != nil {
		m.status.SetState(status.StateFailed)
		m.status.SetMessage(err.Error())
		return
	}
	m.current = domain.StageDone
	m.status.SetState(status.StateDone)
	m.status.SetMessage("")
}

func (m *Model) stageIndex(stage domain.Stage) int {
	if stage == domain.StageDone {
		return len(m.stages)
	}
	for i, s := range m.stages {
		if s == stage {
			return i
		}
	}
	return -1
}

// View renders the progress panel.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(m.title))
	b.WriteString("\n")
	if m.question != "" {
		b.WriteString(m.styles.Subtitle.Render(m.question))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	lines := make([]string, 0, len(m.stages))
	current := m.stageIndex(m.current)
	for i, stage := range m.stages {
		lines = append(lines, m.renderStage(stage, i, current))
	}
	b.WriteString(m.styles.Border.Render(strings.Join(lines, "\n")))
	b.WriteString("\n")
	b.WriteString(m.status.View())
	b.WriteString("\n")

	return b.String()
}

func (m *Model) renderStage(stage domain.Stage, idx, current int) string {
	label := stageLabels[stage]
	ev, seen := m.events[stage]

	if seen && ev.Total > 0 {
		label = fmt.Sprintf("%s %d/%d", label, ev.Done, ev.Total)
	}

	switch {
	case idx < current:
		return m.styles.Success.Render("✓ " + label)
	case idx == current && m.err != nil:
		return m.styles.Error.Render("✗ " + label)
	case idx == current && !m.finished:
		return m.spinner.View() + " " + m.styles.Active.Render(label)
	case idx == current:
		return m.styles.Success.Render("✓ " + label)
	default:
		return m.styles.Muted.Render("· " + label)
	}
}

// Result returns the run and error reported by the pipeline.
func (m *Model) Result() (*domain.Run, error) {
	return m.run, m.err
}

// Finished reports whether the pipeline has returned.
func (m *Model) Finished() bool {
	return m.finished
}

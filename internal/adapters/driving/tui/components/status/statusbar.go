// Package status provides the status bar component for the TUI.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/drivequery/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/drivequery/internal/adapters/driving/tui/styles"
)

// State represents the pipeline state for display.
type State string

const (
	StateRunning    State = "running"
	StateCancelling State = "cancelling"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Bar displays pipeline state, elapsed time and key hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	elapsed time.Duration
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateRunning,
		width:  80,
	}
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Render(left + strings.Repeat(" ", padding) + right)
}

func (s *Bar) renderLeft() string {
	var state string
	switch s.state {
	case StateDone:
		state = s.styles.Success.Render("● done")
	case StateFailed:
		state = s.styles.Error.Render("● failed")
	case StateCancelling:
		state = s.styles.Warning.Render("● cancelling")
	default:
		state = s.styles.Active.Render("● running")
	}

	out := state + s.styles.Muted.Render(fmt.Sprintf(" %s", s.elapsed.Round(time.Second)))
	if s.message != "" {
		out += "  " + s.styles.Normal.Render(s.message)
	}
	return out
}

func (s *Bar) renderRight() string {
	finished := s.state == StateDone || s.state == StateFailed
	hints := make([]string, 0, 2)
	for _, b := range s.keymap.ShortHelp(finished) {
		hints = append(hints, fmt.Sprintf("%s %s", b.Help().Key, b.Help().Desc))
	}
	return s.styles.Help.Render(strings.Join(hints, " • "))
}

// SetState sets the displayed state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the displayed state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the status message.
func (s *Bar) SetMessage(msg string) {
	s.message = msg
}

// Message returns the status message.
func (s *Bar) Message() string {
	return s.message
}

// SetElapsed sets the elapsed run time.
func (s *Bar) SetElapsed(d time.Duration) {
	s.elapsed = d
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	if width > 0 {
		s.width = width
	}
}

package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/drivequery/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driving"
)

// Job runs the pipeline, reporting through progress.
type Job func(ctx context.Context, progress driving.ProgressFunc) (*domain.Run, error)

// Options configure the progress view.
type Options struct {
	// Title is shown above the stage list.
	Title string
	// Question is shown below the title.
	Question string
	// Input and Output override the terminal. Nil uses stdin and stdout.
	Input  io.Reader
	Output io.Writer
}

// ErrAborted is returned when the view quits before the pipeline returns.
var ErrAborted = errors.New("tui: aborted before the run finished")

// Run executes job while rendering its progress. It returns the job's
// result once the job finishes, or ErrAborted if the user force-quits.
func Run(ctx context.Context, opts Options, job Job) (*domain.Run, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewModel(opts.Title, opts.Question, cancel)

	progOpts := make([]tea.ProgramOption, 0, 2)
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}
	p := tea.NewProgram(model, progOpts...)

	done := make(chan struct{})
	go func() {
		defer close(done)
		run, err := job(ctx, func(ev domain.ProgressEvent) {
			p.Send(messages.Progress{Event: ev})
		})
		p.Send(messages.Finished{Run: run, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		<-done
		return nil, err
	}

	m, ok := final.(*Model)
	if !ok || !m.Finished() {
		return nil, ErrAborted
	}
	return m.Result()
}

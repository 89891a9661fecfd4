package main

import (
	"context"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"upgrade/internal/fixme"
	"upgrade/internal/ui"
)

type runOutcome struct {
	result fixme.Result
	err    error
}

// runWithUI runs the workflow on its own goroutine and the progress view on
// the calling one. When the feed comes from stdin the view must not read it.
// Leaving the view early cancels the run.
func runWithUI(ctx context.Context, title string, cfg fixme.Config, out io.Writer) (fixme.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan fixme.Event, 64)
	outcomeCh := make(chan runOutcome, 1)

	next := cfg.Progress
	go func() {
		cfg.Progress = fixme.SinkFunc(func(ev fixme.Event) {
			if next != nil {
				next.OnEvent(ev)
			}
			fixme.ChannelSink{Ch: events}.OnEvent(ev)
		})
		res, err := fixme.Run(ctx, cfg)
		outcomeCh <- runOutcome{result: res, err: err}
		close(events)
	}()

	opts := []tea.ProgramOption{tea.WithOutput(out), tea.WithContext(ctx)}
	if cfg.Source == fixme.SourceStdin {
		opts = append(opts, tea.WithInput(nil))
	} else {
		opts = append(opts, tea.WithInput(os.Stdin))
	}
	model := ui.NewProgressModel(title, ui.Plan(cfg.Lint), events)
	_, uiErr := tea.NewProgram(model, opts...).Run()
	cancel()
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if outcome.err != nil {
		return outcome.result, outcome.err
	}
	return outcome.result, uiErr
}

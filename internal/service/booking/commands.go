package booking

import (
	"context"
	"errors"
)

// Command is an input from the presentation layer.
type Command interface {
	apply(ctx context.Context, w *Workflow) error
}

type Submit struct {
	Form Form
}

func (c Submit) apply(ctx context.Context, w *Workflow) error {
	_, err := w.Submit(ctx, c.Form)
	return err
}

type Retry struct{}

func (Retry) apply(_ context.Context, w *Workflow) error {
	return w.Retry()
}

// Run consumes commands until cmds is closed or ctx is done. Outcomes
// reach the caller through the observer; commands that do not fit the
// current state are logged and dropped.
func (w *Workflow) Run(ctx context.Context, cmds <-chan Command) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-cmds:
			if !ok {
				return nil
			}
			if err := cmd.apply(ctx, w); errors.Is(err, ErrInvalidState) {
				w.log.Debug().Err(err).Msg("command ignored")
			}
		}
	}
}

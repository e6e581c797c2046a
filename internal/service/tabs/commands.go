package tabs

import (
	"context"

	"github.com/Domenick1991/airbooking-client/internal/domain"
)

// Command is an input from the presentation layer.
type Command interface {
	apply(ctx context.Context, c *Coordinator)
}

type SelectTab struct {
	Tab Tab
}

func (s SelectTab) apply(ctx context.Context, c *Coordinator) { c.SelectTab(ctx, s.Tab) }

type Refresh struct{}

func (Refresh) apply(ctx context.Context, c *Coordinator) { c.Refresh(ctx) }

type Resume struct{}

func (Resume) apply(ctx context.Context, c *Coordinator) { c.OnResume(ctx) }

// Cancel runs the cancel flow for Booking; failures are shown on the view.
type Cancel struct {
	Booking domain.Booking
}

func (cmd Cancel) apply(ctx context.Context, c *Coordinator) {
	_, _ = c.CancelBooking(ctx, cmd.Booking)
}

// Run consumes commands until cmds is closed or ctx is done, then waits
// for outstanding fetches.
func (c *Coordinator) Run(ctx context.Context, cmds <-chan Command) error {
	defer c.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-cmds:
			if !ok {
				return nil
			}
			cmd.apply(ctx, c)
		}
	}
}

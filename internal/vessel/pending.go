package vessel

import (
	"context"

	"github.com/san-kum/attsim/internal/logging"
)

// DefaultAttempts is how many ticks a queued action waits before it is dropped.
const DefaultAttempts = 50

type pendingAction struct {
	name      string
	apply     func(*ControllerState) error
	remaining int
}

// Queue defers apply until a tick with no manual override, retrying on
// error. The action is dropped once attempts ticks have been used.
func (c *Core) Queue(name string, apply func(*ControllerState) error, attempts int) {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	c.pending = append(c.pending, &pendingAction{name: name, apply: apply, remaining: attempts})
}

// SetParam queues a controller tunable update.
func (c *Core) SetParam(name string, value float64) {
	c.Queue("set "+name, func(s *ControllerState) error {
		return s.PID.SetParam(name, value)
	}, DefaultAttempts)
}

// Pending lists the names of queued actions.
func (c *Core) Pending() []string {
	names := make([]string, len(c.pending))
	for i, p := range c.pending {
		names[i] = p.name
	}
	return names
}

func (c *Core) runPending(ctx context.Context, manual bool) {
	if len(c.pending) == 0 {
		return
	}
	kept := c.pending[:0]
	for _, p := range c.pending {
		if !manual {
			err := p.apply(&c.state)
			if err == nil {
				c.log.Info(ctx, "pending action applied", logging.String("action", p.name))
				continue
			}
			c.log.Debug(ctx, "pending action failed", logging.String("action", p.name), logging.Err(err))
		}
		p.remaining--
		if p.remaining <= 0 {
			c.log.Warn(ctx, "pending action dropped", logging.String("action", p.name))
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(c.pending); i++ {
		c.pending[i] = nil
	}
	c.pending = kept
}

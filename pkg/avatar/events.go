package avatar

import (
	"context"
	"log/slog"

	"github.com/chriscow/cinema-kiosk-go/pkg/tool"
)

// Event type constants
const (
	EventSpeaking = "speaking"
	EventTool     = "tool"
	EventEnded    = "ended"
)

// Event is a queued input to the controller.
type Event struct {
	Type     string
	Speaking bool
	Tool     tool.Name
	Asset    Asset
}

// Post queues e for Run. It never blocks; false means the queue is full
// and the event was dropped.
func (c *Controller) Post(e Event) bool {
	select {
	case c.events <- e:
		return true
	default:
		c.logger.Warn("Avatar event queue full, dropping event", slog.String("type", e.Type))
		return false
	}
}

// Run processes posted events in order until ctx is cancelled. Playback
// failures are logged and never stop the loop.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.Start(ctx); err != nil {
		c.logger.Warn("Initial avatar playback failed", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-c.events:
			if err := c.handle(ctx, e); err != nil && ctx.Err() == nil {
				c.logger.Warn("Avatar event failed",
					slog.String("type", e.Type),
					slog.String("error", err.Error()))
			}
		}
	}
}

func (c *Controller) handle(ctx context.Context, e Event) error {
	switch e.Type {
	case EventSpeaking:
		return c.SetSpeaking(ctx, e.Speaking)
	case EventTool:
		return c.ToolInvoked(ctx, e.Tool)
	case EventEnded:
		return c.MediaEnded(ctx, e.Asset)
	default:
		c.logger.Debug("Unknown avatar event", slog.String("type", e.Type))
		return nil
	}
}

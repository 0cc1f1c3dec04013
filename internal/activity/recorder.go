package activity

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"stockroom/pkg/requestcontext"
)

// Recorder accepts activity events from domain operations. Recording is
// fire-and-forget: a recorder failure never rolls back or fails the primary
// mutation.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// ChannelRecorder hands events to a background worker through a buffered
// channel. When the inbox is full the event is dropped with a warning rather
// than blocking the request path.
type ChannelRecorder struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewChannelRecorder(logger *slog.Logger, buffer int) *ChannelRecorder {
	if buffer <= 0 {
		buffer = 256
	}
	return &ChannelRecorder{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Inbox exposes the receive side for the worker.
func (r *ChannelRecorder) Inbox() <-chan Event {
	return r.inbox
}

func (r *ChannelRecorder) Record(ctx context.Context, event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = requestcontext.Now(ctx)
	}
	if event.ModifiedBy == "" {
		actor := requestcontext.Actor(ctx)
		event.ModifiedBy = actor.ID
		event.UserName = actor.Name
	}
	if event.Context == "" {
		event.Context = clientContext(ctx)
	}

	select {
	case r.inbox <- event:
	default:
		r.logger.Warn("activity inbox full, dropping event",
			"action", event.Action,
			"asset_id", event.AssetID,
		)
	}
}

// clientContext summarizes where the request came from for the free-text
// context column.
func clientContext(ctx context.Context) string {
	ip := requestcontext.ClientIP(ctx)
	ua := requestcontext.UserAgent(ctx)
	switch {
	case ip != "" && ua != "":
		return ip + " (" + ua + ")"
	case ip != "":
		return ip
	default:
		return ua
	}
}

// NopRecorder discards events. Handy for tests that don't assert on logging.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) {}

package activity

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Store persists activity events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByAsset(ctx context.Context, assetID string) ([]Event, error)
}

// Sink receives the event stream in addition to the store (e.g. Kafka).
type Sink interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Worker drains the recorder inbox into the store and, when configured, a
// sink. Failures are logged and the worker keeps going; the audit trail is
// best-effort by design and must never take the service down.
type Worker struct {
	store  Store
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// WithSink attaches an optional fan-out sink.
func (w *Worker) WithSink(sink Sink) *Worker {
	w.sink = sink
	return w
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			w.handle(ctx, event)
		}
	}
}

func (w *Worker) handle(ctx context.Context, event Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.Error("failed to append activity event",
			"action", event.Action,
			"asset_id", event.AssetID,
			"error", err,
		)
	}
	if w.sink == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		w.logger.Error("failed to encode activity event", "error", err)
		return
	}
	if err := w.sink.Publish(ctx, event.AssetID.String(), payload); err != nil {
		w.logger.Error("failed to publish activity event",
			"action", event.Action,
			"asset_id", event.AssetID,
			"error", err,
		)
	}
}

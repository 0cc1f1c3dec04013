package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/pkg/requestcontext"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
}

type memoryStore struct {
	mu     sync.Mutex
	events []Event
}

func (s *memoryStore) Append(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *memoryStore) ListByAsset(ctx context.Context, assetID string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.AssetID.String() == assetID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memoryStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type captureSink struct {
	mu       sync.Mutex
	payloads [][]byte
	keys     []string
}

func (c *captureSink) Publish(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, key)
	c.payloads = append(c.payloads, value)
	return nil
}

func TestRecorderFillsEventMetadata(t *testing.T) {
	recorder := NewChannelRecorder(testLogger(), 8)

	now := time.Now()
	ctx := requestcontext.WithActor(context.Background(), requestcontext.ActorInfo{ID: "user-1", Name: "Dana"})
	ctx = requestcontext.WithTime(ctx, now)

	assetID := uuid.New()
	recorder.Record(ctx, Event{AssetID: assetID, Action: ActionIssueReported, Field: "quantity"})

	select {
	case event := <-recorder.Inbox():
		assert.NotEqual(t, uuid.Nil, event.ID)
		assert.Equal(t, assetID, event.AssetID)
		assert.Equal(t, "user-1", event.ModifiedBy)
		assert.Equal(t, "Dana", event.UserName)
		assert.Equal(t, now, event.CreatedAt)
	case <-time.After(time.Second):
		t.Fatal("expected event on inbox")
	}
}

func TestRecorderDropsWhenInboxFull(t *testing.T) {
	recorder := NewChannelRecorder(testLogger(), 1)
	ctx := context.Background()

	// Second record must not block even though nothing drains the inbox.
	done := make(chan struct{})
	go func() {
		recorder.Record(ctx, Event{AssetID: uuid.New(), Action: ActionAssetCreated})
		recorder.Record(ctx, Event{AssetID: uuid.New(), Action: ActionAssetCreated})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recorder blocked on full inbox")
	}
}

func TestWorkerPersistsAndPublishes(t *testing.T) {
	recorder := NewChannelRecorder(testLogger(), 8)
	store := &memoryStore{}
	sink := &captureSink{}
	worker := NewWorker(store, recorder.Inbox(), testLogger()).WithSink(sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	workerDone := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(workerDone)
	}()

	assetID := uuid.New()
	recorder.Record(context.Background(), Event{AssetID: assetID, Action: ActionIssueReported, NewValue: "6"})

	require.Eventually(t, func() bool { return store.len() == 1 }, time.Second, 10*time.Millisecond)

	sink.mu.Lock()
	require.Len(t, sink.payloads, 1)
	assert.Equal(t, assetID.String(), sink.keys[0])
	var published Event
	require.NoError(t, json.Unmarshal(sink.payloads[0], &published))
	sink.mu.Unlock()
	assert.Equal(t, ActionIssueReported, published.Action)

	cancel()
	select {
	case <-workerDone:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}

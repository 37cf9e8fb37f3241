package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubFlushesFullBatch(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	hub := NewHub(HubConfig{BufferSize: 8, BatchSize: 2, FlushInterval: time.Hour}, sink)
	defer func() { require.NoError(t, hub.Close(context.Background())) }()

	hub.Emit(archiveEvent(StageArchiveStart, 0))
	hub.Emit(archiveEvent(StageArchiveDone, 0))
	require.Eventually(t, func() bool {
		batches := sink.snapshot()
		return len(batches) == 1 && len(batches[0]) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestHubFlushesPartialBatchAfterInterval(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	hub := NewHub(HubConfig{BufferSize: 8, BatchSize: 100, FlushInterval: 20 * time.Millisecond}, sink)
	defer func() { require.NoError(t, hub.Close(context.Background())) }()

	hub.Emit(archiveEvent(StageArchiveStart, 3))
	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestHubCloseDrainsAndClosesSinks(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	hub := NewHub(HubConfig{BufferSize: 8, BatchSize: 100, FlushInterval: time.Hour}, sink)
	hub.Emit(archiveEvent(StageArchiveFailed, 1))
	hub.Emit(runEvent(StageRunDone))

	require.NoError(t, hub.Close(context.Background()))
	require.NoError(t, hub.Close(context.Background()))
	batches := sink.snapshot()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 2)
	require.True(t, sink.closed)

	hub.Emit(runEvent(StageRunStart))
	require.Len(t, sink.snapshot(), 1)
}

func TestHubDropsInvalidEvents(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{}
	hub := NewHub(HubConfig{BatchSize: 1}, sink)
	hub.Emit(Event{Stage: StageRunStart})
	evt := archiveEvent(StageArchiveStart, 0)
	evt.URL = ""
	hub.Emit(evt)
	require.NoError(t, hub.Close(context.Background()))
	require.Empty(t, sink.snapshot())
}

func TestHubEmitNeverBlocks(t *testing.T) {
	t.Parallel()

	hub := &Hub{queue: make(chan Event), logger: zap.NewNop()}
	start := time.Now()
	for i := 0; i < 10; i++ {
		hub.Emit(runEvent(StageRunStart))
	}
	require.Less(t, time.Since(start), 50*time.Millisecond)
	// the first drop resets the counter when it warns
	require.EqualValues(t, 9, hub.dropped.Load())
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, runEvent(StageRunHalted).Validate())
	require.NoError(t, archiveEvent(StageArchiveBlocked, 2).Validate())

	bad := archiveEvent(StageArchiveDone, -1)
	require.Error(t, bad.Validate())

	unknown := runEvent("NOPE")
	require.Error(t, unknown.Validate())

	negative := runEvent(StageRunDone)
	negative.Dur = -time.Second
	require.Error(t, negative.Validate())
}

func TestParseRunID(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	got, err := ParseRunID(id.String())
	require.NoError(t, err)
	require.Equal(t, id, Event{RunID: got}.RunUUID())

	_, err = ParseRunID("not-a-uuid")
	require.Error(t, err)
}

type recordingSink struct {
	mu      sync.Mutex
	batches [][]Event
	closed  bool
}

func (s *recordingSink) Consume(_ context.Context, batch []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, append([]Event(nil), batch...))
	return nil
}

func (s *recordingSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) snapshot() [][]Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]Event(nil), s.batches...)
}

var testRunID = [16]byte(uuid.MustParse("0191f0b6-7a4e-7c3a-9d2e-41c7a8e5b001"))

func runEvent(stage Stage) Event {
	return Event{RunID: testRunID, TS: time.Now(), Stage: stage}
}

func archiveEvent(stage Stage, index int) Event {
	return Event{
		RunID: testRunID,
		TS:    time.Now(),
		Stage: stage,
		Index: index,
		URL:   "https://int44.zakupki.gov.ru/archive/1.zip",
	}
}

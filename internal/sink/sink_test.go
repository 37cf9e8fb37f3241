package sink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/publisher/memory"
	memstore "github.com/JakeFAU/tender-acquirer/internal/storage/memory"
	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fakeUpserter struct {
	records []tender.Record
	err     error
}

func (f *fakeUpserter) Upsert(_ context.Context, rec tender.Record) error {
	f.records = append(f.records, rec)
	return f.err
}

var sample = tender.Record{
	ReestrNumber: "0123456789012345678",
	Title:        "Test Tender Name",
	MaxPrice:     "1000000.50",
	ArchiveURL:   "https://int44.zakupki.gov.ru/a.zip",
	SourceFile:   "notice.xml",
}

func TestBlobWritesRecordJSON(t *testing.T) {
	t.Parallel()

	store := memstore.NewBlobStore()
	b := NewBlob(store, "/tenders/")
	require.NoError(t, b.Store(context.Background(), sample))

	data, contentType, ok := store.Get("tenders/0123456789012345678.json")
	require.True(t, ok)
	require.Equal(t, "application/json", contentType)
	var got tender.Record
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, sample.Title, got.Title)

	require.Equal(t, "x/a_b_c.json", NewBlob(store, "x").ObjectPath("a/b.c"))
	require.Error(t, b.Store(context.Background(), tender.Record{}))
}

func TestPublisherSendsStoredEvent(t *testing.T) {
	t.Parallel()

	pub := memory.New()
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	require.NoError(t, NewPublisher(pub, fixedClock{now}).Store(context.Background(), sample))

	msgs := pub.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, EventTenderStored, msgs[0].Event)
	var evt StoredEvent
	require.NoError(t, json.Unmarshal(msgs[0].Data, &evt))
	require.Equal(t, sample.ReestrNumber, evt.ReestrNumber)
	require.True(t, evt.OccurredAt.Equal(now))
}

func TestMultiContinuesPastFailingSink(t *testing.T) {
	t.Parallel()

	failing := &fakeUpserter{err: errors.New("connection refused")}
	store := memstore.NewBlobStore()
	multi := NewMulti(zap.NewNop(), NewPostgres(failing), nil, NewBlob(store, "tenders"))
	require.Equal(t, 2, multi.Len())

	err := multi.Store(context.Background(), sample)
	require.ErrorContains(t, err, "postgres: connection refused")
	require.Len(t, failing.records, 1)
	require.Equal(t, []string{"tenders/0123456789012345678.json"}, store.Paths())
}

func TestMultiEmpty(t *testing.T) {
	t.Parallel()

	require.NoError(t, NewMulti(nil).Store(context.Background(), sample))
}

package acquirer

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/archive"
	"github.com/JakeFAU/tender-acquirer/internal/extract"
	"github.com/JakeFAU/tender-acquirer/internal/progress"
	"github.com/JakeFAU/tender-acquirer/internal/query"
	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

var testNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) NewID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("00000000-0000-7000-8000-%012d", s.n), nil
}

type fakeQuery struct {
	urls        []string
	err         error
	bySubsystem map[string][]string
	errs        map[string]error
	requests    []tender.QueryRequest
}

func (f *fakeQuery) ArchiveURLs(_ context.Context, req tender.QueryRequest) ([]string, error) {
	f.requests = append(f.requests, req)
	if err := f.errs[req.SubsystemType]; err != nil {
		return nil, err
	}
	if urls, ok := f.bySubsystem[req.SubsystemType]; ok {
		return urls, nil
	}
	return f.urls, f.err
}

type fetchResult struct {
	data []byte
	err  error
}

// fakeFetcher replays queued results per URL; the last one repeats.
type fakeFetcher struct {
	results map[string][]fetchResult
	calls   []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (tender.FetchedBlob, error) {
	f.calls = append(f.calls, url)
	if err := ctx.Err(); err != nil {
		return tender.FetchedBlob{}, err
	}
	queue := f.results[url]
	if len(queue) == 0 {
		return tender.FetchedBlob{}, &tender.HTTPError{Code: 404, Message: "Not Found"}
	}
	res := queue[0]
	if len(queue) > 1 {
		f.results[url] = queue[1:]
	}
	if res.err != nil {
		return tender.FetchedBlob{}, res.err
	}
	return tender.FetchedBlob{Bytes: res.data, Size: int64(len(res.data))}, nil
}

type memorySink struct {
	records []tender.Record
	err     error
}

func (s *memorySink) Store(_ context.Context, rec tender.Record) error {
	s.records = append(s.records, rec)
	return s.err
}

type captureEmitter struct {
	events []progress.Event
}

func (c *captureEmitter) Emit(evt progress.Event) { c.events = append(c.events, evt) }

func (c *captureEmitter) stages() []progress.Stage {
	out := make([]progress.Stage, 0, len(c.events))
	for _, evt := range c.events {
		out = append(out, evt.Stage)
	}
	return out
}

type fixture struct {
	query   *fakeQuery
	fetcher *fakeFetcher
	sink    *memorySink
	events  *captureEmitter
	acq     *Acquirer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		query:   &fakeQuery{},
		fetcher: &fakeFetcher{results: map[string][]fetchResult{}},
		sink:    &memorySink{},
		events:  &captureEmitter{},
	}
	clock := fixedClock{now: testNow}
	acq, err := New(Deps{
		Query:    f.query,
		Requests: query.NewBuilder(&seqIDs{}, clock),
		Fetcher:  f.fetcher,
		Decoder:  archive.NewDecoder(),
		Parser:   extract.New(zap.NewNop()),
		Sink:     f.sink,
		Progress: f.events,
		Clock:    clock,
		RunIDs:   &seqIDs{},
		Logger:   zap.NewNop(),
	})
	require.NoError(t, err)
	f.acq = acq
	return f
}

func (f *fixture) serve(url string, results ...fetchResult) {
	f.fetcher.results[url] = results
}

func ok(data []byte) fetchResult { return fetchResult{data: data} }

func fail(err error) fetchResult { return fetchResult{err: err} }

func blocked(url string) fetchResult {
	return fail(&tender.BlockedError{
		URL:               url,
		RetryAfterSeconds: tender.DefaultRetryAfterSeconds,
		BlockedUntil:      testNow.Add(10 * time.Minute),
	})
}

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func tenderXML(reestr, title string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<notification>
  <purchaseNumber> %s </purchaseNumber>
  <purchaseObjectInfo>%s</purchaseObjectInfo>
  <maxPrice>1000000.50</maxPrice>
  <attachmentsInfo>
    <attachmentInfo><fileName>terms.pdf</fileName><url>http://example.com/terms.pdf</url></attachmentInfo>
  </attachmentsInfo>
</notification>`, reestr, title)
}

func reestrNumbers(records []tender.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ReestrNumber)
	}
	return out
}

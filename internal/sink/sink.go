// Package sink fans accepted tender records out to durable destinations.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/metrics"
	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

// EventTenderStored is published for every stored record.
const EventTenderStored = "tender.stored"

// Named is a RecordSink with a metrics label.
type Named interface {
	tender.RecordSink
	Name() string
}

// Multi stores each record in every sink. A failing sink is logged and
// counted; the others still run.
type Multi struct {
	sinks  []Named
	logger *zap.Logger
}

// NewMulti combines sinks. Nil entries are ignored.
func NewMulti(logger *zap.Logger, sinks ...Named) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Multi{logger: logger}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len reports how many sinks are attached.
func (m *Multi) Len() int { return len(m.sinks) }

// Store implements tender.RecordSink. The returned error joins every failure.
func (m *Multi) Store(ctx context.Context, rec tender.Record) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Store(ctx, rec); err != nil {
			metrics.ObserveSinkWrite(s.Name(), "error")
			m.logger.Warn("record sink write failed",
				zap.String("sink", s.Name()),
				zap.String("reestr_number", rec.ReestrNumber),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		metrics.ObserveSinkWrite(s.Name(), "ok")
	}
	return errors.Join(errs...)
}

// Blob writes each record as <prefix>/<reestr_number>.json.
type Blob struct {
	store  tender.BlobStore
	prefix string
}

// NewBlob returns a blob sink writing below prefix.
func NewBlob(store tender.BlobStore, prefix string) *Blob {
	return &Blob{store: store, prefix: strings.Trim(prefix, "/")}
}

// Name implements Named.
func (b *Blob) Name() string { return "blob" }

// ObjectPath returns the object path of a registry number.
func (b *Blob) ObjectPath(reestr string) string {
	return path.Join(b.prefix, safeName(reestr)+".json")
}

// Store implements tender.RecordSink.
func (b *Blob) Store(ctx context.Context, rec tender.Record) error {
	if rec.ReestrNumber == "" {
		return errors.New("record has no reestr_number")
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := b.store.PutObject(ctx, b.ObjectPath(rec.ReestrNumber), "application/json", bytes.NewReader(data)); err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '.' {
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
}

// Upserter is the subset of the Postgres store the sink needs.
type Upserter interface {
	Upsert(ctx context.Context, rec tender.Record) error
}

// Postgres upserts records into a table.
type Postgres struct {
	store Upserter
}

// NewPostgres wraps store.
func NewPostgres(store Upserter) *Postgres { return &Postgres{store: store} }

// Name implements Named.
func (p *Postgres) Name() string { return "postgres" }

// Store implements tender.RecordSink.
func (p *Postgres) Store(ctx context.Context, rec tender.Record) error {
	return p.store.Upsert(ctx, rec)
}

// StoredEvent is the payload of EventTenderStored.
type StoredEvent struct {
	Event        string    `json:"event"`
	ReestrNumber string    `json:"reestr_number"`
	Title        string    `json:"title,omitempty"`
	MaxPrice     string    `json:"max_price,omitempty"`
	ArchiveURL   string    `json:"archive_url,omitempty"`
	SourceFile   string    `json:"source_file,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher announces stored records.
type Publisher struct {
	pub   tender.Publisher
	clock tender.Clock
}

// NewPublisher returns a sink publishing through pub.
func NewPublisher(pub tender.Publisher, clock tender.Clock) *Publisher {
	return &Publisher{pub: pub, clock: clock}
}

// Name implements Named.
func (p *Publisher) Name() string { return "publisher" }

// Store implements tender.RecordSink.
func (p *Publisher) Store(ctx context.Context, rec tender.Record) error {
	evt := StoredEvent{
		Event:        EventTenderStored,
		ReestrNumber: rec.ReestrNumber,
		Title:        rec.Title,
		MaxPrice:     rec.MaxPrice,
		ArchiveURL:   rec.ArchiveURL,
		SourceFile:   rec.SourceFile,
		OccurredAt:   p.clock.Now(),
	}
	if _, err := p.pub.Publish(ctx, EventTenderStored, evt); err != nil {
		return fmt.Errorf("publish stored event: %w", err)
	}
	return nil
}

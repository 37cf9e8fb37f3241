package tender

import (
	"context"
	"io"
	"time"
)

// ArchiveFetcher downloads one archive.
type ArchiveFetcher interface {
	Fetch(ctx context.Context, url string) (FetchedBlob, error)
}

// ArchiveDecoder turns archive bytes into file entries.
type ArchiveDecoder interface {
	Extract(data []byte) (Extraction, error)
}

// DocumentParser classifies and extracts XML documents.
type DocumentParser interface {
	Parse(data []byte) (Document, error)
	ExtractAttachments(data []byte) (AttachmentSet, error)
}

// QueryService resolves a query into archive URLs.
type QueryService interface {
	ArchiveURLs(ctx context.Context, req QueryRequest) ([]string, error)
}

// RecordSink receives every accepted tender record.
type RecordSink interface {
	Store(ctx context.Context, record Record) error
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run and correlation IDs.
type IDGenerator interface {
	NewID() (string, error)
}

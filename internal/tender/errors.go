package tender

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultRetryAfterSeconds is the advisory window the provider imposes on a blocked archive.
const DefaultRetryAfterSeconds = 600

var (
	// ErrInvalidURL is returned for archive URLs that are not http or https.
	ErrInvalidURL = errors.New("invalid archive url")
	// ErrEmptyBody is returned when a successful response carries no bytes.
	ErrEmptyBody = errors.New("empty response body")
	// ErrUnknownFormat is returned for archives that are neither gzip nor zip.
	ErrUnknownFormat = errors.New("unknown archive format (not gzip and not zip)")
	// ErrEmptyInput is returned when empty XML is handed to the parser.
	ErrEmptyInput = errors.New("empty xml content")
	// ErrInvalidQuery is returned for a query with blank selection parameters.
	ErrInvalidQuery = errors.New("invalid query")
)

// TooLargeError reports a body that exceeded the configured ceiling.
type TooLargeError struct {
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("archive too large: more than %d bytes", e.Limit)
}

// HTTPError reports a non-success status from the archive endpoint.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http error: %d", e.Code)
	}
	return fmt.Sprintf("http error: %d %s", e.Code, e.Message)
}

// BlockedError reports that the provider temporarily refuses to serve an archive.
type BlockedError struct {
	URL               string
	RetryAfterSeconds int
	BlockedUntil      time.Time
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("archive download blocked, retry after %ds", e.RetryAfterSeconds)
}

// RetriesExhaustedError wraps the last failure once the retry budget is spent.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Last }

// GzipError reports a broken gzip member.
type GzipError struct {
	Err error
}

func (e *GzipError) Error() string { return fmt.Sprintf("gzip decompression error: %v", e.Err) }

func (e *GzipError) Unwrap() error { return e.Err }

// ZipError reports an archive whose zip structure cannot be opened.
type ZipError struct {
	Err error
}

func (e *ZipError) Error() string { return fmt.Sprintf("zip extraction error: %v", e.Err) }

func (e *ZipError) Unwrap() error { return e.Err }

// MalformedXMLError reports any error raised by the XML parser.
type MalformedXMLError struct {
	Err error
}

func (e *MalformedXMLError) Error() string { return fmt.Sprintf("invalid xml: %v", e.Err) }

func (e *MalformedXMLError) Unwrap() error { return e.Err }

// QueryError reports a failed call to the query service.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string { return fmt.Sprintf("query %s: %v", e.Op, e.Err) }

func (e *QueryError) Unwrap() error { return e.Err }

// ErrorKind is the coarse taxonomy used for accounting and metrics.
type ErrorKind string

// Error kinds.
const (
	KindNone         ErrorKind = ""
	KindInvalidInput ErrorKind = "invalid_input"
	KindTransient    ErrorKind = "transient"
	KindBlocked      ErrorKind = "blocked"
	KindPartialData  ErrorKind = "partial_data"
	KindFatal        ErrorKind = "fatal"
)

// Kind classifies err.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var (
		blocked   *BlockedError
		malformed *MalformedXMLError
		queryErr  *QueryError
	)
	switch {
	case errors.As(err, &blocked):
		return KindBlocked
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindFatal
	case errors.As(err, &queryErr):
		return KindFatal
	case errors.Is(err, ErrInvalidURL), errors.Is(err, ErrEmptyInput), errors.Is(err, ErrInvalidQuery):
		return KindInvalidInput
	case errors.As(err, &malformed):
		return KindPartialData
	default:
		return KindTransient
	}
}

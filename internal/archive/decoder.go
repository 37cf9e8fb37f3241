// Package archive decodes the gzip and zip containers the document service
// publishes into in-memory file entries.
package archive

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

// Decoder implements tender.ArchiveDecoder.
type Decoder struct {
	maxEntryBytes int64
	logger        *zap.Logger
}

// Option customizes a Decoder.
type Option func(*Decoder)

// WithMaxEntryBytes skips entries whose inflated size exceeds n. Zero disables the cap.
func WithMaxEntryBytes(n int64) Option {
	return func(d *Decoder) { d.maxEntryBytes = n }
}

// WithLogger attaches a logger for skipped entries.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Decoder) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDecoder builds a Decoder.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Format is the container detected from magic bytes.
type Format int

// Detected formats.
const (
	FormatUnknown Format = iota
	FormatGzip
	FormatZip
)

// Detect inspects the first two bytes of data.
func Detect(data []byte) Format {
	if len(data) < 2 {
		return FormatUnknown
	}
	switch {
	case data[0] == 0x1f && data[1] == 0x8b:
		return FormatGzip
	case data[0] == 'P' && data[1] == 'K':
		return FormatZip
	default:
		return FormatUnknown
	}
}

// Extract decodes data. Gzip input is inflated and then read as a zip.
func (d *Decoder) Extract(data []byte) (tender.Extraction, error) {
	switch Detect(data) {
	case FormatGzip:
		inflated, err := gunzip(data)
		if err != nil {
			return tender.Extraction{}, &tender.GzipError{Err: err}
		}
		ext, err := d.unzip(inflated)
		if err != nil {
			return tender.Extraction{}, err
		}
		ext.Gzipped = true
		ext.CompressedSize = int64(len(data))
		ext.DecompressedSize = int64(len(inflated))
		return ext, nil
	case FormatZip:
		return d.unzip(data)
	default:
		return tender.Extraction{}, tender.ErrUnknownFormat
	}
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Decoder) unzip(data []byte) (tender.Extraction, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return tender.Extraction{}, &tender.ZipError{Err: err}
	}
	ext := tender.Extraction{Files: make(map[string]tender.ExtractedFile, len(zr.File))}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if d.maxEntryBytes > 0 && f.UncompressedSize64 > uint64(d.maxEntryBytes) {
			d.logger.Warn("skipping oversized archive entry",
				zap.String("entry", f.Name),
				zap.Uint64("size", f.UncompressedSize64),
				zap.Int64("limit", d.maxEntryBytes),
			)
			ext.Skipped = append(ext.Skipped, f.Name)
			continue
		}
		content, err := d.readEntry(f)
		if err != nil {
			d.logger.Warn("skipping unreadable archive entry", zap.String("entry", f.Name), zap.Error(err))
			ext.Skipped = append(ext.Skipped, f.Name)
			continue
		}
		ext.Files[f.Name] = tender.ExtractedFile{
			Name:           f.Name,
			Content:        content,
			Size:           int64(len(content)),
			CompressedSize: int64(f.CompressedSize64),
			CRC32:          f.CRC32,
		}
	}
	return ext, nil
}

func (d *Decoder) readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if d.maxEntryBytes > 0 {
		r = io.LimitReader(rc, d.maxEntryBytes+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if d.maxEntryBytes > 0 && int64(len(content)) > d.maxEntryBytes {
		return nil, fmt.Errorf("entry %s exceeds %d bytes", f.Name, d.maxEntryBytes)
	}
	return content, nil
}

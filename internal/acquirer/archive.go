package acquirer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/metrics"
	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

const xmlExt = ".xml"

type archiveResult struct {
	records []tender.Record
	files   int
	bytes   int64
}

// processArchive fetches and decodes one archive and parses its XML entries.
// Only fetch and decode errors fail the archive; a bad entry is skipped.
func (a *Acquirer) processArchive(
	ctx context.Context,
	r *run,
	index int,
	url string,
	opts runOptions,
) (archiveResult, error) {
	log := r.logger.With(zap.Int("archive_index", index), zap.String("archive_url", url))

	blob, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		return archiveResult{}, fmt.Errorf("download archive: %w", err)
	}
	extraction, err := a.decoder.Extract(blob.Bytes)
	if err != nil {
		return archiveResult{}, fmt.Errorf("extract archive: %w", err)
	}
	for _, name := range extraction.Skipped {
		log.Warn("archive entry skipped", zap.String("file", name))
	}

	res := archiveResult{files: len(extraction.Files), bytes: blob.Size}
	processedAt := a.clock.Now()
	for _, name := range xmlEntries(extraction.Files) {
		content := extraction.Files[name].Content
		rec, ok := a.parseEntry(log, name, content, opts)
		if !ok {
			continue
		}
		rec.SourceFile = name
		rec.ArchiveURL = url
		stamped := processedAt
		rec.ProcessedAt = &stamped
		if opts.resumable {
			idx := index
			rec.ArchiveIndex = &idx
		}
		if opts.subsystem != "" {
			rec.SubsystemType = opts.subsystem
			rec.DocumentTypeUsed = opts.docType
		}
		a.store(ctx, log, rec)
		res.records = append(res.records, rec)
	}
	log.Info("archive processed",
		zap.Int("files", res.files),
		zap.Int("tenders", len(res.records)),
		zap.Int64("bytes", res.bytes),
	)
	return res, nil
}

// parseEntry returns the tender record of one XML entry, if it holds one.
func (a *Acquirer) parseEntry(log *zap.Logger, name string, content []byte, opts runOptions) (tender.Record, bool) {
	doc, err := a.parser.Parse(content)
	if err != nil {
		log.Warn("xml entry not parsed", zap.String("file", name), zap.Error(err))
		return tender.Record{}, false
	}
	metrics.ObserveRecord(string(doc.Type))
	if doc.Type != tender.DocumentTender || doc.Tender == nil || strings.TrimSpace(doc.Tender.ReestrNumber) == "" {
		log.Debug("xml entry is not a tender", zap.String("file", name), zap.String("type", string(doc.Type)))
		return tender.Record{}, false
	}
	rec := *doc.Tender
	if opts.attachments {
		set, err := a.parser.ExtractAttachments(content)
		if err != nil {
			log.Warn("attachments not extracted", zap.String("file", name), zap.Error(err))
		} else {
			count := set.TotalCount
			rec.Attachments = set.Attachments
			rec.AttachmentsCount = &count
		}
	}
	return rec, true
}

func (a *Acquirer) store(ctx context.Context, log *zap.Logger, rec tender.Record) {
	if a.sink == nil {
		return
	}
	if err := a.sink.Store(ctx, rec); err != nil {
		log.Warn("record sink failed", zap.String("reestr_number", rec.ReestrNumber), zap.Error(err))
	}
}

// xmlEntries returns the names ending in .xml, any case, sorted.
func xmlEntries(files map[string]tender.ExtractedFile) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		if strings.HasSuffix(strings.ToLower(name), xmlExt) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

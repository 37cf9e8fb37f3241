package acquirer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

// SearchAll runs a search per subsystem for one region and date. A nil
// subsystems list selects tender.DefaultSearchSubsystems. Each subsystem uses
// docTypes[subsystem] when present, else its first known document type.
// Per-subsystem failures are collected in the outcome; only context
// cancellation aborts the loop.
func (a *Acquirer) SearchAll(
	ctx context.Context,
	region, exactDate string,
	subsystems []string,
	docTypes map[string]string,
) (tender.MultiOutcome, error) {
	if len(subsystems) == 0 {
		subsystems = tender.DefaultSearchSubsystems
	}
	out := tender.MultiOutcome{
		Records:    []tender.Record{},
		Subsystems: make(map[string]tender.SubsystemOutcome, len(subsystems)),
	}
	for _, subsystem := range subsystems {
		if err := ctx.Err(); err != nil {
			return tender.MultiOutcome{}, fmt.Errorf("multi-subsystem search: %w", err)
		}
		docType := docTypes[subsystem]
		if docType == "" {
			docType = tender.DocumentTypesFor(subsystem)[0]
		}
		result := tender.SubsystemOutcome{
			Subsystem:   subsystem,
			Description: tender.DescribeSubsystem(subsystem),
		}
		a.logger.Info("searching subsystem",
			zap.String("subsystem", subsystem),
			zap.String("document_type", docType),
		)

		q := tender.Query{Region: region, ExactDate: exactDate, Subsystem: subsystem, DocumentType: docType}
		r, err := a.start(ctx, q, nil)
		if err == nil {
			_, err = a.iterate(ctx, r, runOptions{subsystem: subsystem, docType: docType})
		}
		if err != nil {
			if ctx.Err() != nil {
				return tender.MultiOutcome{}, fmt.Errorf("multi-subsystem search: %w", err)
			}
			a.logger.Warn("subsystem search failed", zap.String("subsystem", subsystem), zap.Error(err))
			result.Errors = append(result.Errors, err.Error())
			out.Subsystems[subsystem] = result
			out.SubsystemsSearched++
			continue
		}

		outcome := a.complete(r)
		for _, f := range outcome.Failures {
			result.Errors = append(result.Errors, fmt.Sprintf("archive %d: %s", f.Index, f.Reason))
		}
		result.Tenders = outcome.TotalTenders
		result.Archives = outcome.ArchivesTotal
		out.Records = append(out.Records, outcome.Records...)
		out.ArchivesTotal += outcome.ArchivesTotal
		out.Subsystems[subsystem] = result
		out.SubsystemsSearched++
	}
	out.ProcessedAt = a.clock.Now()
	return out, nil
}

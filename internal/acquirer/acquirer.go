// Package acquirer drives one acquisition run: it resolves a query into
// archive URLs, then fetches, decodes and parses each archive in order,
// accumulating tender records and a ledger of the archives that failed.
//
// Search never halts early. SearchResumable stops at the first blocked archive
// and hands back a checkpoint that a later call resumes from without
// re-fetching finished archives.
package acquirer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/metrics"
	"github.com/JakeFAU/tender-acquirer/internal/progress"
	"github.com/JakeFAU/tender-acquirer/internal/query"
	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

// Deps are the collaborators of an Acquirer. Sink and Progress are optional.
type Deps struct {
	Query    tender.QueryService
	Requests *query.Builder
	Fetcher  tender.ArchiveFetcher
	Decoder  tender.ArchiveDecoder
	Parser   tender.DocumentParser
	Sink     tender.RecordSink
	Progress progress.Emitter
	Clock    tender.Clock
	RunIDs   tender.IDGenerator
	Logger   *zap.Logger
}

// Acquirer runs searches. It holds no per-run state and may be shared.
type Acquirer struct {
	query    tender.QueryService
	requests *query.Builder
	fetcher  tender.ArchiveFetcher
	decoder  tender.ArchiveDecoder
	parser   tender.DocumentParser
	sink     tender.RecordSink
	progress progress.Emitter
	clock    tender.Clock
	runIDs   tender.IDGenerator
	logger   *zap.Logger
}

// New validates deps and returns an Acquirer.
func New(deps Deps) (*Acquirer, error) {
	switch {
	case deps.Query == nil:
		return nil, errors.New("acquirer: query service is required")
	case deps.Requests == nil:
		return nil, errors.New("acquirer: request builder is required")
	case deps.Fetcher == nil:
		return nil, errors.New("acquirer: fetcher is required")
	case deps.Decoder == nil:
		return nil, errors.New("acquirer: decoder is required")
	case deps.Parser == nil:
		return nil, errors.New("acquirer: parser is required")
	case deps.Clock == nil:
		return nil, errors.New("acquirer: clock is required")
	case deps.RunIDs == nil:
		return nil, errors.New("acquirer: run id generator is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	emitter := deps.Progress
	if emitter == nil {
		emitter = progress.Discard{}
	}
	return &Acquirer{
		query:    deps.Query,
		requests: deps.Requests,
		fetcher:  deps.Fetcher,
		decoder:  deps.Decoder,
		parser:   deps.Parser,
		sink:     deps.Sink,
		progress: emitter,
		clock:    deps.Clock,
		runIDs:   deps.RunIDs,
		logger:   logger,
	}, nil
}

// Search queries once and processes every archive. Blocked archives are
// recorded as failures.
func (a *Acquirer) Search(ctx context.Context, q tender.Query) (tender.Outcome, error) {
	return a.SearchEnhanced(ctx, q, false)
}

// SearchEnhanced is Search that also merges each tender's attachment list and
// count into its record when includeAttachments is set.
func (a *Acquirer) SearchEnhanced(ctx context.Context, q tender.Query, includeAttachments bool) (tender.Outcome, error) {
	r, err := a.start(ctx, q, nil)
	if err != nil {
		return tender.Outcome{}, err
	}
	if _, err := a.iterate(ctx, r, runOptions{attachments: includeAttachments}); err != nil {
		return tender.Outcome{}, err
	}
	return a.complete(r), nil
}

// SearchByRegistry looks up the archives of one registry number.
func (a *Acquirer) SearchByRegistry(ctx context.Context, subsystem, registryNumber string) (tender.Outcome, error) {
	return a.Search(ctx, tender.Query{Subsystem: subsystem, RegistryNumber: registryNumber})
}

// SearchResumable processes archives until completion or the first blocked
// archive. A nil state starts a new run; otherwise the run continues at
// state.NextArchiveIndex with the stored archive list and counters.
//
// Exactly one of the outcome and the checkpoint is meaningful: a non-nil
// checkpoint means the run halted and can be resumed with its State.
func (a *Acquirer) SearchResumable(
	ctx context.Context,
	q tender.Query,
	state *tender.AcquisitionState,
) (tender.Outcome, *tender.Checkpoint, error) {
	r, err := a.start(ctx, q, state)
	if err != nil {
		return tender.Outcome{}, nil, err
	}
	cp, err := a.iterate(ctx, r, runOptions{resumable: true})
	if err != nil {
		return tender.Outcome{}, nil, err
	}
	if cp != nil {
		return tender.Outcome{}, cp, nil
	}
	return a.complete(r), nil, nil
}

type phase string

const (
	phaseStart     phase = "start"
	phaseQuerying  phase = "querying"
	phaseIterating phase = "iterating"
	phaseHalted    phase = "halted"
	phaseCompleted phase = "completed"
)

type runOptions struct {
	resumable   bool
	attachments bool
	// subsystem and docType are stamped on every record when set.
	subsystem string
	docType   string
}

// run is the mutable state of one call.
type run struct {
	id      string
	eventID [16]byte
	started time.Time
	state   tender.AcquisitionState
	logger  *zap.Logger
}

func (a *Acquirer) start(ctx context.Context, q tender.Query, resume *tender.AcquisitionState) (*run, error) {
	id, err := a.runIDs.NewID()
	if err != nil {
		return nil, fmt.Errorf("run id: %w", err)
	}
	r := &run{id: id, started: a.clock.Now(), logger: a.logger.With(zap.String("run_id", id))}
	if eventID, err := progress.ParseRunID(id); err == nil {
		r.eventID = eventID
	}
	r.transition(phaseStart)
	a.emit(r, progress.Event{Stage: progress.StageRunStart})

	if resume != nil {
		if err := validateResume(resume); err != nil {
			return nil, err
		}
		r.state = cloneState(*resume)
		r.logger.Info("resuming acquisition",
			zap.Int("next_archive_index", r.state.NextArchiveIndex),
			zap.Int("archives_total", len(r.state.Archives)),
			zap.Int("records", len(r.state.Records)),
		)
		return r, nil
	}

	r.transition(phaseQuerying)
	req, err := a.requests.FromQuery(q)
	if err != nil {
		return nil, err
	}
	urls, err := a.query.ArchiveURLs(ctx, req)
	if err != nil {
		r.logger.Error("query failed", zap.Error(err))
		return nil, fmt.Errorf("query archives: %w", err)
	}
	r.state = tender.AcquisitionState{Query: q, Archives: make([]tender.ArchiveHandle, 0, len(urls))}
	for _, u := range urls {
		r.state.Archives = append(r.state.Archives, tender.ArchiveHandle{URL: u})
	}
	r.logger.Info("query returned archives", zap.Int("archives_total", len(urls)))
	return r, nil
}

func (a *Acquirer) iterate(ctx context.Context, r *run, opts runOptions) (*tender.Checkpoint, error) {
	r.transition(phaseIterating)
	for i := r.state.NextArchiveIndex; i < len(r.state.Archives); i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("acquisition stopped at archive %d: %w", i, err)
		}
		r.state.NextArchiveIndex = i
		handle := r.state.Archives[i]
		a.emit(r, progress.Event{Stage: progress.StageArchiveStart, Index: i, URL: handle.URL})

		began := a.clock.Now()
		res, err := a.processArchive(ctx, r, i, handle.URL, opts)
		elapsed := a.clock.Now().Sub(began)
		if elapsed < 0 {
			elapsed = 0
		}
		if err != nil {
			var blocked *tender.BlockedError
			if opts.resumable && errors.As(err, &blocked) {
				metrics.ObserveArchive("blocked")
				a.emit(r, progress.Event{
					Stage: progress.StageArchiveBlocked, Index: i, URL: handle.URL,
					Kind: tender.KindBlocked, Dur: elapsed,
				})
				return a.halt(r, blocked), nil
			}
			if ctx.Err() != nil {
				return nil, fmt.Errorf("acquisition stopped at archive %d: %w", i, err)
			}
			a.recordFailure(r, i, handle.URL, err, elapsed)
			continue
		}

		r.state.Records = append(r.state.Records, res.records...)
		r.state.TotalFiles += res.files
		r.state.ArchivesProcessed++
		metrics.ObserveArchive("processed")
		a.emit(r, progress.Event{
			Stage: progress.StageArchiveDone, Index: i, URL: handle.URL,
			Bytes: res.bytes, Files: res.files, Tenders: len(res.records), Dur: elapsed,
		})
	}
	r.state.NextArchiveIndex = len(r.state.Archives)
	return nil, nil
}

func (a *Acquirer) recordFailure(r *run, index int, url string, err error, elapsed time.Duration) {
	kind := tender.Kind(err)
	failure := tender.ArchiveFailure{
		Index:  index,
		URL:    url,
		Kind:   kind,
		Reason: err.Error(),
	}
	var blocked *tender.BlockedError
	if errors.As(err, &blocked) {
		failure.RetryAfterSeconds = blocked.RetryAfterSeconds
	}
	r.state.ArchivesFailed++
	r.state.Failures = append(r.state.Failures, failure)
	metrics.ObserveArchive("failed")
	r.logger.Warn("archive failed",
		zap.Int("archive_index", index),
		zap.String("archive_url", url),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
	a.emit(r, progress.Event{
		Stage: progress.StageArchiveFailed, Index: index, URL: url,
		Kind: kind, Dur: elapsed, Note: err.Error(),
	})
}

func (a *Acquirer) halt(r *run, blocked *tender.BlockedError) *tender.Checkpoint {
	r.transition(phaseHalted)
	retryAfter := blocked.RetryAfterSeconds
	if retryAfter <= 0 {
		retryAfter = tender.DefaultRetryAfterSeconds
	}
	r.logger.Warn("acquisition halted on blocked archive",
		zap.Int("archive_index", r.state.NextArchiveIndex),
		zap.String("archive_url", blocked.URL),
		zap.Int("retry_after_seconds", retryAfter),
	)
	a.emit(r, progress.Event{
		Stage: progress.StageRunHalted,
		Dur:   a.since(r.started),
		Note:  fmt.Sprintf("next_archive_index=%d", r.state.NextArchiveIndex),
	})
	return &tender.Checkpoint{
		State:             cloneState(r.state),
		RetryAfterSeconds: retryAfter,
		BlockedURL:        blocked.URL,
		Message: fmt.Sprintf(
			"archive download blocked; retry in %d seconds from archive %d",
			retryAfter, r.state.NextArchiveIndex,
		),
	}
}

func (a *Acquirer) complete(r *run) tender.Outcome {
	r.transition(phaseCompleted)
	out := tender.Outcome{
		RunID:             r.id,
		Records:           r.state.Records,
		ArchivesTotal:     len(r.state.Archives),
		ArchivesProcessed: r.state.ArchivesProcessed,
		ArchivesFailed:    r.state.ArchivesFailed,
		TotalFiles:        r.state.TotalFiles,
		TotalTenders:      len(r.state.Records),
		Failures:          r.state.Failures,
		ProcessedAt:       a.clock.Now(),
	}
	if out.Records == nil {
		out.Records = []tender.Record{}
	}
	r.logger.Info("acquisition completed",
		zap.Int("archives_total", out.ArchivesTotal),
		zap.Int("archives_processed", out.ArchivesProcessed),
		zap.Int("archives_failed", out.ArchivesFailed),
		zap.Int("total_files", out.TotalFiles),
		zap.Int("total_tenders", out.TotalTenders),
	)
	a.emit(r, progress.Event{
		Stage:   progress.StageRunDone,
		Files:   out.TotalFiles,
		Tenders: out.TotalTenders,
		Dur:     a.since(r.started),
	})
	return out
}

func (a *Acquirer) emit(r *run, evt progress.Event) {
	if r.eventID == [16]byte{} {
		return
	}
	evt.RunID = r.eventID
	evt.TS = a.clock.Now()
	a.progress.Emit(evt)
}

func (a *Acquirer) since(t time.Time) time.Duration {
	if d := a.clock.Now().Sub(t); d > 0 {
		return d
	}
	return 0
}

func (r *run) transition(p phase) {
	r.logger.Debug("acquisition phase", zap.String("phase", string(p)))
}

func validateResume(s *tender.AcquisitionState) error {
	if s.NextArchiveIndex < 0 || s.NextArchiveIndex > len(s.Archives) {
		return fmt.Errorf("%w: next_archive_index %d outside [0, %d]",
			tender.ErrInvalidQuery, s.NextArchiveIndex, len(s.Archives))
	}
	return nil
}

// cloneState copies the slices so a returned checkpoint never aliases the
// accumulator of a later call.
func cloneState(s tender.AcquisitionState) tender.AcquisitionState {
	s.Records = append([]tender.Record(nil), s.Records...)
	s.Archives = append([]tender.ArchiveHandle(nil), s.Archives...)
	s.Failures = append([]tender.ArchiveFailure(nil), s.Failures...)
	return s
}

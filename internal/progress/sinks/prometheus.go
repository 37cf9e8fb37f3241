package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/tender-acquirer/internal/progress"
)

// PrometheusSink turns run and archive events into collectors.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsFinished  *prometheus.CounterVec
	runsActive    prometheus.Gauge
	runDuration   *prometheus.HistogramVec
	archiveEvents *prometheus.CounterVec
	archiveDur    *prometheus.HistogramVec
	tendersTotal  prometheus.Counter
	filesTotal    prometheus.Counter

	mu     sync.Mutex
	active map[[16]byte]struct{}
}

// NewPrometheusSink registers the sink collectors on reg, or the default
// registerer when reg is nil.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tender_runs_started_total",
			Help: "Acquisition runs started.",
		}),
		runsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tender_runs_finished_total",
			Help: "Acquisition runs finished, by result.",
		}, []string{"result"}),
		runsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tender_runs_active",
			Help: "Acquisition runs in progress.",
		}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tender_run_duration_seconds",
			Help:    "Wall time of finished runs.",
			Buckets: []float64{1, 10, 30, 60, 300, 900, 1800, 3600},
		}, []string{"result"}),
		archiveEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tender_archive_events_total",
			Help: "Archive milestones, by stage.",
		}, []string{"stage"}),
		archiveDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tender_archive_duration_seconds",
			Help:    "Time to process one archive, by stage.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"stage"}),
		tendersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tender_run_tenders_total",
			Help: "Tender records accepted across runs.",
		}),
		filesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tender_run_files_total",
			Help: "Archive entries seen across runs.",
		}),
		active: make(map[[16]byte]struct{}),
	}
	for _, c := range []prometheus.Collector{
		s.runsStarted, s.runsFinished, s.runsActive, s.runDuration,
		s.archiveEvents, s.archiveDur, s.tendersTotal, s.filesTotal,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume implements progress.Sink.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageRunStart:
			s.runsStarted.Inc()
			if s.markActive(evt.RunID, true) {
				s.runsActive.Inc()
			}
		case progress.StageRunDone:
			s.finishRun(evt, "completed")
		case progress.StageRunHalted:
			s.finishRun(evt, "halted")
		case progress.StageArchiveStart:
			s.archiveEvents.WithLabelValues(string(evt.Stage)).Inc()
		case progress.StageArchiveDone, progress.StageArchiveFailed, progress.StageArchiveBlocked:
			stage := string(evt.Stage)
			s.archiveEvents.WithLabelValues(stage).Inc()
			if evt.Dur > 0 {
				s.archiveDur.WithLabelValues(stage).Observe(evt.Dur.Seconds())
			}
			if evt.Tenders > 0 {
				s.tendersTotal.Add(float64(evt.Tenders))
			}
			if evt.Files > 0 {
				s.filesTotal.Add(float64(evt.Files))
			}
		}
	}
	return nil
}

func (s *PrometheusSink) finishRun(evt progress.Event, result string) {
	s.runsFinished.WithLabelValues(result).Inc()
	if evt.Dur > 0 {
		s.runDuration.WithLabelValues(result).Observe(evt.Dur.Seconds())
	}
	if s.markActive(evt.RunID, false) {
		s.runsActive.Dec()
	}
}

// markActive adds or removes id and reports whether the set changed.
func (s *PrometheusSink) markActive(id [16]byte, start bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[id]
	if start {
		if ok {
			return false
		}
		s.active[id] = struct{}{}
		return true
	}
	if !ok {
		return false
	}
	delete(s.active, id)
	return true
}

// Close implements progress.Sink.
func (s *PrometheusSink) Close(context.Context) error { return nil }

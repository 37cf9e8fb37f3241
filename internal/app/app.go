// Package app builds and owns the long-lived services of the acquirer: the
// fetch and parse pipeline, record sinks, progress reporting and checkpoints.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/acquirer"
	"github.com/JakeFAU/tender-acquirer/internal/archive"
	"github.com/JakeFAU/tender-acquirer/internal/checkpoint"
	"github.com/JakeFAU/tender-acquirer/internal/clock/system"
	"github.com/JakeFAU/tender-acquirer/internal/config"
	"github.com/JakeFAU/tender-acquirer/internal/extract"
	httpfetcher "github.com/JakeFAU/tender-acquirer/internal/fetcher/http"
	"github.com/JakeFAU/tender-acquirer/internal/id/uuid"
	"github.com/JakeFAU/tender-acquirer/internal/metrics"
	"github.com/JakeFAU/tender-acquirer/internal/policy/ratelimit"
	"github.com/JakeFAU/tender-acquirer/internal/progress"
	"github.com/JakeFAU/tender-acquirer/internal/progress/sinks"
	"github.com/JakeFAU/tender-acquirer/internal/publisher/pubsub"
	"github.com/JakeFAU/tender-acquirer/internal/query"
	"github.com/JakeFAU/tender-acquirer/internal/query/soap"
	"github.com/JakeFAU/tender-acquirer/internal/sink"
	"github.com/JakeFAU/tender-acquirer/internal/storage"
	"github.com/JakeFAU/tender-acquirer/internal/storage/gcs"
	"github.com/JakeFAU/tender-acquirer/internal/storage/local"
	"github.com/JakeFAU/tender-acquirer/internal/storage/postgres"
	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

// App holds the shared services. Build it once per process with New and
// release it with Close.
type App struct {
	cfg         config.Config
	logger      *zap.Logger
	acquirer    *acquirer.Acquirer
	checkpoints checkpoint.Manager
	hub         *progress.Hub
	sinks       *sink.Multi

	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// Option overrides a collaborator, mostly for tests.
type Option func(*options)

type options struct {
	query      tender.QueryService
	fetcher    tender.ArchiveFetcher
	publisher  tender.Publisher
	registerer prometheus.Registerer
	clock      tender.Clock
}

// WithQueryService replaces the SOAP query client.
func WithQueryService(q tender.QueryService) Option {
	return func(o *options) { o.query = q }
}

// WithFetcher replaces the HTTP archive fetcher.
func WithFetcher(f tender.ArchiveFetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithPublisher installs a publisher sink regardless of the pubsub config.
func WithPublisher(p tender.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithRegisterer registers progress collectors on reg instead of the default registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithClock replaces the wall clock.
func WithClock(c tender.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New wires every service from cfg. It fails fast; anything opened before
// the failure is closed again.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{clock: system.New()}
	for _, opt := range opts {
		opt(&o)
	}
	metrics.Init()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
		}
	}()

	token, err := cfg.Auth.ResolveToken()
	if err != nil {
		return nil, err
	}
	if token == "" {
		logger.Warn("no document service token configured; requests will be anonymous")
	}

	queryService := o.query
	if queryService == nil {
		queryService = soap.New(soap.Config{
			WSDLURL:     cfg.Service.WSDLURL,
			Token:       token,
			UserAgent:   cfg.Fetcher.UserAgent,
			OpenTimeout: cfg.Service.OpenTimeout,
			ReadTimeout: cfg.Service.ReadTimeout,
			SSLVerify:   cfg.Service.SSLVerify,
		}, nil, logger.Named("query"))
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = httpfetcher.New(httpfetcher.Config{
			Token:            token,
			UserAgent:        cfg.Fetcher.UserAgent,
			OpenTimeout:      cfg.Service.OpenTimeout,
			ReadTimeout:      cfg.Service.ReadTimeout,
			SSLVerify:        cfg.Service.SSLVerify,
			MaxBytes:         cfg.Fetcher.MaxArchiveBytes,
			MaxAttempts:      cfg.Fetcher.MaxAttempts,
			RetryBaseDelay:   cfg.Fetcher.RetryBaseDelay,
			AutoWait:         cfg.Fetcher.AutoWait,
			BlockWait:        cfg.Fetcher.BlockWait,
			MaxWait:          cfg.Fetcher.MaxWait,
			ProgressInterval: cfg.Fetcher.ProgressInterval,
			BlockMarker:      cfg.Fetcher.BlockMarker,
		}, logger.Named("fetcher"),
			httpfetcher.WithLimiter(ratelimit.New(ratelimit.Config{RequestsPerSecond: cfg.Fetcher.RequestsPerSecond})),
			httpfetcher.WithClock(o.clock),
		)
	}

	blobStore, err := a.openSinks(ctx, o)
	if err != nil {
		return nil, err
	}

	var cpOpts []checkpoint.Option
	cpOpts = append(cpOpts, checkpoint.WithClock(o.clock), checkpoint.WithLogger(logger.Named("checkpoint")))
	if cfg.Checkpoint.Mirror && blobStore != nil {
		cpOpts = append(cpOpts, checkpoint.WithMirror(blobStore))
	}
	a.checkpoints, err = checkpoint.NewManager(checkpoint.Config{
		Enabled: cfg.Checkpoint.Enabled,
		Dir:     cfg.Checkpoint.Dir,
	}, cpOpts...)
	if err != nil {
		return nil, fmt.Errorf("init checkpoints: %w", err)
	}

	promSink, err := sinks.NewPrometheusSink(o.registerer)
	if err != nil {
		return nil, fmt.Errorf("init progress metrics: %w", err)
	}
	a.hub = progress.NewHub(progress.HubConfig{Logger: logger.Named("progress")},
		sinks.NewLogSink(logger.Named("progress")),
		promSink,
	)

	a.acquirer, err = acquirer.New(acquirer.Deps{
		Query:    queryService,
		Requests: query.NewBuilder(uuid.NewEnvelopeIDGenerator(), system.NewLocal()),
		Fetcher:  fetcher,
		Decoder:  archive.NewDecoder(archive.WithMaxEntryBytes(cfg.Archive.MaxEntryBytes), archive.WithLogger(logger.Named("archive"))),
		Parser:   extract.New(logger.Named("extract")),
		Sink:     a.sinks,
		Progress: a.hub,
		Clock:    o.clock,
		RunIDs:   uuid.NewRunIDGenerator(),
		Logger:   logger.Named("acquirer"),
	})
	if err != nil {
		return nil, err
	}

	logger.Info("application services initialized",
		zap.Int("record_sinks", a.sinks.Len()),
		zap.Bool("checkpoints", cfg.Checkpoint.Enabled),
	)
	return a, nil
}

// openSinks builds the record sinks and returns the blob store, if any, so
// checkpoints can be mirrored to it.
func (a *App) openSinks(ctx context.Context, o options) (tender.BlobStore, error) {
	cfg := a.cfg.Sink
	var named []sink.Named
	var blobStore tender.BlobStore

	if cfg.Blob.Enabled {
		store, err := storage.Open(ctx, storage.Config{
			Provider: cfg.Blob.Provider,
			Local:    local.Config{BaseDir: cfg.Blob.BaseDir},
			GCS:      gcs.Config{Bucket: cfg.Blob.Bucket},
		})
		if err != nil {
			return nil, fmt.Errorf("init blob sink: %w", err)
		}
		a.addCloser("blob store", store.Close)
		blobStore = store
		named = append(named, sink.NewBlob(store, cfg.Blob.Prefix))
		a.logger.Info("blob record sink enabled", zap.String("provider", cfg.Blob.Provider))
	}

	if cfg.Postgres.Enabled {
		store, err := postgres.NewTenderStore(ctx, postgres.Config{
			DSN:      cfg.Postgres.DSN,
			Table:    cfg.Postgres.Table,
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("init postgres sink: %w", err)
		}
		a.addCloser("postgres", func() error {
			store.Close()
			return nil
		})
		if cfg.Postgres.EnsureSchema {
			if err := store.EnsureSchema(ctx); err != nil {
				return nil, fmt.Errorf("ensure postgres schema: %w", err)
			}
		}
		named = append(named, sink.NewPostgres(store))
		a.logger.Info("postgres record sink enabled", zap.String("table", cfg.Postgres.Table))
	}

	pub := o.publisher
	if pub == nil && cfg.PubSub.Enabled {
		p, err := pubsub.New(ctx, pubsub.Config{ProjectID: cfg.PubSub.ProjectID, TopicID: cfg.PubSub.TopicID})
		if err != nil {
			return nil, fmt.Errorf("init pubsub sink: %w", err)
		}
		a.addCloser("pubsub", p.Close)
		pub = p
		a.logger.Info("pubsub record sink enabled", zap.String("topic", cfg.PubSub.TopicID))
	}
	if pub != nil {
		named = append(named, sink.NewPublisher(pub, o.clock))
	}

	a.sinks = sink.NewMulti(a.logger.Named("sink"), named...)
	return blobStore, nil
}

func (a *App) addCloser(name string, fn func() error) {
	a.closers = append(a.closers, namedCloser{name: name, close: fn})
}

// Config returns the configuration the app was built from.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the root logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Acquirer returns the search orchestrator.
func (a *App) Acquirer() *acquirer.Acquirer { return a.acquirer }

// Checkpoints returns the checkpoint manager.
func (a *App) Checkpoints() checkpoint.Manager { return a.checkpoints }

// Close flushes progress events, then releases sinks in reverse order of
// creation. It is safe to call on a partially built App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.hub != nil {
		if err := a.hub.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close progress hub: %w", err))
		}
		a.hub = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Warn("failed to close service", zap.String("service", c.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

// Package httpfetcher downloads tender archives over HTTP(S) with bounded
// retries, a streaming size cap and detection of provider download blocks.
package httpfetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/metrics"
	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

const (
	// TokenHeader carries the caller's document service token.
	TokenHeader = "individualPerson_token"
	// DefaultBlockMarker is the phrase the provider returns instead of a blocked archive.
	DefaultBlockMarker = "Скачивание архива по данной ссылке заблокировано"
	// DefaultMaxBytes is the archive size ceiling.
	DefaultMaxBytes int64 = 100 * 1024 * 1024

	defaultUserAgent        = "tender-acquirer/1.0"
	defaultOpenTimeout      = 30 * time.Second
	defaultReadTimeout      = 120 * time.Second
	defaultBlockWait        = 610 * time.Second
	defaultProgressInterval = time.Minute
	errorSnippetBytes       = 512
)

// Config controls download behavior.
type Config struct {
	Token       string
	UserAgent   string
	OpenTimeout time.Duration
	ReadTimeout time.Duration
	SSLVerify   bool
	MaxBytes    int64

	MaxAttempts    int
	RetryBaseDelay time.Duration

	AutoWait         bool
	BlockWait        time.Duration
	MaxWait          time.Duration
	ProgressInterval time.Duration
	BlockMarker      string
}

// Limiter paces requests per host.
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Fetcher implements tender.ArchiveFetcher.
type Fetcher struct {
	cfg     Config
	client  *http.Client
	retry   *LinearRetryPolicy
	pauser  pauseController
	limiter Limiter
	clock   tender.Clock
	logger  *zap.Logger
	marker  []byte
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client (tests, proxies).
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithLimiter installs a per-host rate limiter.
func WithLimiter(l Limiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// WithClock overrides the clock used for block deadlines.
func WithClock(c tender.Clock) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.clock = c
		}
	}
}

func withPauser(p pauseController) Option {
	return func(f *Fetcher) { f.pauser = p }
}

// New builds a Fetcher from cfg, applying defaults for unset values.
func New(cfg Config, logger *zap.Logger, opts ...Option) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.BlockWait <= 0 {
		cfg.BlockWait = defaultBlockWait
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = defaultProgressInterval
	}
	if cfg.BlockMarker == "" {
		cfg.BlockMarker = DefaultBlockMarker
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{
		cfg:    cfg,
		client: &http.Client{Transport: newHTTPTransport(cfg)},
		retry:  NewLinearRetryPolicy(cfg.MaxAttempts, cfg.RetryBaseDelay),
		pauser: &timerPauseController{interval: cfg.ProgressInterval},
		clock:  systemClock{},
		logger: logger,
		marker: []byte(cfg.BlockMarker),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func newHTTPTransport(cfg Config) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.OpenTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.OpenTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		// The document service is commonly reached through certificates that
		// do not chain to public roots, hence the toggle.
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.SSLVerify}, //nolint:gosec // operator controlled
	}
}

// Fetch downloads rawURL. A provider block is either waited out (auto-wait)
// or returned as *tender.BlockedError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (tender.FetchedBlob, error) {
	if err := validateURL(rawURL); err != nil {
		return tender.FetchedBlob{}, err
	}
	var waited time.Duration
	for {
		blob, err := f.fetchWithRetry(ctx, rawURL)
		var blocked *tender.BlockedError
		if err == nil || !errors.As(err, &blocked) {
			return blob, err
		}
		if !f.cfg.AutoWait {
			return tender.FetchedBlob{}, err
		}
		if f.cfg.MaxWait > 0 && waited+f.cfg.BlockWait > f.cfg.MaxWait {
			f.logger.Warn("block wait budget exhausted",
				zap.String("archive_url", rawURL),
				zap.Duration("waited", waited),
				zap.Duration("max_wait", f.cfg.MaxWait),
			)
			return tender.FetchedBlob{}, err
		}
		f.logger.Warn("archive download blocked, waiting before retry",
			zap.String("archive_url", rawURL),
			zap.Duration("wait", f.cfg.BlockWait),
		)
		notify := func(remaining time.Duration) {
			f.logger.Info("waiting out download block",
				zap.String("archive_url", rawURL),
				zap.Duration("remaining", remaining.Round(time.Second)),
			)
		}
		if err := f.pauser.Pause(ctx, f.cfg.BlockWait, notify); err != nil {
			return tender.FetchedBlob{}, err
		}
		waited += f.cfg.BlockWait
		metrics.ObserveBlockWait(f.cfg.BlockWait)
	}
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, rawURL string) (tender.FetchedBlob, error) {
	maxAttempts := f.retry.MaxAttempts()
	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx, rawURL); err != nil {
				return tender.FetchedBlob{}, err
			}
		}
		blob, err := f.attempt(ctx, rawURL)
		if err == nil {
			metrics.ObserveFetchAttempt("success")
			metrics.ObserveFetchBytes(blob.Size)
			return blob, nil
		}
		if ctx.Err() != nil {
			return tender.FetchedBlob{}, fmt.Errorf("fetch archive: %w", ctx.Err())
		}
		if !f.retry.Retryable(err) {
			metrics.ObserveFetchAttempt(string(tender.Kind(err)))
			return tender.FetchedBlob{}, err
		}
		metrics.ObserveFetchAttempt("retryable_error")
		last = err
		if attempt == maxAttempts {
			break
		}
		delay := f.retry.Backoff(attempt)
		f.logger.Warn("archive download failed, retrying",
			zap.String("archive_url", rawURL),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
		if err := f.pauser.Pause(ctx, delay, nil); err != nil {
			return tender.FetchedBlob{}, err
		}
	}
	return tender.FetchedBlob{}, &tender.RetriesExhaustedError{Attempts: maxAttempts, Last: last}
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string) (tender.FetchedBlob, error) {
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return tender.FetchedBlob{}, fmt.Errorf("%w: %v", tender.ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	if f.cfg.Token != "" {
		req.Header.Set(TokenHeader, f.cfg.Token)
	}

	f.logger.Debug("downloading archive", zap.String("archive_url", rawURL))
	resp, err := f.client.Do(req)
	if err != nil {
		return tender.FetchedBlob{}, fmt.Errorf("network error: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.logger.Debug("close response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return tender.FetchedBlob{}, &tender.HTTPError{
			Code:    resp.StatusCode,
			Message: errorMessage(resp),
		}
	}
	if resp.ContentLength > f.cfg.MaxBytes {
		return tender.FetchedBlob{}, &tender.TooLargeError{Limit: f.cfg.MaxBytes}
	}

	body := newIdleTimeoutReader(resp.Body, f.cfg.ReadTimeout, cancel)
	defer body.stop()
	data, err := readCapped(body, f.cfg.MaxBytes)
	if err != nil {
		if body.expired() {
			return tender.FetchedBlob{}, fmt.Errorf("read archive body: %w", errReadTimeout)
		}
		return tender.FetchedBlob{}, err
	}
	if len(data) == 0 {
		return tender.FetchedBlob{}, tender.ErrEmptyBody
	}
	if f.isBlocked(data) {
		return tender.FetchedBlob{}, &tender.BlockedError{
			URL:               rawURL,
			RetryAfterSeconds: tender.DefaultRetryAfterSeconds,
			BlockedUntil:      f.clock.Now().Add(tender.DefaultRetryAfterSeconds * time.Second),
		}
	}
	f.logger.Debug("downloaded archive", zap.String("archive_url", rawURL), zap.Int("bytes", len(data)))
	return tender.FetchedBlob{
		Bytes:       data,
		Size:        int64(len(data)),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// isBlocked looks for the block marker in textual bodies only; a real archive
// may legitimately contain the phrase inside a stored XML entry.
func (f *Fetcher) isBlocked(data []byte) bool {
	if hasArchiveMagic(data) {
		return false
	}
	return bytes.Contains(data, f.marker)
}

func hasArchiveMagic(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	return (data[0] == 0x1f && data[1] == 0x8b) || (data[0] == 'P' && data[1] == 'K')
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: empty url", tender.ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", tender.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: not HTTP/HTTPS", tender.ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", tender.ErrInvalidURL)
	}
	return nil
}

func readCapped(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read archive body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, &tender.TooLargeError{Limit: limit}
	}
	return data, nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

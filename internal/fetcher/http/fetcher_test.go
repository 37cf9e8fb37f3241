package httpfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

type recordingPauser struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (p *recordingPauser) Pause(ctx context.Context, delay time.Duration, notify func(time.Duration)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.delays = append(p.delays, delay)
	p.mu.Unlock()
	if notify != nil {
		notify(delay / 2)
	}
	return nil
}

func (p *recordingPauser) recorded() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.delays...)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestFetcher(cfg Config, pauser *recordingPauser, opts ...Option) *Fetcher {
	opts = append(opts, withPauser(pauser))
	return New(cfg, zap.NewNop(), opts...)
}

var zipBody = []byte("PK\x03\x04 fake archive bytes")

func TestFetchReturnsBodyAndSendsToken(t *testing.T) {
	t.Parallel()

	var gotToken, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(TokenHeader)
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(zipBody)
	}))
	defer srv.Close()

	f := newTestFetcher(Config{Token: "secret"}, &recordingPauser{})
	blob, err := f.Fetch(context.Background(), srv.URL+"/a.zip")
	require.NoError(t, err)
	require.Equal(t, zipBody, blob.Bytes)
	require.EqualValues(t, len(zipBody), blob.Size)
	require.Equal(t, "application/zip", blob.ContentType)
	require.Equal(t, "secret", gotToken)
	require.Equal(t, defaultUserAgent, gotUA)
}

func TestFetchRejectsNonHTTPSchemes(t *testing.T) {
	t.Parallel()

	f := newTestFetcher(Config{}, &recordingPauser{})
	for _, raw := range []string{"", "ftp://host/file.zip", "file:///etc/passwd", "http://"} {
		_, err := f.Fetch(context.Background(), raw)
		require.ErrorIs(t, err, tender.ErrInvalidURL, raw)
		require.Equal(t, tender.KindInvalidInput, tender.Kind(err))
	}
}

func TestFetchEmptyBody(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newTestFetcher(Config{}, &recordingPauser{})
	_, err := f.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, tender.ErrEmptyBody)
	require.EqualValues(t, 1, hits.Load(), "empty body is not retried")
}

func TestFetchEnforcesSizeCap(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Flush headers first so no Content-Length is advertised.
		w.WriteHeader(http.StatusOK)
		if fl, ok := w.(http.Flusher); ok {
			fl.Flush()
		}
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	f := newTestFetcher(Config{MaxBytes: 16}, &recordingPauser{})
	_, err := f.Fetch(context.Background(), srv.URL)
	var tooLarge *tender.TooLargeError
	require.ErrorAs(t, err, &tooLarge)
	require.EqualValues(t, 16, tooLarge.Limit)
}

func TestFetchAcceptsBodyExactlyAtCap(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("y", 16)))
	}))
	defer srv.Close()

	f := newTestFetcher(Config{MaxBytes: 16}, &recordingPauser{})
	blob, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.EqualValues(t, 16, blob.Size)
}

func TestFetchRetriesLinearlyThenGivesUp(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream \xff\xfe broken"))
	}))
	defer srv.Close()

	pauser := &recordingPauser{}
	f := newTestFetcher(Config{RetryBaseDelay: time.Second}, pauser)
	_, err := f.Fetch(context.Background(), srv.URL)

	var exhausted *tender.RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 3, exhausted.Attempts)
	require.EqualValues(t, 3, hits.Load())

	var httpErr *tender.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusBadGateway, httpErr.Code)
	require.Contains(t, httpErr.Message, "Bad Gateway")
	require.Contains(t, httpErr.Message, "�")
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, pauser.recorded())
}

func TestFetchRecoversAfterTransientFailure(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(zipBody)
	}))
	defer srv.Close()

	f := newTestFetcher(Config{}, &recordingPauser{})
	blob, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, zipBody, blob.Bytes)
	require.EqualValues(t, 2, hits.Load())
}

func TestFetchBlockedWithoutAutoWait(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>" + DefaultBlockMarker + " на 10 минут</html>"))
	}))
	defer srv.Close()

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	pauser := &recordingPauser{}
	f := newTestFetcher(Config{}, pauser, WithClock(fixedClock{t: now}))
	_, err := f.Fetch(context.Background(), srv.URL)

	var blocked *tender.BlockedError
	require.ErrorAs(t, err, &blocked)
	require.Equal(t, tender.DefaultRetryAfterSeconds, blocked.RetryAfterSeconds)
	require.Equal(t, now.Add(600*time.Second), blocked.BlockedUntil)
	require.Equal(t, srv.URL, blocked.URL)
	require.Empty(t, pauser.recorded(), "a block is not retried")
}

func TestFetchAutoWaitRetriesSameURL(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) <= 2 {
			_, _ = w.Write([]byte(DefaultBlockMarker))
			return
		}
		_, _ = w.Write(zipBody)
	}))
	defer srv.Close()

	pauser := &recordingPauser{}
	f := newTestFetcher(Config{AutoWait: true, BlockWait: 610 * time.Second}, pauser)
	blob, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, zipBody, blob.Bytes)
	require.EqualValues(t, 3, hits.Load())
	require.Equal(t, []time.Duration{610 * time.Second, 610 * time.Second}, pauser.recorded())
}

func TestFetchAutoWaitHonorsMaxWait(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(DefaultBlockMarker))
	}))
	defer srv.Close()

	pauser := &recordingPauser{}
	f := newTestFetcher(Config{
		AutoWait:  true,
		BlockWait: 10 * time.Second,
		MaxWait:   25 * time.Second,
	}, pauser)
	_, err := f.Fetch(context.Background(), srv.URL)

	var blocked *tender.BlockedError
	require.ErrorAs(t, err, &blocked)
	require.Len(t, pauser.recorded(), 2)
}

func TestFetchIgnoresMarkerInsideArchive(t *testing.T) {
	t.Parallel()

	body := append([]byte("PK\x03\x04"), []byte(DefaultBlockMarker)...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	f := newTestFetcher(Config{}, &recordingPauser{})
	blob, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, body, blob.Bytes)
}

type countingLimiter struct{ calls atomic.Int32 }

func (l *countingLimiter) Wait(context.Context, string) error {
	l.calls.Add(1)
	return nil
}

func TestFetchConsultsLimiterPerAttempt(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(zipBody)
	}))
	defer srv.Close()

	limiter := &countingLimiter{}
	f := newTestFetcher(Config{}, &recordingPauser{}, WithLimiter(limiter))
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.EqualValues(t, 2, limiter.calls.Load())
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(zipBody)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := newTestFetcher(Config{}, &recordingPauser{})
	_, err := f.Fetch(ctx, srv.URL)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestTimerPauseControllerNotifies(t *testing.T) {
	t.Parallel()

	p := &timerPauseController{interval: 10 * time.Millisecond}
	var notices atomic.Int32
	err := p.Pause(context.Background(), 55*time.Millisecond, func(time.Duration) { notices.Add(1) })
	require.NoError(t, err)
	require.GreaterOrEqual(t, notices.Load(), int32(2))
}

func TestTimerPauseControllerCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &timerPauseController{interval: time.Second}
	err := p.Pause(ctx, time.Hour, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLinearRetryPolicy(t *testing.T) {
	t.Parallel()

	p := NewLinearRetryPolicy(0, 0)
	require.Equal(t, 3, p.MaxAttempts())
	require.Equal(t, time.Second, p.Backoff(1))
	require.Equal(t, 3*time.Second, p.Backoff(3))
	require.True(t, p.Retryable(&tender.HTTPError{Code: 500}))
	require.True(t, p.Retryable(errReadTimeout))
	require.False(t, p.Retryable(&tender.TooLargeError{Limit: 1}))
	require.False(t, p.Retryable(&tender.BlockedError{}))
	require.False(t, p.Retryable(tender.ErrEmptyBody))
	require.False(t, p.Retryable(context.DeadlineExceeded))
}

package httpfetcher

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/text/encoding/unicode"
)

var errReadTimeout = errors.New("read timeout")

// idleTimeoutReader cancels the request when no bytes arrive for d.
type idleTimeoutReader struct {
	r     io.Reader
	d     time.Duration
	timer *time.Timer
	fired atomic.Bool
}

func newIdleTimeoutReader(r io.Reader, d time.Duration, cancel func()) *idleTimeoutReader {
	ir := &idleTimeoutReader{r: r, d: d}
	ir.timer = time.AfterFunc(d, func() {
		ir.fired.Store(true)
		cancel()
	})
	return ir
}

func (r *idleTimeoutReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.timer.Reset(r.d)
	}
	return n, err
}

func (r *idleTimeoutReader) stop() { r.timer.Stop() }

func (r *idleTimeoutReader) expired() bool { return r.fired.Load() }

// errorMessage builds the HTTPError message from the status text and a short,
// UTF-8 safe excerpt of the body.
func errorMessage(resp *http.Response) string {
	msg := http.StatusText(resp.StatusCode)
	snippet, err := io.ReadAll(io.LimitReader(resp.Body, errorSnippetBytes))
	if err != nil || len(snippet) == 0 {
		return msg
	}
	text := sanitizeUTF8(snippet)
	text = strings.TrimSpace(text)
	if text == "" {
		return msg
	}
	if msg == "" {
		return text
	}
	return msg + ": " + text
}

func sanitizeUTF8(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}

// Package soap implements tender.QueryService against the document service's
// SOAP endpoint.
package soap

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/metrics"
	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

const (
	// DefaultWSDL is the production service description.
	DefaultWSDL = "https://int44.zakupki.gov.ru/eis-integration/services/getDocsIP?wsdl"
	// DefaultNamespace is the target namespace of the service operations.
	DefaultNamespace = "http://zakupki.gov.ru/fz44/get-docs-ip/ws"

	maxResponseBytes = 16 << 20
)

var _ tender.QueryService = (*Client)(nil)

// Config holds connection settings.
type Config struct {
	WSDLURL     string
	Namespace   string
	Token       string
	UserAgent   string
	OpenTimeout time.Duration
	ReadTimeout time.Duration
	SSLVerify   bool
}

// Endpoint is the WSDL URL without its query string.
func (c Config) Endpoint() string {
	u := c.WSDLURL
	if u == "" {
		u = DefaultWSDL
	}
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	return u
}

// Client posts query envelopes and returns the archive URLs in the response.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New builds a Client. A nil httpClient gets a transport built from cfg.
func New(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 120 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "tender-acquirer/1.0"
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.OpenTimeout + cfg.ReadTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   cfg.OpenTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   cfg.OpenTimeout,
				ResponseHeaderTimeout: cfg.ReadTimeout,
				IdleConnTimeout:       90 * time.Second,
				TLSClientConfig:       &tls.Config{InsecureSkipVerify: !cfg.SSLVerify}, //nolint:gosec // operator controlled
			},
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}
}

// ArchiveURLs runs the query and returns the archive URLs, in response order.
func (c *Client) ArchiveURLs(ctx context.Context, req tender.QueryRequest) ([]string, error) {
	op := operation(req)
	urls, err := c.call(ctx, op, req)
	if err != nil {
		metrics.ObserveQuery("error")
		c.logger.Error("document query failed", zap.String("operation", op), zap.Error(err))
		return nil, &tender.QueryError{Op: op, Err: err}
	}
	metrics.ObserveQuery("success")
	c.logger.Info("document query succeeded",
		zap.String("operation", op),
		zap.String("subsystem_type", req.SubsystemType),
		zap.Int("archives", len(urls)),
	)
	return urls, nil
}

func (c *Client) call(ctx context.Context, op string, req tender.QueryRequest) ([]string, error) {
	payload, err := buildEnvelope(c.cfg.Namespace, c.cfg.Token, req)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", `""`)
	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)

	c.logger.Debug("sending document query", zap.String("operation", op), zap.String("request_id", req.Envelope.ID))
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close query response", zap.Error(cerr))
		}
	}()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return parseResponse(resp.StatusCode, raw)
}

var errNoDataInfo = errors.New("no data info in response")

func parseResponse(status int, raw []byte) ([]string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		if status < 200 || status > 299 {
			return nil, fmt.Errorf("http error: %d", status)
		}
		return nil, errors.New("empty response")
	}
	doc, err := xmlquery.Parse(bytes.NewReader(raw))
	if err != nil {
		if status < 200 || status > 299 {
			return nil, fmt.Errorf("http error: %d", status)
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if fault := xmlquery.FindOne(doc, "//*[local-name()='Fault']"); fault != nil {
		msg := "unknown fault"
		if fs := xmlquery.FindOne(fault, "./*[local-name()='faultstring']"); fs != nil {
			msg = strings.TrimSpace(fs.InnerText())
		}
		return nil, fmt.Errorf("soap fault: %s", msg)
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("http error: %d", status)
	}
	dataInfo := xmlquery.FindOne(doc, "//*[local-name()='dataInfo']")
	if dataInfo == nil {
		return nil, errNoDataInfo
	}
	var urls []string
	for _, n := range xmlquery.Find(dataInfo, "./*[local-name()='archiveUrl']") {
		if u := strings.TrimSpace(n.InnerText()); u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

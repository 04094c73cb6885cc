// Package client provides the outbound HTTP client used to fetch target URLs.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"request-proxy-go/internal/config"
	"request-proxy-go/internal/metrics"
	"request-proxy-go/internal/model"
)

// HTTPClient performs outbound GET requests on behalf of form submissions.
type HTTPClient struct {
	httpClient   *http.Client
	logger       *slog.Logger
	metrics      *metrics.Metrics
	bodyMaxBytes int64
}

// NewHTTPClient creates an HTTPClient with connection pooling.
// No overall request timeout is set; the dialer and TLS handshake limits are
// transport concerns only. The metrics parameter is optional; pass nil to
// disable upstream metrics recording.
func NewHTTPClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *HTTPClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &HTTPClient{
		httpClient: &http.Client{Transport: transport},
		logger:     logger.With("component", "http_client"),
		metrics:    m,

		bodyMaxBytes: cfg.Upstream.BodyMaxBytes,
	}
}

// Get issues a single GET to rawURL with the given headers and reads the
// whole response body before returning. Redirects are followed by the
// underlying http.Client; the returned URL is the one that produced the
// final response, without its fragment.
func (c *HTTPClient) Get(ctx context.Context, rawURL string, header http.Header) (*model.FetchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header = header

	c.logger.Debug("outbound request", "host", req.URL.Host, "path", req.URL.Path)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(start, 0)
		return nil, fmt.Errorf("outbound request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := c.readBody(resp.Body)
	c.observe(start, resp.StatusCode)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	final := *resp.Request.URL
	final.Fragment, final.RawFragment = "", ""

	return &model.FetchResponse{
		StatusCode: resp.StatusCode,
		URL:        final.String(),
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (c *HTTPClient) readBody(r io.Reader) ([]byte, error) {
	if c.bodyMaxBytes <= 0 {
		return io.ReadAll(r)
	}

	lr := &io.LimitedReader{R: r, N: c.bodyMaxBytes + 1}
	body, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.bodyMaxBytes {
		c.logger.Warn("response body truncated", "limit_bytes", c.bodyMaxBytes)
		body = body[:c.bodyMaxBytes]
	}
	return body, nil
}

// observe records upstream metrics. A zero status means the request failed
// before a response arrived.
func (c *HTTPClient) observe(start time.Time, status int) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamDuration.WithLabelValues(http.MethodGet).Observe(time.Since(start).Seconds())
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	c.metrics.UpstreamResponses.WithLabelValues(http.MethodGet, label).Inc()
}

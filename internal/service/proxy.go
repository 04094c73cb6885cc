// Package service implements the form proxy: validation, header assembly and
// a single timed outbound GET.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"request-proxy-go/internal/metrics"
	"request-proxy-go/internal/model"
)

// MaxURLLength is the longest target URL accepted, in UTF-16 code units.
const MaxURLLength = 256

// ErrInvalidInput is returned when the submitted URL fails validation.
// No outbound request is made in that case.
var ErrInvalidInput = errors.New("invalid input")

// Fetcher performs one outbound GET and returns the fully read response.
type Fetcher interface {
	Get(ctx context.Context, rawURL string, header http.Header) (*model.FetchResponse, error)
}

// ProxyService validates form submissions and fetches the target URL.
type ProxyService struct {
	fetcher  Fetcher
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewProxyService creates a ProxyService.
// The metrics parameter is optional; pass nil to disable rejection counting.
func NewProxyService(f Fetcher, logger *slog.Logger, m *metrics.Metrics) *ProxyService {
	return &ProxyService{
		fetcher:  f,
		validate: newValidator(),
		logger:   logger.With("component", "proxy_service"),
		metrics:  m,
	}
}

// Execute validates pr, performs exactly one GET against pr.URL and shapes
// the response. Validation failures wrap ErrInvalidInput; transport errors
// are returned wrapped but otherwise untouched.
func (s *ProxyService) Execute(ctx context.Context, pr *model.ProxyRequest) (*model.ProxyResult, error) {
	if err := s.validate.Struct(pr); err != nil {
		if s.metrics != nil {
			s.metrics.InvalidRequests.Inc()
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}

	header := buildHeader(pr.Headers)

	s.logger.Debug("fetching target", "url_length", len(pr.URL), "headers", len(header))

	start := time.Now()
	resp, err := s.fetcher.Get(ctx, pr.URL, header)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	took := time.Since(start).Milliseconds()

	return &model.ProxyResult{
		Status:  resp.StatusCode,
		OK:      resp.StatusCode >= 200 && resp.StatusCode <= 299,
		URL:     resp.URL,
		Headers: flattenHeader(resp.Header),
		Body:    string(resp.Body),
		Took:    took,
	}, nil
}

// buildHeader assembles the outbound header set. A repeated key replaces the
// earlier value.
func buildHeader(pairs []model.HeaderPair) http.Header {
	h := make(http.Header, len(pairs))
	for _, p := range pairs {
		h.Set(p.Key, p.Value)
	}
	return h
}

// flattenHeader collapses a response header into one value per lower-cased
// name. Repeated values are comma-joined, except Set-Cookie where the last
// one wins since cookies cannot be comma-joined safely.
func flattenHeader(src http.Header) map[string]string {
	dst := make(map[string]string, len(src))
	for key, vals := range src {
		if len(vals) == 0 {
			continue
		}
		name := strings.ToLower(key)
		if name == "set-cookie" {
			dst[name] = vals[len(vals)-1]
			continue
		}
		dst[name] = strings.Join(vals, ", ")
	}
	return dst
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", e.Field()))
		case "url":
			msgs = append(msgs, fmt.Sprintf("%s must be an absolute URL", e.Field()))
		case "authority":
			msgs = append(msgs, fmt.Sprintf("%s must have a scheme and a host", e.Field()))
		case "utf16max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed on the %q rule", e.Field(), e.Tag()))
		}
	}
	return strings.Join(msgs, ", ")
}

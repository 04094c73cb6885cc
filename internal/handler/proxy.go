package handler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"

	"github.com/labstack/echo/v4"

	"request-proxy-go/internal/model"
	"request-proxy-go/internal/service"
)

// Form field names accepted by the proxy endpoint.
const (
	fieldURL         = "url"
	fieldHeaderKey   = "header-key"
	fieldHeaderValue = "header-value"
)

// userinfoPattern matches the password part of URL userinfo in error messages.
var userinfoPattern = regexp.MustCompile(`(://[^/\s:@"]*:)[^/\s@"]*@`)

// ProxyHandler turns form submissions into outbound GETs.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle reads the form, runs the proxy service and writes the result as JSON.
// Rejected input yields 400 {"invalid":true}; a completed exchange yields 200
// whatever the target's own status was.
func (h *ProxyHandler) Handle(c echo.Context) error {
	pr, err := bindForm(c)
	if err != nil {
		h.logger.Debug("unreadable form", "err", err)
		return c.JSON(http.StatusBadRequest, model.ValidationFailure{Invalid: true})
	}

	res, err := h.service.Execute(c.Request().Context(), pr)
	if err != nil {
		return h.mapError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

// bindForm extracts the typed request from the submitted form body. The i-th
// header-key pairs with the i-th header-value; a key without a value gets an
// empty one and surplus values are dropped.
func bindForm(c echo.Context) (*model.ProxyRequest, error) {
	// FormParams parses both urlencoded and multipart bodies; PostForm then
	// holds body fields only, without the query string.
	if _, err := c.FormParams(); err != nil {
		return nil, err
	}
	form := c.Request().PostForm

	keys := form[fieldHeaderKey]
	values := form[fieldHeaderValue]

	pairs := make([]model.HeaderPair, len(keys))
	for i, k := range keys {
		pairs[i].Key = k
		if i < len(values) {
			pairs[i].Value = values[i]
		}
	}

	return &model.ProxyRequest{
		URL:     form.Get(fieldURL),
		Headers: pairs,
	}, nil
}

func (h *ProxyHandler) mapError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrInvalidInput) {
		h.logger.Debug("rejected submission", "reason", err.Error())
		return c.JSON(http.StatusBadRequest, model.ValidationFailure{Invalid: true})
	}

	h.logger.Error("proxy error", "err", sanitizeError(err))

	if errors.Is(err, context.DeadlineExceeded) {
		return c.JSON(http.StatusGatewayTimeout, map[string]string{
			"error": "target request timed out",
		})
	}

	if errors.Is(err, context.Canceled) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "client disconnected",
		})
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "target host unreachable",
		})
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "target request failed",
		})
	}

	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "internal error",
	})
}

// sanitizeError redacts URL passwords from error messages.
func sanitizeError(err error) string {
	return userinfoPattern.ReplaceAllString(err.Error(), "${1}[REDACTED]@")
}

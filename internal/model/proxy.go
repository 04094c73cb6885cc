// Package model defines shared types for the proxy.
package model

import "net/http"

// HeaderPair is one custom header row submitted with the form.
type HeaderPair struct {
	Key   string
	Value string
}

// ProxyRequest is a parsed form submission: the target URL and the custom
// headers in submission order.
type ProxyRequest struct {
	URL     string `validate:"required,url,authority,utf16max=256"`
	Headers []HeaderPair
}

// ProxyResult describes the outcome of one outbound GET.
type ProxyResult struct {
	Status  int               `json:"status"`
	OK      bool              `json:"ok"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
	Took    int64             `json:"took"`
}

// ValidationFailure is returned with 400 when the submitted URL is rejected.
type ValidationFailure struct {
	Invalid bool `json:"invalid"`
}

// FetchResponse is a fully materialized upstream response.
type FetchResponse struct {
	StatusCode int
	URL        string // final URL after redirects
	Header     http.Header
	Body       []byte
}

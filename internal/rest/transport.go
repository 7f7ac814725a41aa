package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Response is what a transport returns for a request that reached the
// server.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport sends built requests. Send returns an error only when no
// response was obtained; non-2xx responses are returned as values.
type Transport interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req Request) (*Response, error)

// Send implements Transport.
func (f TransportFunc) Send(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

const (
	defaultUserAgent      = "rdlink/0.1"
	defaultRequestTimeout = 30 * time.Second
	maxResponseBytes      = 8 << 20
)

// HTTPTransport sends requests with net/http.
type HTTPTransport struct {
	http      *http.Client
	userAgent string
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport builds a transport with the given per-request timeout.
// A zero timeout uses the default.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &HTTPTransport{
		http:      &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}
}

// Send implements Transport.
func (t *HTTPTransport) Send(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body.Data)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if req.Body != nil && req.Body.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.Body.ContentType)
	}
	if req.Expect == ResponseJSON && httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", ContentTypeJSON)
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

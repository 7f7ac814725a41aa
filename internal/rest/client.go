package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client binds a base URL, a registry and an interceptor. Concrete API
// clients embed it and declare their operations against the same registry.
type Client struct {
	baseURL     string
	registry    *Registry
	interceptor Interceptor
	transport   Transport
	logger      zerolog.Logger
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithTransport replaces the default HTTP transport.
func WithTransport(t Transport) ClientOption {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithLogger sets the logger used for per-call debug output.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient builds a Client. The registry must already hold the metadata
// of every operation the client will call.
func NewClient(baseURL string, registry *Registry, interceptor Interceptor, opts ...ClientOption) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("base url is empty")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	c := &Client{
		baseURL:     trimmed,
		registry:    registry,
		interceptor: interceptor,
		transport:   NewHTTPTransport(0),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Build assembles the request for op without sending it.
func (c *Client) Build(op Operation, args Args) (Request, error) {
	return Build(c.baseURL, op, c.registry.Lookup(op.Key()), args)
}

// Do builds, dispatches and decodes one call. dest may be nil when the
// response carries nothing of interest.
func (c *Client) Do(ctx context.Context, op Operation, args Args, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	c.registry.Seal()

	req, err := c.Build(op, args)
	if err != nil {
		return err
	}

	start := time.Now()
	body, err := Dispatch(ctx, c.transport, c.interceptor, req)
	event := c.logger.Debug().
		Str("op", op.Key().String()).
		Str("method", req.Method).
		Str("url", req.URL).
		Dur("elapsed", time.Since(start))
	if err != nil {
		event.Err(err).Msg("call failed")
		return err
	}
	event.Int("bytes", len(body)).Msg("call completed")

	if dest == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s response: %w", op.Key(), err)
	}
	return nil
}

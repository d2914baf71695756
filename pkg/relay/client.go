// Package relay sends payloads to the relay server.
//
// The package assembles URLs, authentication headers and the POST request.
// It does not interpret responses; a non-2xx status is returned, not raised.
package relay

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bak-libra26/note-relay/pkg/core"
	"github.com/bak-libra26/note-relay/pkg/payload"
)

// MaxResponseBytes caps how much of a response body is kept.
const MaxResponseBytes = 1 << 20

// Doer performs HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Response is the part of an HTTP response the reconciler inspects.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// ContentType returns the Content-Type header.
func (r *Response) ContentType() string {
	if r == nil {
		return ""
	}
	return r.Header.Get("Content-Type")
}

// BuildURL joins base, endpoint and identifier with exactly one slash
// between each, percent-encoding the identifier. An empty identifier adds
// no trailing segment.
func BuildURL(base, endpoint, identifier string) string {
	u := strings.TrimRight(base, "/")
	if ep := strings.Trim(endpoint, "/"); ep != "" {
		u += "/" + ep
	}
	if identifier != "" {
		u += "/" + url.PathEscape(identifier)
	}
	return u
}

// AuthHeaders returns the Authorization header for auth. Missing credentials
// and unknown modes yield no header.
func AuthHeaders(auth core.AuthConfig) http.Header {
	h := make(http.Header)
	switch auth.Mode {
	case core.AuthBasic:
		if auth.Username != "" && auth.Password != "" {
			encoded := base64.StdEncoding.EncodeToString([]byte(auth.Username + ":" + auth.Password))
			h.Set("Authorization", "Basic "+encoded)
		}
	case core.AuthToken:
		if auth.Token != "" {
			h.Set("Authorization", "Bearer "+auth.Token)
		}
	}
	return h
}

// Client posts payloads through a Doer.
type Client struct {
	doer   Doer
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDoer replaces the default *http.Client.
func WithDoer(d Doer) Option {
	return func(c *Client) {
		c.doer = d
	}
}

// WithLogger sets the logger. Nil means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client. Without WithDoer it uses an *http.Client
// with cfg.Timeout.
func NewClient(cfg core.SyncConfig, opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.doer == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = core.DefaultTimeout
		}
		c.doer = &http.Client{Timeout: timeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Send POSTs p to target. Transport failures wrap core.ErrNetwork.
func (c *Client) Send(ctx context.Context, target string, p *payload.Payload, headers http.Header) (*Response, error) {
	if p == nil {
		return nil, fmt.Errorf("no payload to send")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(p.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", p.ContentType)

	c.logger.Debug("sending note", "url", target, "mode", p.Mode, "bytes", len(p.Body))
	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", core.ErrNetwork, err)
	}
	c.logger.Debug("relay responded", "url", target, "status", resp.StatusCode)

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}

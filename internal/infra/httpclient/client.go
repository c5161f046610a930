package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/alxtravel/server/internal/shared/config"
)

// MaxResponseBody caps how much of a response body is read.
const MaxResponseBody = 1 << 20

// New creates the pooled HTTP client shared by outbound gateways.
// Zero values in cfg fall back to the defaults below.
func New(cfg config.HTTPClientConfig) *http.Client {
	cfg = withDefaults(cfg)

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: cfg.KeepAlive,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.ResponseTimeout,
	}
}

func withDefaults(cfg config.HTTPClientConfig) config.HTTPClientConfig {
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = 100
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = 10
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = 90 * time.Second
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.TLSHandshakeTimeout <= 0 {
		cfg.TLSHandshakeTimeout = 5 * time.Second
	}
	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = 30 * time.Second
	}
	return cfg
}

// Request is a single JSON API call.
type Request struct {
	Method string
	URL    string
	// Token is sent as a bearer Authorization header when set.
	Token string
	// Body is sent as application/json when non-nil.
	Body []byte
}

// Response is the status and (size-capped) body of a completed call.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSONClient issues JSON requests with a per-call deadline.
type JSONClient struct {
	client  *http.Client
	timeout time.Duration
}

// NewJSONClient wraps client. A non-positive timeout leaves calls bounded
// only by the caller's context and the client's own timeout.
func NewJSONClient(client *http.Client, timeout time.Duration) *JSONClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &JSONClient{client: client, timeout: timeout}
}

// Do sends req and reads the response body. A non-nil error means the call
// did not complete (transport failure, deadline, unreadable body); any HTTP
// status, including 4xx and 5xx, is returned as a Response.
func (c *JSONClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: raw}, nil
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	ghAPI "github.com/cli/go-gh/v2/pkg/api"
	"go.uber.org/zap"
)

// Options configures a Client.
type Options struct {
	BaseURL     string // e.g. https://scale.example.com/api/v5/
	Token       string
	Timeout     time.Duration
	Logger      *zap.Logger
	VerboseHTTP bool
	// Transport overrides the underlying round tripper, mainly for tests.
	Transport http.RoundTripper
}

type Client struct {
	http *http.Client
	base *url.URL
	log  *zap.Logger
}

// NewClient builds a client on go-gh's authenticated HTTP client. Scale
// expects DRF token auth, so the Authorization header is sent explicitly and
// only to the configured host.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api url %q must be absolute", opts.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	headers := map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json; charset=utf-8",
	}
	token, host := opts.Token, base.Hostname()
	if token == "" {
		// go-gh refuses to build a client without a token. Binding the
		// placeholder to a host we never call keeps it off the wire.
		token, host = "anonymous", "anonymous.invalid"
	} else {
		headers["Authorization"] = "Token " + opts.Token
	}

	clientOpts := ghAPI.ClientOptions{
		AuthToken:          token,
		Host:               host,
		Headers:            headers,
		SkipDefaultHeaders: true,
		Timeout:            opts.Timeout,
		Transport:          opts.Transport,
		LogIgnoreEnv:       true,
	}
	if opts.VerboseHTTP {
		std, err := zap.NewStdLogAt(opts.Logger.Named("http"), zap.DebugLevel)
		if err == nil {
			clientOpts.Log = std.Writer()
			clientOpts.LogVerboseHTTP = true
		}
	}
	httpClient, err := ghAPI.NewHTTPClient(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create Scale client: %w", err)
	}
	return &Client{http: httpClient, base: base, log: opts.Logger}, nil
}

// BaseURL returns the API root every path is resolved against.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// URL resolves a relative API path such as "jobs/" plus a query.
func (c *Client) URL(path string, q url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(path, "/")})
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) Get(ctx context.Context, path string, q url.Values, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, q, nil, result)
}

func (c *Client) Post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, result)
}

func (c *Client) Patch(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, result)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// RawRequest issues a request and returns the response without checking the
// status code. Used for plain text log downloads.
func (c *Client) RawRequest(ctx context.Context, method, path string, q url.Values, body io.Reader, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, q), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.log.Debug("request",
		zap.String("method", method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	resp, err := c.RawRequest(ctx, method, path, q, reader, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(method, path, resp)
	}
	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(result); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

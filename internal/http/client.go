package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Common errors.
var (
	ErrNotFound     = errors.New("http: resource not found")
	ErrForbidden    = errors.New("http: access forbidden")
	ErrUnauthorized = errors.New("http: unauthorized")
	ErrServerError  = errors.New("http: server error")
	ErrUnexpected   = errors.New("http: unexpected status")

	// ErrIdleTimeout is returned by Response.Body when no bytes arrived
	// for Options.Timeout.
	ErrIdleTimeout = errors.New("http: body read timed out")
)

// StatusError is returned for any response outside the 2xx range.
// It unwraps to one of the package's sentinel errors.
type StatusError struct {
	Code   int
	Status string
	err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %s", e.err, e.Status)
}

func (e *StatusError) Unwrap() error {
	return e.err
}

// Options configures the HTTP client.
type Options struct {
	// MaxIdleConnsPerHost sets the maximum idle connections per host.
	// Default: 16
	MaxIdleConnsPerHost int

	// Timeout bounds connecting, waiting for response headers and every
	// gap between body reads. A body that keeps arriving is never cut off.
	// Default: 5m
	Timeout time.Duration

	// UserAgent is sent with every request.
	// Default: "tlcfetch"
	UserAgent string
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxIdleConnsPerHost: 16,
		Timeout:             5 * time.Minute,
		UserAgent:           "tlcfetch",
	}
}

// Response is a successful response whose body has not been read yet.
type Response struct {
	Body io.ReadCloser

	// ContentLength is the declared size, -1 when unknown.
	ContentLength int64

	ETag         string
	LastModified time.Time
}

// Client is an HTTP client for large file downloads.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a new HTTP client with the given options.
// Zero fields in opts take their value from DefaultOptions.
func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = def.MaxIdleConnsPerHost
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}

	dialer := &net.Dialer{
		Timeout:   opts.Timeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConnsPerHost:   opts.MaxIdleConnsPerHost,
		MaxIdleConns:          opts.MaxIdleConnsPerHost * 2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   opts.Timeout,
		ResponseHeaderTimeout: opts.Timeout,
		DisableCompression:    true, // Content-Length must describe the raw bytes
	}

	return &Client{
		client: &http.Client{Transport: transport},
		opts:   opts,
	}
}

// Get issues a single GET request for url. On success the caller owns
// resp.Body and must close it. Reading the body fails with ErrIdleTimeout
// once the server stalls for longer than Options.Timeout.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		cancel()
		return nil, err
	}

	r := &Response{
		Body:          newIdleReader(resp.Body, c.opts.Timeout, cancel),
		ContentLength: resp.ContentLength,
		ETag:          cleanETag(resp.Header.Get("ETag")),
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			r.LastModified = t
		}
	}
	return r, nil
}

// checkStatus returns a *StatusError for non-success status codes.
func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	var err error
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		err = ErrNotFound
	case code == http.StatusForbidden:
		err = ErrForbidden
	case code == http.StatusUnauthorized:
		err = ErrUnauthorized
	case code >= 500:
		err = ErrServerError
	default:
		err = ErrUnexpected
	}
	return &StatusError{Code: code, Status: resp.Status, err: err}
}

// cleanETag removes quotes from an ETag value.
func cleanETag(etag string) string {
	etag = strings.TrimPrefix(etag, "W/")
	etag = strings.Trim(etag, `"`)
	return etag
}

package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestGet(t *testing.T) {
	data := []byte("Hello, World! This is a trip-record file.")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); ua != "tlcfetch" {
			t.Errorf("expected User-Agent tlcfetch, got %q", ua)
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("ETag", `"abc123"`)
		w.Header().Set("Last-Modified", "Wed, 01 Jan 2025 00:00:00 GMT")
		w.Write(data)
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()

	if resp.ContentLength != int64(len(data)) {
		t.Errorf("expected content length %d, got %d", len(data), resp.ContentLength)
	}
	if resp.ETag != "abc123" {
		t.Errorf("expected ETag 'abc123', got %s", resp.ETag)
	}
	if resp.LastModified.IsZero() {
		t.Error("expected LastModified to be parsed")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(body) != string(data) {
		t.Errorf("unexpected body %q", body)
	}
}

func TestGetStatusErrors(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusServiceUnavailable, ErrServerError},
		{http.StatusTeapot, ErrUnexpected},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.code), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			}))
			defer server.Close()

			client := NewClient(DefaultOptions())
			_, err := client.Get(context.Background(), server.URL)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected *StatusError, got %T", err)
			}
			if se.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, se.Code)
			}
		})
	}
}

func TestGetDoesNotRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	if _, err := client.Get(context.Background(), server.URL); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestHeaderTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	opts := DefaultOptions()
	opts.Timeout = 50 * time.Millisecond

	client := NewClient(opts)
	if _, err := client.Get(context.Background(), server.URL); err == nil {
		t.Error("expected timeout error")
	}
}

func TestContextCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(DefaultOptions())
	_, err := client.Get(ctx, server.URL)
	if err == nil {
		t.Error("expected error due to context cancellation")
	}
}

func TestBodyIdleTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4096")
		w.Write(make([]byte, 100))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	opts := DefaultOptions()
	opts.Timeout = 100 * time.Millisecond

	resp, err := NewClient(opts).Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()

	start := time.Now()
	n, err := io.Copy(io.Discard, resp.Body)
	if !errors.Is(err, ErrIdleTimeout) {
		t.Fatalf("expected ErrIdleTimeout, got %v", err)
	}
	if n != 100 {
		t.Errorf("expected 100 bytes before the stall, got %d", n)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("stalled body took %v to fail", elapsed)
	}
}

func TestBodySlowButSteady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "10")
		for i := 0; i < 10; i++ {
			w.Write([]byte{byte(i)})
			w.(http.Flusher).Flush()
			time.Sleep(30 * time.Millisecond)
		}
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.Timeout = 150 * time.Millisecond

	resp, err := NewClient(opts).Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()

	// Takes about twice the timeout in total, but never idles that long.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(body) != 10 {
		t.Errorf("expected 10 bytes, got %d", len(body))
	}
}

func TestCleanETag(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"abc123"`, "abc123"},
		{`W/"abc123"`, "abc123"},
		{"abc123", "abc123"},
		{`""`, ""},
	}

	for _, tt := range tests {
		result := cleanETag(tt.input)
		if result != tt.expected {
			t.Errorf("cleanETag(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

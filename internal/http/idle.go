package http

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// idleReader cancels the request when no bytes arrive for timeout. The
// timer restarts after every read that returns data.
type idleReader struct {
	body    io.ReadCloser
	timeout time.Duration
	timer   *time.Timer
	cancel  context.CancelFunc
	expired atomic.Bool
}

func newIdleReader(body io.ReadCloser, timeout time.Duration, cancel context.CancelFunc) *idleReader {
	r := &idleReader{
		body:    body,
		timeout: timeout,
		cancel:  cancel,
	}
	r.timer = time.AfterFunc(timeout, func() {
		r.expired.Store(true)
		cancel()
	})
	return r
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.body.Read(p)
	if n > 0 && !r.expired.Load() {
		r.timer.Reset(r.timeout)
	}
	if err != nil && err != io.EOF && r.expired.Load() {
		return n, fmt.Errorf("%w: no data for %v", ErrIdleTimeout, r.timeout)
	}
	return n, err
}

// Close stops the timer and releases the request.
func (r *idleReader) Close() error {
	r.timer.Stop()
	err := r.body.Close()
	r.cancel()
	return err
}

package downloader

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/ligustah/tlcfetch/internal/catalog"
	tlchttp "github.com/ligustah/tlcfetch/internal/http"
	"github.com/ligustah/tlcfetch/internal/storage"
)

// Fetcher downloads single tasks into a store.
type Fetcher struct {
	client *tlchttp.Client
	store  *storage.Store
	opts   Options
}

// NewFetcher creates a Fetcher writing to store.
func NewFetcher(store *storage.Store, opts Options) *Fetcher {
	return &Fetcher{
		client: tlchttp.NewClient(opts.HTTPOptions),
		store:  store,
		opts:   opts.withDefaults(),
	}
}

// Fetch downloads task, retrying failed attempts with exponential backoff.
// Errors are reported in the returned Outcome, never returned.
func (f *Fetcher) Fetch(ctx context.Context, task catalog.Task) Outcome {
	start := time.Now()
	out := Outcome{Task: task}
	log := f.opts.Logger.With(zap.String("file", task.Key))

	op := func() error {
		out.Attempts++
		log.Debug("fetching", zap.String("url", task.URL), zap.Int("attempt", out.Attempts))
		return f.attempt(ctx, task, &out)
	}

	notify := func(err error, wait time.Duration) {
		log.Warn("attempt failed, retrying",
			zap.Int("attempt", out.Attempts),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(f.newBackOff(), uint64(f.opts.Attempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(op, b, notify)
	out.Duration = time.Since(start)

	if err != nil {
		out.Status = StatusFailed
		if ctx.Err() != nil {
			out.Err = fmt.Errorf("%s: %w", task.Key, err)
		} else {
			out.Err = fmt.Errorf("%w: %s after %d attempts: %w", ErrExhausted, task.Key, out.Attempts, err)
		}
		log.Error("download failed", zap.Int("attempts", out.Attempts), zap.Error(err))
		return out
	}

	remote := []zap.Field{zap.String("etag", out.ETag)}
	if !out.LastModified.IsZero() {
		remote = append(remote, zap.Time("last_modified", out.LastModified))
	}
	switch out.Status {
	case StatusSkipped:
		log.Info("already present", remote...)
	default:
		log.Info("downloaded", append(remote,
			zap.Int64("bytes", out.Bytes),
			zap.Int("attempts", out.Attempts),
			zap.Duration("duration", out.Duration),
		)...)
	}
	return out
}

// newBackOff returns Backoff, 2*Backoff, 4*Backoff, ... without jitter or cap.
func (f *Fetcher) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.opts.Backoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// attempt performs one request and records its result in out. The stored
// object is only replaced once the whole body has been written.
func (f *Fetcher) attempt(ctx context.Context, task catalog.Task, out *Outcome) error {
	out.Bytes = 0

	resp, err := f.client.Get(ctx, task.URL)
	if err != nil {
		return fmt.Errorf("get %s: %w", task.URL, err)
	}
	// Closing an unread body drops the connection instead of reusing it.
	defer resp.Body.Close()

	out.ETag = resp.ETag
	out.LastModified = resp.LastModified

	size, ok, err := f.store.Size(ctx, task.Key)
	if err != nil {
		return err
	}
	if ok && size > 0 && size == resp.ContentLength {
		out.Status = StatusSkipped
		return nil
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := f.store.NewWriter(wctx, task.Key)
	if err != nil {
		return err
	}

	n, err := f.copy(w, resp.Body)
	out.Bytes = n
	if err == nil && resp.ContentLength >= 0 && n != resp.ContentLength {
		err = fmt.Errorf("%w: got %d of %d bytes", ErrShortBody, n, resp.ContentLength)
	}
	if err != nil {
		cancel() // abort the write
		w.Close()
		return err
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", task.Key, err)
	}
	out.Status = StatusSucceeded
	return nil
}

// copy streams src into dst in ChunkSize pieces.
func (f *Fetcher) copy(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, f.opts.ChunkSize)
	var written int64

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			nw, writeErr := dst.Write(buf[:n])
			written += int64(nw)
			if f.opts.Progress != nil {
				f.opts.Progress.BytesWritten(int64(nw))
			}
			if writeErr != nil {
				return written, fmt.Errorf("write: %w", writeErr)
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, fmt.Errorf("read: %w", readErr)
		}
	}
}

package downloader

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ligustah/tlcfetch/internal/catalog"
	tlchttp "github.com/ligustah/tlcfetch/internal/http"
	"github.com/ligustah/tlcfetch/internal/progress"
)

// Defaults applied to zero Options fields.
const (
	DefaultWorkers   = 4
	DefaultAttempts  = 3
	DefaultBackoff   = time.Second
	DefaultChunkSize = 8 * 1024
)

var (
	// ErrExhausted wraps the last error of a task that failed every attempt.
	ErrExhausted = errors.New("downloader: retries exhausted")

	// ErrShortBody is returned when the body ends before Content-Length.
	ErrShortBody = errors.New("downloader: body shorter than content length")
)

// Options configures the downloader.
type Options struct {
	// Workers is the number of files downloaded concurrently.
	Workers int

	// Attempts is the number of tries per file, including the first.
	Attempts int

	// Backoff is the delay after the first failed attempt. It doubles
	// after every further failure.
	Backoff time.Duration

	// ChunkSize is the size of each write to storage.
	ChunkSize int

	// HTTPOptions configures the HTTP client.
	HTTPOptions tlchttp.Options

	// Progress is an optional progress reporter.
	Progress *progress.Reporter

	// Logger receives per-file logs. Default: no logging.
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	if o.Backoff <= 0 {
		o.Backoff = DefaultBackoff
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Status is the terminal state of a task.
type Status int

const (
	StatusFailed Status = iota
	StatusSucceeded
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Outcome is the result of fetching one task.
type Outcome struct {
	Task     catalog.Task
	Status   Status
	Err      error
	Attempts int
	Bytes    int64 // written by the final attempt
	Duration time.Duration

	// ETag and LastModified describe the remote file as last served.
	ETag         string
	LastModified time.Time
}

// Summary aggregates the outcomes of a run.
type Summary struct {
	Total      int
	Successful int // succeeded and skipped
	Skipped    int
	Failed     int
	Bytes      int64
	Failures   []Outcome
	Elapsed    time.Duration
}

func (s *Summary) add(o Outcome) {
	switch o.Status {
	case StatusSucceeded:
		s.Successful++
		s.Bytes += o.Bytes
	case StatusSkipped:
		s.Successful++
		s.Skipped++
	default:
		s.Failed++
		s.Failures = append(s.Failures, o)
	}
}

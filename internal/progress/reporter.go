package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
)

// Options configures the progress reporter.
type Options struct {
	// TotalFiles is the number of files in the run.
	TotalFiles int

	// Workers is the number of parallel workers (for display).
	Workers int

	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is the minimum time between redraws.
	// Default: 500ms
	UpdateInterval time.Duration

	// SourceURL is the origin being downloaded from (for display).
	SourceURL string

	// Destination is where files are written (for display).
	Destination string
}

// Stats is a snapshot of the reporter's counters.
type Stats struct {
	Succeeded  int
	Skipped    int
	Failed     int
	InProgress int
	Bytes      int64
}

// Reporter outputs human-readable progress information.
type Reporter struct {
	opts Options
	bar  *progressbar.ProgressBar

	mu         sync.Mutex
	bytes      atomic.Int64
	succeeded  atomic.Int32
	skipped    atomic.Int32
	failed     atomic.Int32
	inProgress atomic.Int32
	startTime  time.Time
	stopped    bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}

	bar := progressbar.NewOptions(opts.TotalFiles,
		progressbar.OptionSetWriter(opts.Output),
		progressbar.OptionSetDescription("[tlcfetch]"),
		progressbar.OptionSetItsString("file"),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(opts.UpdateInterval),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(opts.Output)
		}),
	)

	return &Reporter{
		opts:      opts,
		bar:       bar,
		startTime: time.Now(),
	}
}

// Start prints the run header and resets the clock.
func (r *Reporter) Start() {
	r.startTime = time.Now()

	fmt.Fprintf(r.opts.Output, "[tlcfetch] Downloading: %s\n", r.opts.SourceURL)
	fmt.Fprintf(r.opts.Output, "[tlcfetch] Files: %d | Workers: %d | Destination: %s\n",
		r.opts.TotalFiles,
		r.opts.Workers,
		r.opts.Destination,
	)
}

// Stop finishes the bar and prints the final status. Safe to call twice.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	r.bar.Finish()
	r.printFinalStatus()
}

// FileStarted marks a file as in progress.
func (r *Reporter) FileStarted() {
	r.inProgress.Add(1)
}

// BytesWritten records n bytes written to storage.
func (r *Reporter) BytesWritten(n int64) {
	r.bytes.Add(n)
}

// FileSucceeded marks an in-progress file as downloaded.
func (r *Reporter) FileSucceeded() {
	r.succeeded.Add(1)
	r.fileDone()
}

// FileSkipped marks an in-progress file as already present.
func (r *Reporter) FileSkipped() {
	r.skipped.Add(1)
	r.fileDone()
}

// FileFailed marks an in-progress file as failed.
func (r *Reporter) FileFailed() {
	r.failed.Add(1)
	r.fileDone()
}

// Stats returns the current counters.
func (r *Reporter) Stats() Stats {
	return Stats{
		Succeeded:  int(r.succeeded.Load()),
		Skipped:    int(r.skipped.Load()),
		Failed:     int(r.failed.Load()),
		InProgress: int(r.inProgress.Load()),
		Bytes:      r.bytes.Load(),
	}
}

func (r *Reporter) fileDone() {
	r.inProgress.Add(-1)
	r.bar.Describe(fmt.Sprintf("[tlcfetch] %d ok, %d skipped, %d failed",
		r.succeeded.Load(),
		r.skipped.Load(),
		r.failed.Load(),
	))
	r.bar.Add(1)
}

// printFinalStatus outputs the final status.
func (r *Reporter) printFinalStatus() {
	s := r.Stats()
	duration := time.Since(r.startTime)
	avgSpeed := float64(s.Bytes) / duration.Seconds()

	fmt.Fprintf(r.opts.Output, "[tlcfetch] Files: %d downloaded | %d skipped | %d failed\n",
		s.Succeeded,
		s.Skipped,
		s.Failed,
	)
	fmt.Fprintf(r.opts.Output, "[tlcfetch] Transferred: %s in %s | Average speed: %s/s\n",
		FormatBytes(s.Bytes),
		FormatDuration(duration),
		FormatBytes(int64(avgSpeed)),
	)
}

// FormatBytes formats bytes as a human-readable IEC string ("1.5 MiB").
func FormatBytes(b int64) string {
	if b < 0 {
		b = 0
	}
	return humanize.IBytes(uint64(b))
}

// FormatDuration formats a duration as a human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// ParseBytes parses a human-readable byte string. Both SI ("1KB" = 1000)
// and IEC ("1KiB" = 1024) units are accepted.
func ParseBytes(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid byte string: %s", s)
	}
	return int64(n), nil
}

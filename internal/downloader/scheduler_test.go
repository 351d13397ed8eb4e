package downloader

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ligustah/tlcfetch/internal/catalog"
	"github.com/ligustah/tlcfetch/internal/progress"
	"github.com/ligustah/tlcfetch/internal/testutils"
)

func planTasks(base, root string, categories []catalog.Category, n int) []catalog.Task {
	months := catalog.Between(
		catalog.Month{Year: 2023, Month: time.November},
		catalog.Month{Year: 2023, Month: time.November},
	)
	for len(months) < n {
		months = append(months, months[len(months)-1].Next())
	}
	return catalog.Plan(catalog.Spec{
		Base:       base,
		Root:       root,
		Categories: categories,
		Months:     months,
	})
}

func TestRunIsolation(t *testing.T) {
	origin := testutils.NewOrigin(t)
	store := openTestStore(t)

	tasks := planTasks(origin.URL, store.Root(), []catalog.Category{catalog.Yellow, catalog.Green}, 3)
	for i, task := range tasks {
		origin.Add(filepath.Base(task.Path), testutils.ParquetFile(1500+i, byte(i)))
	}
	bad := tasks[2]
	origin.FailNext(filepath.Base(bad.Path), -1)

	opts := fastOptions()
	opts.Workers = 2
	sum, err := Download(context.Background(), store, tasks, opts)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}

	if sum.Total != len(tasks) {
		t.Errorf("expected total %d, got %d", len(tasks), sum.Total)
	}
	if sum.Successful != len(tasks)-1 {
		t.Errorf("expected %d successful, got %d", len(tasks)-1, sum.Successful)
	}
	if sum.Failed != 1 {
		t.Fatalf("expected 1 failed, got %d", sum.Failed)
	}
	if sum.Failures[0].Task.Key != bad.Key {
		t.Errorf("expected failure for %s, got %s", bad.Key, sum.Failures[0].Task.Key)
	}

	for _, task := range tasks {
		_, err := os.Stat(task.Path)
		if task.Key == bad.Key {
			if !os.IsNotExist(err) {
				t.Errorf("expected no file for failing task, got %v", err)
			}
			continue
		}
		if err != nil {
			t.Errorf("expected %s on disk: %v", task.Path, err)
		}
	}
}

func TestRunIdempotent(t *testing.T) {
	origin := testutils.NewOrigin(t)
	store := openTestStore(t)

	tasks := planTasks(origin.URL, store.Root(), catalog.Categories(), 3)
	var total int64
	for i, task := range tasks {
		data := testutils.ParquetFile(2000+i*10, byte(i))
		total += int64(len(data))
		origin.Add(filepath.Base(task.Path), data)
	}

	first, err := Download(context.Background(), store, tasks, fastOptions())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Successful != len(tasks) || first.Skipped != 0 {
		t.Fatalf("first run: unexpected summary %+v", first)
	}
	if first.Bytes != total {
		t.Errorf("first run: expected %d bytes, got %d", total, first.Bytes)
	}

	second, err := Download(context.Background(), store, tasks, fastOptions())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Skipped != len(tasks) || second.Successful != len(tasks) {
		t.Errorf("second run: expected all %d skipped, got %+v", len(tasks), second)
	}
	if second.Bytes != 0 {
		t.Errorf("second run: expected 0 bytes transferred, got %d", second.Bytes)
	}
}

func TestDownloadCreatesCategoryDirs(t *testing.T) {
	origin := testutils.NewOrigin(t)
	store := openTestStore(t)

	tasks := planTasks(origin.URL, store.Root(), []catalog.Category{catalog.FHV, catalog.FHVHV}, 1)

	opts := fastOptions()
	opts.Attempts = 1
	sum, err := Download(context.Background(), store, tasks, opts)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if sum.Failed != 2 {
		t.Errorf("expected 2 failures from 404s, got %d", sum.Failed)
	}

	for _, c := range []catalog.Category{catalog.FHV, catalog.FHVHV} {
		fi, err := os.Stat(filepath.Join(store.Root(), string(c)))
		if err != nil || !fi.IsDir() {
			t.Errorf("expected directory for %s: %v", c, err)
		}
	}
}

// fakeFetcher sleeps for each task and records concurrency.
type fakeFetcher struct {
	delay    time.Duration
	fail     map[string]bool
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeFetcher) Fetch(ctx context.Context, task catalog.Task) Outcome {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[task.Key]++
	f.mu.Unlock()

	time.Sleep(f.delay)

	if f.fail[task.Key] {
		return Outcome{Task: task, Status: StatusFailed, Err: ErrExhausted}
	}
	return Outcome{Task: task, Status: StatusSucceeded, Bytes: 10}
}

func TestRunConcurrencyBound(t *testing.T) {
	tasks := planTasks("http://origin", "root", catalog.Categories(), 4) // 16 tasks
	f := &fakeFetcher{delay: 20 * time.Millisecond}

	sum := Run(context.Background(), tasks, f, Options{Workers: 3})

	if got := f.maxSeen.Load(); got > 3 {
		t.Errorf("expected at most 3 concurrent fetches, saw %d", got)
	}
	if got := f.maxSeen.Load(); got < 2 {
		t.Errorf("expected fetches to overlap, saw %d", got)
	}
	if sum.Successful != len(tasks) {
		t.Errorf("expected %d successful, got %d", len(tasks), sum.Successful)
	}
}

func TestRunEachTaskOnce(t *testing.T) {
	tasks := planTasks("http://origin", "root", catalog.Categories(), 6)
	f := &fakeFetcher{fail: map[string]bool{tasks[5].Key: true}}

	sum := Run(context.Background(), tasks, f, Options{Workers: 8})

	if len(f.calls) != len(tasks) {
		t.Fatalf("expected %d distinct tasks fetched, got %d", len(tasks), len(f.calls))
	}
	for key, n := range f.calls {
		if n != 1 {
			t.Errorf("task %s fetched %d times", key, n)
		}
	}
	if sum.Successful != len(tasks)-1 || sum.Failed != 1 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if sum.Bytes != int64(10*(len(tasks)-1)) {
		t.Errorf("expected %d bytes, got %d", 10*(len(tasks)-1), sum.Bytes)
	}
}

func TestRunNoTasks(t *testing.T) {
	f := &fakeFetcher{}
	sum := Run(context.Background(), nil, f, Options{})

	if sum.Total != 0 || sum.Successful != 0 || sum.Failed != 0 {
		t.Errorf("expected empty summary, got %+v", sum)
	}
	if len(f.calls) != 0 {
		t.Errorf("expected no fetches, got %d", len(f.calls))
	}
}

func TestRunReportsProgress(t *testing.T) {
	tasks := planTasks("http://origin", "root", []catalog.Category{catalog.Yellow}, 5)
	f := &fakeFetcher{fail: map[string]bool{tasks[0].Key: true}}

	reporter := progress.NewReporter(progress.Options{
		TotalFiles: len(tasks),
		Output:     io.Discard,
	})
	Run(context.Background(), tasks, f, Options{Workers: 2, Progress: reporter})

	s := reporter.Stats()
	if s.Succeeded != 4 || s.Failed != 1 || s.InProgress != 0 {
		t.Errorf("unexpected progress stats %+v", s)
	}
}

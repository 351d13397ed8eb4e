package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ligustah/tlcfetch/internal/catalog"
	"github.com/ligustah/tlcfetch/internal/storage"
)

// TaskFetcher downloads a single task. *Fetcher implements it.
type TaskFetcher interface {
	Fetch(ctx context.Context, task catalog.Task) Outcome
}

// Download creates the category directories for tasks, then runs them with
// a Fetcher writing to store. The error is non-nil only when preparation
// fails, in which case nothing was downloaded.
func Download(ctx context.Context, store *storage.Store, tasks []catalog.Task, opts Options) (Summary, error) {
	opts = opts.withDefaults()

	seen := make(map[catalog.Category]bool)
	for _, t := range tasks {
		if seen[t.Category] {
			continue
		}
		seen[t.Category] = true
		if err := store.EnsureDir(string(t.Category)); err != nil {
			return Summary{}, fmt.Errorf("prepare %s: %w", t.Category, err)
		}
	}

	return Run(ctx, tasks, NewFetcher(store, opts), opts), nil
}

// Run fetches every task exactly once using at most opts.Workers concurrent
// fetches, and returns the aggregated outcomes. Outcomes are collected in
// completion order.
func Run(ctx context.Context, tasks []catalog.Task, f TaskFetcher, opts Options) Summary {
	opts = opts.withDefaults()
	start := time.Now()

	sum := Summary{Total: len(tasks)}
	if len(tasks) == 0 {
		return sum
	}

	workers := opts.Workers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	workCh := make(chan catalog.Task)
	resultCh := make(chan Outcome)

	// Start workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range workCh {
				if opts.Progress != nil {
					opts.Progress.FileStarted()
				}
				resultCh <- f.Fetch(ctx, task)
			}
		}()
	}

	// Send work
	go func() {
		for _, t := range tasks {
			workCh <- t
		}
		close(workCh)
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Collect results
	for out := range resultCh {
		sum.add(out)
		if opts.Progress != nil {
			switch out.Status {
			case StatusSucceeded:
				opts.Progress.FileSucceeded()
			case StatusSkipped:
				opts.Progress.FileSkipped()
			default:
				opts.Progress.FileFailed()
			}
		}
	}
	sum.Elapsed = time.Since(start)

	opts.Logger.Info("run complete",
		zap.Int("total", sum.Total),
		zap.Int("successful", sum.Successful),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
		zap.Int64("bytes", sum.Bytes),
		zap.Duration("elapsed", sum.Elapsed),
	)
	return sum
}

// Package downloader fetches planned trip-record files in parallel.
//
// A [Fetcher] downloads one task: it issues a streaming GET, skips the
// transfer when the stored object already has the declared size, and
// otherwise streams the body into storage in fixed-size chunks. Failed
// attempts are retried after an exponential backoff of Backoff * 2^attempt.
//
// [Run] dispatches tasks to a bounded pool of workers and aggregates their
// outcomes into a [Summary]. A failing task never affects the others.
//
// # Usage
//
//	sum, err := downloader.Download(ctx, store, tasks, downloader.Options{
//	    Workers:  4,
//	    Attempts: 3,
//	    Backoff:  time.Second,
//	    Logger:   logger,
//	})
//
// # Outcomes
//
// Every task ends in exactly one of StatusSucceeded, StatusSkipped or
// StatusFailed. Errors never cross from a task into the scheduler; they are
// carried in [Outcome.Err].
package downloader

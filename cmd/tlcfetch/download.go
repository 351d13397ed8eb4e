package main

import (
	"flag"
	"fmt"

	"go.uber.org/zap"

	"github.com/ligustah/tlcfetch/internal/catalog"
	"github.com/ligustah/tlcfetch/internal/config"
	"github.com/ligustah/tlcfetch/internal/downloader"
	tlchttp "github.com/ligustah/tlcfetch/internal/http"
	"github.com/ligustah/tlcfetch/internal/progress"
	"github.com/ligustah/tlcfetch/internal/report"
	"github.com/ligustah/tlcfetch/internal/storage"
)

// runDownload fetches every selected monthly file that is not already
// present in the destination. Files that fail are listed in the summary;
// the run itself only fails on bad arguments or an unusable destination.
func runDownload(args []string) int {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cf := registerCommon(fs)
	df := registerDownload(fs)

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: tlcfetch download [options]

Download monthly trip-record parquet files into the destination.
Files already present with the size the origin reports are skipped.

Options:`)
		fs.PrintDefaults()
	}

	if code, ok := parseArgs(fs, args); !ok {
		return code
	}

	cfg, err := loadConfig(fs, cf, df)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	sel, err := selectionOf(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	log, err := newLogger(cfg, "download")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	defer log.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	store, err := storage.Open(ctx, cfg.Dest)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening destination: %v\n", err)
		return ExitStorageError
	}
	defer store.Close()

	tasks := catalog.Plan(catalog.Spec{
		Base:       cfg.BaseURL,
		Root:       store.Root(),
		Categories: sel.categories,
		Months:     sel.months,
	})

	log.Info("starting download", runFields(cfg, sel, store.String(), len(tasks))...)
	if free, err := store.FreeSpace(); err == nil {
		log.Info("destination free space", zap.String("free", progress.FormatBytes(int64(free))))
	}

	var reporter *progress.Reporter
	if cfg.Progress {
		reporter = progress.NewReporter(progress.Options{
			TotalFiles:  len(tasks),
			Workers:     cfg.Workers,
			Output:      stderr,
			SourceURL:   cfg.BaseURL,
			Destination: store.String(),
		})
		reporter.Start()
	}

	sum, err := downloader.Download(ctx, store, tasks, downloader.Options{
		Workers:   cfg.Workers,
		Attempts:  cfg.Retry.Attempts,
		Backoff:   cfg.Retry.Backoff,
		ChunkSize: int(cfg.ChunkSize),
		Progress:  reporter,
		Logger:    log,
		HTTPOptions: tlchttp.Options{
			MaxIdleConnsPerHost: cfg.Workers * 2,
			Timeout:             cfg.Timeout,
		},
	})
	if reporter != nil {
		reporter.Stop()
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitStorageError
	}

	report.PrintSummary(stdout, sum)

	if ctx.Err() != nil {
		fmt.Fprintln(stderr, "[tlcfetch] Download interrupted, run again to resume")
		return ExitGeneralError
	}
	if sum.Failed > 0 && df.strict {
		return ExitPartialFailure
	}
	return ExitSuccess
}

// runFields describes a download run: where it reads and writes, which
// categories and which months.
func runFields(cfg config.Config, sel selection, dest string, files int) []zap.Field {
	names := make([]string, len(sel.categories))
	for i, c := range sel.categories {
		names[i] = c.String()
	}
	fields := []zap.Field{
		zap.String("dest", dest),
		zap.String("base_url", cfg.BaseURL),
		zap.Strings("categories", names),
		zap.Int("files", files),
		zap.Int("workers", cfg.Workers),
	}
	if len(sel.months) > 0 {
		fields = append(fields,
			zap.Stringer("from", sel.months[0]),
			zap.Stringer("to", sel.months[len(sel.months)-1]),
		)
	}
	return fields
}

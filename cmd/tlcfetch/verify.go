package main

import (
	"flag"
	"fmt"

	"go.uber.org/zap"

	"github.com/ligustah/tlcfetch/internal/progress"
	"github.com/ligustah/tlcfetch/internal/report"
	"github.com/ligustah/tlcfetch/internal/storage"
)

// runVerify flags stored files smaller than the minimum size. Small files
// are usually truncated downloads; nothing is deleted or repaired.
func runVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cf := registerCommon(fs)
	minSize := fs.String("min-size", "", "Flag files smaller than this (default 1000B)")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: tlcfetch verify [options]

Flag stored files too small to be complete. Run download again to replace
them after deleting.

Options:`)
		fs.PrintDefaults()
	}

	if code, ok := parseArgs(fs, args); !ok {
		return code
	}

	cfg, err := loadConfig(fs, cf, nil)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	if *minSize != "" {
		if cfg.MinSize, err = progress.ParseBytes(*minSize); err != nil {
			fmt.Fprintf(stderr, "Invalid min size: %v\n", err)
			return ExitInvalidArgs
		}
	}
	sel, err := selectionOf(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	log, err := newLogger(cfg, "verify")
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

	results, err := report.Scan(ctx, store, sel.categories, cfg.MinSize)
	if err != nil {
		fmt.Fprintf(stderr, "Error scanning destination: %v\n", err)
		return ExitStorageError
	}
	report.PrintScan(stdout, results)

	if n := report.Flagged(results); n > 0 {
		log.Warn("undersized files found", zap.Int("count", n), zap.Int64("min_size", cfg.MinSize))
		return ExitValidationFailed
	}
	return ExitSuccess
}

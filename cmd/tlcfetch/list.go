package main

import (
	"flag"
	"fmt"

	"github.com/ligustah/tlcfetch/internal/progress"
	"github.com/ligustah/tlcfetch/internal/report"
	"github.com/ligustah/tlcfetch/internal/storage"
)

// runList prints the per-category inventory of the destination.
func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cf := registerCommon(fs)

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: tlcfetch list [options]

Show the count, total size and date range of the files stored per category.

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
	sel, err := selectionOf(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := storage.Open(ctx, cfg.Dest)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening destination: %v\n", err)
		return ExitStorageError
	}
	defer store.Close()

	inv, err := report.Inventory(ctx, store, sel.categories)
	if err != nil {
		fmt.Fprintf(stderr, "Error listing destination: %v\n", err)
		return ExitStorageError
	}

	report.PrintInventory(stdout, store.String(), inv)
	if free, err := store.FreeSpace(); err == nil {
		fmt.Fprintf(stdout, "\nFree space: %s\n", progress.FormatBytes(int64(free)))
	}
	return ExitSuccess
}

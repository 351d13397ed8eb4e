package main

import (
	"flag"
	"fmt"

	"github.com/ligustah/tlcfetch/internal/catalog"
	"github.com/ligustah/tlcfetch/internal/storage"
)

// runPlan prints the task list without touching the network or the
// destination.
func runPlan(args []string) int {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cf := registerCommon(fs)

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: tlcfetch plan [options]

Print each file a download would fetch and where it would be stored.

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

	root, _, err := storage.LocalRoot(cfg.Dest)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	tasks := catalog.Plan(catalog.Spec{
		Base:       cfg.BaseURL,
		Root:       root,
		Categories: sel.categories,
		Months:     sel.months,
	})

	fmt.Fprintf(stdout, "Destination: %s\n", cfg.Dest)
	for _, t := range tasks {
		fmt.Fprintf(stdout, "%s -> %s\n", t.URL, t.Path)
	}
	fmt.Fprintf(stdout, "%d files (%d categories x %d months)\n",
		len(tasks), len(sel.categories), len(sel.months))
	return ExitSuccess
}

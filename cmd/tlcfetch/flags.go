package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ligustah/tlcfetch/internal/catalog"
	"github.com/ligustah/tlcfetch/internal/config"
	"github.com/ligustah/tlcfetch/internal/logging"
	"github.com/ligustah/tlcfetch/internal/progress"
)

// commonFlags are shared by every command. Only flags given on the command
// line override the file and environment.
type commonFlags struct {
	configPath string
	envFile    string
	dest       string
	baseURL    string
	categories string
	years      int
	from       string
	to         string
	logLevel   string
	logFormat  string
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	f := &commonFlags{}
	def := config.Default()

	fs.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&f.envFile, "env-file", ".env", "dotenv file with TLCFETCH_ variables, ignored if missing")
	fs.StringVar(&f.dest, "dest", def.Dest, "Destination directory or bucket URL (s3://, gs://, file://)")
	fs.StringVar(&f.baseURL, "base-url", def.BaseURL, "Origin serving the trip-record files")
	fs.StringVar(&f.categories, "categories", "", "Comma separated categories (yellow, green, fhv, fhvhv); default all")
	fs.IntVar(&f.years, "years", def.Years, "Years to look back from the current month")
	fs.StringVar(&f.from, "from", "", "First month YYYY-MM, overrides -years")
	fs.StringVar(&f.to, "to", "", "Last month YYYY-MM (default current month)")
	fs.StringVar(&f.logLevel, "log-level", def.Log.Level, "Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", def.Log.Format, "Log format (console, json)")
	return f
}

// downloadFlags are the extra flags of the download command.
type downloadFlags struct {
	workers       int
	retryAttempts int
	retryBackoff  time.Duration
	timeout       time.Duration
	chunkSize     string
	progress      bool
	strict        bool
}

func registerDownload(fs *flag.FlagSet) *downloadFlags {
	f := &downloadFlags{}
	def := config.Default()

	fs.IntVar(&f.workers, "workers", def.Workers, "Number of files downloaded in parallel")
	fs.IntVar(&f.retryAttempts, "retry-attempts", def.Retry.Attempts, "Attempts per file, including the first")
	fs.DurationVar(&f.retryBackoff, "retry-backoff", def.Retry.Backoff, "Delay after the first failed attempt, doubled after each further failure")
	fs.DurationVar(&f.timeout, "timeout", def.Timeout, "Connect and response header timeout per attempt")
	fs.StringVar(&f.chunkSize, "chunk-size", "8KiB", "Size of each write to storage")
	fs.BoolVar(&f.progress, "progress", false, "Show a progress bar")
	fs.BoolVar(&f.strict, "strict", false, "Exit with a non-zero status when any file fails")
	return f
}

// loadConfig builds the configuration from defaults, the -config file,
// the environment and finally the flags set on the command line.
func loadConfig(fs *flag.FlagSet, cf *commonFlags, df *downloadFlags) (config.Config, error) {
	if err := config.LoadEnvFile(cf.envFile); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if cf.configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(cf.configPath); err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}

	var (
		override config.Config
		years    *int
		showBar  *bool
		flagErr  error
	)
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "dest":
			override.Dest = cf.dest
		case "base-url":
			override.BaseURL = cf.baseURL
		case "categories":
			override.Categories = config.SplitList(cf.categories)
		case "years":
			years = &cf.years
		case "from":
			override.From = cf.from
		case "to":
			override.To = cf.to
		case "log-level":
			override.Log.Level = cf.logLevel
		case "log-format":
			override.Log.Format = cf.logFormat
		}
		if df == nil {
			return
		}
		switch fl.Name {
		case "workers":
			if df.workers <= 0 {
				flagErr = errors.New("-workers must be positive")
				return
			}
			override.Workers = df.workers
		case "retry-attempts":
			if df.retryAttempts <= 0 {
				flagErr = errors.New("-retry-attempts must be positive")
				return
			}
			override.Retry.Attempts = df.retryAttempts
		case "retry-backoff":
			override.Retry.Backoff = df.retryBackoff
		case "timeout":
			override.Timeout = df.timeout
		case "chunk-size":
			size, err := progress.ParseBytes(df.chunkSize)
			if err != nil {
				flagErr = fmt.Errorf("-chunk-size: %w", err)
				return
			}
			override.ChunkSize = size
		case "progress":
			showBar = &df.progress
		}
	})
	if flagErr != nil {
		return config.Config{}, flagErr
	}

	cfg = cfg.Merge(override)
	// Merge ignores zero values; an explicit -years 0 or -progress=false
	// still counts.
	if years != nil {
		cfg.Years = *years
	}
	if showBar != nil {
		cfg.Progress = *showBar
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// selection is what a configuration asks for.
type selection struct {
	categories []catalog.Category
	months     []catalog.Month
}

func selectionOf(cfg config.Config) (selection, error) {
	cats, err := catalog.ParseCategories(cfg.Categories)
	if err != nil {
		return selection{}, err
	}
	months, err := cfg.Months(time.Now())
	if err != nil {
		return selection{}, err
	}
	return selection{categories: cats, months: months}, nil
}

// parseArgs parses args into fs and maps failures to an exit code. ok is
// false when the command should return code.
func parseArgs(fs *flag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess, false
		}
		return ExitInvalidArgs, false
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return ExitInvalidArgs, false
	}
	return ExitSuccess, true
}

// newLogger returns a logger tagged with the command and a fresh run id.
func newLogger(cfg config.Config, command string) (*zap.Logger, error) {
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	return log.With(
		zap.String("command", command),
		zap.String("run_id", uuid.NewString()),
	), nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(stderr, "\n[tlcfetch] Received interrupt, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

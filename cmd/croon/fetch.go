package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/croonlabs/croon/internal/config"
	"github.com/croonlabs/croon/internal/download"
	croonhttp "github.com/croonlabs/croon/internal/http"
	"github.com/croonlabs/croon/internal/identity"
	"github.com/croonlabs/croon/internal/pool"
	"github.com/croonlabs/croon/internal/progress"
	"github.com/croonlabs/croon/internal/studio"
)

func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)

	configPath := fs.String("config", "", "Path to YAML config file")
	account := fs.String("account", "", "Phone number to authenticate with (required)")
	ids := fs.String("ids", "", "Comma-separated asset ids (required)")
	output := fs.String("output", "", "Output bucket URL (default file://.)")
	showProgress := fs.Bool("progress", false, "Show download progress")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: croon fetch [options]

Authenticate one account and download finished tracks by id.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	assetIDs := splitList(*ids)
	if *account == "" || len(assetIDs) == 0 {
		fmt.Fprintln(os.Stderr, "Error: -account and -ids are required")
		fs.Usage()
		return ExitInvalidArgs
	}

	cfg, err := loadConfig(*configPath, config.Config{
		Accounts: []string{*account},
		Output:   *output,
		Progress: *showProgress,
		LogLevel: *logLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger := newLogger(cfg.LogLevel)

	httpOpts := croonhttp.DefaultOptions()
	httpOpts.Timeout = cfg.HTTPTimeout
	hc := croonhttp.NewClient(httpOpts)

	idc := identity.NewClient(cfg.IdentityURL, hc, logger)
	sc := studio.NewClient(cfg.StudioURL, hc, logger)

	p, err := pool.New(ctx, idc, cfg.Accounts, newStdinPrompter(), pool.StopOnError, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitAuthFailed
	}

	bucket, err := openBucket(ctx, cfg.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}
	defer bucket.Close()

	var reporter *progress.Reporter
	if cfg.Progress {
		reporter = progress.NewReporter(progress.Options{TotalAssets: len(assetIDs)})
		reporter.Start()
		defer reporter.Stop()
	}

	dl := download.New(hc, idc, sc, bucket, download.Options{
		BufferSize: cfg.BufferSize,
		Progress:   reporter,
	}, logger)

	results, err := dl.FetchAll(ctx, p.Sessions()[0], assetIDs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}

	for _, r := range results {
		fmt.Fprintf(os.Stderr, "[croon] Saved %s (%s)\n", r.Key, progress.FormatBytes(r.Bytes))
	}
	return ExitSuccess
}

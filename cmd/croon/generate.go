package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/croonlabs/croon/internal/config"
	"github.com/croonlabs/croon/internal/download"
	croonhttp "github.com/croonlabs/croon/internal/http"
	"github.com/croonlabs/croon/internal/identity"
	"github.com/croonlabs/croon/internal/pool"
	"github.com/croonlabs/croon/internal/progress"
	"github.com/croonlabs/croon/internal/studio"
)

func runGenerate(args []string) int {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)

	configPath := fs.String("config", "", "Path to YAML config file")
	accounts := fs.String("accounts", "", "Comma-separated phone numbers (overrides config)")
	prompt := fs.String("prompt", "", "Creative prompt for the track (required)")
	mode := fs.String("mode", "", "Prompt mode: description or lyrics")
	output := fs.String("output", "", "Output bucket URL (default file://.)")
	onError := fs.String("on-error", "", "Fallback policy after a non-quota failure: stop or skip")
	pollInterval := fs.Duration("poll-interval", 0, "Interval between readiness polls")
	maxAttempts := fs.Int("max-attempts", 0, "Maximum readiness polls before giving up")
	showProgress := fs.Bool("progress", false, "Show download progress")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: croon generate [options]

Authenticate every configured account (you will be asked for the code sent
to each phone), generate tracks from the prompt using the first account with
remaining allowance, wait until the tracks are ready and download them.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *prompt == "" {
		fmt.Fprintln(os.Stderr, "Error: -prompt is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	overrides := config.Config{
		Accounts: splitList(*accounts),
		Mode:     *mode,
		Output:   *output,
		OnError:  *onError,
		Poll: config.PollConfig{
			Interval:    *pollInterval,
			MaxAttempts: *maxAttempts,
		},
		Progress: *showProgress,
		LogLevel: *logLevel,
	}

	cfg, err := loadConfig(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger := newLogger(cfg.LogLevel)

	genMode, err := studio.ParseMode(cfg.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	policy, err := pool.ParsePolicy(cfg.OnError)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	httpOpts := croonhttp.DefaultOptions()
	httpOpts.Timeout = cfg.HTTPTimeout
	hc := croonhttp.NewClient(httpOpts)

	idc := identity.NewClient(cfg.IdentityURL, hc, logger)
	sc := studio.NewClient(cfg.StudioURL, hc, logger)

	p, err := pool.New(ctx, idc, cfg.Accounts, newStdinPrompter(), policy, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitAuthFailed
	}

	job, err := p.Generate(ctx, sc, *prompt, genMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGenerationFailed
	}

	fmt.Fprintf(os.Stderr, "[croon] Generated %d tracks: %v\n", len(job.IDs), job.IDs)
	fmt.Fprintln(os.Stderr, "[croon] Waiting for tracks to become ready...")

	if err := p.WaitReady(ctx, sc, job, cfg.Poll.Interval, cfg.Poll.MaxAttempts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, pool.ErrPollTimeout) {
			return ExitPollTimeout
		}
		return ExitGeneralError
	}

	bucket, err := openBucket(ctx, cfg.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}
	defer bucket.Close()

	var reporter *progress.Reporter
	if cfg.Progress {
		reporter = progress.NewReporter(progress.Options{TotalAssets: len(job.IDs)})
		reporter.Start()
		defer reporter.Stop()
	}

	dl := download.New(hc, idc, sc, bucket, download.Options{
		BufferSize: cfg.BufferSize,
		Progress:   reporter,
	}, logger)

	start := time.Now()
	results, err := dl.FetchAll(ctx, job.Session, job.IDs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}

	for _, r := range results {
		fmt.Fprintf(os.Stderr, "[croon] Saved %s (%s)\n", r.Key, progress.FormatBytes(r.Bytes))
	}
	fmt.Fprintf(os.Stderr, "[croon] Done in %s\n", time.Since(start).Round(time.Second))
	return ExitSuccess
}

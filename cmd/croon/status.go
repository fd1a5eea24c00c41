package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/croonlabs/croon/internal/config"
	croonhttp "github.com/croonlabs/croon/internal/http"
	"github.com/croonlabs/croon/internal/identity"
	"github.com/croonlabs/croon/internal/pool"
	"github.com/croonlabs/croon/internal/studio"
)

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ExitOnError)

	configPath := fs.String("config", "", "Path to YAML config file")
	account := fs.String("account", "", "Phone number to authenticate with (required)")
	ids := fs.String("ids", "", "Comma-separated asset ids (required)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: croon status [options]

Authenticate one account and report the current state of the given tracks.

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

	session := p.Sessions()[0]
	batch, err := sc.Status(ctx, session, assetIDs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	for _, clip := range batch {
		fmt.Printf("%s\t%s\n", clip.ID, clip.Status)
	}

	if batch.Ready() && len(batch) == len(assetIDs) {
		fmt.Fprintln(os.Stderr, "[croon] All tracks are ready for download")
		return ExitSuccess
	}
	fmt.Fprintln(os.Stderr, "[croon] Some tracks are not ready yet")
	return ExitGeneralError
}

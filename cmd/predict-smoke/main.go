package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/homeprice/internal/smoketest"
	"github.com/okian/homeprice/pkg/logger"
)

// Default configuration constants.
const (
	defaultRequests    = 50
	defaultWorkers     = 4
	defaultTimeout     = 30 * time.Second
	defaultSeed        = 1
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:8080", "Base URL of the service")
		requests  = flag.Int("requests", defaultRequests, "Number of estimate requests to send")
		workers   = flag.Int("workers", defaultWorkers, "Number of concurrent senders")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		addresses = flag.String("addresses", "", "File with one address per line (default: built-in list)")
		seed      = flag.Uint64("seed", defaultSeed, "Input generation seed")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoketest.ShowHelp(os.Stdout)
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	list := smoketest.DefaultAddresses
	if *addresses != "" {
		loaded, err := smoketest.LoadAddresses(*addresses)
		if err != nil {
			os.Stderr.WriteString("Failed to load addresses: " + err.Error() + "\n")
			os.Exit(1)
		}
		list = loaded
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	report, err := smoketest.Run(ctx, &smoketest.Config{
		BaseURL:   *baseURL,
		Requests:  *requests,
		Workers:   *workers,
		Timeout:   *timeout,
		Addresses: list,
		Seed:      *seed,
		Verbose:   *verbose,
	})
	if err != nil {
		os.Stderr.WriteString("Smoke run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	smoketest.PrintReport(os.Stdout, report)
	if report.Succeeded == 0 {
		os.Exit(1)
	}
}

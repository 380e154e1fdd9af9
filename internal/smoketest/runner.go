package smoketest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/homeprice/pkg/logger"
)

// ErrUnhealthy is returned when the service health check fails.
var ErrUnhealthy = errors.New("service unhealthy")

// Run executes a smoke run: health check, form discovery, concurrent
// estimates and a final stats read.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	log := logger.Named("smoketest")
	start := time.Now()
	c := newClient(cfg.BaseURL, cfg.Timeout)

	var health struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/healthz", &health); err != nil || health.Status != "ok" {
		return nil, fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}

	var opts formOptions
	if err := c.getJSON(ctx, "/form-options", &opts); err != nil {
		return nil, fmt.Errorf("form options: %w", err)
	}

	addresses := cfg.Addresses
	if len(addresses) == 0 {
		addresses = DefaultAddresses
	}
	reqs := generate(opts, addresses, cfg.Requests, cfg.Seed)
	log.Info(ctx, "sending estimates",
		logger.Int("requests", len(reqs)), logger.Int("workers", cfg.Workers),
		logger.Int("fields", len(opts.Fields)), logger.Int("groups", len(opts.Groups)))

	report := &Report{ByCode: make(map[string]int), MinPrice: math.Inf(1), MaxPrice: math.Inf(-1)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for _, req := range reqs {
		g.Go(func() error {
			status, resp, err := c.predict(gctx, req)

			mu.Lock()
			defer mu.Unlock()
			report.Sent++
			switch {
			case err != nil:
				report.Transport++
				log.Warn(gctx, "request failed", logger.Error(err))
			case status == http.StatusOK:
				report.Succeeded++
				report.MinPrice = math.Min(report.MinPrice, resp.Price)
				report.MaxPrice = math.Max(report.MaxPrice, resp.Price)
			default:
				code := resp.Code
				if code == "" {
					code = fmt.Sprintf("http_%d", status)
				}
				report.ByCode[code]++
			}
			if cfg.Verbose {
				log.Info(gctx, "estimate",
					logger.String("address", req.Address), logger.Int("status", status),
					logger.String("price", resp.FormattedPrice), logger.String("code", resp.Code))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if report.Succeeded == 0 {
		report.MinPrice, report.MaxPrice = 0, 0
	}

	if err := c.getJSON(ctx, "/stats", &report.Server); err != nil {
		log.Warn(ctx, "stats unavailable", logger.Error(err))
	}
	report.Duration = time.Since(start)
	return report, nil
}

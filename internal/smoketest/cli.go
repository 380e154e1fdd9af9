package smoketest

import (
	"fmt"
	"io"
	"sort"
)

// PrintReport writes a human-readable summary.
func PrintReport(w io.Writer, r *Report) {
	fmt.Fprintf(w, "Sent:       %d\n", r.Sent)
	fmt.Fprintf(w, "Succeeded:  %d\n", r.Succeeded)
	fmt.Fprintf(w, "Transport:  %d\n", r.Transport)
	codes := make([]string, 0, len(r.ByCode))
	for code := range r.ByCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  %-24s %d\n", code, r.ByCode[code])
	}
	if r.Succeeded > 0 {
		fmt.Fprintf(w, "Price range: %.0f .. %.0f\n", r.MinPrice, r.MaxPrice)
	}
	fmt.Fprintf(w, "Duration:   %s\n", r.Duration)
	if r.Server != nil {
		fmt.Fprintf(w, "Server requests: %v, succeeded: %v\n", r.Server["requests"], r.Server["succeeded"])
	}
}

// ShowHelp prints usage information for the smoke tool.
func ShowHelp(w io.Writer) {
	fmt.Fprint(w, `Home Price Smoke Tool
=====================

Sends generated estimate requests to a running estimator and summarizes outcomes.

Usage:
  go run ./cmd/predict-smoke [options]

Options:
  -url string        Base URL of the service (default "http://localhost:8080")
  -requests int      Number of estimate requests (default 50)
  -workers int       Concurrent senders (default 4)
  -timeout duration  Per-request HTTP timeout (default 30s)
  -addresses string  File with one address per line (default: built-in list)
  -seed uint         Input generation seed (default 1)
  -verbose           Log every request
  -help              Show this help message

Geocoding providers rate-limit callers; keep -workers low against public Nominatim.
`)
}

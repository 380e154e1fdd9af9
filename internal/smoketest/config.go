// Package smoketest drives a running estimator with generated requests.
package smoketest

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL   string        // Base URL of the service
	Requests  int           // Number of estimate requests to send
	Workers   int           // Concurrent senders
	Timeout   time.Duration // Per-request HTTP timeout
	Addresses []string      // Addresses to sample from
	Seed      uint64        // Seed for input generation; runs with the same seed send the same inputs
	Verbose   bool          // Log every request
}

// DefaultAddresses are well-known addresses that geocode reliably.
var DefaultAddresses = []string{
	"1600 Amphitheatre Parkway, Mountain View, CA",
	"1 Infinite Loop, Cupertino, CA",
	"350 5th Ave, New York, NY",
	"1600 Pennsylvania Ave NW, Washington, DC",
	"233 S Wacker Dr, Chicago, IL",
}

// Report summarizes a smoke run.
type Report struct {
	Sent      int            // requests sent
	Succeeded int            // 200 responses
	ByCode    map[string]int // error code -> count
	Transport int            // requests that got no HTTP response
	MinPrice  float64
	MaxPrice  float64
	Duration  time.Duration
	Server    map[string]any // GET /stats after the run
}

// LoadAddresses reads one address per line from path, skipping blank lines
// and lines starting with '#'.
func LoadAddresses(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open addresses: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read addresses: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s holds no addresses", path)
	}
	return out, nil
}

// Package geocode resolves free-text addresses to coordinates via Nominatim-compatible
// services or the Google Geocoding API.
package geocode

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Sentinel error kinds. Every error returned by Geocode wraps exactly one of them.
var (
	ErrNotFound = errors.New("address not found")
	ErrProvider = errors.New("geocoding provider error")
)

// Provider names a geocoding backend.
type Provider string

// Supported providers.
const (
	ProviderNominatim Provider = "nominatim"
	ProviderGoogle    Provider = "google"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultRate      = 1 // Nominatim usage policy: at most 1 request per second
	maxResponseBytes = 1 << 20
)

// Location is a resolved address.
type Location struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
	Source      string
}

// Geocoder resolves an address. Implementations return ErrNotFound when the
// provider has no match and ErrProvider for any other failure.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Location, error)
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL overrides the provider endpoint (self-hosted Nominatim, LocationIQ, tests).
func WithBaseURL(u string) Option {
	return func(g *geocoder) {
		if u != "" {
			g.baseURL = u
		}
	}
}

// WithAPIKey sets the access credential sent to the provider.
func WithAPIKey(key string) Option {
	return func(g *geocoder) {
		g.apiKey = key
	}
}

// WithUserAgent sets the User-Agent header; Nominatim rejects anonymous clients.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) {
		g.userAgent = ua
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		if hc != nil {
			g.httpClient = hc
		}
	}
}

// WithTimeout bounds each Geocode call; expiry yields ErrProvider.
func WithTimeout(d time.Duration) Option {
	return func(g *geocoder) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithRateLimit sets the outbound requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

type geocoder struct {
	provider   Provider
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
}

// New creates a Geocoder for the named provider.
func New(provider string, opts ...Option) (Geocoder, error) {
	g := &geocoder{
		provider:   Provider(strings.ToLower(strings.TrimSpace(provider))),
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(defaultRate, defaultRate),
		timeout:    defaultTimeout,
	}
	switch g.provider {
	case ProviderNominatim:
		g.baseURL = nominatimSearchURL
	case ProviderGoogle:
		g.baseURL = googleGeocodeURL
	default:
		return nil, eris.Errorf("geocode: unknown provider %q", provider)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Geocode resolves address within the configured timeout.
func (g *geocoder) Geocode(ctx context.Context, address string) (Location, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Location{}, eris.Wrap(ErrNotFound, "geocode: empty address")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return Location{}, eris.Wrapf(ErrProvider, "geocode: rate limit: %v", err)
	}

	switch g.provider {
	case ProviderGoogle:
		return g.geocodeGoogle(ctx, address)
	default:
		return g.geocodeNominatim(ctx, address)
	}
}

package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// googleGeocodeResponse is the JSON response from the Google Geocoding API.
type googleGeocodeResponse struct {
	Results      []googleResult `json:"results"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
}

type googleResult struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	FormattedAddress string `json:"formatted_address"`
}

// geocodeGoogle resolves an address using the Google Geocoding API.
// ZERO_RESULTS is a miss; any other non-OK status is a provider failure.
func (g *geocoder) geocodeGoogle(ctx context.Context, address string) (Location, error) {
	if g.apiKey == "" {
		return Location{}, eris.Wrap(ErrProvider, "geocode: google api key not configured")
	}

	params := url.Values{
		"address": {address},
		"key":     {g.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Location{}, eris.Wrapf(ErrProvider, "geocode: google build request: %v", err)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Location{}, eris.Wrapf(ErrProvider, "geocode: google request: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return Location{}, eris.Wrapf(ErrProvider, "geocode: google returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Location{}, eris.Wrapf(ErrProvider, "geocode: google read body: %v", err)
	}

	var googleResp googleGeocodeResponse
	if err := json.Unmarshal(body, &googleResp); err != nil {
		return Location{}, eris.Wrapf(ErrProvider, "geocode: google parse response: %v", err)
	}

	switch googleResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return Location{}, eris.Wrapf(ErrNotFound, "geocode: google has no match for %q", address)
	default:
		return Location{}, eris.Wrapf(ErrProvider, "geocode: google status %s %s", googleResp.Status, googleResp.ErrorMessage)
	}
	if len(googleResp.Results) == 0 {
		return Location{}, eris.Wrapf(ErrNotFound, "geocode: google has no match for %q", address)
	}

	result := googleResp.Results[0]
	return Location{
		Latitude:    result.Geometry.Location.Lat,
		Longitude:   result.Geometry.Location.Lng,
		DisplayName: result.FormattedAddress,
		Source:      string(ProviderGoogle),
	}, nil
}

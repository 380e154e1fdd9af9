package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
)

const nominatimSearchURL = "https://nominatim.openstreetmap.org/search"

// nominatimPlace is one element of the jsonv2 search response.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// geocodeNominatim resolves an address against a Nominatim-compatible /search endpoint.
func (g *geocoder) geocodeNominatim(ctx context.Context, address string) (Location, error) {
	if g.userAgent == "" {
		return Location{}, eris.Wrap(ErrProvider, "geocode: nominatim user agent not configured")
	}

	params := url.Values{
		"q":      {address},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	if g.apiKey != "" {
		params.Set("key", g.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Location{}, eris.Wrapf(ErrProvider, "geocode: nominatim build request: %v", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Location{}, eris.Wrapf(ErrProvider, "geocode: nominatim request: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return Location{}, eris.Wrapf(ErrProvider, "geocode: nominatim returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Location{}, eris.Wrapf(ErrProvider, "geocode: nominatim read body: %v", err)
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return Location{}, eris.Wrapf(ErrProvider, "geocode: nominatim parse response: %v", err)
	}
	if len(places) == 0 {
		return Location{}, eris.Wrapf(ErrNotFound, "geocode: nominatim has no match for %q", address)
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return Location{}, eris.Wrapf(ErrProvider, "geocode: nominatim bad coordinates %q,%q", places[0].Lat, places[0].Lon)
	}
	return Location{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: places[0].DisplayName,
		Source:      string(ProviderNominatim),
	}, nil
}

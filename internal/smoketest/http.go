package smoketest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// client wraps http.Client with the service base URL.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{http: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

func (c *client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// predictResponse covers both the success and the error shape.
type predictResponse struct {
	RequestID      string  `json:"request_id"`
	Price          float64 `json:"price"`
	FormattedPrice string  `json:"formatted_price"`
	Code           string  `json:"code"`
	Message        string  `json:"message"`
}

// predict posts one request. A non-nil error means no HTTP response was read.
func (c *client) predict(ctx context.Context, body predictRequest) (int, predictResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, predictResponse{}, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(data))
	if err != nil {
		return 0, predictResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, predictResponse{}, fmt.Errorf("POST /predict: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, predictResponse{}, fmt.Errorf("read response: %w", err)
	}
	var out predictResponse
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out, nil
}

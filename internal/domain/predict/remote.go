package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/okian/homeprice/internal/domain/features"
)

const (
	defaultRemoteTimeout = 10 * time.Second
	maxResponseBytes     = 1 << 20
)

// dataframeSplit is the MLflow-style "dataframe_split" request body.
type dataframeSplit struct {
	Columns []string    `json:"columns"`
	Data    [][]float64 `json:"data"`
}

type invocationRequest struct {
	DataframeSplit dataframeSplit `json:"dataframe_split"`
}

type invocationResponse struct {
	Predictions []float64 `json:"predictions"`
}

// RemoteModel calls a model server that accepts one row per request.
type RemoteModel struct {
	url        string
	columns    []string
	httpClient *http.Client
	timeout    time.Duration
}

// RemoteOption applies a configuration option to NewRemoteModel.
type RemoteOption func(*RemoteModel)

// WithHTTPClient sets the HTTP client used for invocations.
func WithHTTPClient(hc *http.Client) RemoteOption {
	return func(m *RemoteModel) {
		if hc != nil {
			m.httpClient = hc
		}
	}
}

// WithTimeout bounds each invocation.
func WithTimeout(d time.Duration) RemoteOption {
	return func(m *RemoteModel) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewRemoteModel creates a predictor posting vectors to url. Column names are
// sent alongside the row so pipeline-based models can select by name.
func NewRemoteModel(url string, schema features.Schema, opts ...RemoteOption) (*RemoteModel, error) {
	if url == "" {
		return nil, eris.Wrap(ErrLoadModel, "predictor url is required")
	}
	if schema.Len() == 0 {
		return nil, eris.Wrap(ErrLoadModel, "schema is empty")
	}
	m := &RemoteModel{
		url:        url,
		columns:    schema.Names(),
		httpClient: &http.Client{},
		timeout:    defaultRemoteTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Predict sends v to the model server and returns the first prediction.
func (m *RemoteModel) Predict(ctx context.Context, v features.Vector) (float64, error) {
	if len(v) != len(m.columns) {
		return 0, eris.Wrapf(ErrPrediction, "vector length %d, model expects %d", len(v), len(m.columns))
	}

	body, err := json.Marshal(invocationRequest{DataframeSplit: dataframeSplit{
		Columns: m.columns,
		Data:    [][]float64{v},
	}})
	if err != nil {
		return 0, eris.Wrapf(ErrPrediction, "encode request: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return 0, eris.Wrapf(ErrPrediction, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return 0, eris.Wrapf(ErrPrediction, "request: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, eris.Wrapf(ErrPrediction, "read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, eris.Wrapf(ErrPrediction, "model server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var out invocationResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return 0, eris.Wrapf(ErrPrediction, "decode response: %v", err)
	}
	if len(out.Predictions) == 0 {
		return 0, eris.Wrap(ErrPrediction, "model server returned no predictions")
	}
	y := out.Predictions[0]
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, eris.Wrap(ErrPrediction, "non-finite prediction")
	}
	return y, nil
}

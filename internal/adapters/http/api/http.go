// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/okian/homeprice/internal/domain/model"
	"github.com/okian/homeprice/internal/domain/types"
	"github.com/okian/homeprice/pkg/logger"
	"github.com/okian/homeprice/pkg/metrics"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Estimate(ctx context.Context, req model.EstimateRequest) (types.Estimate, error)
	FormOptions() types.FormOptions
	Stats() types.Stats
}

// Server wires HTTP routes for the JSON API.
type Server struct {
	predictHandler *PredictHandler
	optionsHandler *FormOptionsHandler
	statsHandler   *StatsHandler
	healthHandler  *HealthHandler
	cors           *cors.Cors
}

// ServerOption configures the Server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	allowedOrigins []string
	logger         logger.Logger
}

// WithAllowedOrigins sets the CORS origins allowed to call the JSON API.
func WithAllowedOrigins(origins []string) ServerOption {
	return func(o *serverOptions) { o.allowedOrigins = origins }
}

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) ServerOption {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	o := serverOptions{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		predictHandler: NewPredictHandler(deps, o.logger),
		optionsHandler: NewFormOptionsHandler(deps),
		statsHandler:   NewStatsHandler(deps),
		healthHandler:  NewHealthHandler(),
		cors: cors.New(cors.Options{
			AllowedOrigins: o.allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type", HeaderRequestID},
			ExposedHeaders: []string{HeaderRequestID},
		}),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/predict", s.cors.Handler(MetricsMiddleware(s.predictHandler.HandlePredict, "predict")))
	mux.Handle("/form-options", s.cors.Handler(MetricsMiddleware(s.optionsHandler.HandleFormOptions, "form_options")))
	mux.Handle("/stats", s.cors.Handler(MetricsMiddleware(s.statsHandler.HandleStats, "stats")))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, c Classification, requestID string) {
	writeJSON(w, c.Status, errorResponse{Code: c.Code, Message: c.Message, RequestID: requestID})
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/homeprice/internal/domain/model"
	"github.com/okian/homeprice/pkg/logger"
)

const maxRequestBytes = 64 << 10

// predictRequest mirrors the OpenAPI schema for POST /predict.
type predictRequest struct {
	Address         string            `json:"address"`
	Fields          map[string]any    `json:"fields"`
	Choices         map[string]string `json:"choices"`
	IncludeFeatures bool              `json:"include_features"`
}

// toModel splits fields into numbers and flags.
func (p predictRequest) toModel(requestID string) (model.EstimateRequest, error) {
	if strings.TrimSpace(p.Address) == "" {
		return model.EstimateRequest{}, errors.New("missing address")
	}
	req := model.EstimateRequest{
		RequestID:       requestID,
		Address:         p.Address,
		Numeric:         make(map[string]float64, len(p.Fields)),
		Flags:           make(map[string]bool),
		Choices:         p.Choices,
		IncludeFeatures: p.IncludeFeatures,
	}
	for name, v := range p.Fields {
		switch val := v.(type) {
		case float64:
			req.Numeric[name] = val
		case bool:
			req.Flags[name] = val
		default:
			return model.EstimateRequest{}, fmt.Errorf("field %q must be a number or a boolean", name)
		}
	}
	return req, nil
}

// PredictHandler handles estimate requests.
type PredictHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies, l logger.Logger) *PredictHandler {
	return &PredictHandler{deps: deps, logger: l}
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Code: "method_not_allowed", Message: "use POST"})
		return
	}

	requestID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(HeaderRequestID, requestID)
	ctx := logger.WithRequestID(r.Context(), requestID)

	var body predictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		h.logger.Debug(ctx, "rejecting malformed body", logger.Error(err))
		writeError(w, Classify(WrapKind(op, ErrBadRequest, err)), requestID)
		return
	}
	req, err := body.toModel(requestID)
	if err != nil {
		writeError(w, Classify(WrapKind(op, ErrBadRequest, err)), requestID)
		return
	}

	est, err := h.deps.Estimate(ctx, req)
	if err != nil {
		c := Classify(err)
		if c.Status >= http.StatusInternalServerError {
			h.logger.Error(ctx, "estimate failed", logger.String("code", c.Code), logger.Error(err))
		}
		writeError(w, c, requestID)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

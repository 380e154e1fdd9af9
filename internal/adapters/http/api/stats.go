package api

import (
	"net/http"
)

// StatsHandler handles stats requests.
type StatsHandler struct {
	deps Dependencies
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(deps Dependencies) *StatsHandler {
	return &StatsHandler{deps: deps}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Stats())
}

// FormOptionsHandler exposes form fields and categorical groups.
type FormOptionsHandler struct {
	deps Dependencies
}

// NewFormOptionsHandler creates a new form options handler.
func NewFormOptionsHandler(deps Dependencies) *FormOptionsHandler {
	return &FormOptionsHandler{deps: deps}
}

// HandleFormOptions handles GET /form-options requests.
func (h *FormOptionsHandler) HandleFormOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.FormOptions())
}

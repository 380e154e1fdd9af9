// Package site serves the HTML property form.
package site

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/homeprice/internal/adapters/http/api"
	"github.com/okian/homeprice/internal/domain/model"
	"github.com/okian/homeprice/internal/domain/types"
	"github.com/okian/homeprice/pkg/logger"
)

// Error constants
var (
	ErrRender = errors.New("form render failed")
)

const choicePrefix = "choice."

// Estimator is what the form needs from the estimation service.
type Estimator interface {
	Estimate(ctx context.Context, req model.EstimateRequest) (types.Estimate, error)
	FormOptions() types.FormOptions
}

// Register attaches the form routes to mux.
func Register(_ context.Context, mux *http.ServeMux, est Estimator, l logger.Logger) {
	if mux == nil {
		panic("mux is nil")
	}
	h := NewRootHandler(est, l)
	mux.HandleFunc("/", api.MetricsMiddleware(h.HandleRoot, "form"))
}

// RootHandler renders the form and its results.
type RootHandler struct {
	est    Estimator
	logger logger.Logger
}

// NewRootHandler creates a new root handler.
func NewRootHandler(est Estimator, l logger.Logger) *RootHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &RootHandler{est: est, logger: l}
}

type numberView struct {
	model.FormField
	Value   float64
	Bounded bool
}

type flagView struct {
	model.FormField
	Checked bool
}

type optionView struct {
	Value    string
	Selected bool
}

type groupView struct {
	Name    string
	Label   string
	Options []optionView
}

type page struct {
	Address string
	Numbers []numberView
	Flags   []flagView
	Groups  []groupView
	Result  *types.Estimate
	Error   string
}

// HandleRoot handles GET / (empty form) and POST / (submit).
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.render(w, r, http.StatusOK, h.newPage(nil))
	case http.MethodPost:
		h.submit(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *RootHandler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		p := h.newPage(nil)
		p.Error = api.Classify(api.WrapKind("site.submit", api.ErrBadRequest, err)).Message
		h.render(w, r, http.StatusBadRequest, p)
		return
	}

	p := h.newPage(r.PostForm)
	req, msg := h.parse(r.PostForm)
	if msg != "" {
		p.Error = msg
		h.render(w, r, http.StatusBadRequest, p)
		return
	}

	ctx := logger.WithRequestID(r.Context(), req.RequestID)
	est, err := h.est.Estimate(ctx, req)
	if err != nil {
		c := api.Classify(err)
		p.Error = c.Message
		h.render(w, r, c.Status, p)
		return
	}
	p.Result = &est
	h.render(w, r, http.StatusOK, p)
}

// parse reads the posted form and returns a user-facing message on bad input.
// Unchecked boxes are absent and mean false.
func (h *RootHandler) parse(form map[string][]string) (model.EstimateRequest, string) {
	get := func(k string) string {
		if v := form[k]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	opts := h.est.FormOptions()
	req := model.EstimateRequest{
		RequestID: uuid.NewString(),
		Address:   get("address"),
		Numeric:   make(map[string]float64),
		Flags:     make(map[string]bool),
		Choices:   make(map[string]string),
	}
	if req.Address == "" {
		return req, "Please enter an address."
	}
	for _, f := range opts.Fields {
		raw := get(f.Name)
		switch f.Kind {
		case model.FieldBool:
			req.Flags[f.Name] = raw != ""
		default:
			if raw == "" {
				req.Numeric[f.Name] = f.Default
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return req, f.Label + " must be a number."
			}
			if !f.InRange(v) {
				return req, fmt.Sprintf("%s must be between %s and %s.", f.Label,
					strconv.FormatFloat(f.Min, 'f', -1, 64), strconv.FormatFloat(f.Max, 'f', -1, 64))
			}
			req.Numeric[f.Name] = v
		}
	}
	for _, g := range opts.Groups {
		if v := get(choicePrefix + g.Name); v != "" {
			req.Choices[g.Name] = v
		}
	}
	return req, ""
}

// newPage builds the view, keeping previously submitted values when form is set.
func (h *RootHandler) newPage(form map[string][]string) page {
	has := func(k string) (string, bool) {
		if form == nil {
			return "", false
		}
		v, ok := form[k]
		if !ok || len(v) == 0 {
			return "", ok
		}
		return strings.TrimSpace(v[0]), true
	}

	opts := h.est.FormOptions()
	var p page
	p.Address, _ = has("address")
	for _, f := range opts.Fields {
		raw, ok := has(f.Name)
		switch f.Kind {
		case model.FieldBool:
			p.Flags = append(p.Flags, flagView{FormField: f, Checked: ok && raw != ""})
		default:
			v := f.Default
			if parsed, err := strconv.ParseFloat(raw, 64); ok && err == nil {
				v = parsed
			}
			p.Numbers = append(p.Numbers, numberView{FormField: f, Value: v, Bounded: f.Min != 0 || f.Max != 0})
		}
	}
	for _, g := range opts.Groups {
		selected, _ := has(choicePrefix + g.Name)
		if selected == "" {
			selected = g.Default
		}
		gv := groupView{Name: g.Name, Label: g.Label}
		for i, o := range g.Options {
			gv.Options = append(gv.Options, optionView{Value: o, Selected: o == selected || (selected == "" && i == 0)})
		}
		p.Groups = append(p.Groups, gv)
	}
	return p
}

func (h *RootHandler) render(w http.ResponseWriter, r *http.Request, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, p); err != nil {
		h.logger.Error(r.Context(), "render form", logger.Error(errors.Join(ErrRender, err)))
	}
}

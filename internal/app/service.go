// Package service provides the estimation service behind the HTTP API and form.
package service

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/okian/homeprice/internal/adapters/geocode"
	"github.com/okian/homeprice/internal/domain/features"
	"github.com/okian/homeprice/internal/domain/model"
	"github.com/okian/homeprice/internal/domain/predict"
	"github.com/okian/homeprice/internal/domain/types"
	"github.com/okian/homeprice/pkg/logger"
	"github.com/okian/homeprice/pkg/metrics"
)

// Feature names injected from the geocode result.
const (
	FeatureLatitude  = "Latitude"
	FeatureLongitude = "Longitude"
)

// Estimate outcomes used for metrics labels.
const (
	outcomeOK              = "ok"
	outcomeBadRequest      = "bad_request"
	outcomeGeocodeNotFound = "geocode_not_found"
	outcomeGeocodeProvider = "geocode_provider_error"
	outcomeInvalidChoice   = "invalid_choice"
	outcomeBuild           = "build_error"
	outcomePrediction      = "prediction_error"
)

type counters struct {
	requests        atomic.Int64
	succeeded       atomic.Int64
	badRequests     atomic.Int64
	geocodeNotFound atomic.Int64
	geocodeFailures atomic.Int64
	invalidChoices  atomic.Int64
	buildFailures   atomic.Int64
	predictFailures atomic.Int64
}

// Service turns estimate requests into formatted prices.
// All fields except the counters are fixed after New.
type Service struct {
	geocoder      geocode.Geocoder
	geocoderName  string
	predictor     predict.Predictor
	predictorName string
	catalog       *features.Catalog
	fields        []model.FormField
	strict        bool
	printer       *message.Printer
	logger        logger.Logger
	startedAt     time.Time

	stats counters
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGeocoder sets the address resolver and the name used in metrics.
func WithGeocoder(g geocode.Geocoder, name string) Option {
	return func(s *Service) {
		s.geocoder = g
		s.geocoderName = name
	}
}

// WithPredictor sets the model and the name used in metrics.
func WithPredictor(p predict.Predictor, name string) Option {
	return func(s *Service) {
		s.predictor = p
		s.predictorName = name
	}
}

// WithCatalog sets the validated categorical groups and, through them, the schema.
func WithCatalog(c *features.Catalog) Option {
	return func(s *Service) {
		s.catalog = c
	}
}

// WithFormFields sets the numeric and boolean inputs exposed to clients.
func WithFormFields(fields []model.FormField) Option {
	return func(s *Service) {
		s.fields = slices.Clone(fields)
	}
}

// WithStrictFeatures makes Build fail on schema columns left unassigned.
func WithStrictFeatures(strict bool) Option {
	return func(s *Service) {
		s.strict = strict
	}
}

// WithCurrencyLocale sets the locale used for digit grouping of prices.
func WithCurrencyLocale(tag string) Option {
	return func(s *Service) {
		if t, err := language.Parse(tag); err == nil {
			s.printer = message.NewPrinter(t)
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Geocoder, predictor and catalog are required.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		geocoderName:  "geocoder",
		predictorName: "predictor",
		printer:       message.NewPrinter(language.AmericanEnglish),
		logger:        logger.Nop(),
		startedAt:     time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	switch {
	case s.geocoder == nil:
		return nil, newError("service.New", ErrNotConfigured, errors.New("geocoder is required"))
	case s.predictor == nil:
		return nil, newError("service.New", ErrNotConfigured, errors.New("predictor is required"))
	case s.catalog == nil:
		return nil, newError("service.New", ErrNotConfigured, errors.New("catalog is required"))
	}

	metrics.UpdateSchemaColumns(s.catalog.Schema().Len())
	metrics.UpdateCategoricalGroups(len(s.catalog.Groups()))
	return s, nil
}

// Estimate geocodes the address, aligns the inputs to the model schema and
// predicts a price. Steps run in order and the first failure ends the request.
func (s *Service) Estimate(ctx context.Context, req model.EstimateRequest) (types.Estimate, error) {
	start := time.Now()
	s.stats.requests.Add(1)

	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	ctx = logger.WithRequestID(ctx, req.RequestID)

	est, outcome, err := s.estimate(ctx, req)
	metrics.RecordEstimate(outcome, float64(time.Since(start).Milliseconds()))
	if err != nil {
		s.count(outcome)
		s.logger.Warn(ctx, "estimate failed",
			logger.String("outcome", outcome), logger.Error(err),
			logger.Duration("elapsed", time.Since(start)))
		return types.Estimate{RequestID: req.RequestID}, err
	}

	s.stats.succeeded.Add(1)
	metrics.RecordPredictedPrice(est.Price)
	s.logger.Info(ctx, "estimate done",
		logger.String("price", est.FormattedPrice),
		logger.Duration("elapsed", time.Since(start)))
	return est, nil
}

func (s *Service) estimate(ctx context.Context, req model.EstimateRequest) (types.Estimate, string, error) {
	const op = "service.Estimate"

	address := strings.TrimSpace(req.Address)
	if address == "" {
		return types.Estimate{}, outcomeBadRequest, newError(op, ErrBadRequest, errors.New("address is required"))
	}
	if err := s.validateFields(req.Numeric); err != nil {
		return types.Estimate{}, outcomeBadRequest, newError(op, ErrBadRequest, err)
	}

	// Resolve choices before the network call so bad input never costs a geocode.
	choices, err := s.catalog.Choices(req.Choices)
	if err != nil {
		return types.Estimate{}, outcomeInvalidChoice, newError(op, ErrInvalidChoice, err)
	}

	loc, err := s.geocode(ctx, address)
	if err != nil {
		if errors.Is(err, geocode.ErrNotFound) {
			return types.Estimate{}, outcomeGeocodeNotFound, newError(op, ErrGeocodeNotFound, err)
		}
		return types.Estimate{}, outcomeGeocodeProvider, newError(op, ErrGeocodeProvider, err)
	}

	numeric := mergeInputs(req.Numeric, req.Flags, loc)

	var buildOpts []features.BuildOption
	if s.strict {
		buildOpts = append(buildOpts, features.WithStrict())
	}
	schema := s.catalog.Schema()
	vec, err := features.Build(schema, numeric, choices, buildOpts...)
	if err != nil {
		kind := ErrSchemaMismatch
		switch {
		case errors.Is(err, ErrMissingValue):
			kind = ErrMissingValue
		case errors.Is(err, ErrInvalidChoice):
			kind = ErrInvalidChoice
		}
		metrics.RecordErrorByComponent("features", kind.Error())
		return types.Estimate{}, outcomeBuild, newError(op, kind, err)
	}

	price, err := s.predict(ctx, vec)
	if err != nil {
		return types.Estimate{}, outcomePrediction, newError(op, ErrPrediction, err)
	}

	est := types.Estimate{
		RequestID:      req.RequestID,
		Price:          price,
		FormattedPrice: s.FormatPrice(price),
		Latitude:       loc.Latitude,
		Longitude:      loc.Longitude,
		Address:        loc.DisplayName,
	}
	if est.Address == "" {
		est.Address = address
	}
	if req.IncludeFeatures {
		est.Features = schema.Named(vec)
	}
	return est, outcomeOK, nil
}

func (s *Service) geocode(ctx context.Context, address string) (geocode.Location, error) {
	start := time.Now()
	loc, err := s.geocoder.Geocode(ctx, address)
	outcome := outcomeOK
	switch {
	case errors.Is(err, geocode.ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
		metrics.RecordErrorByComponent("geocode", "provider")
	}
	metrics.RecordGeocode(s.geocoderName, outcome, float64(time.Since(start).Milliseconds()))
	return loc, err
}

func (s *Service) predict(ctx context.Context, vec features.Vector) (float64, error) {
	start := time.Now()
	price, err := s.predictor.Predict(ctx, vec)
	outcome := outcomeOK
	if err != nil {
		outcome = "error"
		metrics.RecordErrorByComponent("predict", "prediction")
	}
	metrics.RecordPrediction(s.predictorName, outcome, float64(time.Since(start).Milliseconds()))
	return price, err
}

func (s *Service) validateFields(numeric map[string]float64) error {
	for name, v := range numeric {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New(name + ": value must be a finite number")
		}
		for _, f := range s.fields {
			if f.Name != name {
				continue
			}
			if f.Kind == model.FieldBool {
				return errors.New(name + ": expects true or false, not a number")
			}
			if !f.InRange(v) {
				return errors.New(name + ": value out of range")
			}
		}
	}
	return nil
}

// mergeInputs folds flags (as 1/0) and the geocoded position into a fresh map.
func mergeInputs(numeric map[string]float64, flags map[string]bool, loc geocode.Location) map[string]float64 {
	out := make(map[string]float64, len(numeric)+len(flags)+2)
	for k, v := range numeric {
		out[k] = v
	}
	for k, v := range flags {
		if v {
			out[k] = 1
		} else {
			out[k] = 0
		}
	}
	out[FeatureLatitude] = loc.Latitude
	out[FeatureLongitude] = loc.Longitude
	return out
}

func (s *Service) count(outcome string) {
	switch outcome {
	case outcomeBadRequest:
		s.stats.badRequests.Add(1)
	case outcomeGeocodeNotFound:
		s.stats.geocodeNotFound.Add(1)
	case outcomeGeocodeProvider:
		s.stats.geocodeFailures.Add(1)
	case outcomeInvalidChoice:
		s.stats.invalidChoices.Add(1)
	case outcomeBuild:
		s.stats.buildFailures.Add(1)
	case outcomePrediction:
		s.stats.predictFailures.Add(1)
	}
}

// FormatPrice renders a price rounded to whole units with grouped digits, e.g. $1,234,568.
// Rounding is half away from zero and any finite magnitude is rendered in full.
func (s *Service) FormatPrice(price float64) string {
	rounded := math.Round(price)
	amount := s.printer.Sprint(number.Decimal(math.Abs(rounded), number.MaxFractionDigits(0)))
	if rounded < 0 {
		return "-$" + amount
	}
	return "$" + amount
}

// FormOptions describes the inputs clients may send.
func (s *Service) FormOptions() types.FormOptions {
	return types.FormOptions{
		Fields: slices.Clone(s.fields),
		Groups: s.catalog.Groups(),
	}
}

// Stats returns a snapshot of outcome counters.
func (s *Service) Stats() types.Stats {
	return types.Stats{
		Requests:          s.stats.requests.Load(),
		Succeeded:         s.stats.succeeded.Load(),
		BadRequests:       s.stats.badRequests.Load(),
		GeocodeNotFound:   s.stats.geocodeNotFound.Load(),
		GeocodeFailures:   s.stats.geocodeFailures.Load(),
		InvalidChoices:    s.stats.invalidChoices.Load(),
		BuildFailures:     s.stats.buildFailures.Load(),
		PredictFailures:   s.stats.predictFailures.Load(),
		UptimeSeconds:     int64(time.Since(s.startedAt).Seconds()),
		SchemaColumns:     s.catalog.Schema().Len(),
		CategoricalGroups: len(s.catalog.Groups()),
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/homeprice/internal/adapters/geocode"
	"github.com/okian/homeprice/internal/adapters/http/api"
	"github.com/okian/homeprice/internal/adapters/http/site"
	"github.com/okian/homeprice/internal/adapters/http/swagger"
	app "github.com/okian/homeprice/internal/app"
	"github.com/okian/homeprice/internal/config"
	"github.com/okian/homeprice/internal/domain/features"
	"github.com/okian/homeprice/internal/domain/predict"
	"github.com/okian/homeprice/pkg/logger"
	"github.com/okian/homeprice/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Get().Fatal(ctx, "failed to load config", logger.Error(err))
	}
	if cfg.LogFormat != "text" {
		if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
			logger.Get().Fatal(ctx, "failed to switch log format", logger.Error(err))
		}
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	configureMetrics(cfg)

	svc, err := buildService(ctx, cfg, log)
	if err != nil {
		log.Fatal(ctx, "failed to build service", logger.Error(err))
	}

	if err := run(ctx, cfg, newHandler(ctx, cfg, svc, log), log); err != nil {
		log.Error(ctx, "server stopped with error", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// configureMetrics applies the metrics settings. It runs before any collaborator records.
func configureMetrics(cfg *config.Config) {
	metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithRefreshInterval(time.Duration(cfg.MetricsRefreshMS)*time.Millisecond),
		metrics.WithLatencyBuckets(cfg.MetricsLatencyBucketsMS),
		metrics.WithConstLabels(cfg.MetricsConstLabels),
	)
}

// buildService loads the schema and model and wires the collaborators.
// Any failure here is a startup failure.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	schema, err := features.LoadSchema(cfg.SchemaPath)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "schema loaded", logger.String("path", cfg.SchemaPath), logger.Int("columns", schema.Len()))

	var catalogOpts []features.CatalogOption
	if !cfg.StrictCatalog {
		catalogOpts = append(catalogOpts, features.WithLenientValidation())
	}
	catalog, err := features.NewCatalog(schema, cfg.CategoricalGroups, catalogOpts...)
	if err != nil {
		return nil, err
	}
	if w := catalog.Warnings(); len(w) > 0 {
		log.Warn(ctx, "categorical options without schema columns", logger.Strings("missing", w))
	}

	predictor, err := newPredictor(cfg, schema)
	if err != nil {
		return nil, err
	}

	geocoder, err := geocode.New(cfg.Geocoder,
		geocode.WithBaseURL(cfg.GeocodeBaseURL),
		geocode.WithAPIKey(cfg.GeocodeAPIKey),
		geocode.WithUserAgent(cfg.GeocodeUserAgent),
		geocode.WithTimeout(time.Duration(cfg.GeocodeTimeoutMS)*time.Millisecond),
		geocode.WithRateLimit(cfg.GeocodeRatePerSec),
	)
	if err != nil {
		return nil, err
	}

	return app.New(
		app.WithLogger(log.Named("estimator")),
		app.WithGeocoder(geocoder, cfg.Geocoder),
		app.WithPredictor(predictor, cfg.Predictor),
		app.WithCatalog(catalog),
		app.WithFormFields(cfg.FormFields),
		app.WithStrictFeatures(cfg.StrictFeatures),
		app.WithCurrencyLocale(cfg.CurrencyLocale),
	)
}

func newPredictor(cfg *config.Config, schema features.Schema) (predict.Predictor, error) {
	switch predict.Kind(cfg.Predictor) {
	case predict.KindLinear:
		return predict.LoadLinearModel(cfg.ModelPath, schema)
	case predict.KindRemote:
		return predict.NewRemoteModel(cfg.PredictorURL, schema,
			predict.WithTimeout(time.Duration(cfg.PredictorTimeoutMS)*time.Millisecond))
	default:
		return nil, fmt.Errorf("%w: unknown predictor %q", config.ErrInvalidConfig, cfg.Predictor)
	}
}

// newHandler registers every route on one mux.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc,
		api.WithAllowedOrigins(cfg.CORSAllowedOrigins),
		api.WithLogger(log.Named("api")),
	).Register(ctx, mux)
	site.Register(ctx, mux, svc, log.Named("site"))
	return mux
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config, handler http.Handler, log logger.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return metrics.RunSystemUpdater(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Info(context.Background(), "server stopped")
		return nil
	})
	return g.Wait()
}

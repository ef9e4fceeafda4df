package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/lmiguelgato/ParentPlanner/internal/adapter/http"
	kafkaadapter "github.com/lmiguelgato/ParentPlanner/internal/adapter/kafka"
	"github.com/lmiguelgato/ParentPlanner/internal/config"
	"github.com/lmiguelgato/ParentPlanner/internal/domain"
	"github.com/lmiguelgato/ParentPlanner/internal/geocode/nominatim"
	"github.com/lmiguelgato/ParentPlanner/internal/observability"
	"github.com/lmiguelgato/ParentPlanner/internal/pipeline"
	"github.com/lmiguelgato/ParentPlanner/internal/planner"
	"github.com/lmiguelgato/ParentPlanner/internal/source"
	"github.com/lmiguelgato/ParentPlanner/internal/store"
	"github.com/lmiguelgato/ParentPlanner/internal/weather/openmeteo"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Geocoding (feature-flagged via GEOCODE_ENABLED).
	var geocoder domain.Geocoder
	if cfg.GeocodeEnabled {
		client := nominatim.NewClient(cfg.GeocodeUserAgent, cfg.GeocodeTimeout, metrics, logger)
		geocoder = nominatim.NewCachedGeocoder(client, cfg.GeocodeCacheSize, metrics)
		logger.Info("nominatim geocoding enabled", "cache_size", cfg.GeocodeCacheSize, "timeout", cfg.GeocodeTimeout)
	} else {
		logger.Info("geocoding disabled")
	}

	// Weather forecasts (feature-flagged via WEATHER_ENABLED).
	var forecaster domain.Forecaster
	if cfg.WeatherEnabled {
		forecaster = openmeteo.NewClient(cfg.WeatherTimeout, metrics, logger)
		logger.Info("open-meteo forecasts enabled", "timeout", cfg.WeatherTimeout)
	} else {
		logger.Info("weather forecasts disabled")
	}

	enricher := domain.NewEnricher(geocoder, forecaster, cfg.Region(), cfg.EventWindow, logger)

	sources, err := buildSources(cfg)
	if err != nil {
		logger.Error("failed to build sources", "error", err)
		os.Exit(1)
	}
	logger.Info("sources configured", "count", len(cfg.Sources))

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("failed to create data directory", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	events, err := store.OpenEventStore(filepath.Join(cfg.DataDir, "events.json"))
	if err != nil {
		logger.Error("failed to open event store", "error", err)
		os.Exit(1)
	}
	seen, err := store.OpenSeenSets(filepath.Join(cfg.DataDir, "seen"))
	if err != nil {
		logger.Error("failed to open seen sets", "error", err)
		os.Exit(1)
	}
	subscribers, err := store.OpenRegistry(filepath.Join(cfg.DataDir, "subscribers.json"))
	if err != nil {
		logger.Error("failed to open subscriber registry", "error", err)
		os.Exit(1)
	}
	logger.Info("stores opened", "events", events.Len(), "subscribers", len(subscribers.List()))

	// Delivery transport. Without Kafka the broadcast only hits the log.
	var (
		notifier pipeline.Notifier
		sink     pipeline.EventSink
		closers  []func() error
	)
	if cfg.KafkaEnabled {
		kn := kafkaadapter.NewNotifier(cfg, logger)
		kw := kafkaadapter.NewWriter(cfg, logger)
		notifier, sink = kn, kw
		closers = append(closers, kn.Close, kw.Close)
		logger.Info("kafka delivery enabled", "brokers", cfg.KafkaBrokers)
	} else {
		notifier = pipeline.NewLogNotifier(logger)
		logger.Info("kafka delivery disabled")
	}

	orch := pipeline.New(pipeline.Options{
		Sources:         sources,
		Enricher:        enricher,
		Store:           events,
		Subscribers:     subscribers,
		Notifier:        notifier,
		Sink:            sink,
		Logger:          logger,
		Metrics:         metrics,
		RefreshInterval: cfg.RefreshInterval,
		PollInterval:    cfg.PollInterval,
		EnrichWorkers:   cfg.EnrichWorkers,
	})

	svc := planner.NewService(events, seen, subscribers, orch, cfg.AdminID, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, orch, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the refresh orchestrator.
	go func() {
		if err := orch.Run(ctx); err != nil {
			logger.Error("orchestrator error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// buildSources turns the sources file entries into adapters.
func buildSources(cfg *config.Config) (*source.Registry, error) {
	adapters := make([]source.Source, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		switch sc.Type {
		case "http":
			adapters = append(adapters, source.NewHTTPFeed(sc.Name, sc.URL, cfg.FeedTimeout))
		case "file":
			adapters = append(adapters, source.NewStaticFile(sc.Name, sc.Path))
		}
	}
	return source.NewRegistry(adapters...)
}

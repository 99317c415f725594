package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/floodaura-sync/internal/adapter/api"
	httpadapter "github.com/couchcryptid/floodaura-sync/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/floodaura-sync/internal/adapter/kafka"
	"github.com/couchcryptid/floodaura-sync/internal/adapter/mapbox"
	"github.com/couchcryptid/floodaura-sync/internal/adapter/realtime"
	"github.com/couchcryptid/floodaura-sync/internal/config"
	"github.com/couchcryptid/floodaura-sync/internal/domain"
	"github.com/couchcryptid/floodaura-sync/internal/observability"
	"github.com/couchcryptid/floodaura-sync/internal/viewmodel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	fallback, err := loadFallback(cfg, logger)
	if err != nil {
		logger.Error("failed to load fallback alerts", "error", err)
		os.Exit(1)
	}

	backend := api.NewClient(cfg.APIBaseURL, cfg.APITimeout, cfg.APIRetryMax, logger, metrics)
	chatBackend := api.NewClient(cfg.ChatBaseURL, cfg.APITimeout, cfg.APIRetryMax, logger, metrics)
	alertsAPI := api.NewAlertsAPI(backend)
	mapAPI := api.NewMapAPI(backend)
	assistant := api.NewAssistantAPI(chatBackend, backend)

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var opts []viewmodel.Option
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		if err != nil {
			logger.Error("failed to create geocoder", "error", err)
			os.Exit(1)
		}
		opts = append(opts, viewmodel.WithGeocoder(geocoder))
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var (
		sink      viewmodel.EventSink
		publisher *kafkaadapter.Publisher
	)
	if cfg.KafkaEnabled() {
		publisher = kafkaadapter.NewPublisher(cfg, logger, metrics)
		sink = publisher
		logger.Info("kafka forwarding enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaEventsTopic)
	}

	alertsPage := viewmodel.NewAlertsPage(alertsAPI, fallback, cfg.PollInterval, logger, metrics, opts...)
	liveMap := viewmodel.NewLiveMap(alertsAPI, mapAPI, fallback, cfg.PollInterval, logger, metrics, opts...)
	form := viewmodel.NewSubscriptionForm(alertsAPI, cfg.SubscriptionNotice, logger, metrics, opts...)
	chat := viewmodel.NewChatSession(assistant, logger, metrics)
	events := viewmodel.NewEvents(sink, logger, liveMap, viewmodel.RefresherFunc(alertsPage.Refresh))

	views := httpadapter.Views{
		Alerts:       alertsPage,
		Map:          liveMap,
		Subscription: form,
		Chat:         chat,
	}

	var channel *realtime.Channel
	if cfg.RealtimeEnabled {
		channel = realtime.New(realtime.Config{
			URL:            cfg.WSURL,
			InitialBackoff: cfg.RealtimeInitialBackoff,
			MaxBackoff:     cfg.RealtimeMaxBackoff,
			MaxAttempts:    cfg.RealtimeMaxAttempts,
		}, events.Handle, logger, metrics)
		views.Realtime = channel
		views.Messages = events
	} else {
		logger.Info("realtime channel disabled")
	}

	ready := allReady{alertsPage, liveMap}
	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, views, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	var wg sync.WaitGroup
	wg.Go(func() {
		if err := alertsPage.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("alerts page error", "error", err)
		}
	})
	wg.Go(func() {
		if err := liveMap.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("live map error", "error", err)
		}
	})
	if channel != nil {
		wg.Go(func() {
			if err := channel.Run(ctx); err != nil {
				logger.Error("realtime channel stopped", "error", err)
			}
		})
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	wg.Wait()
	events.Wait()
	form.Close()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func loadFallback(cfg *config.Config, logger *slog.Logger) (domain.FallbackProvider, error) {
	if cfg.FallbackFile == "" {
		return domain.DefaultFallback(), nil
	}
	fallback, err := domain.LoadFallbackFile(cfg.FallbackFile)
	if err != nil {
		return nil, err
	}
	logger.Info("fallback alerts loaded", "path", cfg.FallbackFile, "count", len(fallback))
	return fallback, nil
}

// allReady is ready once every page has shown data at least once.
type allReady []sharedobs.ReadinessChecker

func (r allReady) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

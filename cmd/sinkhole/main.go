package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/sinkhole-risk/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/sinkhole-risk/internal/adapter/kafka"
	"github.com/couchcryptid/sinkhole-risk/internal/adapter/kakao"
	"github.com/couchcryptid/sinkhole-risk/internal/adapter/safetydata"
	"github.com/couchcryptid/sinkhole-risk/internal/config"
	"github.com/couchcryptid/sinkhole-risk/internal/domain"
	"github.com/couchcryptid/sinkhole-risk/internal/mapsync"
	"github.com/couchcryptid/sinkhole-risk/internal/observability"
	"github.com/couchcryptid/sinkhole-risk/internal/pipeline"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Initialize geocoder (feature-flagged via KAKAO_ENABLED / KAKAO_REST_KEY).
	var geocoder domain.Geocoder
	if cfg.KakaoEnabled {
		client := kakao.NewClient(cfg.KakaoRESTKey, cfg.KakaoTimeout, cfg.KakaoRateLimit, metrics, logger)
		geocoder = kakao.NewCachedGeocoder(client, cfg.KakaoCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("kakao geocoding enabled",
			"cache_size", cfg.KakaoCacheSize, "timeout", cfg.KakaoTimeout, "rate_limit", cfg.KakaoRateLimit)
	} else {
		logger.Info("kakao geocoding disabled")
	}

	fetcher := safetydata.NewClient(safetydata.Options{
		BaseURL:  cfg.DataAPIBaseURL,
		Timeout:  cfg.DataAPITimeout,
		PageSize: cfg.DataAPIPageSize,
		MaxPages: cfg.DataAPIMaxPages,
		ServiceKeys: map[domain.Dataset]string{
			domain.DatasetRiskAssessment: cfg.RiskServiceKey,
			domain.DatasetAccident:       cfg.AccidentServiceKey,
			domain.DatasetIncidentDetail: cfg.IncidentServiceKey,
			domain.DatasetFacilitySafety: cfg.FacilityServiceKey,
		},
	}, metrics, logger)

	layer := mapsync.NewLayer()
	syncer := mapsync.NewSynchronizer(layer, geocoder, cfg.GeocodeConcurrency, logger, metrics)

	var (
		publisher pipeline.ReportPublisher
		writer    *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka report sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReportTopic)
	}

	loader := pipeline.New(fetcher, syncer, publisher, pipeline.Options{
		FacilityMapLimit: cfg.FacilityMapLimit,
		AccidentMapLimit: cfg.AccidentMapLimit,
	}, logger, metrics)
	scheduler := pipeline.NewScheduler(loader, cfg.LoadSchedule, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Ready:     loader,
		Snapshots: loader,
		Map:       layer,
		Clicker:   syncer,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start load cycles.
	go func() {
		if err := scheduler.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	syncer.Stop()
	loader.Wait()
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

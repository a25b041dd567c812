package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/file-drop/file-drop-backend/pkg/cache"
	"github.com/file-drop/file-drop-backend/pkg/config"
	"github.com/file-drop/file-drop-backend/pkg/dao"
	"github.com/file-drop/file-drop-backend/pkg/db"
	"github.com/file-drop/file-drop-backend/pkg/handler"
	"github.com/file-drop/file-drop-backend/pkg/instrumentation"
	"github.com/file-drop/file-drop-backend/pkg/router"
	"github.com/file-drop/file-drop-backend/pkg/storage"
	"github.com/file-drop/file-drop-backend/pkg/uploads"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	config.Load()
	config.ConfigureLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Connect(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.MigrateDB(db.GetUrl(), "up"); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	conf := config.Get()

	chunks, err := uploads.NewChunkStore(conf.Uploads.StagingPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize chunk staging")
	}
	artifacts, err := storage.NewArtifactStore(conf.Uploads.StoragePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize artifact storage")
	}

	metrics := instrumentation.NewMetrics(prometheus.NewRegistry())
	daoReg := dao.GetDaoRegistry(db.DB)
	registry := uploads.NewSessionRegistry(chunks, metrics)
	reassembler := uploads.NewReassembler(registry, chunks, artifacts, daoReg.FileRecord, metrics)
	coordinator := uploads.NewUploadCoordinator(registry, chunks, reassembler, artifacts, daoReg.FileRecord, metrics)
	cacheInst := cache.Initialize()

	go registry.StartSweeper(ctx, conf.Uploads.SweepInterval, conf.Uploads.SessionMaxAge)

	echo := router.ConfigureEchoWithMetrics(ctx, metrics)
	handler.RegisterRoutes(ctx, echo, coordinator, daoReg, cacheInst)

	go func() {
		if err := echo.Start(conf.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", conf.Metrics.Port),
		Handler: metricsHandler(metrics),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start metrics server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := echo.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shut down server cleanly")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shut down metrics server cleanly")
	}
}

func metricsHandler(metrics *instrumentation.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(config.Get().Metrics.Path, promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	return mux
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/replenishment/internal/api"
	"github.com/andresuchdata/replenishment/internal/cache"
	"github.com/andresuchdata/replenishment/internal/config"
	"github.com/andresuchdata/replenishment/internal/datasource"
	"github.com/andresuchdata/replenishment/internal/drive"
	"github.com/andresuchdata/replenishment/internal/pipeline"
	"github.com/andresuchdata/replenishment/internal/pipeline/replenishment"
	"github.com/andresuchdata/replenishment/internal/scheduler"
	"github.com/andresuchdata/replenishment/internal/service"
	"github.com/andresuchdata/replenishment/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger.SetFormat(cfg.Log.Format)
	logger.SetLevel(cfg.Log.Level)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	params, err := cfg.Scoring.Params()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("invalid scoring parameters")
	}
	p, err := replenishment.NewPipeline(params)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to build pipeline")
	}
	orch := pipeline.NewOrchestrator(p, pipeline.PipelineConfig{Name: p.Name(), WorkerCount: cfg.Pipeline.WorkerCount})

	src, err := datasource.Open(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("source", cfg.Data.Source).Msg("failed to open data source")
	}
	defer src.Close()

	reportCache, err := cache.NewReportCache(ctx, cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("redis unavailable, serving without a report cache")
		reportCache = cache.NewNoopReportCache()
	}
	defer reportCache.Close()

	svc := service.NewReplenishmentService(src.Source, p, orch, reportCache, service.Options{
		TopN:      cfg.Scoring.TopN,
		Locale:    cfg.Scoring.Locale,
		SalesFrom: cfg.Data.SalesFrom,
	})

	// the server starts even when the first load fails; /refresh retries it
	if err := svc.Reload(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("initial dataset load failed")
	}

	sched, err := scheduler.New(cfg.Schedule.RefreshCron, svc, 0)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("invalid refresh schedule")
	}
	if sched != nil {
		sched.Start()
	}

	if src.Drive != nil && cfg.Drive.PollIntervalSeconds > 0 {
		w := drive.NewWatcher(src.Drive, cfg.Drive.FolderID,
			[]string{cfg.Drive.StockFileName, cfg.Drive.SalesFileName},
			time.Duration(cfg.Drive.PollIntervalSeconds)*time.Second, svc.Reload)
		go w.Run(ctx)
	}

	router := api.NewRouter(&api.Services{Replenishment: svc}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	logger.Log.Info().Msg("server exiting")
}

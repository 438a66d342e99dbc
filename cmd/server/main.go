package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/refexsite/internal/app"
	"github.com/refexsite/internal/config"
	"github.com/refexsite/internal/db"
	"github.com/refexsite/internal/handler"
	"github.com/refexsite/internal/logging"
	"github.com/refexsite/internal/router"
	"github.com/refexsite/internal/stock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.AppConfig, logger *zap.Logger) error {
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := app.OpenDatabase(cfg, logger)
	if err != nil {
		return err
	}
	if err := db.EnsureUser(gdb, cfg.AdminUserName, cfg.AdminPassword); err != nil {
		return err
	}

	store, err := app.NewStore(ctx, cfg)
	if err != nil {
		return err
	}
	settings := app.NewSettings(gdb, cfg)
	stockSvc := app.NewStockService(gdb, cfg, settings, logger)

	api := handler.NewAPI(gdb, handler.Options{
		Store:          store,
		Stock:          stockSvc,
		Settings:       settings,
		UploadMaxBytes: int64(cfg.UploadMaxMB) << 20,
		StockAPIKey:    cfg.Stock.APIKey,
		StockAPIHost:   cfg.Stock.APIHost,
		RefreshDays:    cfg.Stock.RefreshDays,
		Logger:         logger,
	})

	uploadDir := cfg.UploadDir
	if cfg.S3.Bucket != "" {
		uploadDir = ""
	}
	r := router.SetupRouter(api, router.Options{
		SessionSecret: cfg.SessionSecret,
		CORSOrigins:   cfg.CORSOrigins,
		UploadDir:     uploadDir,
		UploadURLPath: cfg.UploadURLPath,
		Logger:        logger,
	})
	r.MaxMultipartMemory = int64(cfg.UploadMaxMB) << 20

	if cfg.Stock.RefreshCron != "" {
		scheduler, err := stock.NewScheduler(cfg.Stock.RefreshCron, cfg.Stock.RefreshDays, stockSvc, logger.Named("scheduler"))
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
		logger.Info("stock refresh scheduled", zap.String("cron", cfg.Stock.RefreshCron))
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

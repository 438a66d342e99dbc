// Package app wires configuration into the services shared by the server
// and the refexctl tool.
package app

import (
	"context"

	"github.com/refexsite/internal/config"
	"github.com/refexsite/internal/db"
	"github.com/refexsite/internal/service"
	"github.com/refexsite/internal/stock"
	"github.com/refexsite/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenDatabase initialises db.DB from cfg.
func OpenDatabase(cfg config.AppConfig, logger *zap.Logger) (*gorm.DB, error) {
	err := db.Init(db.Options{
		Driver: cfg.DatabaseDriver,
		Path:   cfg.DatabasePath,
		URL:    cfg.DatabaseURL,
		Logger: logger,
		Debug:  cfg.LogLevel == "debug",
	})
	if err != nil {
		return nil, err
	}
	return db.DB, nil
}

// NewStore returns S3 storage when a bucket is configured, local disk otherwise.
func NewStore(ctx context.Context, cfg config.AppConfig) (storage.Store, error) {
	if cfg.S3.Bucket != "" {
		return storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PublicURL: cfg.S3.PublicURL,
		})
	}
	return storage.NewLocalStore(cfg.UploadDir, cfg.UploadURLPath), nil
}

// NewSettings returns the settings service pointed at the quote API.
func NewSettings(gdb *gorm.DB, cfg config.AppConfig) *service.SystemSettingService {
	settings := service.NewSystemSettingService(gdb)
	settings.SetStockAPIURL(cfg.Stock.APIURL)
	return settings
}

// NewStockService builds the stock service with the rod scraper and a quote
// client whose credentials prefer the admin-stored values.
func NewStockService(gdb *gorm.DB, cfg config.AppConfig, settings *service.SystemSettingService, logger *zap.Logger) *stock.Service {
	quotes := stock.NewQuoteClient(cfg.Stock.APIURL, func() (string, string) {
		return settings.StockCredentials(cfg.Stock.APIKey, cfg.Stock.APIHost)
	})
	downloader := stock.NewRodDownloader(stock.RodOptions{
		PageURL:     cfg.Stock.HistoryURL,
		BrowserBin:  cfg.Stock.BrowserBin,
		DownloadDir: cfg.Stock.DownloadDir,
		Timeout:     cfg.Stock.ScrapeTimeout,
		Logger:      logger.Named("scraper"),
	})
	return stock.NewService(gdb, stock.Options{
		BSECode:    cfg.Stock.BSECode,
		NSESymbol:  cfg.Stock.NSESymbol,
		Downloader: downloader,
		Quotes:     quotes,
		Logger:     logger.Named("stock"),
	})
}

package handler

import (
	"github.com/refexsite/internal/service"
	"github.com/refexsite/internal/stock"
	"github.com/refexsite/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options carries the dependencies NewAPI cannot build from the database.
type Options struct {
	Store          storage.Store
	Stock          *stock.Service
	Settings       *service.SystemSettingService
	UploadMaxBytes int64
	StockAPIKey    string
	StockAPIHost   string
	RefreshDays    int
	Logger         *zap.Logger
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db             *gorm.DB
	catalog        *service.Catalog
	pages          *service.PageService
	system         *service.SystemSettingService
	stock          *stock.Service
	store          storage.Store
	uploadMaxBytes int64
	stockAPIKey    string
	stockAPIHost   string
	refreshDays    int
	logger         *zap.Logger
}

const defaultUploadMaxBytes = 20 << 20

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, opts Options) *API {
	system := opts.Settings
	if system == nil {
		system = service.NewSystemSettingService(db)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBytes := opts.UploadMaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultUploadMaxBytes
	}

	refreshDays := opts.RefreshDays
	if refreshDays <= 0 {
		refreshDays = 30
	}

	return &API{
		db:             db,
		catalog:        service.NewCatalog(db),
		pages:          service.NewPageService(db),
		system:         system,
		stock:          opts.Stock,
		store:          opts.Store,
		uploadMaxBytes: maxBytes,
		stockAPIKey:    opts.StockAPIKey,
		stockAPIHost:   opts.StockAPIHost,
		refreshDays:    refreshDays,
		logger:         logger,
	}
}

// Catalog exposes the content services, used by tooling that shares the API.
func (a *API) Catalog() *service.Catalog {
	return a.catalog
}

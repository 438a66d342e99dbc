package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/refexsite/internal/config"
	"github.com/refexsite/internal/db"
	"github.com/refexsite/internal/stock"
	"github.com/refexsite/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWiringWithLocalStorage(t *testing.T) {
	dir := t.TempDir()
	cfg := config.AppConfig{
		DatabaseDriver: "sqlite",
		DatabasePath:   filepath.Join(dir, "refex.db"),
		UploadDir:      filepath.Join(dir, "uploads"),
		UploadURLPath:  "/uploads",
		Stock:          config.StockConfig{BSECode: "532884", NSESymbol: "REFEX"},
	}

	gdb, err := OpenDatabase(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
		db.DB = nil
	})

	store, err := NewStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalStore{}, store)

	settings := NewSettings(gdb, cfg)
	svc := NewStockService(gdb, cfg, settings, zap.NewNop())
	assert.Equal(t, "REFEX", svc.Symbol(stock.ExchangeNSE))

	_, err = svc.Quote(context.Background(), stock.ExchangeBSE)
	assert.ErrorIs(t, err, stock.ErrStockUnavailable, "quote api url is unset")
}

package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/refexsite/internal/service"
	"github.com/refexsite/internal/stock"
)

// HealthCheck pings the database for load balancers and uptime checks.
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}

type systemSettingsRequest struct {
	SiteName     string `json:"siteName"`
	ContactEmail string `json:"contactEmail"`
	StockAPIKey  string `json:"stockApiKey"`
	StockAPIHost string `json:"stockApiHost"`
}

type stockTestRequest struct {
	APIKey  string `json:"apiKey"`
	APIHost string `json:"apiHost"`
}

// GetSystemSettings returns the current system settings.
func (a *API) GetSystemSettings(c *gin.Context) {
	settings, err := a.system.GetSettings()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to load settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": systemSettingsPayload(settings)})
}

// UpdateSystemSettings saves the system settings.
func (a *API) UpdateSystemSettings(c *gin.Context) {
	var payload systemSettingsRequest
	if !bindJSON(c, &payload, "invalid settings payload") {
		return
	}

	settings, err := a.system.UpdateSettings(payload.toInput())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "settings saved",
		"settings": systemSettingsPayload(settings),
	})
}

func (r systemSettingsRequest) toInput() service.SystemSettingsInput {
	return service.SystemSettingsInput{
		SiteName:     r.SiteName,
		ContactEmail: r.ContactEmail,
		StockAPIKey:  r.StockAPIKey,
		StockAPIHost: r.StockAPIHost,
	}
}

func systemSettingsPayload(settings service.SystemSettings) gin.H {
	return gin.H{
		"siteName":     settings.SiteName,
		"contactEmail": settings.ContactEmail,
		"stockApiKey":  settings.StockAPIKey,
		"stockApiHost": settings.StockAPIHost,
	}
}

// TestStockAPI checks the quote API with the submitted credentials, or the
// effective ones when the payload leaves them blank.
func (a *API) TestStockAPI(c *gin.Context) {
	var payload stockTestRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &payload, "invalid stock api payload") {
		return
	}

	key, host := a.system.StockCredentials(a.stockAPIKey, a.stockAPIHost)
	if v := strings.TrimSpace(payload.APIKey); v != "" {
		key = v
	}
	if v := strings.TrimSpace(payload.APIHost); v != "" {
		host = v
	}

	symbol := ""
	if a.stock != nil {
		symbol = a.stock.Symbol(stock.ExchangeNSE)
	}
	if err := a.system.TestStockAPI(c.Request.Context(), key, host, symbol); err != nil {
		switch {
		case errors.Is(err, service.ErrStockAPIKeyMissing), errors.Is(err, service.ErrStockAPIURLMissing):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			respondError(c, http.StatusBadGateway, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "stock api reachable"})
}

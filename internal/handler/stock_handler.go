package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/refexsite/internal/stock"
)

func (a *API) stockReady(c *gin.Context) bool {
	if a.stock == nil {
		respondStockError(c, http.StatusServiceUnavailable, "stock service is not configured")
		return false
	}
	return true
}

// GetStockQuote returns the live quote for ?exchange=BSE|NSE (BSE by default).
func (a *API) GetStockQuote(c *gin.Context) {
	if !a.stockReady(c) {
		return
	}
	exchange := c.DefaultQuery("exchange", stock.ExchangeBSE)
	quote, err := a.stock.Quote(c.Request.Context(), exchange)
	if err != nil {
		c.Error(err)
		if errors.Is(err, stock.ErrUnknownExchange) {
			respondStockError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondStockError(c, http.StatusBadGateway, err.Error())
		return
	}
	respondStock(c, quote)
}

// GetStockQuotes returns BSE and NSE quotes fetched concurrently.
func (a *API) GetStockQuotes(c *gin.Context) {
	if !a.stockReady(c) {
		return
	}
	quotes, err := a.stock.LiveQuotes(c.Request.Context())
	if err != nil {
		c.Error(err)
		respondStockError(c, http.StatusBadGateway, err.Error())
		return
	}
	respondStock(c, quotes)
}

// GetStockHistory returns stored daily prices between ?from and ?to.
func (a *API) GetStockHistory(c *gin.Context) {
	if !a.stockReady(c) {
		return
	}
	from, ok := optionalDate(c, "from")
	if !ok {
		return
	}
	to, ok := optionalDate(c, "to")
	if !ok {
		return
	}

	prices, err := a.stock.History(from, to)
	if err != nil {
		if errors.Is(err, stock.ErrInvalidRange) {
			respondStockError(c, http.StatusBadRequest, "from must not be after to")
			return
		}
		respondStockError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondStock(c, prices)
}

type refreshRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RefreshStockHistory scrapes the BSE export for the requested range, or
// the trailing refresh window when none is given.
func (a *API) RefreshStockHistory(c *gin.Context) {
	if !a.stockReady(c) {
		return
	}
	var payload refreshRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondStockError(c, http.StatusBadRequest, "invalid refresh payload")
			return
		}
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -a.refreshDays)
	var err error
	if strings.TrimSpace(payload.To) != "" {
		if to, err = stock.ParseDate(payload.To); err != nil {
			respondStockError(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	if strings.TrimSpace(payload.From) != "" {
		if from, err = stock.ParseDate(payload.From); err != nil {
			respondStockError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	rows, err := a.stock.Refresh(c.Request.Context(), from, to)
	if err != nil {
		c.Error(err)
		switch {
		case errors.Is(err, stock.ErrInvalidRange), errors.Is(err, stock.ErrMissingColumns):
			respondStockError(c, http.StatusBadRequest, err.Error())
		default:
			respondStockError(c, http.StatusBadGateway, err.Error())
		}
		return
	}
	respondStock(c, gin.H{"rows": rows, "from": from.Format("2006-01-02"), "to": to.Format("2006-01-02")})
}

// ImportStockHistory ingests an uploaded CSV export from the "file" field.
func (a *API) ImportStockHistory(c *gin.Context) {
	if !a.stockReady(c) {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		respondStockError(c, http.StatusBadRequest, "no csv uploaded")
		return
	}
	src, err := file.Open()
	if err != nil {
		respondStockError(c, http.StatusBadRequest, "failed to read upload")
		return
	}
	defer src.Close()

	rows, err := a.stock.ImportCSV(src)
	if err != nil {
		if errors.Is(err, stock.ErrMissingColumns) {
			respondStockError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondStockError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondStock(c, gin.H{"rows": rows})
}

func optionalDate(c *gin.Context, key string) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return time.Time{}, true
	}
	parsed, err := stock.ParseDate(raw)
	if err != nil {
		respondStockError(c, http.StatusBadRequest, "invalid "+key+" date")
		return time.Time{}, false
	}
	return parsed, true
}

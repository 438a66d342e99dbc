package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/refexsite/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultSiteName = "Refex Industries Limited"

// SystemSettings are the admin-editable site settings.
type SystemSettings struct {
	SiteName     string
	ContactEmail string
	StockAPIKey  string
	StockAPIHost string
}

// ErrStockAPIKeyMissing means no quote API key was provided or stored.
var ErrStockAPIKeyMissing = errors.New("stock api key is required")

// ErrStockAPIURLMissing means the quote API endpoint is not configured.
var ErrStockAPIURLMissing = errors.New("stock api url is not configured")

// SystemSettingsInput is used to update system settings.
type SystemSettingsInput struct {
	SiteName     string
	ContactEmail string
	StockAPIKey  string
	StockAPIHost string
}

// SystemSettingService reads and writes system settings.
type SystemSettingService struct {
	db          *gorm.DB
	httpClient  httpDoer
	stockAPIURL string
}

// NewSystemSettingService constructs a SystemSettingService.
func NewSystemSettingService(gdb *gorm.DB) *SystemSettingService {
	return &SystemSettingService{
		db:         gdb,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

var settingKeys = []string{
	db.SettingKeySiteName,
	db.SettingKeyContactEmail,
	db.SettingKeyStockAPIKey,
	db.SettingKeyStockAPIHost,
}

// GetSettings loads system settings, falling back to defaults.
func (s *SystemSettingService) GetSettings() (SystemSettings, error) {
	result := SystemSettings{SiteName: defaultSiteName}

	var records []db.SystemSetting
	if err := s.db.Where("key IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load system settings: %w", err)
	}

	for _, record := range records {
		switch record.Key {
		case db.SettingKeySiteName:
			if strings.TrimSpace(record.Value) != "" {
				result.SiteName = record.Value
			}
		case db.SettingKeyContactEmail:
			result.ContactEmail = record.Value
		case db.SettingKeyStockAPIKey:
			result.StockAPIKey = record.Value
		case db.SettingKeyStockAPIHost:
			result.StockAPIHost = record.Value
		}
	}

	return result, nil
}

// UpdateSettings saves system settings. A blank site name resets to the default.
func (s *SystemSettingService) UpdateSettings(input SystemSettingsInput) (SystemSettings, error) {
	sanitized := SystemSettings{
		SiteName:     strings.TrimSpace(input.SiteName),
		ContactEmail: strings.TrimSpace(input.ContactEmail),
		StockAPIKey:  strings.TrimSpace(input.StockAPIKey),
		StockAPIHost: strings.TrimSpace(input.StockAPIHost),
	}

	if sanitized.SiteName == "" {
		sanitized.SiteName = defaultSiteName
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		values := map[string]string{
			db.SettingKeySiteName:     sanitized.SiteName,
			db.SettingKeyContactEmail: sanitized.ContactEmail,
			db.SettingKeyStockAPIKey:  sanitized.StockAPIKey,
			db.SettingKeyStockAPIHost: sanitized.StockAPIHost,
		}
		for _, key := range settingKeys {
			if err := upsertSetting(tx, key, values[key]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SystemSettings{}, fmt.Errorf("update system settings: %w", err)
	}

	return sanitized, nil
}

// StockCredentials returns the stored quote API key and host, falling back
// to the given defaults when a setting is blank.
func (s *SystemSettingService) StockCredentials(defaultKey, defaultHost string) (string, string) {
	settings, err := s.GetSettings()
	if err != nil {
		return defaultKey, defaultHost
	}
	key, host := defaultKey, defaultHost
	if v := strings.TrimSpace(settings.StockAPIKey); v != "" {
		key = v
	}
	if v := strings.TrimSpace(settings.StockAPIHost); v != "" {
		host = v
	}
	return key, host
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.SystemSetting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}

// SetHTTPClient replaces the HTTP client used for outbound checks.
func (s *SystemSettingService) SetHTTPClient(client httpDoer) {
	if client == nil {
		s.httpClient = &http.Client{Timeout: 10 * time.Second}
		return
	}
	s.httpClient = client
}

// SetStockAPIURL sets the quote endpoint checked by TestStockAPI.
func (s *SystemSettingService) SetStockAPIURL(base string) {
	s.stockAPIURL = strings.TrimRight(strings.TrimSpace(base), "/")
}

// TestStockAPI calls the quote endpoint with the given credentials and
// reports whether it accepted them.
func (s *SystemSettingService) TestStockAPI(ctx context.Context, apiKey, apiHost, symbol string) error {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return ErrStockAPIKeyMissing
	}
	if s.stockAPIURL == "" {
		return ErrStockAPIURLMissing
	}

	client := s.httpClient
	if client == nil {
		client = http.DefaultClient
	}

	endpoint := s.stockAPIURL
	if symbol = strings.TrimSpace(symbol); symbol != "" {
		endpoint += "?name=" + url.QueryEscape(symbol)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build stock api request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", key)
	if host := strings.TrimSpace(apiHost); host != "" {
		req.Header.Set("X-RapidAPI-Host", host)
	}
	req.Header.Set("User-Agent", "refex-site/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request stock api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		msg := strings.TrimSpace(string(body))
		if msg != "" {
			return fmt.Errorf("stock api returned %s (%s)", resp.Status, msg)
		}
		return fmt.Errorf("stock api returned %s", resp.Status)
	}

	return nil
}

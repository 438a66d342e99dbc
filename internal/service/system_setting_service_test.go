package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type stubDoer struct {
	req    *http.Request
	status int
	body   string
	err    error
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: s.status,
		Status:     http.StatusText(s.status),
		Body:       io.NopCloser(strings.NewReader(s.body)),
	}, nil
}

func TestSystemSettingServiceDefaults(t *testing.T) {
	svc := NewSystemSettingService(setupContentTestDB(t))

	settings, err := svc.GetSettings()
	if err != nil {
		t.Fatalf("get settings failed: %v", err)
	}
	if settings.SiteName != defaultSiteName {
		t.Fatalf("expected default site name, got %s", settings.SiteName)
	}
	if settings.StockAPIKey != "" || settings.StockAPIHost != "" {
		t.Fatalf("expected empty stock credentials, got %#v", settings)
	}
}

func TestSystemSettingServiceUpdateAndCredentials(t *testing.T) {
	svc := NewSystemSettingService(setupContentTestDB(t))

	if _, err := svc.UpdateSettings(SystemSettingsInput{SiteName: "  ", StockAPIKey: " stored-key "}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	settings, err := svc.GetSettings()
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.SiteName != defaultSiteName || settings.StockAPIKey != "stored-key" {
		t.Fatalf("unexpected settings %#v", settings)
	}

	key, host := svc.StockCredentials("env-key", "env-host")
	if key != "stored-key" || host != "env-host" {
		t.Fatalf("expected stored key and default host, got %s %s", key, host)
	}

	// A second update must overwrite rather than duplicate.
	if _, err := svc.UpdateSettings(SystemSettingsInput{StockAPIHost: "quotes.example.com"}); err != nil {
		t.Fatalf("second update: %v", err)
	}
	key, host = svc.StockCredentials("env-key", "env-host")
	if key != "env-key" || host != "quotes.example.com" {
		t.Fatalf("expected env key and stored host, got %s %s", key, host)
	}
}

func TestSystemSettingServiceTestStockAPI(t *testing.T) {
	svc := NewSystemSettingService(setupContentTestDB(t))

	if err := svc.TestStockAPI(context.Background(), "", "", ""); !errors.Is(err, ErrStockAPIKeyMissing) {
		t.Fatalf("expected ErrStockAPIKeyMissing, got %v", err)
	}
	if err := svc.TestStockAPI(context.Background(), "k", "", ""); !errors.Is(err, ErrStockAPIURLMissing) {
		t.Fatalf("expected ErrStockAPIURLMissing, got %v", err)
	}

	stub := &stubDoer{status: http.StatusOK, body: `{}`}
	svc.SetHTTPClient(stub)
	svc.SetStockAPIURL("https://quotes.example.com/stock/")

	if err := svc.TestStockAPI(context.Background(), "k", "quotes.example.com", "REFEX"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if got := stub.req.URL.String(); got != "https://quotes.example.com/stock?name=REFEX" {
		t.Fatalf("unexpected url %s", got)
	}
	if stub.req.Header.Get("X-RapidAPI-Key") != "k" || stub.req.Header.Get("X-RapidAPI-Host") != "quotes.example.com" {
		t.Fatalf("missing api headers: %v", stub.req.Header)
	}

	stub.status = http.StatusForbidden
	stub.body = "invalid key"
	err := svc.TestStockAPI(context.Background(), "k", "", "")
	if err == nil || !strings.Contains(err.Error(), "invalid key") {
		t.Fatalf("expected error carrying the body, got %v", err)
	}
}

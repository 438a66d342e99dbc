package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig gathers the settings needed to run the site backend.
type AppConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	Port           string   `yaml:"port"`
	GinMode        string   `yaml:"gin_mode"`
	DatabaseDriver string   `yaml:"database_driver"`
	DatabasePath   string   `yaml:"database_path"`
	DatabaseURL    string   `yaml:"database_url"`
	SessionSecret  string   `yaml:"session_secret"`
	UploadDir      string   `yaml:"upload_dir"`
	UploadURLPath  string   `yaml:"upload_url_path"`
	UploadMaxMB    int      `yaml:"upload_max_mb"`
	CORSOrigins    []string `yaml:"cors_origins"`
	AdminUserName  string   `yaml:"admin_user_name"`
	AdminPassword  string   `yaml:"admin_password"`
	LogLevel       string   `yaml:"log_level"`
	LogFormat      string   `yaml:"log_format"`

	S3    S3Config    `yaml:"s3"`
	Stock StockConfig `yaml:"stock"`
}

// S3Config enables object storage for uploads when Bucket is set.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PublicURL string `yaml:"public_url"`
}

// StockConfig configures the quote proxy and the BSE history scraper.
type StockConfig struct {
	APIURL        string        `yaml:"api_url"`
	APIKey        string        `yaml:"api_key"`
	APIHost       string        `yaml:"api_host"`
	BSECode       string        `yaml:"bse_code"`
	NSESymbol     string        `yaml:"nse_symbol"`
	HistoryURL    string        `yaml:"history_url"`
	BrowserBin    string        `yaml:"browser_bin"`
	DownloadDir   string        `yaml:"download_dir"`
	ScrapeTimeout time.Duration `yaml:"scrape_timeout"`
	RefreshCron   string        `yaml:"refresh_cron"`
	RefreshDays   int           `yaml:"refresh_days"`
}

const defaultHistoryURL = "https://www.bseindia.com/markets/equity/EQReports/StockPrcHistori.aspx"

// Load reads the optional YAML file named by CONFIG_FILE, then applies
// environment variables on top and fills defaults for anything missing.
func Load() (AppConfig, error) {
	var cfg AppConfig

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return AppConfig{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return AppConfig{}, err
	}
	applyDefaults(&cfg)

	if cfg.DatabaseDriver == "postgres" && cfg.DatabaseURL == "" {
		return AppConfig{}, errors.New("DATABASE_URL is required when DATABASE_DRIVER=postgres")
	}

	return cfg, nil
}

func applyEnv(cfg *AppConfig) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.GinMode, "GIN_MODE")
	setString(&cfg.DatabaseDriver, "DATABASE_DRIVER")
	setString(&cfg.DatabasePath, "DATABASE_PATH")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.SessionSecret, "SESSION_SECRET")
	setString(&cfg.UploadDir, "UPLOAD_DIR")
	setString(&cfg.UploadURLPath, "UPLOAD_URL_PATH")
	setString(&cfg.AdminUserName, "ADMIN_USER_NAME")
	setString(&cfg.AdminPassword, "ADMIN_PASSWORD")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")

	setString(&cfg.S3.Bucket, "S3_BUCKET")
	setString(&cfg.S3.Region, "S3_REGION")
	setString(&cfg.S3.Endpoint, "S3_ENDPOINT")
	setString(&cfg.S3.PublicURL, "S3_PUBLIC_URL")

	setString(&cfg.Stock.APIURL, "STOCK_API_URL")
	setString(&cfg.Stock.APIKey, "STOCK_API_KEY")
	setString(&cfg.Stock.APIHost, "STOCK_API_HOST")
	setString(&cfg.Stock.BSECode, "STOCK_BSE_CODE")
	setString(&cfg.Stock.NSESymbol, "STOCK_NSE_SYMBOL")
	setString(&cfg.Stock.HistoryURL, "STOCK_BSE_HISTORY_URL")
	setString(&cfg.Stock.BrowserBin, "STOCK_BROWSER_BIN")
	setString(&cfg.Stock.DownloadDir, "STOCK_DOWNLOAD_DIR")
	setString(&cfg.Stock.RefreshCron, "STOCK_REFRESH_CRON")

	if origins := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); origins != "" {
		cfg.CORSOrigins = splitCSV(origins)
	}

	if err := setInt(&cfg.UploadMaxMB, "UPLOAD_MAX_MB"); err != nil {
		return err
	}
	if err := setInt(&cfg.Stock.RefreshDays, "STOCK_REFRESH_DAYS"); err != nil {
		return err
	}
	if raw := strings.TrimSpace(os.Getenv("STOCK_SCRAPE_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("STOCK_SCRAPE_TIMEOUT: %w", err)
		}
		cfg.Stock.ScrapeTimeout = d
	}
	return nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}
	if cfg.GinMode == "" {
		cfg.GinMode = "release"
	}
	cfg.DatabaseDriver = strings.ToLower(cfg.DatabaseDriver)
	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = "sqlite"
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "refex.db"
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "refex-dev-secret"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.UploadURLPath == "" {
		cfg.UploadURLPath = "/uploads"
	}
	cfg.UploadURLPath = "/" + strings.Trim(cfg.UploadURLPath, "/")
	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 20
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = "ap-south-1"
	}
	if cfg.Stock.BSECode == "" {
		cfg.Stock.BSECode = "532884"
	}
	if cfg.Stock.NSESymbol == "" {
		cfg.Stock.NSESymbol = "REFEX"
	}
	if cfg.Stock.HistoryURL == "" {
		cfg.Stock.HistoryURL = defaultHistoryURL
	}
	if cfg.Stock.DownloadDir == "" {
		cfg.Stock.DownloadDir = os.TempDir()
	}
	if cfg.Stock.ScrapeTimeout <= 0 {
		cfg.Stock.ScrapeTimeout = 90 * time.Second
	}
	if cfg.Stock.RefreshDays <= 0 {
		cfg.Stock.RefreshDays = 30
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}

func splitCSV(value string) []string {
	raw := strings.Split(value, ",")
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

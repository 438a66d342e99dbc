package stock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	ExchangeBSE = "BSE"
	ExchangeNSE = "NSE"
)

var (
	// ErrStockUnavailable is returned when a quote cannot be obtained.
	ErrStockUnavailable = errors.New("stock data unavailable")
	// ErrUnknownExchange is returned for exchanges other than BSE and NSE.
	ErrUnknownExchange = errors.New("unknown exchange")
)

// NormalizeExchange uppercases exchange and checks it is BSE or NSE.
func NormalizeExchange(exchange string) (string, error) {
	ex := strings.ToUpper(strings.TrimSpace(exchange))
	switch ex {
	case ExchangeBSE, ExchangeNSE:
		return ex, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownExchange, exchange)
	}
}

// Quote is a live price snapshot for one exchange.
type Quote struct {
	Exchange      string    `json:"exchange"`
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	PercentChange float64   `json:"percentChange"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PreviousClose float64   `json:"previousClose"`
	Volume        int64     `json:"volume"`
	FetchedAt     time.Time `json:"fetchedAt"`
}

// QuoteFetcher returns a live quote for a symbol on an exchange.
type QuoteFetcher interface {
	Fetch(ctx context.Context, exchange, symbol string) (Quote, error)
}

// Credentials returns the API key and host header to send.
type Credentials func() (key, host string)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// QuoteClient calls the third-party quote API.
type QuoteClient struct {
	baseURL    string
	httpClient httpDoer
	creds      Credentials
	now        func() time.Time
}

// NewQuoteClient creates a client for the API at baseURL.
func NewQuoteClient(baseURL string, creds Credentials) *QuoteClient {
	return &QuoteClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		creds:      creds,
		now:        time.Now,
	}
}

// SetHTTPClient replaces the HTTP client.
func (c *QuoteClient) SetHTTPClient(client httpDoer) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	c.httpClient = client
}

// Fetch requests the quote and maps whatever key casing the API uses onto
// Quote fields.
func (c *QuoteClient) Fetch(ctx context.Context, exchange, symbol string) (Quote, error) {
	ex, err := NormalizeExchange(exchange)
	if err != nil {
		return Quote{}, err
	}
	if c.baseURL == "" {
		return Quote{}, fmt.Errorf("%w: quote api is not configured", ErrStockUnavailable)
	}

	query := url.Values{}
	query.Set("name", symbol)
	query.Set("exchange", ex)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return Quote{}, fmt.Errorf("build quote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.creds != nil {
		key, host := c.creds()
		if key != "" {
			req.Header.Set("X-RapidAPI-Key", key)
		}
		if host != "" {
			req.Header.Set("X-RapidAPI-Host", host)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrStockUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Quote{}, fmt.Errorf("%w: read body: %v", ErrStockUnavailable, err)
	}
	if resp.StatusCode >= 400 {
		return Quote{}, fmt.Errorf("%w: %s returned %s", ErrStockUnavailable, ex, resp.Status)
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return Quote{}, fmt.Errorf("%w: decode body: %v", ErrStockUnavailable, err)
	}
	flat := map[string]any{}
	if top, ok := payload.(map[string]any); ok {
		if inner, ok := top["data"].(map[string]any); ok {
			flattenJSON("", inner, flat)
		}
	}
	flattenJSON("", payload, flat)

	price, ok := pickNumber(flat, ex, "CURRENTPRICE", "LASTPRICE", "LTP", "PRICE", "CLOSE")
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s response has no price", ErrStockUnavailable, ex)
	}

	quote := Quote{
		Exchange:  ex,
		Symbol:    symbol,
		Price:     price,
		FetchedAt: c.now().UTC(),
	}
	quote.Change, _ = pickNumber(flat, ex, "NETCHANGE", "CHANGE")
	quote.PercentChange, _ = pickNumber(flat, ex, "PERCENTCHANGE", "PCHANGE", "CHANGEPERCENT", "CHANGEPCT")
	quote.Open, _ = pickNumber(flat, ex, "OPEN", "DAYOPEN", "OPENPRICE")
	quote.High, _ = pickNumber(flat, ex, "HIGH", "DAYHIGH", "HIGHPRICE")
	quote.Low, _ = pickNumber(flat, ex, "LOW", "DAYLOW", "LOWPRICE")
	quote.PreviousClose, _ = pickNumber(flat, ex, "PREVIOUSCLOSE", "PREVCLOSE", "CLOSEPRICE")
	volume, _ := pickNumber(flat, ex, "VOLUME", "TOTALTRADEDVOLUME", "TOTALTRADEDQUANTITY")
	quote.Volume = int64(volume)
	return quote, nil
}

// flattenJSON stores every scalar under the concatenation of its
// normalized key path. The first value stored for a key wins.
func flattenJSON(prefix string, value any, out map[string]any) {
	if object, ok := value.(map[string]any); ok {
		for key, inner := range object {
			flattenJSON(prefix+NormalizeHeader(key), inner, out)
		}
		return
	}
	if prefix == "" {
		return
	}
	if _, exists := out[prefix]; !exists {
		out[prefix] = value
	}
}

// pickNumber tries each key suffixed with the exchange first, then bare.
func pickNumber(flat map[string]any, exchange string, keys ...string) (float64, bool) {
	for _, candidates := range [][]string{withSuffix(keys, exchange), keys} {
		for _, key := range candidates {
			if n, ok := numberValue(flat[key]); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func withSuffix(keys []string, suffix string) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = key + suffix
	}
	return out
}

func numberValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" || trimmed == "-" {
			return 0, false
		}
		n, err := ParseNumber(trimmed)
		return n, err == nil
	default:
		return 0, false
	}
}

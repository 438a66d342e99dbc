package stock

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func newTestQuoteClient(doer httpDoer) *QuoteClient {
	client := NewQuoteClient("https://quotes.example.com/stock/", func() (string, string) {
		return "key-1", "quotes.example.com"
	})
	client.SetHTTPClient(doer)
	client.now = func() time.Time { return time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC) }
	return client
}

func TestQuoteClientMapsNestedExchangePrices(t *testing.T) {
	doer := &stubDoer{status: http.StatusOK, body: `{
		"companyName": "Refex Industries",
		"currentPrice": {"BSE": "412.35", "NSE": "412.10"},
		"percentChange": "1.25",
		"stockDetailsReusableData": {"close": "407.25", "open": 408, "high": "415.00", "low": "405.5"},
		"Volume": "1,20,500"
	}`}
	client := newTestQuoteClient(doer)

	quote, err := client.Fetch(context.Background(), "nse", "REFEX")
	require.NoError(t, err)

	assert.Equal(t, "NSE", quote.Exchange)
	assert.Equal(t, "REFEX", quote.Symbol)
	assert.InDelta(t, 412.10, quote.Price, 1e-9)
	assert.InDelta(t, 1.25, quote.PercentChange, 1e-9)
	assert.Equal(t, int64(120500), quote.Volume)
	assert.Equal(t, 2024, quote.FetchedAt.Year())

	assert.Equal(t, "key-1", doer.req.Header.Get("X-RapidAPI-Key"))
	assert.Equal(t, "quotes.example.com", doer.req.Header.Get("X-RapidAPI-Host"))
	assert.Equal(t, "REFEX", doer.req.URL.Query().Get("name"))
	assert.Equal(t, "NSE", doer.req.URL.Query().Get("exchange"))
	assert.Equal(t, "/stock", doer.req.URL.Path)
}

func TestQuoteClientReadsDataEnvelope(t *testing.T) {
	client := newTestQuoteClient(&stubDoer{status: http.StatusOK, body: `{
		"status": "ok",
		"data": {"LTP": 98.5, "Net Change": "-1.5", "Prev. Close": "100"}
	}`})

	quote, err := client.Fetch(context.Background(), "BSE", "532884")
	require.NoError(t, err)
	assert.InDelta(t, 98.5, quote.Price, 1e-9)
	assert.InDelta(t, -1.5, quote.Change, 1e-9)
	assert.InDelta(t, 100, quote.PreviousClose, 1e-9)
}

func TestQuoteClientFailures(t *testing.T) {
	_, err := newTestQuoteClient(&stubDoer{status: http.StatusOK, body: `{}`}).Fetch(context.Background(), "LSE", "X")
	assert.ErrorIs(t, err, ErrUnknownExchange)

	_, err = newTestQuoteClient(&stubDoer{status: http.StatusTooManyRequests}).Fetch(context.Background(), "BSE", "X")
	assert.ErrorIs(t, err, ErrStockUnavailable)

	_, err = newTestQuoteClient(&stubDoer{err: errors.New("dial tcp")}).Fetch(context.Background(), "BSE", "X")
	assert.ErrorIs(t, err, ErrStockUnavailable)

	_, err = newTestQuoteClient(&stubDoer{status: http.StatusOK, body: `{"name":"Refex"}`}).Fetch(context.Background(), "BSE", "X")
	assert.ErrorIs(t, err, ErrStockUnavailable)

	_, err = NewQuoteClient("", nil).Fetch(context.Background(), "BSE", "X")
	assert.ErrorIs(t, err, ErrStockUnavailable)
}

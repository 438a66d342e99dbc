package stock

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/refexsite/internal/db"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidRange is returned when from is after to.
var ErrInvalidRange = errors.New("invalid date range")

// Options configures a Service.
type Options struct {
	BSECode    string
	NSESymbol  string
	Downloader Downloader
	Quotes     QuoteFetcher
	Logger     *zap.Logger
}

// Service stores scraped BSE history and serves live quotes.
type Service struct {
	db         *gorm.DB
	bseCode    string
	nseSymbol  string
	downloader Downloader
	quotes     QuoteFetcher
	logger     *zap.Logger
}

// NewService constructs a Service.
func NewService(gdb *gorm.DB, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:         gdb,
		bseCode:    opts.BSECode,
		nseSymbol:  opts.NSESymbol,
		downloader: opts.Downloader,
		quotes:     opts.Quotes,
		logger:     logger,
	}
}

// Symbol returns the configured symbol for exchange.
func (s *Service) Symbol(exchange string) string {
	if exchange == ExchangeNSE {
		return s.nseSymbol
	}
	return s.bseCode
}

// Ingest upserts rows keyed by exchange, symbol and date.
func (s *Service) Ingest(exchange, symbol string, rows []Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	records := make([]db.StockPrice, 0, len(rows))
	for _, row := range rows {
		records = append(records, db.StockPrice{
			Exchange:  exchange,
			Symbol:    symbol,
			TradeDate: row.Date,
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
			Trades:    row.Trades,
			Turnover:  row.Turnover,
		})
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "exchange"}, {Name: "symbol"}, {Name: "trade_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"open", "high", "low", "close", "volume", "trades", "turnover", "updated_at",
		}),
	}).CreateInBatches(&records, 200).Error
	if err != nil {
		return 0, fmt.Errorf("ingest %s %s: %w", exchange, symbol, err)
	}
	return len(records), nil
}

// History returns stored BSE rows between from and to inclusive, oldest
// first. A zero bound is open.
func (s *Service) History(from, to time.Time) ([]db.StockPrice, error) {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, ErrInvalidRange
	}

	query := s.db.Where("exchange = ? AND symbol = ?", ExchangeBSE, s.bseCode)
	if !from.IsZero() {
		query = query.Where("trade_date >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("trade_date <= ?", to)
	}

	var prices []db.StockPrice
	if err := query.Order("trade_date ASC").Find(&prices).Error; err != nil {
		return nil, fmt.Errorf("load stock history: %w", err)
	}
	return prices, nil
}

// ImportCSV parses an uploaded export and ingests it as BSE history.
func (s *Service) ImportCSV(r io.Reader) (int, error) {
	rows, err := ParseCSV(r)
	if err != nil {
		return 0, err
	}
	return s.Ingest(ExchangeBSE, s.bseCode, rows)
}

// Refresh downloads the BSE export for the range and ingests it.
func (s *Service) Refresh(ctx context.Context, from, to time.Time) (int, error) {
	if from.After(to) {
		return 0, ErrInvalidRange
	}
	if s.downloader == nil {
		return 0, fmt.Errorf("%w: history downloader is not configured", ErrStockUnavailable)
	}

	log := s.logger.With(zap.String("code", s.bseCode))
	log.Debug("refreshing stock history", zap.Time("from", from), zap.Time("to", to))

	data, err := s.downloader.Download(ctx, HistoryRequest{Code: s.bseCode, From: from, To: to})
	if err != nil {
		log.Warn("stock history download failed", zap.Error(err))
		return 0, fmt.Errorf("%w: %v", ErrStockUnavailable, err)
	}

	rows, err := ParseCSV(bytes.NewReader(data))
	if err != nil {
		log.Warn("stock history csv rejected", zap.Error(err))
		return 0, err
	}
	n, err := s.Ingest(ExchangeBSE, s.bseCode, rows)
	if err != nil {
		return 0, err
	}
	log.Debug("stock history stored", zap.Int("rows", n))
	return n, nil
}

// Quote fetches the live quote for one exchange.
func (s *Service) Quote(ctx context.Context, exchange string) (Quote, error) {
	ex, err := NormalizeExchange(exchange)
	if err != nil {
		return Quote{}, err
	}
	if s.quotes == nil {
		return Quote{}, fmt.Errorf("%w: quote api is not configured", ErrStockUnavailable)
	}
	return s.quotes.Fetch(ctx, ex, s.Symbol(ex))
}

// LiveQuotes holds per-exchange quotes and the failures of the others.
type LiveQuotes struct {
	Quotes map[string]Quote  `json:"quotes"`
	Errors map[string]string `json:"errors,omitempty"`
}

// LiveQuotes fetches BSE and NSE concurrently. One exchange failing is
// recorded in Errors; an error is returned only when both fail.
func (s *Service) LiveQuotes(ctx context.Context) (LiveQuotes, error) {
	result := LiveQuotes{Quotes: map[string]Quote{}, Errors: map[string]string{}}
	var mu sync.Mutex

	// Plain fan-out: failures are collected, not returned, so one exchange
	// never cancels the other.
	var g errgroup.Group
	for _, exchange := range []string{ExchangeBSE, ExchangeNSE} {
		exchange := exchange
		g.Go(func() error {
			quote, err := s.Quote(ctx, exchange)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("live quote failed", zap.String("exchange", exchange), zap.Error(err))
				result.Errors[exchange] = err.Error()
				return nil
			}
			result.Quotes[exchange] = quote
			return nil
		})
	}
	g.Wait()

	if len(result.Quotes) == 0 {
		return result, fmt.Errorf("%w: no exchange returned a quote", ErrStockUnavailable)
	}
	if len(result.Errors) == 0 {
		result.Errors = nil
	}
	return result, nil
}

package db

import "time"

// StockPrice is one trading day of the company's scrip on an exchange.
type StockPrice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Exchange  string    `gorm:"size:8;uniqueIndex:idx_stock_day" json:"exchange"`
	Symbol    string    `gorm:"size:32;uniqueIndex:idx_stock_day" json:"symbol"`
	TradeDate time.Time `gorm:"uniqueIndex:idx_stock_day" json:"date"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
	Trades    int64     `json:"trades"`
	Turnover  float64   `json:"turnover"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName keeps the table name explicit for raw queries.
func (StockPrice) TableName() string {
	return "stock_prices"
}

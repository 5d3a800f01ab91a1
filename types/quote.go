package types

import "time"

// StockQuote is the latest cached snapshot of one symbol, as shown on the
// screening grid.
type StockQuote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	Volume        int64     `json:"volume"`
	ChangePercent float64   `json:"change_percent"`
	LastFetched   time.Time `json:"last_fetched"`
}

package types

// Bar is one dated OHLCV record of a symbol's daily history. Price fields are
// nil when the source had no quote for that day.
type Bar struct {
	Date   string   `json:"date"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume int64    `json:"volume"`
}

// HasClose reports whether the bar carries a close price.
func (b Bar) HasClose() bool {
	return b.Close != nil
}

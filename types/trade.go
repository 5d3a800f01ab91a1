package types

// Trade is one simulated fill recorded by the backtest engine. PnL is only
// meaningful on SELL trades; it is 0 on BUY.
type Trade struct {
	Date   string  `json:"date"`
	Type   Signal  `json:"type"`
	Price  float64 `json:"price"`
	Shares float64 `json:"shares"`
	PnL    float64 `json:"pnl"`
}

// EquityPoint is one mark-to-market valuation of the simulated account.
type EquityPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// BacktestResult holds the trades and summary metrics of one simulation run.
// It is created once per run and never mutated afterward.
type BacktestResult struct {
	StrategyName   string        `json:"strategy_name"`
	Symbol         string        `json:"symbol"`
	TotalReturnPct float64       `json:"total_return_pct"`
	WinRatePct     float64       `json:"win_rate_pct"`
	ProfitFactor   float64       `json:"profit_factor"`
	MaxDrawdownPct float64       `json:"max_drawdown_pct"`
	Trades         []Trade       `json:"trades"`
	EquityCurve    []EquityPoint `json:"equity_curve"`
}

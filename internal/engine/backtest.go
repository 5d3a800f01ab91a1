// Package engine runs single-position long-only backtests and parameter
// sweeps over strategies.
package engine

import (
	"math"
	"sort"

	"gravion/strategies"
	"gravion/types"
)

// DefaultInitialCapital is used when a caller does not specify one.
const DefaultInitialCapital = 10000.0

// profitFactorCap replaces an infinite profit factor (no losing trades).
const profitFactorCap = 999.99

// Run simulates a strategy over a symbol's daily history. It is a pure
// function of its inputs: no clock, no randomness, fully replayable.
func Run(strat strategies.Strategy, bars []types.Bar, initialCapital float64) types.BacktestResult {
	sorted := make([]types.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	signals := strat.GenerateSignals(sorted)

	var (
		trades      []types.Trade
		equityCurve []types.EquityPoint

		positionOpen bool
		entryPrice   float64
		shares       float64
		lastPrice    float64

		capital     = initialCapital
		peakCapital = initialCapital
		maxDrawdown = 0.0
	)

	for i, bar := range sorted {
		if bar.HasClose() {
			lastPrice = *bar.Close
		}
		price := lastPrice

		if bar.HasClose() {
			switch signals[i] {
			case types.SignalBuy:
				if !positionOpen && capital > 0 && price > 0 {
					shares = capital / price
					entryPrice = price
					positionOpen = true
					capital = 0
					trades = append(trades, types.Trade{
						Date:   bar.Date,
						Type:   types.SignalBuy,
						Price:  price,
						Shares: round4(shares),
					})
				}
			case types.SignalSell:
				if positionOpen {
					sellValue := shares * price
					pnl := sellValue - shares*entryPrice
					capital = sellValue
					trades = append(trades, types.Trade{
						Date:   bar.Date,
						Type:   types.SignalSell,
						Price:  price,
						Shares: round4(shares),
						PnL:    round2(pnl),
					})
					positionOpen = false
					shares = 0
				}
			}
		}

		current := capital
		if positionOpen {
			current = shares * price
		}
		equityCurve = append(equityCurve, types.EquityPoint{Date: bar.Date, Value: round2(current)})

		if current > peakCapital {
			peakCapital = current
		}
		if peakCapital > 0 {
			if dd := (peakCapital - current) / peakCapital * 100; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}

	finalValue := capital
	if positionOpen && len(sorted) > 0 {
		// Still holding: mark remaining shares at the last close. No closing
		// trade is synthesized.
		finalValue = shares * lastPrice
	}

	totalReturn := 0.0
	if initialCapital != 0 {
		totalReturn = (finalValue - initialCapital) / initialCapital * 100
	}

	winRate, profitFactor := tradeMetrics(trades)

	return types.BacktestResult{
		StrategyName:   strat.Name(),
		TotalReturnPct: round2(totalReturn),
		WinRatePct:     round2(winRate),
		ProfitFactor:   profitFactor,
		MaxDrawdownPct: round2(maxDrawdown),
		Trades:         trades,
		EquityCurve:    equityCurve,
	}
}

// tradeMetrics derives win rate and profit factor from the completed (SELL)
// trades. A run with gains and no losses reports the finite 999.99 sentinel
// instead of infinity; a run with no completed trades reports zeros.
func tradeMetrics(trades []types.Trade) (winRate, profitFactor float64) {
	var sells, wins int
	var grossProfit, grossLoss float64
	for _, t := range trades {
		if t.Type != types.SignalSell {
			continue
		}
		sells++
		if t.PnL > 0 {
			wins++
			grossProfit += t.PnL
		} else {
			grossLoss += -t.PnL
		}
	}

	if sells > 0 {
		winRate = float64(wins) / float64(sells) * 100
	}
	switch {
	case grossLoss > 0:
		profitFactor = round2(grossProfit / grossLoss)
	case grossProfit > 0:
		profitFactor = profitFactorCap
	}
	return winRate, profitFactor
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

package strategies

import (
	"fmt"

	"gravion/internal/indicator"
	"gravion/types"
)

var _ Strategy = (*RSIMeanReversion)(nil)

// RSIMeanReversion buys when RSI crosses down through the oversold level and
// sells when it crosses up through the overbought level.
type RSIMeanReversion struct {
	period     int
	oversold   float64
	overbought float64
}

// NewRSIMeanReversion creates an RSIMeanReversion strategy. The oversold
// level must sit below the overbought level, both within [0, 100].
func NewRSIMeanReversion(period int, oversold, overbought float64) (*RSIMeanReversion, error) {
	if period < 2 || oversold < 0 || overbought > 100 || oversold >= overbought {
		return nil, fmt.Errorf("rsi mean reversion period=%d oversold=%g overbought=%g: %w",
			period, oversold, overbought, ErrInvalidParameters)
	}
	return &RSIMeanReversion{period: period, oversold: oversold, overbought: overbought}, nil
}

// DefaultRSIMeanReversion returns the built-in RSI(14) 30/70 variant.
func DefaultRSIMeanReversion() *RSIMeanReversion {
	return &RSIMeanReversion{period: 14, oversold: 30, overbought: 70}
}

func (s *RSIMeanReversion) Name() string { return "RSI Mean Reversion" }

func (s *RSIMeanReversion) Description() string {
	return fmt.Sprintf("Buy when RSI(%d) drops below %g, sell when RSI(%d) rises above %g.",
		s.period, s.oversold, s.period, s.overbought)
}

func (s *RSIMeanReversion) Parameters() map[string]float64 {
	return map[string]float64{
		"rsi_period": float64(s.period),
		"oversold":   s.oversold,
		"overbought": s.overbought,
	}
}

func (s *RSIMeanReversion) ParamMeta() map[string]types.ParamMeta {
	return map[string]types.ParamMeta{
		"rsi_period": {Label: "RSI Period", Type: "int", Default: 14, Min: 2, Max: 50, Step: 1},
		"oversold":   {Label: "Oversold Level", Type: "float", Default: 30, Min: 10, Max: 45, Step: 5},
		"overbought": {Label: "Overbought Level", Type: "float", Default: 70, Min: 55, Max: 90, Step: 5},
	}
}

func (s *RSIMeanReversion) GenerateSignals(bars []types.Bar) []types.Signal {
	rsi := indicator.RSI(indicator.Closes(bars), s.period)

	signals := make([]types.Signal, len(bars))
	for i := 1; i < len(bars); i++ {
		if !rsi[i].Valid || !rsi[i-1].Valid {
			continue
		}
		prev, cur := rsi[i-1].Float, rsi[i].Float
		switch {
		case prev >= s.oversold && cur < s.oversold:
			signals[i] = types.SignalBuy
		case prev <= s.overbought && cur > s.overbought:
			signals[i] = types.SignalSell
		}
	}
	return signals
}

// ComputeIntensity widens the oversold/overbought levels by 10 RSI points for
// the strong bands, a 20/30/70/80 split at the default levels.
func (s *RSIMeanReversion) ComputeIntensity(bars []types.Bar) types.Intensity {
	val, ok := indicator.RSI(indicator.Closes(bars), s.period).Last()
	if !ok {
		return types.IntensityNeutral
	}
	switch {
	case val < s.oversold-10:
		return types.IntensityStrongBuy
	case val < s.oversold:
		return types.IntensityBuy
	case val > s.overbought+10:
		return types.IntensityStrongSell
	case val > s.overbought:
		return types.IntensitySell
	}
	return types.IntensityNeutral
}

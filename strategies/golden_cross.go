package strategies

import (
	"fmt"

	"gravion/internal/indicator"
	"gravion/types"
)

// Compile-time interface check.
var _ Strategy = (*GoldenCross)(nil)

// GoldenCross buys when the fast moving average crosses above the slow one
// and sells on the reverse crossing. Signals fire only at the transition, not
// on every bar the fast average stays above.
type GoldenCross struct {
	fastPeriod int
	slowPeriod int
}

// NewGoldenCross creates a GoldenCross strategy. The fast period must be
// positive and strictly shorter than the slow period.
func NewGoldenCross(fast, slow int) (*GoldenCross, error) {
	if fast <= 0 || slow <= 0 || fast >= slow {
		return nil, fmt.Errorf("golden cross periods fast=%d slow=%d: %w", fast, slow, ErrInvalidParameters)
	}
	return &GoldenCross{fastPeriod: fast, slowPeriod: slow}, nil
}

// DefaultGoldenCross returns the built-in 50/100 variant.
func DefaultGoldenCross() *GoldenCross {
	return &GoldenCross{fastPeriod: 50, slowPeriod: 100}
}

func (s *GoldenCross) Name() string { return "Golden Cross" }

func (s *GoldenCross) Description() string {
	return fmt.Sprintf("Buy when %dMA crosses above %dMA, sell when it crosses below.", s.fastPeriod, s.slowPeriod)
}

func (s *GoldenCross) Parameters() map[string]float64 {
	return map[string]float64{
		"fast_period": float64(s.fastPeriod),
		"slow_period": float64(s.slowPeriod),
	}
}

func (s *GoldenCross) ParamMeta() map[string]types.ParamMeta {
	return map[string]types.ParamMeta{
		"fast_period": {Label: "Fast MA Period", Type: "int", Default: 50, Min: 5, Max: 200, Step: 5},
		"slow_period": {Label: "Slow MA Period", Type: "int", Default: 100, Min: 20, Max: 400, Step: 10},
	}
}

func (s *GoldenCross) GenerateSignals(bars []types.Bar) []types.Signal {
	closes := indicator.Closes(bars)
	fast := indicator.SMA(closes, s.fastPeriod)
	slow := indicator.SMA(closes, s.slowPeriod)

	signals := make([]types.Signal, len(bars))
	for i := 1; i < len(bars); i++ {
		if !fast[i].Valid || !slow[i].Valid || !fast[i-1].Valid || !slow[i-1].Valid {
			continue
		}
		prevFast, prevSlow := fast[i-1].Float, slow[i-1].Float
		curFast, curSlow := fast[i].Float, slow[i].Float
		switch {
		case prevFast <= prevSlow && curFast > curSlow:
			signals[i] = types.SignalBuy
		case prevFast >= prevSlow && curFast < curSlow:
			signals[i] = types.SignalSell
		}
	}
	return signals
}

func (s *GoldenCross) ComputeIntensity(bars []types.Bar) types.Intensity {
	closes := indicator.Closes(bars)
	f, okFast := indicator.SMA(closes, s.fastPeriod).Last()
	sl, okSlow := indicator.SMA(closes, s.slowPeriod).Last()
	if !okFast || !okSlow || sl == 0 {
		return types.IntensityNeutral
	}
	ratio := (f - sl) / sl * 100
	switch {
	case ratio > 5:
		return types.IntensityStrongBuy
	case ratio > 0:
		return types.IntensityBuy
	case ratio < -5:
		return types.IntensityStrongSell
	case ratio < 0:
		return types.IntensitySell
	}
	return types.IntensityNeutral
}

package strategies

import (
	"fmt"

	"gravion/internal/indicator"
	"gravion/types"
)

var _ Strategy = (*PriceChangeMomentum)(nil)

// PriceChangeMomentum signals on the size of the daily percentage move. It is
// level-triggered: the signal repeats on every bar past the threshold.
type PriceChangeMomentum struct {
	buyThreshold  float64
	sellThreshold float64
}

// NewPriceChangeMomentum creates a PriceChangeMomentum strategy. The buy
// threshold must sit above the sell threshold.
func NewPriceChangeMomentum(buyThreshold, sellThreshold float64) (*PriceChangeMomentum, error) {
	if buyThreshold <= sellThreshold {
		return nil, fmt.Errorf("momentum thresholds buy=%g sell=%g: %w", buyThreshold, sellThreshold, ErrInvalidParameters)
	}
	return &PriceChangeMomentum{buyThreshold: buyThreshold, sellThreshold: sellThreshold}, nil
}

// DefaultPriceChangeMomentum returns the built-in ±2% variant.
func DefaultPriceChangeMomentum() *PriceChangeMomentum {
	return &PriceChangeMomentum{buyThreshold: 2.0, sellThreshold: -2.0}
}

func (s *PriceChangeMomentum) Name() string { return "Price Change Momentum" }

func (s *PriceChangeMomentum) Description() string {
	return fmt.Sprintf("Buy when daily change exceeds %+g%%, sell when it drops below %+g%%.",
		s.buyThreshold, s.sellThreshold)
}

func (s *PriceChangeMomentum) Parameters() map[string]float64 {
	return map[string]float64{
		"buy_threshold":  s.buyThreshold,
		"sell_threshold": s.sellThreshold,
	}
}

func (s *PriceChangeMomentum) ParamMeta() map[string]types.ParamMeta {
	return map[string]types.ParamMeta{
		"buy_threshold":  {Label: "Buy Threshold %", Type: "float", Default: 2.0, Min: 0.5, Max: 10, Step: 0.5},
		"sell_threshold": {Label: "Sell Threshold %", Type: "float", Default: -2.0, Min: -10, Max: -0.5, Step: 0.5},
	}
}

func (s *PriceChangeMomentum) GenerateSignals(bars []types.Bar) []types.Signal {
	change := indicator.DailyChangePct(indicator.Closes(bars))

	signals := make([]types.Signal, len(bars))
	for i := range bars {
		if !change[i].Valid {
			continue
		}
		switch {
		case change[i].Float > s.buyThreshold:
			signals[i] = types.SignalBuy
		case change[i].Float < s.sellThreshold:
			signals[i] = types.SignalSell
		}
	}
	return signals
}

func (s *PriceChangeMomentum) ComputeIntensity(bars []types.Bar) types.Intensity {
	val, ok := indicator.DailyChangePct(indicator.Closes(bars)).Last()
	if !ok {
		return types.IntensityNeutral
	}
	switch {
	case val > s.buyThreshold:
		return types.IntensityStrongBuy
	case val > 0.5:
		return types.IntensityBuy
	case val < s.sellThreshold:
		return types.IntensityStrongSell
	case val < -0.5:
		return types.IntensitySell
	}
	return types.IntensityNeutral
}

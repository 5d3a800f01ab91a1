package strategies

import (
	"fmt"

	"gravion/types"
)

var _ Strategy = (*PegBand)(nil)

// PegBand trades deviations of a pegged instrument from its baseline ratio.
// A BUY fires when price crosses below baseline − lower elasticity, a SELL
// when it crosses above baseline + upper elasticity.
type PegBand struct {
	baselineRatio      float64
	upperElasticity    float64
	lowerElasticity    float64
	reversionThreshold float64
}

// NewPegBand creates a PegBand strategy. The baseline must be positive and
// both elasticities non-negative.
func NewPegBand(baseline, upperElasticity, lowerElasticity, reversionThreshold float64) (*PegBand, error) {
	if baseline <= 0 || upperElasticity < 0 || lowerElasticity < 0 || reversionThreshold < 0 {
		return nil, fmt.Errorf("peg band baseline=%g upper=%g lower=%g: %w",
			baseline, upperElasticity, lowerElasticity, ErrInvalidParameters)
	}
	return &PegBand{
		baselineRatio:      baseline,
		upperElasticity:    upperElasticity,
		lowerElasticity:    lowerElasticity,
		reversionThreshold: reversionThreshold,
	}, nil
}

// DefaultPegBand returns the built-in 1:1 peg variant with 0.5% elasticity.
func DefaultPegBand() *PegBand {
	return &PegBand{
		baselineRatio:      1.0,
		upperElasticity:    0.005,
		lowerElasticity:    0.005,
		reversionThreshold: 0.001,
	}
}

func (s *PegBand) Name() string { return "Peg Band" }

func (s *PegBand) Description() string {
	return "Trades price deviations from a fixed peg ratio using mean reversion."
}

func (s *PegBand) Parameters() map[string]float64 {
	return map[string]float64{
		"baseline_ratio":      s.baselineRatio,
		"upper_elasticity":    s.upperElasticity,
		"lower_elasticity":    s.lowerElasticity,
		"reversion_threshold": s.reversionThreshold,
	}
}

func (s *PegBand) ParamMeta() map[string]types.ParamMeta {
	return map[string]types.ParamMeta{
		"baseline_ratio":      {Label: "Baseline Ratio", Type: "float", Default: 1.0, Min: 0.99, Max: 1.01, Step: 0.001},
		"upper_elasticity":    {Label: "Upper Elasticity", Type: "float", Default: 0.005, Min: 0.001, Max: 0.02, Step: 0.001},
		"lower_elasticity":    {Label: "Lower Elasticity", Type: "float", Default: 0.005, Min: 0.001, Max: 0.02, Step: 0.001},
		"reversion_threshold": {Label: "Reversion Threshold", Type: "float", Default: 0.001, Min: 0.0005, Max: 0.005, Step: 0.0005},
	}
}

func (s *PegBand) GenerateSignals(bars []types.Bar) []types.Signal {
	upper := s.baselineRatio + s.upperElasticity
	lower := s.baselineRatio - s.lowerElasticity

	signals := make([]types.Signal, len(bars))
	for i := 1; i < len(bars); i++ {
		if !bars[i].HasClose() || !bars[i-1].HasClose() {
			continue
		}
		cur, prev := *bars[i].Close, *bars[i-1].Close
		switch {
		case prev >= lower && cur < lower:
			signals[i] = types.SignalBuy
		case prev <= upper && cur > upper:
			signals[i] = types.SignalSell
		}
	}
	return signals
}

func (s *PegBand) ComputeIntensity(bars []types.Bar) types.Intensity {
	var last *float64
	for i := len(bars) - 1; i >= 0; i-- {
		if bars[i].HasClose() {
			last = bars[i].Close
			break
		}
	}
	if last == nil {
		return types.IntensityNeutral
	}

	upper := s.baselineRatio + s.upperElasticity
	lower := s.baselineRatio - s.lowerElasticity
	strongUpper := upper + s.upperElasticity
	strongLower := lower - s.lowerElasticity

	switch {
	case *last > strongUpper:
		return types.IntensityStrongSell
	case *last > upper:
		return types.IntensitySell
	case *last < strongLower:
		return types.IntensityStrongBuy
	case *last < lower:
		return types.IntensityBuy
	}
	return types.IntensityNeutral
}

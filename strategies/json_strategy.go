package strategies

import (
	"encoding/json"
	"fmt"

	"gravion/internal/indicator"
	"gravion/types"
)

var _ Strategy = (*JSONStrategy)(nil)

// JSONStrategy interprets a declarative strategy definition: ordered lists of
// buy and sell conditions, each side AND-combined. A bar satisfying both
// sides resolves to SELL.
type JSONStrategy struct {
	def types.StrategyDef
}

// NewJSONStrategy wraps a parsed definition. An empty name falls back to
// "Custom Strategy".
func NewJSONStrategy(def types.StrategyDef) *JSONStrategy {
	if def.Name == "" {
		def.Name = "Custom Strategy"
	}
	return &JSONStrategy{def: def}
}

// ParseStrategy deserializes a strategy definition from JSON.
func ParseStrategy(raw []byte) (*JSONStrategy, error) {
	var def types.StrategyDef
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse strategy definition: %w", err)
	}
	return NewJSONStrategy(def), nil
}

// Definition returns the underlying declarative definition.
func (s *JSONStrategy) Definition() types.StrategyDef { return s.def }

func (s *JSONStrategy) Name() string        { return s.def.Name }
func (s *JSONStrategy) Description() string { return s.def.Description }

func (s *JSONStrategy) Parameters() map[string]float64 {
	return map[string]float64{
		"buy_conditions":  float64(len(s.def.BuyConditions)),
		"sell_conditions": float64(len(s.def.SellConditions)),
	}
}

func (s *JSONStrategy) ParamMeta() map[string]types.ParamMeta { return nil }

// conditionSeries resolves the indicator a condition refers to. The bool is
// false for an unknown indicator name.
func conditionSeries(bars []types.Bar, cond types.StrategyCondition) (indicator.Series, bool) {
	period := cond.Period
	if period <= 0 {
		period = 14
	}
	switch cond.Indicator {
	case "SMA":
		return indicator.SMA(indicator.Closes(bars), period), true
	case "EMA":
		return indicator.EMA(indicator.Closes(bars), period), true
	case "RSI":
		return indicator.RSI(indicator.Closes(bars), period), true
	case "Price", "":
		return indicator.Closes(bars), true
	case "Volume":
		return indicator.Volumes(bars), true
	case "Daily Change %":
		return indicator.DailyChangePct(indicator.Closes(bars)), true
	}
	return nil, false
}

// evaluateConditions returns the per-bar AND of all conditions. An unknown
// indicator or comparator makes its condition unsatisfiable, so the whole
// side fails closed. An empty condition list never matches.
func evaluateConditions(bars []types.Bar, conds []types.StrategyCondition) []bool {
	mask := make([]bool, len(bars))
	if len(conds) == 0 {
		return mask
	}
	for i := range mask {
		mask[i] = true
	}

	for _, cond := range conds {
		series, ok := conditionSeries(bars, cond)
		if !ok {
			return make([]bool, len(bars))
		}

		comparator := cond.Comparator
		if comparator == "" {
			comparator = ">"
		}
		switch comparator {
		case "crosses_above":
			for i := range mask {
				crossed := i > 0 && series[i].Valid && series[i-1].Valid &&
					series[i-1].Float <= cond.Value && series[i].Float > cond.Value
				mask[i] = mask[i] && crossed
			}
		case "crosses_below":
			for i := range mask {
				crossed := i > 0 && series[i].Valid && series[i-1].Valid &&
					series[i-1].Float >= cond.Value && series[i].Float < cond.Value
				mask[i] = mask[i] && crossed
			}
		case "<", ">", "<=", ">=":
			for i := range mask {
				mask[i] = mask[i] && series[i].Valid && compare(comparator, series[i].Float, cond.Value)
			}
		default:
			return make([]bool, len(bars))
		}
	}
	return mask
}

func compare(op string, a, b float64) bool {
	switch op {
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	}
	return false
}

func (s *JSONStrategy) GenerateSignals(bars []types.Bar) []types.Signal {
	buy := evaluateConditions(bars, s.def.BuyConditions)
	sell := evaluateConditions(bars, s.def.SellConditions)

	signals := make([]types.Signal, len(bars))
	for i := range bars {
		// SELL wins when both sides match on the same bar.
		switch {
		case sell[i]:
			signals[i] = types.SignalSell
		case buy[i]:
			signals[i] = types.SignalBuy
		}
	}
	return signals
}

func (s *JSONStrategy) ComputeIntensity(bars []types.Bar) types.Intensity {
	if len(bars) == 0 {
		return types.IntensityNeutral
	}
	last := len(bars) - 1
	if evaluateConditions(bars, s.def.SellConditions)[last] {
		return types.IntensitySell
	}
	if evaluateConditions(bars, s.def.BuyConditions)[last] {
		return types.IntensityBuy
	}
	return types.IntensityNeutral
}

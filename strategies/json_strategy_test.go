package strategies

import (
	"testing"

	"gravion/types"
)

func TestParseStrategy(t *testing.T) {
	raw := []byte(`{
		"name": "Breakout",
		"description": "Buy on a move above 2%",
		"buy_conditions": [{"indicator": "Daily Change %", "comparator": ">", "value": 2}],
		"sell_conditions": [{"indicator": "Daily Change %", "comparator": "<", "value": -2}]
	}`)
	strat, err := ParseStrategy(raw)
	if err != nil {
		t.Fatalf("ParseStrategy() error = %v", err)
	}
	if strat.Name() != "Breakout" {
		t.Errorf("Name() = %q, want Breakout", strat.Name())
	}
	if n := strat.Parameters()["buy_conditions"]; n != 1 {
		t.Errorf("buy_conditions = %v, want 1", n)
	}
}

func TestParseStrategy_Invalid(t *testing.T) {
	if _, err := ParseStrategy([]byte(`{not json`)); err == nil {
		t.Error("ParseStrategy() expected error for malformed JSON")
	}
}

func TestNewJSONStrategy_DefaultName(t *testing.T) {
	strat := NewJSONStrategy(types.StrategyDef{})
	if strat.Name() != "Custom Strategy" {
		t.Errorf("Name() = %q, want Custom Strategy", strat.Name())
	}
}

func TestJSONStrategy_GenerateSignals(t *testing.T) {
	tests := []struct {
		name   string
		def    types.StrategyDef
		closes []float64
		want   []types.Signal
	}{
		{
			"level triggered threshold",
			types.StrategyDef{
				BuyConditions:  []types.StrategyCondition{{Indicator: "Price", Comparator: ">", Value: 10}},
				SellConditions: []types.StrategyCondition{{Indicator: "Price", Comparator: "<", Value: 5}},
			},
			[]float64{8, 12, 4},
			[]types.Signal{"", types.SignalBuy, types.SignalSell},
		},
		{
			"sell wins when both sides match",
			types.StrategyDef{
				BuyConditions:  []types.StrategyCondition{{Indicator: "Price", Comparator: ">", Value: 1}},
				SellConditions: []types.StrategyCondition{{Indicator: "Price", Comparator: ">", Value: 1}},
			},
			[]float64{2},
			[]types.Signal{types.SignalSell},
		},
		{
			"crosses_above fires only at the transition",
			types.StrategyDef{
				BuyConditions: []types.StrategyCondition{{Indicator: "Price", Comparator: "crosses_above", Value: 10}},
			},
			[]float64{9, 11, 12},
			[]types.Signal{"", types.SignalBuy, ""},
		},
		{
			"unknown indicator fails closed",
			types.StrategyDef{
				BuyConditions: []types.StrategyCondition{{Indicator: "Nope", Comparator: ">", Value: 0}},
			},
			[]float64{5, 6},
			[]types.Signal{"", ""},
		},
		{
			"unknown comparator fails closed",
			types.StrategyDef{
				BuyConditions: []types.StrategyCondition{{Indicator: "Price", Comparator: "~=", Value: 0}},
			},
			[]float64{5, 6},
			[]types.Signal{"", ""},
		},
		{
			"empty sides never match",
			types.StrategyDef{},
			[]float64{5, 6},
			[]types.Signal{"", ""},
		},
		{
			"all conditions must hold",
			types.StrategyDef{
				BuyConditions: []types.StrategyCondition{
					{Indicator: "Price", Comparator: ">", Value: 10},
					{Indicator: "Price", Comparator: "<", Value: 11},
				},
			},
			[]float64{10.5, 12},
			[]types.Signal{types.SignalBuy, ""},
		},
		{
			"missing close fails its bar",
			types.StrategyDef{
				BuyConditions: []types.StrategyCondition{{Indicator: "Price", Comparator: ">", Value: 1}},
			},
			[]float64{5, -1, 5},
			[]types.Signal{types.SignalBuy, "", types.SignalBuy},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewJSONStrategy(tt.def).GenerateSignals(barsFromCloses(tt.closes...))
			if len(got) != len(tt.want) {
				t.Fatalf("length got = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("bar %d got = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestJSONStrategy_ComputeIntensity(t *testing.T) {
	def := types.StrategyDef{
		BuyConditions:  []types.StrategyCondition{{Indicator: "Price", Comparator: ">", Value: 10}},
		SellConditions: []types.StrategyCondition{{Indicator: "Price", Comparator: "<", Value: 5}},
	}
	strat := NewJSONStrategy(def)

	tests := []struct {
		name   string
		closes []float64
		want   types.Intensity
	}{
		{"last bar matches buy", []float64{4, 12}, types.IntensityBuy},
		{"last bar matches sell", []float64{12, 4}, types.IntensitySell},
		{"last bar matches neither", []float64{12, 7}, types.IntensityNeutral},
		{"empty history", nil, types.IntensityNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strat.ComputeIntensity(barsFromCloses(tt.closes...)); got != tt.want {
				t.Errorf("ComputeIntensity() = %q, want %q", got, tt.want)
			}
		})
	}
}

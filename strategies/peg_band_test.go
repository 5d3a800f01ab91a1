package strategies

import (
	"testing"

	"gravion/types"
)

func TestNewPegBand(t *testing.T) {
	if _, err := NewPegBand(0, 0.005, 0.005, 0.001); err == nil {
		t.Error("expected error for non-positive baseline")
	}
	if _, err := NewPegBand(1, -0.005, 0.005, 0.001); err == nil {
		t.Error("expected error for negative elasticity")
	}
	if _, err := NewPegBand(1, 0.005, 0.005, 0.001); err != nil {
		t.Errorf("NewPegBand() error = %v", err)
	}
}

func TestPegBand_GenerateSignals(t *testing.T) {
	strat := DefaultPegBand()

	// Band is [0.995, 1.005]. A drop through the floor buys; a climb through
	// the ceiling sells. Staying outside the band does not repeat the signal.
	got := strat.GenerateSignals(barsFromCloses(1.0, 0.99, 0.98, 1.0, 1.01, 1.02))
	want := []types.Signal{"", types.SignalBuy, "", "", types.SignalSell, ""}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bar %d got = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPegBand_ComputeIntensity(t *testing.T) {
	strat := DefaultPegBand()

	tests := []struct {
		name   string
		closes []float64
		want   types.Intensity
	}{
		{"deep below band", []float64{0.98}, types.IntensityStrongBuy},
		{"below band", []float64{0.993}, types.IntensityBuy},
		{"inside band", []float64{1.0}, types.IntensityNeutral},
		{"above band", []float64{1.007}, types.IntensitySell},
		{"far above band", []float64{1.02}, types.IntensityStrongSell},
		{"no closes", []float64{-1}, types.IntensityNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strat.ComputeIntensity(barsFromCloses(tt.closes...)); got != tt.want {
				t.Errorf("ComputeIntensity() = %q, want %q", got, tt.want)
			}
		})
	}
}

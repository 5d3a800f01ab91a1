package strategies

import (
	"testing"

	"gravion/types"
)

func TestNewPriceChangeMomentum(t *testing.T) {
	if _, err := NewPriceChangeMomentum(-2, 2); err == nil {
		t.Error("expected error when buy threshold is below sell threshold")
	}
	if _, err := NewPriceChangeMomentum(2, -2); err != nil {
		t.Errorf("NewPriceChangeMomentum() error = %v", err)
	}
}

func TestPriceChangeMomentum_GenerateSignals(t *testing.T) {
	strat := DefaultPriceChangeMomentum()

	// +5%, +5%, -4%: the buy repeats on every qualifying bar.
	got := strat.GenerateSignals(barsFromCloses(100, 105, 110.25, 105.84))
	want := []types.Signal{"", types.SignalBuy, types.SignalBuy, types.SignalSell}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bar %d got = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPriceChangeMomentum_ComputeIntensity(t *testing.T) {
	strat := DefaultPriceChangeMomentum()

	tests := []struct {
		name   string
		closes []float64
		want   types.Intensity
	}{
		{"big jump", []float64{100, 105}, types.IntensityStrongBuy},
		{"small jump", []float64{100, 101}, types.IntensityBuy},
		{"flat", []float64{100, 100.1}, types.IntensityNeutral},
		{"small drop", []float64{100, 99}, types.IntensitySell},
		{"big drop", []float64{100, 95}, types.IntensityStrongSell},
		{"single bar", []float64{100}, types.IntensityNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strat.ComputeIntensity(barsFromCloses(tt.closes...)); got != tt.want {
				t.Errorf("ComputeIntensity() = %q, want %q", got, tt.want)
			}
		})
	}
}

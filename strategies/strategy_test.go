package strategies

import (
	"errors"
	"fmt"
	"testing"

	"gravion/types"
)

// barsFromCloses builds a daily history with the given closes. A negative
// close produces a bar without a close price.
func barsFromCloses(closes ...float64) []types.Bar {
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		bars[i] = types.Bar{Date: fmt.Sprintf("2024-01-%02d", i+1), Volume: 1000}
		if c >= 0 {
			v := c
			bars[i].Close = &v
		}
	}
	return bars
}

func TestRegistry_BuiltinsSeeded(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"Golden Cross", "RSI Mean Reversion", "Price Change Momentum", "Peg Band"} {
		if _, ok := r.Get(name); !ok {
			t.Errorf("builtin %q not seeded", name)
		}
	}
}

func TestRegistry_BuiltinProtection(t *testing.T) {
	r := NewRegistry()

	clash := NewJSONStrategy(types.StrategyDef{Name: "Golden Cross"})
	if err := r.Register(clash); !errors.Is(err, ErrBuiltinProtected) {
		t.Errorf("Register() error = %v, want ErrBuiltinProtected", err)
	}
	if r.Remove("Golden Cross") {
		t.Error("Remove() removed a builtin")
	}
}

func TestRegistry_UserStrategies(t *testing.T) {
	r := NewRegistry()
	user := NewJSONStrategy(types.StrategyDef{Name: "My Strategy"})

	if err := r.Register(user); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, ok := r.Get("My Strategy"); !ok {
		t.Fatal("Get() did not find registered strategy")
	}
	if !r.Remove("My Strategy") {
		t.Error("Remove() = false for user strategy")
	}
	if r.Remove("My Strategy") {
		t.Error("Remove() = true for already removed strategy")
	}
}

func TestRegistry_New(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(NewJSONStrategy(types.StrategyDef{Name: "My Strategy"}))

	tests := []struct {
		name     string
		strategy string
		params   map[string]float64
		wantErr  error
	}{
		{"unknown strategy", "Nope", nil, ErrUnknownStrategy},
		{"json strategy has no factory", "My Strategy", nil, ErrNotParameterized},
		{"invalid builtin params", "Golden Cross", map[string]float64{"fast_period": 100, "slow_period": 50}, ErrInvalidParameters},
		{"valid builtin params", "Golden Cross", map[string]float64{"fast_period": 10, "slow_period": 20}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.New(tt.strategy, tt.params)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got.Parameters()["fast_period"] != 10 {
				t.Errorf("fast_period got = %v, want 10", got.Parameters()["fast_period"])
			}
		})
	}
}

func TestRegistry_ListOrdering(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(NewJSONStrategy(types.StrategyDef{Name: "AAA Custom"}))

	infos := r.List()
	if len(infos) != 5 {
		t.Fatalf("List() length = %d, want 5", len(infos))
	}
	for i, info := range infos[:4] {
		if !info.Builtin {
			t.Errorf("List()[%d] = %q, expected a builtin first", i, info.Name)
		}
	}
	if last := infos[4]; last.Builtin || last.Name != "AAA Custom" {
		t.Errorf("List() last = %+v, want the user strategy", last)
	}
}

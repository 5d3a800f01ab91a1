// Package strategies defines the Strategy contract, the built-in strategy
// implementations, and a Registry that protects built-ins from removal or
// override.
package strategies

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gravion/types"
)

var (
	ErrUnknownStrategy   = errors.New("strategy not found")
	ErrBuiltinProtected  = errors.New("built-in strategy cannot be replaced or removed")
	ErrNotParameterized  = errors.New("strategy does not support parameterized construction")
	ErrInvalidParameters = errors.New("invalid strategy parameters")
)

// Strategy is implemented by every screening/backtesting strategy.
type Strategy interface {
	// Name returns the unique display name of the strategy.
	Name() string

	// Description returns a one-line summary for the UI.
	Description() string

	// Parameters returns the strategy's effective parameter values.
	Parameters() map[string]float64

	// ParamMeta describes the tunable parameters for the optimizer and UI.
	ParamMeta() map[string]types.ParamMeta

	// GenerateSignals walks the history once and returns one signal per bar.
	GenerateSignals(bars []types.Bar) []types.Signal

	// ComputeIntensity classifies the latest bar into one of five bands.
	// It returns NEUTRAL when the history is too short to judge.
	ComputeIntensity(bars []types.Bar) types.Intensity
}

// Factory builds a fresh strategy instance from a parameter set. Parameters
// absent from the map fall back to the strategy's defaults.
type Factory func(params map[string]float64) (Strategy, error)

// Registry holds a named collection of strategies. Built-ins are seeded at
// construction and can never be removed or silently overridden.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	factories  map[string]Factory
	builtins   map[string]bool
}

// Info is the listing form of a registered strategy.
type Info struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  map[string]float64 `json:"parameters"`
	Builtin     bool               `json:"builtin"`
}

// NewRegistry creates a Registry seeded with the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{
		strategies: make(map[string]Strategy),
		factories:  make(map[string]Factory),
		builtins:   make(map[string]bool),
	}
	r.seedBuiltin(DefaultGoldenCross(), func(p map[string]float64) (Strategy, error) {
		return NewGoldenCross(intParam(p, "fast_period", 50), intParam(p, "slow_period", 100))
	})
	r.seedBuiltin(DefaultRSIMeanReversion(), func(p map[string]float64) (Strategy, error) {
		return NewRSIMeanReversion(
			intParam(p, "rsi_period", 14),
			floatParam(p, "oversold", 30),
			floatParam(p, "overbought", 70),
		)
	})
	r.seedBuiltin(DefaultPriceChangeMomentum(), func(p map[string]float64) (Strategy, error) {
		return NewPriceChangeMomentum(
			floatParam(p, "buy_threshold", 2.0),
			floatParam(p, "sell_threshold", -2.0),
		)
	})
	r.seedBuiltin(DefaultPegBand(), func(p map[string]float64) (Strategy, error) {
		return NewPegBand(
			floatParam(p, "baseline_ratio", 1.0),
			floatParam(p, "upper_elasticity", 0.005),
			floatParam(p, "lower_elasticity", 0.005),
			floatParam(p, "reversion_threshold", 0.001),
		)
	})
	return r
}

func (r *Registry) seedBuiltin(s Strategy, f Factory) {
	r.strategies[s.Name()] = s
	r.factories[s.Name()] = f
	r.builtins[s.Name()] = true
}

// Register adds a user strategy. Registering under a built-in name fails.
func (r *Registry) Register(s Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.builtins[s.Name()] {
		return fmt.Errorf("%q: %w", s.Name(), ErrBuiltinProtected)
	}
	r.strategies[s.Name()] = s
	return nil
}

// Remove deletes a user strategy by name. Built-ins are never removed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.builtins[name] {
		return false
	}
	if _, ok := r.strategies[name]; !ok {
		return false
	}
	delete(r.strategies, name)
	return true
}

// Get retrieves a strategy by name.
func (r *Registry) Get(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	return s, ok
}

// New instantiates a fresh copy of the named strategy with the given
// parameters. Only built-ins carry a parameterized factory.
func (r *Registry) New(name string, params map[string]float64) (Strategy, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		if _, exists := r.Get(name); exists {
			return nil, fmt.Errorf("%q: %w", name, ErrNotParameterized)
		}
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownStrategy)
	}
	return f(params)
}

// List returns all registered strategies, built-ins first, each group sorted
// by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.strategies))
	for name, s := range r.strategies {
		infos = append(infos, Info{
			Name:        name,
			Description: s.Description(),
			Parameters:  s.Parameters(),
			Builtin:     r.builtins[name],
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Builtin != infos[j].Builtin {
			return infos[i].Builtin
		}
		return infos[i].Name < infos[j].Name
	})
	return infos
}

func intParam(p map[string]float64, key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}

func floatParam(p map[string]float64, key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

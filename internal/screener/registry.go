package screener

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"gravion/types"
)

var (
	ErrUnknownFilter          = errors.New("filter not found")
	ErrBuiltinFilterProtected = errors.New("built-in filter cannot be replaced or removed")
)

// builtinFilters are the screening presets that ship with the service.
var builtinFilters = []types.Filter{
	{
		Name:        "Golden Cross",
		Description: "50MA above 100MA (uptrend)",
		Builtin:     true,
		Conditions: []types.Condition{
			{Indicator: "ma50", Comparator: ">", Value: types.IndicatorValue("ma100")},
		},
	},
	{
		Name:        "RSI Oversold",
		Description: "RSI(14) below 30 — potential buy zone",
		Builtin:     true,
		Conditions: []types.Condition{
			{Indicator: "rsi", Comparator: "<", Value: types.NumberValue(30)},
		},
	},
	{
		Name:        "RSI Overbought",
		Description: "RSI(14) above 70 — potential sell zone",
		Builtin:     true,
		Conditions: []types.Condition{
			{Indicator: "rsi", Comparator: ">", Value: types.NumberValue(70)},
		},
	},
	{
		Name:        "Price Above 50MA",
		Description: "Price trading above the 50-day moving average",
		Builtin:     true,
		Conditions: []types.Condition{
			{Indicator: "price", Comparator: ">", Value: types.IndicatorValue("ma50")},
		},
	},
	{
		Name:        "Strong Momentum",
		Description: "Price above 50MA and 50MA above 100MA",
		Builtin:     true,
		Conditions: []types.Condition{
			{Indicator: "price", Comparator: ">", Value: types.IndicatorValue("ma50")},
			{Indicator: "ma50", Comparator: ">", Value: types.IndicatorValue("ma100")},
		},
	},
}

// Registry holds the named screening filters. Built-ins are immutable; user
// filters may be added and removed at runtime.
type Registry struct {
	mu      sync.RWMutex
	filters map[string]types.Filter
}

// NewRegistry creates a Registry seeded with the built-in filters.
func NewRegistry() *Registry {
	r := &Registry{filters: make(map[string]types.Filter, len(builtinFilters))}
	for _, f := range builtinFilters {
		r.filters[f.Name] = f
	}
	return r
}

// Get retrieves a filter by name.
func (r *Registry) Get(name string) (types.Filter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.filters[name]
	return f, ok
}

// Add registers a user filter. Built-in names can never be overwritten.
func (r *Registry) Add(f types.Filter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.filters[f.Name]; ok && existing.Builtin {
		return fmt.Errorf("%q: %w", f.Name, ErrBuiltinFilterProtected)
	}
	f.Builtin = false
	r.filters[f.Name] = f
	return nil
}

// Remove deletes a user filter by name. Built-ins are never removed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.filters[name]
	if !ok || f.Builtin {
		return false
	}
	delete(r.filters, name)
	return true
}

// List returns all filters, built-ins in their seeded order followed by user
// filters sorted by name.
func (r *Registry) List() []types.Filter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Filter, 0, len(r.filters))
	for _, f := range builtinFilters {
		out = append(out, r.filters[f.Name])
	}
	user := make([]types.Filter, 0)
	for _, f := range r.filters {
		if !f.Builtin {
			user = append(user, f)
		}
	}
	sort.Slice(user, func(i, j int) bool { return user[i].Name < user[j].Name })
	return append(out, user...)
}

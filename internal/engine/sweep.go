package engine

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"gravion/strategies"
	"gravion/types"
)

// Axis is one parameter dimension of a sweep: the parameter name and its
// candidate values, in the order the caller wants them tried.
type Axis struct {
	Param  string    `json:"param"`
	Values []float64 `json:"values"`
}

// SweepResult pairs one parameter combination with its backtest outcome.
type SweepResult struct {
	Params map[string]float64   `json:"params"`
	Result types.BacktestResult `json:"result"`
}

// SweepSkip records a combination that could not be constructed. Skips are
// diagnostics, never a reason to abort the sweep.
type SweepSkip struct {
	Params map[string]float64 `json:"params"`
	Reason string             `json:"reason"`
}

// Sweep backtests every combination of the axes' candidate values for the
// named strategy. Combinations run concurrently, bounded by workers; each
// combination is an independent unit with its own fresh strategy instance.
// Results come back sorted by total return descending, ties in input order.
func Sweep(
	ctx context.Context,
	registry *strategies.Registry,
	name string,
	axes []Axis,
	bars []types.Bar,
	initialCapital float64,
	workers int,
) ([]SweepResult, []SweepSkip, error) {
	if _, ok := registry.Get(name); !ok {
		return nil, nil, fmt.Errorf("%q: %w", name, strategies.ErrUnknownStrategy)
	}
	if workers <= 0 {
		workers = 1
	}

	combos := cartesian(axes)
	results := make([]*SweepResult, len(combos))
	skips := make([]*SweepSkip, len(combos))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, params := range combos {
		i, params := i, params
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			strat, err := registry.New(name, params)
			if err != nil {
				skips[i] = &SweepSkip{Params: params, Reason: err.Error()}
				return nil
			}
			res := Run(strat, bars, initialCapital)
			results[i] = &SweepResult{Params: params, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	ranked := make([]SweepResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			ranked = append(ranked, *r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Result.TotalReturnPct > ranked[j].Result.TotalReturnPct
	})

	skipped := make([]SweepSkip, 0, len(skips))
	for _, s := range skips {
		if s != nil {
			skipped = append(skipped, *s)
		}
	}
	return ranked, skipped, nil
}

// cartesian expands the axes into every parameter combination, varying the
// last axis fastest so combinations follow the caller's value order. An axis
// with no candidate values empties the whole product.
func cartesian(axes []Axis) []map[string]float64 {
	if len(axes) == 0 {
		return nil
	}
	combos := []map[string]float64{{}}
	for _, axis := range axes {
		if len(axis.Values) == 0 {
			return nil
		}
		next := make([]map[string]float64, 0, len(combos)*len(axis.Values))
		for _, base := range combos {
			for _, v := range axis.Values {
				params := make(map[string]float64, len(base)+1)
				for k, bv := range base {
					params[k] = bv
				}
				params[axis.Param] = v
				next = append(next, params)
			}
		}
		combos = next
	}
	return combos
}

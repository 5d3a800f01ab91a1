package screener

import (
	"context"

	"golang.org/x/sync/errgroup"

	"gravion/types"
)

// Operator combines per-filter verdicts when screening with several filters.
type Operator string

const (
	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
)

// HistoryStore supplies a symbol's ordered daily history.
type HistoryStore interface {
	GetHistory(ctx context.Context, symbol string) ([]types.Bar, error)
}

// Match is the screening verdict for one symbol.
type Match struct {
	Symbol  string
	Matched bool
	Err     error
}

// Screener evaluates filters across many symbols concurrently. Each symbol is
// an independent unit; a failing unit fails closed without aborting the batch.
type Screener struct {
	store   HistoryStore
	workers int
}

// NewScreener creates a Screener reading histories from store, evaluating up
// to workers symbols at a time.
func NewScreener(store HistoryStore, workers int) *Screener {
	if workers <= 0 {
		workers = 8
	}
	return &Screener{store: store, workers: workers}
}

// Screen evaluates the filters against every symbol and combines the
// per-filter verdicts with op (AND unless OR is given).
func (s *Screener) Screen(ctx context.Context, symbols []string, filters []types.Filter, op Operator) ([]Match, error) {
	matches := make([]Match, len(symbols))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bars, err := s.store.GetHistory(ctx, symbol)
			if err != nil {
				matches[i] = Match{Symbol: symbol, Err: err}
				return nil
			}
			matches[i] = Match{Symbol: symbol, Matched: Combine(bars, filters, op)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}

// Combine evaluates each filter's AND-combined conditions against one history
// and merges the verdicts with op.
func Combine(bars []types.Bar, filters []types.Filter, op Operator) bool {
	if len(filters) == 0 {
		return true
	}
	if op != OperatorOr {
		op = OperatorAnd
	}
	for _, f := range filters {
		matched := EvaluateFilter(bars, f.Conditions)
		if op == OperatorAnd && !matched {
			return false
		}
		if op == OperatorOr && matched {
			return true
		}
	}
	return op == OperatorAnd
}

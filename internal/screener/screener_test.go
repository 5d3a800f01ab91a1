package screener

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gravion/types"
)

type mockHistoryStore struct {
	histories map[string][]types.Bar
	err       error
}

func (m mockHistoryStore) GetHistory(_ context.Context, symbol string) ([]types.Bar, error) {
	if m.err != nil {
		return nil, m.err
	}
	bars, ok := m.histories[symbol]
	if !ok {
		return nil, errors.New("no history")
	}
	return bars, nil
}

func TestScreener_Screen(t *testing.T) {
	store := mockHistoryStore{histories: map[string][]types.Bar{
		"UP":   history(100, 105),
		"DOWN": history(105, 100),
	}}
	s := NewScreener(store, 2)

	rising := []types.Filter{{
		Name: "Rising",
		Conditions: []types.Condition{
			{Indicator: "change_pct", Comparator: ">", Value: types.NumberValue(0)},
		},
	}}

	matches, err := s.Screen(context.Background(), []string{"UP", "DOWN", "MISSING"}, rising, OperatorAnd)
	if err != nil {
		t.Fatalf("Screen() error = %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("matches = %d, want 3", len(matches))
	}

	byName := map[string]Match{}
	for _, m := range matches {
		byName[m.Symbol] = m
	}
	if !byName["UP"].Matched {
		t.Error("UP should match")
	}
	if byName["DOWN"].Matched {
		t.Error("DOWN should not match")
	}
	// A failing symbol fails closed and carries its error.
	if byName["MISSING"].Matched || byName["MISSING"].Err == nil {
		t.Errorf("MISSING = %+v, want unmatched with error", byName["MISSING"])
	}
}

func TestScreener_PreservesSentinelErrors(t *testing.T) {
	sentinel := errors.New("no cached history")
	store := mockHistoryStore{err: fmt.Errorf("get history: %w", sentinel)}
	s := NewScreener(store, 1)

	matches, err := s.Screen(context.Background(), []string{"AAPL"}, []types.Filter{{Name: "any"}}, OperatorAnd)
	if err != nil {
		t.Fatalf("Screen() error = %v", err)
	}
	if !errors.Is(matches[0].Err, sentinel) {
		t.Errorf("Err = %v, want wrapped %v", matches[0].Err, sentinel)
	}
}

func TestCombine(t *testing.T) {
	rising := types.Filter{Conditions: []types.Condition{
		{Indicator: "change_pct", Comparator: ">", Value: types.NumberValue(0)},
	}}
	cheap := types.Filter{Conditions: []types.Condition{
		{Indicator: "price", Comparator: "<", Value: types.NumberValue(50)},
	}}
	bars := history(100, 105)

	tests := []struct {
		name    string
		filters []types.Filter
		op      Operator
		want    bool
	}{
		{"no filters match everything", nil, OperatorAnd, true},
		{"and requires all", []types.Filter{rising, cheap}, OperatorAnd, false},
		{"or requires one", []types.Filter{rising, cheap}, OperatorOr, true},
		{"or with no matches", []types.Filter{cheap}, OperatorOr, false},
		{"unknown operator defaults to and", []types.Filter{rising}, Operator("XOR"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Combine(bars, tt.filters, tt.op); got != tt.want {
				t.Errorf("Combine() = %v, want %v", got, tt.want)
			}
		})
	}
}

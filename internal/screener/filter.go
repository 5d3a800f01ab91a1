// Package screener evaluates declarative stock filters against the latest
// indicator snapshot of a symbol's history.
package screener

import (
	"math"
	"strconv"

	"gravion/internal/indicator"
	"gravion/types"
)

// Snapshot maps indicator names to their latest value. Indicators without
// enough history are simply absent.
type Snapshot map[string]float64

// ComputeSnapshot derives the latest indicator values from a full history.
// Bars without a close are dropped before the windows are applied. The bool
// is false when fewer than two bars exist or no valid close remains.
func ComputeSnapshot(bars []types.Bar) (Snapshot, bool) {
	if len(bars) < 2 {
		return nil, false
	}

	closes := make(indicator.Series, 0, len(bars))
	var lastVolume *int64
	for _, b := range bars {
		if b.HasClose() {
			closes = append(closes, indicator.Value{Float: *b.Close, Valid: true})
		}
		v := b.Volume
		lastVolume = &v
	}
	if len(closes) == 0 {
		return nil, false
	}

	snap := Snapshot{"price": closes[len(closes)-1].Float}
	if lastVolume != nil {
		snap["volume"] = float64(*lastVolume)
	}
	if v, ok := indicator.SMA(closes, 50).Last(); ok {
		snap["ma50"] = v
	}
	if v, ok := indicator.SMA(closes, 100).Last(); ok {
		snap["ma100"] = v
	}
	if v, ok := indicator.RSI(closes, 14).Last(); ok {
		snap["rsi"] = v
	}
	if v, ok := indicator.DailyChangePct(closes).Last(); ok {
		snap["change_pct"] = v
	}
	return snap, true
}

// EvaluateFilter reports whether a history satisfies all conditions.
// Evaluation fails closed: a missing indicator on either side of any
// condition, or an unknown comparator, makes the whole filter false.
func EvaluateFilter(bars []types.Bar, conditions []types.Condition) bool {
	if len(conditions) == 0 {
		return true
	}
	snap, ok := ComputeSnapshot(bars)
	if !ok {
		return false
	}

	for _, cond := range conditions {
		left, ok := snap[cond.Indicator]
		if !ok {
			return false
		}

		var right float64
		if cond.Value.IsNumber {
			right = cond.Value.Number
		} else if right, ok = snap[cond.Value.Indicator]; !ok {
			return false
		}

		if !compareSnapshot(cond.Comparator, left, right) {
			return false
		}
	}
	return true
}

func compareSnapshot(op string, a, b float64) bool {
	switch op {
	case ">":
		return a > b
	case "<":
		return a < b
	case ">=":
		return a >= b
	case "<=":
		return a <= b
	case "==":
		return math.Abs(a-b) < 1e-9
	}
	return false
}

var indicatorLabels = map[string]string{
	"price":      "Price",
	"ma50":       "50MA",
	"ma100":      "100MA",
	"rsi":        "RSI(14)",
	"change_pct": "Chg%",
	"volume":     "Volume",
}

// ConditionLabel renders a condition for display, e.g. "50MA > 100MA".
func ConditionLabel(cond types.Condition) string {
	left := cond.Indicator
	if l, ok := indicatorLabels[left]; ok {
		left = l
	}
	comparator := cond.Comparator
	if comparator == "" {
		comparator = "?"
	}

	var right string
	if cond.Value.IsNumber {
		right = trimFloat(cond.Value.Number)
	} else if l, ok := indicatorLabels[cond.Value.Indicator]; ok {
		right = l
	} else {
		right = cond.Value.Indicator
	}
	return left + " " + comparator + " " + right
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Package indicator provides pure transforms over daily closing-price series.
// Every function returns a series aligned with its input; positions inside an
// indicator's warmup window, or derived from a missing input, are invalid.
package indicator

import (
	"math"

	"gravion/types"
)

// Value is one point of an indicator series.
type Value struct {
	Float float64
	Valid bool
}

// Series is an ordered indicator sequence, aligned with the bars it was
// computed from.
type Series []Value

func valid(f float64) Value { return Value{Float: f, Valid: true} }

// Last returns the most recent valid value of the series.
func (s Series) Last() (float64, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Valid {
			return s[i].Float, true
		}
	}
	return 0, false
}

// Closes extracts the close series of a history. Bars without a close price
// become invalid positions.
func Closes(bars []types.Bar) Series {
	out := make(Series, len(bars))
	for i, b := range bars {
		if b.Close != nil {
			out[i] = valid(*b.Close)
		}
	}
	return out
}

// Volumes extracts the volume series of a history.
func Volumes(bars []types.Bar) Series {
	out := make(Series, len(bars))
	for i, b := range bars {
		out[i] = valid(float64(b.Volume))
	}
	return out
}

// SMA is the arithmetic mean of the trailing period values. The first
// period-1 positions, and any window containing a missing value, are invalid.
func SMA(s Series, period int) Series {
	out := make(Series, len(s))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(s); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if !s[j].Valid {
				ok = false
				break
			}
			sum += s[j].Float
		}
		if ok {
			out[i] = valid(sum / float64(period))
		}
	}
	return out
}

// EMA is exponential smoothing with factor 2/(period+1), seeded from the
// first valid value and defined for every position after it. Missing inputs
// yield an invalid output position without resetting the smoothing state.
func EMA(s Series, period int) Series {
	out := make(Series, len(s))
	if period <= 0 {
		return out
	}
	k := 2.0 / float64(period+1)
	seeded := false
	prev := 0.0
	for i, v := range s {
		if !v.Valid {
			continue
		}
		if !seeded {
			prev = v.Float
			seeded = true
		} else {
			prev = (v.Float-prev)*k + prev
		}
		out[i] = valid(prev)
	}
	return out
}

// RSI is the relative strength index over trailing simple means of gains and
// losses. When the average loss is exactly zero, RS is undefined and the
// position is reported invalid rather than coerced to 100.
func RSI(s Series, period int) Series {
	out := make(Series, len(s))
	if period <= 0 || len(s) < period+1 {
		return out
	}

	gains := make(Series, len(s))
	losses := make(Series, len(s))
	for i := 1; i < len(s); i++ {
		if !s[i].Valid || !s[i-1].Valid {
			continue
		}
		delta := s[i].Float - s[i-1].Float
		gains[i] = valid(math.Max(delta, 0))
		losses[i] = valid(math.Max(-delta, 0))
	}

	avgGain := SMA(gains, period)
	avgLoss := SMA(losses, period)
	for i := range s {
		if !avgGain[i].Valid || !avgLoss[i].Valid {
			continue
		}
		if avgLoss[i].Float == 0 {
			continue
		}
		rs := avgGain[i].Float / avgLoss[i].Float
		out[i] = valid(100 - 100/(1+rs))
	}
	return out
}

// MACD returns the MACD line, its signal line, and the histogram.
func MACD(s Series, fast, slow, signal int) (line, signalLine, histogram Series) {
	emaFast := EMA(s, fast)
	emaSlow := EMA(s, slow)

	line = make(Series, len(s))
	for i := range s {
		if emaFast[i].Valid && emaSlow[i].Valid {
			line[i] = valid(emaFast[i].Float - emaSlow[i].Float)
		}
	}

	signalLine = EMA(line, signal)

	histogram = make(Series, len(s))
	for i := range s {
		if line[i].Valid && signalLine[i].Valid {
			histogram[i] = valid(line[i].Float - signalLine[i].Float)
		}
	}
	return line, signalLine, histogram
}

// BollingerBands returns the middle band (SMA) and upper/lower bands at
// k sample standard deviations (Bessel's correction).
func BollingerBands(s Series, period int, k float64) (middle, upper, lower Series) {
	middle = SMA(s, period)
	upper = make(Series, len(s))
	lower = make(Series, len(s))
	if period < 2 {
		return middle, upper, lower
	}
	for i := period - 1; i < len(s); i++ {
		if !middle[i].Valid {
			continue
		}
		mean := middle[i].Float
		sumSq := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := s[j].Float - mean
			sumSq += d * d
		}
		band := k * math.Sqrt(sumSq/float64(period-1))
		upper[i] = valid(mean + band)
		lower[i] = valid(mean - band)
	}
	return middle, upper, lower
}

// DailyChangePct is the percentage change from the previous position. The
// first position is invalid, as is any position whose previous close is
// missing or zero.
func DailyChangePct(s Series) Series {
	out := make(Series, len(s))
	for i := 1; i < len(s); i++ {
		if !s[i].Valid || !s[i-1].Valid || s[i-1].Float == 0 {
			continue
		}
		out[i] = valid((s[i].Float/s[i-1].Float - 1) * 100)
	}
	return out
}

package types

// Signal is the per-bar trade signal emitted by a strategy.
type Signal string

const (
	SignalNone Signal = ""
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
)

// Intensity is a point-in-time classification of current strategy bias,
// independent of the per-bar trade signals.
type Intensity string

const (
	IntensityStrongBuy  Intensity = "STRONG BUY"
	IntensityBuy        Intensity = "BUY"
	IntensityNeutral    Intensity = "NEUTRAL"
	IntensitySell       Intensity = "SELL"
	IntensityStrongSell Intensity = "STRONG SELL"
)

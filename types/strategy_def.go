package types

// StrategyCondition is one rule of a JSON-defined strategy. The comparator may
// be a plain comparison or crosses_above / crosses_below.
type StrategyCondition struct {
	Indicator  string  `json:"indicator"`
	Period     int     `json:"period"`
	Comparator string  `json:"comparator"`
	Value      float64 `json:"value"`
}

// StrategyDef is the persisted definition of a JSON-configured strategy.
// Conditions within one side are AND-combined.
type StrategyDef struct {
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	BuyConditions  []StrategyCondition `json:"buy_conditions"`
	SellConditions []StrategyCondition `json:"sell_conditions"`
}

// ParamMeta describes one tunable strategy parameter for the optimizer and the
// UI. It is never consulted by simulation logic.
type ParamMeta struct {
	Label   string  `json:"label"`
	Type    string  `json:"type"`
	Default float64 `json:"default"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
}

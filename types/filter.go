package types

import (
	"encoding/json"
	"fmt"
)

// ConditionValue is the right-hand side of a screening condition: either a
// literal number or the name of another indicator.
type ConditionValue struct {
	Number    float64
	Indicator string
	IsNumber  bool
}

// NumberValue builds a literal numeric right-hand side.
func NumberValue(n float64) ConditionValue {
	return ConditionValue{Number: n, IsNumber: true}
}

// IndicatorValue builds an indicator-reference right-hand side.
func IndicatorValue(name string) ConditionValue {
	return ConditionValue{Indicator: name}
}

func (v *ConditionValue) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = NumberValue(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = IndicatorValue(s)
		return nil
	}
	return fmt.Errorf("condition value must be a number or an indicator name, got %s", data)
}

func (v ConditionValue) MarshalJSON() ([]byte, error) {
	if v.IsNumber {
		return json.Marshal(v.Number)
	}
	return json.Marshal(v.Indicator)
}

// Condition compares a named indicator against a value or another indicator.
type Condition struct {
	Indicator  string         `json:"indicator"`
	Comparator string         `json:"comparator"`
	Value      ConditionValue `json:"value"`
}

// Filter is a named, AND-combined set of screening conditions.
type Filter struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Builtin     bool        `json:"builtin"`
	Conditions  []Condition `json:"conditions"`
}

package config

import (
	"fmt"

	"github.com/Shopify/go-lua"
)

// Calc evaluates the small arithmetic expressions of the !calc directive.
type Calc struct{}

func NewCalc() *Calc {
	return &Calc{}
}

// Eval runs formula with values bound as v1..vN and returns the numeric
// result. Every evaluation gets a fresh lua state, created without any
// libraries: formulas can reach arithmetic and the bound values but never io,
// os, or a binding left over from an earlier document.
func (c *Calc) Eval(formula string, values []any) (float64, error) {
	state := lua.NewState()

	for i, v := range values {
		n, err := toFloat(v)
		if err != nil {
			return 0, fmt.Errorf("calc value %d: %w", i+1, err)
		}
		state.PushNumber(n)
		state.SetGlobal(fmt.Sprintf("v%d", i+1))
	}

	if err := lua.DoString(state, "return "+formula); err != nil {
		return 0, fmt.Errorf("calc %q: %w", formula, err)
	}
	result, ok := state.ToNumber(-1)
	if !ok {
		return 0, fmt.Errorf("calc %q: result is not a number", formula)
	}
	return result, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}

package catalog

import "github.com/iwvelando/yield-planner/pkg/mathutil"

// EffectKind tags a booster effect variant.
type EffectKind string

// EffectMultiplier scales the daily yield by 1+value over the covered window.
const EffectMultiplier EffectKind = "mult"

// Effect is a tagged booster effect. Kinds the engine does not know grant no bonus.
type Effect struct {
	Kind  EffectKind `yaml:"type" json:"type"`
	Value float64    `yaml:"value" json:"value"`
}

// MultiplierBonus returns the fractional yield bonus contributed to the
// multiplicative stack.
func (e Effect) MultiplierBonus() float64 {
	switch e.Kind {
	case EffectMultiplier:
		return mathutil.NonNegative(e.Value)
	default:
		return 0
	}
}

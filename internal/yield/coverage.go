// Package yield computes per-deposit and portfolio-level yield figures:
// booster coverage and stacking, shared-cost amortization, and break-even
// deposits for entry-fee programs.
package yield

import (
	"math"

	"github.com/iwvelando/yield-planner/internal/catalog"
	"github.com/iwvelando/yield-planner/pkg/constants"
	"github.com/iwvelando/yield-planner/pkg/mathutil"
)

// Coverage is the fraction of a tariff's duration during which a booster
// lasting boosterHours is active, clamped to [0, 1].
func Coverage(boosterHours float64, tariffDays int) float64 {
	if tariffDays <= 0 {
		return 0
	}
	tariffHours := float64(tariffDays) * constants.HoursPerDay
	return mathutil.Clamp01(math.Min(boosterHours, tariffHours) / tariffHours)
}

// Multiplier is the yield multiplier of one booster at the given coverage.
// It is 1 at or below zero coverage and 1+effectValue at or above full coverage.
func Multiplier(effectValue, coverage float64) float64 {
	return 1 + mathutil.NonNegative(effectValue)*mathutil.Clamp01(coverage)
}

// Applies reports whether a booster affects deposits on the tariff.
func Applies(b catalog.Booster, t catalog.Tariff) bool {
	return !b.Blocks(t.ID)
}

// BoosterMultiplier is the multiplier a single booster contributes on a tariff,
// or 1 when the tariff is blocked.
func BoosterMultiplier(b catalog.Booster, t catalog.Tariff) float64 {
	if !Applies(b, t) {
		return 1
	}
	return Multiplier(b.EffectValue(), Coverage(b.DurationHours, t.DurationDays))
}

// StackedMultiplier combines every applicable booster multiplicatively.
func StackedMultiplier(boosters []catalog.Booster, t catalog.Tariff) float64 {
	m := 1.0
	for _, b := range boosters {
		m *= BoosterMultiplier(b, t)
	}
	return m
}

// BoosterNetGain is the extra yield, after fees, one booster adds to a deposit
// of amount on tariff t. Blocked tariffs gain nothing.
func BoosterNetGain(amount float64, t catalog.Tariff, b catalog.Booster, feeRate float64) float64 {
	if !Applies(b, t) {
		return 0
	}
	bonus := b.EffectValue() * Coverage(b.DurationHours, t.DurationDays)
	if bonus <= 0 {
		return 0
	}
	return amount * t.DailyRate * float64(t.DurationDays) * bonus * (1 - mathutil.Clamp01(feeRate))
}

// BreakEvenDeposit is the deposit whose net yield over the tariff's duration
// equals its entry fee. It is nil for plans and for tariffs that cannot earn.
func BreakEvenDeposit(t catalog.Tariff, feeRate float64) *float64 {
	if !t.IsProgram() {
		return nil
	}
	return mathutil.DivideOrNil(t.EntryFee, t.DailyRate*float64(t.DurationDays)*(1-mathutil.Clamp01(feeRate)))
}

package yield

import (
	"math"
	"testing"

	"github.com/iwvelando/yield-planner/internal/catalog"
)

func TestMultiplierBounds(t *testing.T) {
	const effect = 0.75

	for _, c := range []float64{-5, -0.1, 0} {
		if got := Multiplier(effect, c); got != 1 {
			t.Errorf("Multiplier(%v, %v) = %v, want 1", effect, c, got)
		}
	}
	for _, c := range []float64{1, 1.5, 40} {
		if got := Multiplier(effect, c); got != 1+effect {
			t.Errorf("Multiplier(%v, %v) = %v, want %v", effect, c, got, 1+effect)
		}
	}
}

func TestMultiplierMonotonic(t *testing.T) {
	prev := Multiplier(0.3, 0)
	for step := 1; step <= 100; step++ {
		c := float64(step) / 100
		m := Multiplier(0.3, c)
		if m < prev {
			t.Fatalf("Multiplier decreased at coverage %v: %v < %v", c, m, prev)
		}
		if m < 1 {
			t.Fatalf("Multiplier below 1 at coverage %v", c)
		}
		prev = m
	}
}

func TestCoverage(t *testing.T) {
	tests := []struct {
		name  string
		hours float64
		days  int
		want  float64
	}{
		{"One day on ten-day tariff", 24, 10, 0.1},
		{"Longer than tariff", 1000, 10, 1},
		{"Exactly tariff length", 240, 10, 1},
		{"Zero duration tariff", 24, 0, 0},
		{"Negative booster hours", -5, 10, 0},
		{"Very long tariff", 24, math.MaxInt, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Coverage(tt.hours, tt.days); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Coverage(%v, %d) = %v, want %v", tt.hours, tt.days, got, tt.want)
			}
		})
	}
}

func TestOneDayBoosterOnTenDayTariff(t *testing.T) {
	tariff := catalog.Tariff{ID: "t", DurationDays: 10}
	b := catalog.Booster{Effect: catalog.Effect{Kind: catalog.EffectMultiplier, Value: 1}, DurationHours: 24}

	if got := BoosterMultiplier(b, tariff); math.Abs(got-1.1) > 1e-12 {
		t.Errorf("BoosterMultiplier = %v, want 1.1", got)
	}
}

func TestBlockedBoosterHasNoEffect(t *testing.T) {
	tariff := catalog.Tariff{ID: "t", DurationDays: 10, DailyRate: 0.01}
	b := catalog.Booster{
		Effect:           catalog.Effect{Kind: catalog.EffectMultiplier, Value: 1},
		DurationHours:    24,
		BlockedTariffIDs: []string{"t"},
	}

	if got := BoosterMultiplier(b, tariff); got != 1 {
		t.Errorf("BoosterMultiplier on blocked tariff = %v, want 1", got)
	}
	if got := BoosterNetGain(100, tariff, b, 0.2); got != 0 {
		t.Errorf("BoosterNetGain on blocked tariff = %v, want 0", got)
	}
}

func TestStackedMultiplierOrderIndependent(t *testing.T) {
	tariff := catalog.Tariff{ID: "t", DurationDays: 14}
	boosters := []catalog.Booster{
		{ID: "a", Effect: catalog.Effect{Kind: catalog.EffectMultiplier, Value: 0.5}, DurationHours: 48},
		{ID: "b", Effect: catalog.Effect{Kind: catalog.EffectMultiplier, Value: 0.2}, DurationHours: 400},
		{ID: "c", Effect: catalog.Effect{Kind: catalog.EffectMultiplier, Value: 1.3}, DurationHours: 12},
	}
	reversed := []catalog.Booster{boosters[2], boosters[1], boosters[0]}
	rotated := []catalog.Booster{boosters[1], boosters[2], boosters[0]}

	want := StackedMultiplier(boosters, tariff)
	for _, order := range [][]catalog.Booster{reversed, rotated} {
		if got := StackedMultiplier(order, tariff); math.Abs(got-want) > 1e-12 {
			t.Errorf("StackedMultiplier depends on order: %v vs %v", got, want)
		}
	}
}

func TestBreakEvenDepositRoundTrip(t *testing.T) {
	tariff := catalog.Tariff{ID: "p", DurationDays: 20, DailyRate: 0.015, Category: catalog.CategoryProgram, EntryFee: 45}
	const fee = 0.25

	be := BreakEvenDeposit(tariff, fee)
	if be == nil {
		t.Fatal("BreakEvenDeposit returned nil")
	}
	gain := *be * tariff.DailyRate * float64(tariff.DurationDays) * (1 - fee)
	if math.Abs(gain-tariff.EntryFee) > 1e-9 {
		t.Errorf("net gain at break-even = %v, want %v", gain, tariff.EntryFee)
	}
}

func TestBreakEvenDepositUndefined(t *testing.T) {
	program := catalog.Tariff{DurationDays: 10, DailyRate: 0, Category: catalog.CategoryProgram, EntryFee: 5}
	if BreakEvenDeposit(program, 0.1) != nil {
		t.Errorf("zero-rate program should have no break-even deposit")
	}
	if BreakEvenDeposit(catalog.Tariff{DurationDays: 10, DailyRate: 0.01, Category: catalog.CategoryProgram}, 1) != nil {
		t.Errorf("full fee rate should have no break-even deposit")
	}
	if BreakEvenDeposit(catalog.Tariff{DurationDays: 10, DailyRate: 0.01}, 0.1) != nil {
		t.Errorf("plans have no break-even deposit")
	}
}

package projection

import (
	"math"
	"testing"

	"github.com/iwvelando/yield-planner/internal/catalog"
	"github.com/iwvelando/yield-planner/internal/yield"
)

func projectionCatalog() catalog.Catalog {
	return catalog.Catalog{
		Subscriptions: []catalog.Subscription{
			{ID: "free", Name: "Free", FeeRate: 0.2},
			{ID: "plus", Name: "Plus", FeeRate: 0.1, Price: 5, MinLevel: 1},
			{ID: "max", Name: "Max", FeeRate: 0, Price: 50, MinLevel: 3},
		},
		Tariffs: []catalog.Tariff{
			{ID: "short", DurationDays: 10, DailyRate: 0.01},
			{ID: "long", DurationDays: 45, DailyRate: 0.01},
		},
	}
}

func TestParseReinvestMode(t *testing.T) {
	tests := map[string]ReinvestMode{
		"auto-roll":   AutoRoll,
		" AUTO ":      AutoRoll,
		"no-reinvest": NoReinvest,
		"":            NoReinvest,
		"weird":       NoReinvest,
	}
	for in, want := range tests {
		if got := ParseReinvestMode(in); got != want {
			t.Errorf("ParseReinvestMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProjectModes(t *testing.T) {
	c := projectionCatalog()
	booster := catalog.Booster{ID: "b", Effect: catalog.Effect{Kind: catalog.EffectMultiplier, Value: 1}, DurationHours: 24, Price: 2}
	state := yield.Compute(yield.Input{
		Catalog:      c,
		Portfolio:    catalog.Portfolio{{ID: "i", TariffID: "short", Amount: 100}},
		Subscription: c.Subscriptions[0],
		Boosters:     []catalog.Booster{booster},
	})

	// Daily gross is 100 * 1% * 1.1 = 1.1.
	noReinvest := Project(state, c.Subscriptions[1], NoReinvest)
	if want := 1.1*0.9*10 - 2 - 5; math.Abs(noReinvest-want) > 1e-9 {
		t.Errorf("no-reinvest = %v, want %v", noReinvest, want)
	}

	autoRoll := Project(state, c.Subscriptions[1], AutoRoll)
	if want := 1.1*0.9*30 - 2 - 5; math.Abs(autoRoll-want) > 1e-9 {
		t.Errorf("auto-roll = %v, want %v", autoRoll, want)
	}
}

func TestProjectLongTariffCappedAtWindow(t *testing.T) {
	c := projectionCatalog()
	state := yield.Compute(yield.Input{
		Catalog:      c,
		Portfolio:    catalog.Portfolio{{ID: "i", TariffID: "long", Amount: 200}},
		Subscription: c.Subscriptions[0],
	})

	a := Project(state, c.Subscriptions[0], NoReinvest)
	b := Project(state, c.Subscriptions[0], AutoRoll)
	if want := 200 * 0.01 * 0.8 * 30; math.Abs(a-want) > 1e-9 || math.Abs(b-want) > 1e-9 {
		t.Errorf("projections = %v / %v, want %v for both modes", a, b, want)
	}
}

func TestEvaluateCandidates(t *testing.T) {
	c := projectionCatalog()
	state := yield.Compute(yield.Input{
		Catalog:      c,
		Portfolio:    catalog.Portfolio{{ID: "i", TariffID: "short", Amount: 1000}},
		Subscription: c.Subscriptions[0],
	})

	outcomes := Evaluate(c, state, 1, c.Subscriptions[0])
	if len(outcomes) != 2 {
		t.Fatalf("expected free and plus, got %+v", outcomes)
	}
	if !outcomes[0].Current || outcomes[1].Current {
		t.Errorf("current flag misplaced: %+v", outcomes)
	}

	best, ok := Best(outcomes, NoReinvest)
	if !ok || best.SubscriptionID != "plus" {
		t.Errorf("Best = %+v, want plus", best)
	}
}

func TestEvaluateKeepsCurrentAboveLevel(t *testing.T) {
	c := projectionCatalog()
	state := yield.Compute(yield.Input{Catalog: c, Subscription: c.Subscriptions[2]})

	outcomes := Evaluate(c, state, 0, c.Subscriptions[2])
	if len(outcomes) != 2 || outcomes[1].SubscriptionID != "max" || !outcomes[1].Current {
		t.Errorf("outcomes = %+v, want free plus current max", outcomes)
	}
	if outcomes[1].NoReinvest != -50 {
		t.Errorf("empty portfolio under max = %v, want -50", outcomes[1].NoReinvest)
	}
}

func TestEvaluateUnknownCurrent(t *testing.T) {
	c := projectionCatalog()
	state := yield.Compute(yield.Input{Catalog: c})

	outcomes := Evaluate(c, state, 0, catalog.Subscription{})
	if len(outcomes) != 2 || !outcomes[0].Current || outcomes[0].SubscriptionID != "" {
		t.Errorf("outcomes = %+v, want unknown current first", outcomes)
	}
}

func TestBestEmpty(t *testing.T) {
	if _, ok := Best(nil, AutoRoll); ok {
		t.Errorf("Best(nil) should report no outcome")
	}
}

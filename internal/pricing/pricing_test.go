package pricing

import (
	"math"
	"testing"

	"github.com/iwvelando/yield-planner/internal/catalog"
)

func pricingCatalog() catalog.Catalog {
	plan := func(id string, baseMin float64) catalog.Tariff {
		return catalog.Tariff{ID: id, DurationDays: 10, DailyRate: 0.01, BaseMin: baseMin, Category: catalog.CategoryPlan, Access: catalog.AccessLevel}
	}
	return catalog.Catalog{
		Subscriptions: []catalog.Subscription{{ID: "basic", FeeRate: 0.2}},
		Tariffs:       []catalog.Tariff{plan("t4", 1000), plan("t2", 200), plan("t1", 100), plan("t3", 300)},
		Boosters: []catalog.Booster{
			{ID: "full", Effect: catalog.Effect{Kind: catalog.EffectMultiplier, Value: 1}, DurationHours: 240, Price: 3, Scope: catalog.ScopeAccount},
		},
		PricingControls: catalog.PricingControls{
			BaseCapturePct:      20,
			WhaleCapturePct:     10,
			InvestorRoiFloorPct: 50,
			MinPrice:            1,
			MaxPrice:            1000,
		},
	}
}

func priceFor(c catalog.Catalog, p catalog.Portfolio) Quote {
	return PriceBoosters(Request{Catalog: c, UserLevel: 0, SubscriptionID: "basic", Portfolio: p})[0]
}

func TestPriceBoostersReferenceGains(t *testing.T) {
	c := pricingCatalog()
	q := priceFor(c, catalog.Portfolio{{ID: "i", TariffID: "t4", Amount: 10000}})

	// Each unit deposited on a 10-day 1% tariff gains 0.08 after a 20% fee at full coverage.
	if math.Abs(q.BaselineGain-48) > 1e-9 {
		t.Errorf("BaselineGain = %v, want 48 (three cheapest tariffs)", q.BaselineGain)
	}
	if math.Abs(q.PortfolioGain-800) > 1e-9 {
		t.Errorf("PortfolioGain = %v, want 800", q.PortfolioGain)
	}
	if math.Abs(q.BasePrice-9.6) > 1e-9 {
		t.Errorf("BasePrice = %v, want 9.6", q.BasePrice)
	}
	if math.Abs(q.Booster.Price-84.8) > 1e-9 {
		t.Errorf("Price = %v, want 84.8", q.Booster.Price)
	}
	if !q.Dynamic || q.ListPrice != 3 {
		t.Errorf("quote = %+v, want dynamic with list price 3", q)
	}
}

func TestDerivePrice(t *testing.T) {
	pc := pricingCatalog().PricingControls

	tests := []struct {
		name      string
		baseline  float64
		portfolio float64
		wantBase  float64
		wantPrice float64
	}{
		{"Whale premium", 48, 800, 9.6, 84.8},
		{"Small portfolio capped by ROI floor", 48, 8, 9.6, 5.33},
		{"Empty portfolio keeps base price", 48, 0, 9.6, 9.6},
		{"Base clamped to minimum", 1, 0, 1, 1},
		{"Clamped to maximum", 100000, 200000, 1000, 1000},
		{"ROI cap never below minimum", 48, 0.3, 9.6, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, price := DerivePrice(tt.baseline, tt.portfolio, pc)
			if math.Abs(base-tt.wantBase) > 1e-9 {
				t.Errorf("base = %v, want %v", base, tt.wantBase)
			}
			if math.Abs(price-tt.wantPrice) > 1e-9 {
				t.Errorf("price = %v, want %v", price, tt.wantPrice)
			}
		})
	}
}

func TestPriceMonotonicInPortfolioSize(t *testing.T) {
	c := pricingCatalog()
	prev := -1.0
	for amount := 50.0; amount <= 50000; amount *= 1.3 {
		q := priceFor(c, catalog.Portfolio{{ID: "i", TariffID: "t2", Amount: amount}})
		if q.Booster.Price < prev {
			t.Fatalf("price decreased at deposit %v: %v < %v", amount, q.Booster.Price, prev)
		}
		prev = q.Booster.Price
	}
}

func TestRaisingRoiFloorNeverRaisesPrice(t *testing.T) {
	c := pricingCatalog()
	portfolio := catalog.Portfolio{{ID: "i", TariffID: "t4", Amount: 900}}

	prev := math.Inf(1)
	for floor := 0.0; floor <= 1000; floor += 25 {
		c.PricingControls.InvestorRoiFloorPct = floor
		q := priceFor(c, portfolio)
		if q.Booster.Price > prev {
			t.Fatalf("price rose when floor increased to %v: %v > %v", floor, q.Booster.Price, prev)
		}
		prev = q.Booster.Price
	}
}

func TestBlockingDominantTariffLowersPrice(t *testing.T) {
	c := pricingCatalog()
	portfolio := catalog.Portfolio{
		{ID: "whale", TariffID: "t4", Amount: 10000},
		{ID: "small", TariffID: "t1", Amount: 100},
	}

	before := priceFor(c, portfolio).Booster.Price
	c.Boosters[0].BlockedTariffIDs = []string{"t4"}
	after := priceFor(c, portfolio).Booster.Price

	if !(after < before) {
		t.Errorf("blocking dominant tariff: price %v, want strictly below %v", after, before)
	}
}

func TestBlockedBaselineTariffIsSkipped(t *testing.T) {
	c := pricingCatalog()
	c.Boosters[0].BlockedTariffIDs = []string{"t1"}

	q := priceFor(c, nil)
	if math.Abs(q.BaselineGain-40) > 1e-9 {
		t.Errorf("BaselineGain = %v, want 40 with t1 blocked", q.BaselineGain)
	}
}

func TestPassThrough(t *testing.T) {
	t.Run("Non-account scope", func(t *testing.T) {
		c := pricingCatalog()
		c.Boosters[0].Scope = catalog.ScopeTariff
		q := priceFor(c, catalog.Portfolio{{ID: "i", TariffID: "t4", Amount: 10000}})
		if q.Dynamic || q.Booster.Price != 3 {
			t.Errorf("quote = %+v, want list price pass-through", q)
		}
	})

	t.Run("No eligible tariff", func(t *testing.T) {
		c := pricingCatalog()
		for i := range c.Tariffs {
			c.Tariffs[i].MinLevel = 9
		}
		q := priceFor(c, nil)
		if q.Dynamic || q.Booster.Price != 3 {
			t.Errorf("quote = %+v, want list price pass-through", q)
		}
	})
}

func TestBoosters(t *testing.T) {
	c := pricingCatalog()
	quotes := PriceBoosters(Request{Catalog: c, SubscriptionID: "basic"})
	boosters := Boosters(quotes)
	if len(boosters) != 1 || boosters[0].Price != quotes[0].Booster.Price {
		t.Errorf("Boosters = %+v", boosters)
	}
	if c.Boosters[0].Price != 3 {
		t.Errorf("PriceBoosters must not mutate the catalog")
	}
}

// Package pricing derives booster prices from the yield a booster is
// projected to add, bounded by the configured capture rates, investor ROI
// floor and price limits.
package pricing

import (
	"sort"

	"github.com/iwvelando/yield-planner/internal/catalog"
	"github.com/iwvelando/yield-planner/internal/eligibility"
	"github.com/iwvelando/yield-planner/internal/yield"
	"github.com/iwvelando/yield-planner/pkg/constants"
	"github.com/iwvelando/yield-planner/pkg/mathutil"
)

// Request is the snapshot boosters are priced against.
type Request struct {
	Catalog        catalog.Catalog
	UserLevel      int
	SubscriptionID string
	Portfolio      catalog.Portfolio
}

// Quote is the outcome of pricing one booster.
type Quote struct {
	Booster       catalog.Booster `json:"booster"`
	ListPrice     float64         `json:"listPrice"`
	BaselineGain  float64         `json:"baselineGain"`
	PortfolioGain float64         `json:"portfolioGain"`
	BasePrice     float64         `json:"basePrice"`
	// Dynamic is false when the booster passed through at its list price.
	Dynamic bool `json:"dynamic"`
}

// PriceBoosters prices every account-scope booster in the catalog. Other
// boosters, and all boosters when the user has no eligible tariff, keep
// their list price.
func PriceBoosters(req Request) []Quote {
	resolver := eligibility.NewResolver(req.Catalog.Subscriptions)
	eligible := resolver.AccessibleTariffs(req.Catalog.Tariffs, req.UserLevel, req.SubscriptionID)
	baseline := cheapest(eligible, constants.BaselineTariffCount)

	feeRate := 0.0
	if sub, ok := req.Catalog.Subscription(req.SubscriptionID); ok {
		feeRate = sub.FeeRate
	}

	controls := req.Catalog.PricingControls
	quotes := make([]Quote, 0, len(req.Catalog.Boosters))
	for _, b := range req.Catalog.Boosters {
		q := Quote{Booster: b, ListPrice: b.Price, BasePrice: b.Price}
		if b.Scope != catalog.ScopeAccount || len(eligible) == 0 {
			quotes = append(quotes, q)
			continue
		}

		q.BaselineGain = BaselineGain(b, baseline, feeRate)
		q.PortfolioGain = PortfolioGain(b, req.Catalog, req.Portfolio, feeRate)
		q.BasePrice, q.Booster.Price = DerivePrice(q.BaselineGain, q.PortfolioGain, controls)
		q.Dynamic = true
		quotes = append(quotes, q)
	}
	return quotes
}

// Boosters extracts the priced boosters from a set of quotes.
func Boosters(quotes []Quote) []catalog.Booster {
	out := make([]catalog.Booster, len(quotes))
	for i, q := range quotes {
		out[i] = q.Booster
	}
	return out
}

// BaselineGain is the net gain of a booster applied to each reference tariff
// at its minimum deposit.
func BaselineGain(b catalog.Booster, tariffs []catalog.Tariff, feeRate float64) float64 {
	gain := 0.0
	for _, t := range tariffs {
		gain += yield.BoosterNetGain(t.BaseMin, t, b, feeRate)
	}
	return gain
}

// PortfolioGain is the net gain of a booster applied to an actual portfolio.
// Deposits on unknown tariffs are ignored.
func PortfolioGain(b catalog.Booster, c catalog.Catalog, p catalog.Portfolio, feeRate float64) float64 {
	gain := 0.0
	for _, item := range p {
		t, ok := c.Tariff(item.TariffID)
		if !ok {
			continue
		}
		gain += yield.BoosterNetGain(mathutil.NonNegative(item.Amount), t, b, feeRate)
	}
	return gain
}

// DerivePrice turns reference gains into a price. It returns the clamped base
// price and the final price rounded to cents.
func DerivePrice(baselineGain, portfolioGain float64, pc catalog.PricingControls) (float64, float64) {
	maxPrice := pc.MaxPrice
	if maxPrice < pc.MinPrice {
		maxPrice = pc.MinPrice
	}

	basePrice := mathutil.Clamp(mathutil.ApplyPercentage(baselineGain, pc.BaseCapturePct), pc.MinPrice, maxPrice)

	price := basePrice
	if portfolioGain > baselineGain {
		price += mathutil.ApplyPercentage(portfolioGain-baselineGain, pc.WhaleCapturePct)
	}

	if portfolioGain > 0 && pc.InvestorRoiFloorPct > 0 {
		ceiling := portfolioGain / (1 + pc.InvestorRoiFloorPct/constants.PercentageMultiplier)
		if price > ceiling {
			price = ceiling
		}
	}

	return basePrice, mathutil.Round(mathutil.Clamp(price, pc.MinPrice, maxPrice))
}

// cheapest picks the n tariffs with the lowest minimum deposit.
func cheapest(tariffs []catalog.Tariff, n int) []catalog.Tariff {
	sorted := append([]catalog.Tariff(nil), tariffs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BaseMin != sorted[j].BaseMin {
			return sorted[i].BaseMin < sorted[j].BaseMin
		}
		return sorted[i].DailyRate < sorted[j].DailyRate
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

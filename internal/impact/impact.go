// Package impact evaluates what a booster would be worth on the current
// portfolio, whether or not it is selected.
package impact

import (
	"sort"

	"github.com/iwvelando/yield-planner/internal/catalog"
	"github.com/iwvelando/yield-planner/internal/pricing"
	"github.com/iwvelando/yield-planner/internal/yield"
	"github.com/iwvelando/yield-planner/pkg/mathutil"
)

// Result describes the value of one booster against a portfolio.
type Result struct {
	BoosterID     string   `json:"boosterId"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	NetGain       float64  `json:"netGain"`
	NetAfterCost  float64  `json:"netAfterCost"`
	ROI           *float64 `json:"roi"`
	PaybackHours  *float64 `json:"paybackHours"`
	CoverageShare float64  `json:"coverageShare"`
}

// Evaluate values b against the portfolio at the given fee rate. The booster's
// Price is used as is, so pass a dynamically priced booster when one exists.
func Evaluate(b catalog.Booster, c catalog.Catalog, p catalog.Portfolio, feeRate float64) Result {
	r := Result{
		BoosterID: b.ID,
		Name:      b.Name,
		Price:     b.Price,
		NetGain:   pricing.PortfolioGain(b, c, p, feeRate),
	}
	r.NetAfterCost = r.NetGain - b.Price
	r.ROI = mathutil.DivideOrNil(r.NetAfterCost, b.Price)

	if b.DurationHours > 0 {
		if rate := r.NetGain / b.DurationHours; rate > 0 {
			hours := b.Price / rate
			r.PaybackHours = &hours
		}
	}

	var covered, total float64
	for _, item := range p {
		t, ok := c.Tariff(item.TariffID)
		if !ok {
			continue
		}
		amount := mathutil.NonNegative(item.Amount)
		total += amount
		if yield.Applies(b, t) {
			covered += amount
		}
	}
	r.CoverageShare = mathutil.Divide(covered, total)
	return r
}

// EvaluateAll values every booster and orders the results by ROI, best
// first. Boosters without an ROI sort last; ties keep catalog order.
func EvaluateAll(boosters []catalog.Booster, c catalog.Catalog, p catalog.Portfolio, feeRate float64) []Result {
	results := make([]Result, len(boosters))
	for i, b := range boosters {
		results[i] = Evaluate(b, c, p, feeRate)
	}
	sort.SliceStable(results, func(i, j int) bool {
		ri, rj := results[i].ROI, results[j].ROI
		switch {
		case ri == nil:
			return false
		case rj == nil:
			return true
		default:
			return *ri > *rj
		}
	})
	return results
}

package yield

import (
	"github.com/iwvelando/yield-planner/internal/catalog"
	"github.com/iwvelando/yield-planner/pkg/mathutil"
)

// Input is the immutable snapshot one aggregation pass works on.
type Input struct {
	Catalog      catalog.Catalog
	Portfolio    catalog.Portfolio
	Subscription catalog.Subscription
	// Boosters are the selected boosters, already priced. A booster listed
	// twice stacks twice and is paid for twice.
	Boosters []catalog.Booster
}

// BoosterShare is one selected booster's effect and cost on one deposit.
type BoosterShare struct {
	BoosterID  string  `json:"boosterId"`
	Coverage   float64 `json:"coverage"`
	Multiplier float64 `json:"multiplier"`
	NetGain    float64 `json:"netGain"`
	Allocation float64 `json:"allocation"`
}

// ItemRow holds the derived figures of one deposit.
type ItemRow struct {
	ItemID       string           `json:"itemId"`
	TariffID     string           `json:"tariffId"`
	TariffName   string           `json:"tariffName"`
	Category     catalog.Category `json:"category"`
	Amount       float64          `json:"amount"`
	DurationDays int              `json:"durationDays"`
	DailyRate    float64          `json:"dailyRate"`
	CapitalDays  float64          `json:"capitalDays"`
	Multiplier   float64          `json:"multiplier"`

	DailyGrossBoosted float64 `json:"dailyGrossBoosted"`
	GrossBoosted      float64 `json:"grossBoosted"`
	FeeBoosted        float64 `json:"feeBoosted"`
	ProgramFee        float64 `json:"programFee"`
	NetNoBoost        float64 `json:"netNoBoost"`

	BoosterAllocation      float64 `json:"boosterAllocation"`
	SubscriptionAllocation float64 `json:"subscriptionAllocation"`
	NetAfterBoosters       float64 `json:"netAfterBoosters"`
	NetFinal               float64 `json:"netFinal"`
	NetAfterBoostersPerDay float64 `json:"netAfterBoostersPerDay"`
	NetFinalPerDay         float64 `json:"netFinalPerDay"`
	BoosterLift            float64 `json:"boosterLift"`
	BoosterNetGain         float64 `json:"boosterNetGain"`

	BreakEvenDeposit *float64       `json:"breakEvenDeposit,omitempty"`
	Boosters         []BoosterShare `json:"boosters,omitempty"`
}

// Totals sums the item rows and adds portfolio-wide cost figures.
type Totals struct {
	Deposits               float64 `json:"deposits"`
	CapitalDays            float64 `json:"capitalDays"`
	GrossBoosted           float64 `json:"grossBoosted"`
	FeeBoosted             float64 `json:"feeBoosted"`
	ProgramFees            float64 `json:"programFees"`
	NetNoBoost             float64 `json:"netNoBoost"`
	BoosterAllocation      float64 `json:"boosterAllocation"`
	SubscriptionAllocation float64 `json:"subscriptionAllocation"`
	NetAfterBoosters       float64 `json:"netAfterBoosters"`
	NetFinal               float64 `json:"netFinal"`
	NetAfterBoostersPerDay float64 `json:"netAfterBoostersPerDay"`
	NetFinalPerDay         float64 `json:"netFinalPerDay"`
	BoosterLift            float64 `json:"boosterLift"`
	BoosterNetGain         float64 `json:"boosterNetGain"`

	// AppliedBoosterCost counts only selected boosters that reach at least one deposit.
	AppliedBoosterCost float64 `json:"appliedBoosterCost"`
	SubscriptionPrice  float64 `json:"subscriptionPrice"`
	ProjectRevenue     float64 `json:"projectRevenue"`
}

// PortfolioState is the full derived view of a portfolio.
type PortfolioState struct {
	SubscriptionID string    `json:"subscriptionId"`
	FeeRate        float64   `json:"feeRate"`
	Rows           []ItemRow `json:"rows"`
	Totals         Totals    `json:"totals"`
	// SkippedItems lists deposits whose tariff no longer exists.
	SkippedItems []string `json:"skippedItems,omitempty"`
}

type resolvedItem struct {
	item   catalog.PortfolioItem
	tariff catalog.Tariff
}

// Compute derives every per-deposit and portfolio figure from scratch.
func Compute(in Input) PortfolioState {
	feeRate := mathutil.Clamp01(in.Subscription.FeeRate)
	state := PortfolioState{
		SubscriptionID: in.Subscription.ID,
		FeeRate:        feeRate,
	}

	var items []resolvedItem
	for _, item := range in.Portfolio {
		t, ok := in.Catalog.Tariff(item.TariffID)
		if !ok {
			state.SkippedItems = append(state.SkippedItems, item.ID)
			continue
		}
		items = append(items, resolvedItem{item: item, tariff: t})
	}

	capitalDays := make([]float64, len(items))
	for i, ri := range items {
		capitalDays[i] = mathutil.NonNegative(ri.item.Amount) * float64(ri.tariff.DurationDays)
	}

	// allocations[k][i] is booster k's price share on item i.
	allocations := make([][]float64, len(in.Boosters))
	appliedCost := 0.0
	for k, b := range in.Boosters {
		weights := make([]float64, len(items))
		applies := false
		for i, ri := range items {
			if Applies(b, ri.tariff) {
				weights[i] = capitalDays[i]
				applies = true
			}
		}
		if applies {
			appliedCost += b.Price
		}
		allocations[k] = mathutil.Allocate(b.Price, weights)
	}
	subscriptionShares := mathutil.Allocate(in.Subscription.Price, capitalDays)

	state.Rows = make([]ItemRow, 0, len(items))
	for i, ri := range items {
		row := buildRow(ri, feeRate, in.Boosters)
		row.CapitalDays = capitalDays[i]
		for k := range in.Boosters {
			row.Boosters[k].Allocation = allocations[k][i]
			row.BoosterAllocation += allocations[k][i]
		}
		row.SubscriptionAllocation = subscriptionShares[i]
		finishRow(&row)
		state.Rows = append(state.Rows, row)
	}

	state.Totals = sumRows(state.Rows)
	state.Totals.AppliedBoosterCost = appliedCost
	state.Totals.SubscriptionPrice = in.Subscription.Price
	state.Totals.ProjectRevenue = state.Totals.FeeBoosted + appliedCost + in.Subscription.Price + state.Totals.ProgramFees
	return state
}

func buildRow(ri resolvedItem, feeRate float64, boosters []catalog.Booster) ItemRow {
	t := ri.tariff
	amount := mathutil.NonNegative(ri.item.Amount)
	days := float64(t.DurationDays)

	row := ItemRow{
		ItemID:       ri.item.ID,
		TariffID:     t.ID,
		TariffName:   t.Name,
		Category:     t.Category,
		Amount:       amount,
		DurationDays: t.DurationDays,
		DailyRate:    t.DailyRate,
		Multiplier:   StackedMultiplier(boosters, t),
		ProgramFee:   t.ProgramFee(),
		Boosters:     make([]BoosterShare, len(boosters)),
	}

	row.DailyGrossBoosted = amount * t.DailyRate * row.Multiplier
	row.GrossBoosted = row.DailyGrossBoosted * days
	row.FeeBoosted = row.GrossBoosted * feeRate
	row.NetNoBoost = amount*t.DailyRate*days*(1-feeRate) - row.ProgramFee
	row.BreakEvenDeposit = BreakEvenDeposit(t, feeRate)

	for k, b := range boosters {
		share := BoosterShare{BoosterID: b.ID, Multiplier: 1}
		if Applies(b, t) {
			share.Coverage = Coverage(b.DurationHours, t.DurationDays)
			share.Multiplier = Multiplier(b.EffectValue(), share.Coverage)
			share.NetGain = BoosterNetGain(amount, t, b, feeRate)
		}
		row.Boosters[k] = share
		row.BoosterNetGain += share.NetGain
	}
	return row
}

func finishRow(row *ItemRow) {
	days := float64(row.DurationDays)
	row.NetAfterBoosters = row.GrossBoosted - row.FeeBoosted - row.BoosterAllocation - row.ProgramFee
	row.NetFinal = row.NetAfterBoosters - row.SubscriptionAllocation
	row.NetAfterBoostersPerDay = mathutil.Divide(row.NetAfterBoosters, days)
	row.NetFinalPerDay = mathutil.Divide(row.NetFinal, days)
	row.BoosterLift = row.NetAfterBoosters - row.NetNoBoost
}

func sumRows(rows []ItemRow) Totals {
	var t Totals
	for _, r := range rows {
		t.Deposits += r.Amount
		t.CapitalDays += r.CapitalDays
		t.GrossBoosted += r.GrossBoosted
		t.FeeBoosted += r.FeeBoosted
		t.ProgramFees += r.ProgramFee
		t.NetNoBoost += r.NetNoBoost
		t.BoosterAllocation += r.BoosterAllocation
		t.SubscriptionAllocation += r.SubscriptionAllocation
		t.NetAfterBoosters += r.NetAfterBoosters
		t.NetFinal += r.NetFinal
		t.NetAfterBoostersPerDay += r.NetAfterBoostersPerDay
		t.NetFinalPerDay += r.NetFinalPerDay
		t.BoosterLift += r.BoosterLift
		t.BoosterNetGain += r.BoosterNetGain
	}
	return t
}

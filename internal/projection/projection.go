// Package projection extrapolates 30-day portfolio outcomes under the active
// subscription and every alternative the user qualifies for.
package projection

import (
	"strings"

	"github.com/iwvelando/yield-planner/internal/catalog"
	"github.com/iwvelando/yield-planner/internal/eligibility"
	"github.com/iwvelando/yield-planner/internal/yield"
	"github.com/iwvelando/yield-planner/pkg/constants"
	"github.com/iwvelando/yield-planner/pkg/mathutil"
)

// ReinvestMode decides how long a deposit keeps earning inside the window.
type ReinvestMode string

const (
	// NoReinvest stops each deposit at the end of its own duration.
	NoReinvest ReinvestMode = "no-reinvest"
	// AutoRoll keeps every deposit earning for the whole window.
	AutoRoll ReinvestMode = "auto-roll"
)

// ParseReinvestMode maps user input onto a mode, defaulting to NoReinvest.
func ParseReinvestMode(value string) ReinvestMode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(AutoRoll), "autoroll", "auto_roll", "auto":
		return AutoRoll
	default:
		return NoReinvest
	}
}

// Outcome is the projected 30-day net for one subscription in both modes.
type Outcome struct {
	SubscriptionID string  `json:"subscriptionId"`
	Name           string  `json:"name"`
	FeeRate        float64 `json:"feeRate"`
	Price          float64 `json:"price"`
	Current        bool    `json:"current"`
	NoReinvest     float64 `json:"noReinvest"`
	AutoRoll       float64 `json:"autoRoll"`
}

// Value returns the outcome for the given mode.
func (o Outcome) Value(mode ReinvestMode) float64 {
	if mode == AutoRoll {
		return o.AutoRoll
	}
	return o.NoReinvest
}

// Project returns the 30-day net of a computed portfolio had it been held
// under sub. Booster stacking is kept; fees are recomputed at sub's rate.
// One-time booster allocations, entry fees and sub's price are deducted once.
func Project(state yield.PortfolioState, sub catalog.Subscription, mode ReinvestMode) float64 {
	feeRate := mathutil.Clamp01(sub.FeeRate)
	net := 0.0
	for _, row := range state.Rows {
		days := constants.ProjectionDays
		if mode != AutoRoll && row.DurationDays < days {
			days = row.DurationDays
		}
		net += row.DailyGrossBoosted * (1 - feeRate) * float64(days)
	}
	return net - state.Totals.BoosterAllocation - state.Totals.ProgramFees - sub.Price
}

// Evaluate projects the portfolio under the current subscription and every
// subscription userLevel qualifies for, in rank order.
func Evaluate(c catalog.Catalog, state yield.PortfolioState, userLevel int, current catalog.Subscription) []Outcome {
	resolver := eligibility.NewResolver(c.Subscriptions)

	var candidates []catalog.Subscription
	if resolver.Rank(current.ID) < 0 {
		candidates = append(candidates, current)
	}
	candidates = append(candidates, resolver.QualifyingSubscriptions(userLevel, current.ID)...)

	outcomes := make([]Outcome, 0, len(candidates))
	for _, s := range candidates {
		outcomes = append(outcomes, Outcome{
			SubscriptionID: s.ID,
			Name:           s.Name,
			FeeRate:        s.FeeRate,
			Price:          s.Price,
			Current:        s.ID == current.ID,
			NoReinvest:     Project(state, s, NoReinvest),
			AutoRoll:       Project(state, s, AutoRoll),
		})
	}
	return outcomes
}

// Best returns the outcome with the highest projection for mode. Ties keep
// the lower-ranked subscription.
func Best(outcomes []Outcome, mode ReinvestMode) (Outcome, bool) {
	if len(outcomes) == 0 {
		return Outcome{}, false
	}
	best := outcomes[0]
	for _, o := range outcomes[1:] {
		if o.Value(mode) > best.Value(mode) {
			best = o
		}
	}
	return best, true
}

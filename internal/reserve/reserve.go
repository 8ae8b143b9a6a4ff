// Package reserve simulates how long the pooled deposits of a cohort can fund
// promised payouts and principal returns when no new money arrives.
package reserve

import (
	"github.com/iwvelando/yield-planner/internal/catalog"
	"github.com/iwvelando/yield-planner/internal/yield"
	"github.com/iwvelando/yield-planner/pkg/constants"
	"gonum.org/v1/gonum/floats"
)

// SegmentState pairs a segment with its computed portfolio.
type SegmentState struct {
	Segment catalog.InvestorSegment
	State   yield.PortfolioState
}

// Point is the reserve at the end of a simulated day.
type Point struct {
	Day     int     `json:"day"`
	Reserve float64 `json:"reserve"`
}

// SegmentSummary reports one segment's contribution to the pool.
type SegmentSummary struct {
	Name           string  `json:"name"`
	Investors      int     `json:"investors"`
	Deposits       float64 `json:"deposits"`
	ProjectRevenue float64 `json:"projectRevenue"`
	DailyPayout    float64 `json:"dailyPayout"`
}

// Result is the outcome of one simulation run.
type Result struct {
	StartReserve     float64          `json:"startReserve"`
	ReserveAfterFees float64          `json:"reserveAfterFees"`
	Horizon          int              `json:"horizon"`
	Timeline         []Point          `json:"timeline"`
	CollapseDay      *int             `json:"collapseDay"`
	MinReserve       float64          `json:"minReserve"`
	Investors        int              `json:"investors"`
	Segments         []SegmentSummary `json:"segments"`
}

type plan struct {
	durationDays int
	principal    float64
	dailyPayout  float64
}

// Simulate walks the pool day by day until it is exhausted or the horizon
// (longest plan plus 30 days) is reached.
func Simulate(segments []SegmentState) Result {
	var (
		result   Result
		deposits []float64
		revenue  []float64
		plans    []plan
	)

	maxDuration := 0
	for _, s := range segments {
		investors := s.Segment.InvestorsCount
		if investors < 0 {
			investors = 0
		}
		n := float64(investors)
		result.Investors += investors

		summary := SegmentSummary{
			Name:           s.Segment.Name,
			Investors:      investors,
			Deposits:       s.State.Totals.Deposits,
			ProjectRevenue: s.State.Totals.ProjectRevenue,
		}
		deposits = append(deposits, n*s.State.Totals.Deposits)
		revenue = append(revenue, n*s.State.Totals.ProjectRevenue)

		for _, row := range s.State.Rows {
			if row.DurationDays <= 0 {
				continue
			}
			duration := row.DurationDays
			if duration > constants.MaxTariffDurationDays {
				duration = constants.MaxTariffDurationDays
			}
			payout := row.DailyGrossBoosted * (1 - s.State.FeeRate)
			summary.DailyPayout += payout
			plans = append(plans, plan{
				durationDays: duration,
				principal:    row.Amount * n,
				dailyPayout:  payout * n,
			})
			if duration > maxDuration {
				maxDuration = duration
			}
		}
		result.Segments = append(result.Segments, summary)
	}

	result.StartReserve = floats.Sum(deposits)
	result.ReserveAfterFees = result.StartReserve - floats.Sum(revenue)
	if result.ReserveAfterFees < 0 {
		result.ReserveAfterFees = 0
	}
	result.Horizon = maxDuration + constants.ReserveHorizonPadding

	reserve := result.ReserveAfterFees
	result.Timeline = []Point{{Day: 0, Reserve: reserve}}
	if len(plans) == 0 {
		result.Timeline = append(result.Timeline, Point{Day: result.Horizon, Reserve: reserve})
		result.MinReserve = reserve
		return result
	}

	for day := 1; day <= result.Horizon; day++ {
		for _, p := range plans {
			if day <= p.durationDays {
				reserve -= p.dailyPayout
			}
		}
		for _, p := range plans {
			if day == p.durationDays {
				reserve -= p.principal
			}
		}
		result.Timeline = append(result.Timeline, Point{Day: day, Reserve: reserve})
		if reserve <= 0 {
			collapse := day
			result.CollapseDay = &collapse
			break
		}
	}

	balances := make([]float64, len(result.Timeline))
	for i, p := range result.Timeline {
		balances[i] = p.Reserve
	}
	result.MinReserve = floats.Min(balances)
	return result
}

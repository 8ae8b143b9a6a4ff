// Package engine is the single entry point of the planner. It ties the
// pricing, yield, projection, reserve and impact calculations together over
// one immutable State and logs what it resolved along the way.
package engine

import (
	"github.com/iwvelando/yield-planner/internal/catalog"
	"github.com/iwvelando/yield-planner/internal/eligibility"
	"github.com/iwvelando/yield-planner/internal/impact"
	"github.com/iwvelando/yield-planner/internal/pricing"
	"github.com/iwvelando/yield-planner/internal/projection"
	"github.com/iwvelando/yield-planner/internal/reserve"
	"github.com/iwvelando/yield-planner/internal/yield"
	"github.com/iwvelando/yield-planner/pkg/constants"
	"go.uber.org/zap"
)

// State is everything one computation pass reads. It is never mutated.
type State struct {
	Catalog        catalog.Catalog           `json:"catalog"`
	UserLevel      int                       `json:"userLevel"`
	SubscriptionID string                    `json:"subscription"`
	Portfolio      catalog.Portfolio         `json:"portfolio"`
	BoosterIDs     []string                  `json:"boosters"`
	Reinvest       projection.ReinvestMode   `json:"reinvest"`
	Segments       []catalog.InvestorSegment `json:"segments,omitempty"`
}

// PortfolioResult is the computed portfolio plus its 30-day projections.
type PortfolioResult struct {
	yield.PortfolioState
	Subscription     catalog.Subscription    `json:"subscription"`
	// AvailableTariffs are the tariffs the user may open, in display order.
	AvailableTariffs []catalog.Tariff        `json:"availableTariffs"`
	Quotes           []pricing.Quote         `json:"quotes"`
	Reinvest         projection.ReinvestMode `json:"reinvest"`
	Projection       float64                 `json:"projection"`
	Projections      []projection.Outcome    `json:"projections"`
	Recommendation   *projection.Outcome     `json:"recommendation,omitempty"`
}

// Result is the output of Compute.
type Result struct {
	Portfolio PortfolioResult `json:"portfolio"`
	Impacts   []impact.Result `json:"impacts"`
	Reserve   *reserve.Result `json:"reserve,omitempty"`
}

// Engine runs computations. It holds no state besides its logger.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates an engine with the given logger.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// IsAccessible reports whether a user may deposit into a tariff.
func (e *Engine) IsAccessible(c catalog.Catalog, t catalog.Tariff, userLevel int, subscriptionID string) bool {
	return eligibility.NewResolver(c.Subscriptions).IsAccessible(t, userLevel, subscriptionID)
}

// PriceBoostersDynamically prices the catalog's boosters for one user.
func (e *Engine) PriceBoostersDynamically(req pricing.Request) []pricing.Quote {
	quotes := pricing.PriceBoosters(req)
	for _, q := range quotes {
		if q.Dynamic {
			e.logger.Debug("priced booster",
				zap.String("op", "engine.PriceBoostersDynamically"),
				zap.String("booster", q.Booster.ID),
				zap.Float64("listPrice", q.ListPrice),
				zap.Float64("price", q.Booster.Price),
			)
		}
	}
	return quotes
}

// ComputePortfolioState prices boosters, aggregates the portfolio and
// projects it under every subscription the user could hold. A subscription
// is recommended only when it beats the current one by more than a cent.
func (e *Engine) ComputePortfolioState(s State) PortfolioResult {
	sub := e.subscription(s.Catalog, s.SubscriptionID)
	quotes := e.PriceBoostersDynamically(pricing.Request{
		Catalog:        s.Catalog,
		UserLevel:      s.UserLevel,
		SubscriptionID: s.SubscriptionID,
		Portfolio:      s.Portfolio,
	})

	state := yield.Compute(yield.Input{
		Catalog:      s.Catalog,
		Portfolio:    s.Portfolio,
		Subscription: sub,
		Boosters:     e.selectBoosters(pricing.Boosters(quotes), s.BoosterIDs),
	})
	for _, id := range state.SkippedItems {
		e.logger.Debug("skipping deposit on unknown tariff",
			zap.String("op", "engine.ComputePortfolioState"),
			zap.String("item", id),
		)
	}

	mode := projection.ParseReinvestMode(string(s.Reinvest))
	resolver := eligibility.NewResolver(s.Catalog.Subscriptions)
	result := PortfolioResult{
		PortfolioState:   state,
		Subscription:     sub,
		AvailableTariffs: catalog.SortTariffs(resolver.AccessibleTariffs(s.Catalog.Tariffs, s.UserLevel, s.SubscriptionID)),
		Quotes:           quotes,
		Reinvest:         mode,
		Projection:       projection.Project(state, sub, mode),
		Projections:      projection.Evaluate(s.Catalog, state, s.UserLevel, sub),
	}
	if best, ok := projection.Best(result.Projections, mode); ok && !best.Current && best.Value(mode) > result.Projection+constants.CurrencyTolerance {
		result.Recommendation = &best
	}
	return result
}

// SimulateReserveSurvival prices and aggregates each segment as its own user,
// then runs the reserve simulation over the cohort.
func (e *Engine) SimulateReserveSurvival(c catalog.Catalog, segments []catalog.InvestorSegment) reserve.Result {
	states := make([]reserve.SegmentState, 0, len(segments))
	for _, seg := range segments {
		portfolio := e.ComputePortfolioState(State{
			Catalog:        c,
			UserLevel:      seg.UserLevel,
			SubscriptionID: seg.SubscriptionID,
			Portfolio:      seg.Portfolio,
			BoosterIDs:     seg.BoosterIDs,
		})
		states = append(states, reserve.SegmentState{Segment: seg, State: portfolio.PortfolioState})
	}

	result := reserve.Simulate(states)
	fields := []zap.Field{
		zap.String("op", "engine.SimulateReserveSurvival"),
		zap.Int("segments", len(segments)),
		zap.Int("investors", result.Investors),
		zap.Float64("startReserve", result.StartReserve),
		zap.Float64("reserveAfterFees", result.ReserveAfterFees),
	}
	if result.CollapseDay != nil {
		fields = append(fields, zap.Int("collapseDay", *result.CollapseDay))
	}
	e.logger.Info("reserve simulation finished", fields...)
	return result
}

// EvaluateBoosterImpact values every booster in the catalog, at its dynamic
// price, against the state's portfolio.
func (e *Engine) EvaluateBoosterImpact(s State) []impact.Result {
	sub := e.subscription(s.Catalog, s.SubscriptionID)
	quotes := pricing.PriceBoosters(pricing.Request{
		Catalog:        s.Catalog,
		UserLevel:      s.UserLevel,
		SubscriptionID: s.SubscriptionID,
		Portfolio:      s.Portfolio,
	})
	return impact.EvaluateAll(pricing.Boosters(quotes), s.Catalog, s.Portfolio, sub.FeeRate)
}

// Compute derives every result for a state from scratch. The reserve
// simulation only runs when the state carries segments.
func (e *Engine) Compute(s State) Result {
	e.logger.Debug("computing",
		zap.String("op", "engine.Compute"),
		zap.Int("userLevel", s.UserLevel),
		zap.String("subscription", s.SubscriptionID),
		zap.Int("deposits", len(s.Portfolio)),
		zap.Int("boosters", len(s.BoosterIDs)),
	)

	result := Result{
		Portfolio: e.ComputePortfolioState(s),
		Impacts:   e.EvaluateBoosterImpact(s),
	}
	if len(s.Segments) > 0 {
		r := e.SimulateReserveSurvival(s.Catalog, s.Segments)
		result.Reserve = &r
	}
	return result
}

// subscription resolves an id, falling back to a free zero-fee tier.
func (e *Engine) subscription(c catalog.Catalog, id string) catalog.Subscription {
	sub, ok := c.Subscription(id)
	if !ok {
		if id != "" {
			e.logger.Debug("unknown subscription, using zero fee",
				zap.String("op", "engine.subscription"),
				zap.String("subscription", id),
			)
		}
		return catalog.Subscription{ID: id}
	}
	return sub
}

// selectBoosters maps ids onto priced boosters, keeping duplicates.
func (e *Engine) selectBoosters(priced []catalog.Booster, ids []string) []catalog.Booster {
	byID := make(map[string]catalog.Booster, len(priced))
	for _, b := range priced {
		byID[b.ID] = b
	}
	selected := make([]catalog.Booster, 0, len(ids))
	for _, id := range ids {
		b, ok := byID[id]
		if !ok {
			e.logger.Debug("skipping unknown booster",
				zap.String("op", "engine.selectBoosters"),
				zap.String("booster", id),
			)
			continue
		}
		selected = append(selected, b)
	}
	return selected
}

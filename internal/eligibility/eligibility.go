// Package eligibility decides which tariffs, boosters and subscriptions a
// user may use given their level and active subscription.
package eligibility

import "github.com/iwvelando/yield-planner/internal/catalog"

// Resolver answers accessibility questions against an ordered subscription list.
type Resolver struct {
	subscriptions []catalog.Subscription
}

// NewResolver creates a resolver. The order of subscriptions defines rank.
func NewResolver(subscriptions []catalog.Subscription) *Resolver {
	return &Resolver{subscriptions: subscriptions}
}

// Rank returns the catalog position of a subscription, or -1 when unknown.
func (r *Resolver) Rank(subscriptionID string) int {
	if subscriptionID == "" {
		return -1
	}
	for i, s := range r.subscriptions {
		if s.ID == subscriptionID {
			return i
		}
	}
	return -1
}

// Satisfies reports whether holding subscriptionID meets required. An empty
// requirement is always met; an unknown held subscription never meets one.
// A requirement naming an unlisted tier ranks below every known tier.
func (r *Resolver) Satisfies(subscriptionID, required string) bool {
	if required == "" {
		return true
	}
	have := r.Rank(subscriptionID)
	if have < 0 {
		return false
	}
	return have >= r.Rank(required)
}

// IsAccessible reports whether a tariff is usable by the given user.
func (r *Resolver) IsAccessible(t catalog.Tariff, userLevel int, subscriptionID string) bool {
	levelOK := t.Access == catalog.AccessOpen || userLevel >= t.MinLevel
	return levelOK && r.Satisfies(subscriptionID, t.RequiredSubscription)
}

// IsBoosterAccessible applies the tariff rule to a booster's own gates.
func (r *Resolver) IsBoosterAccessible(b catalog.Booster, userLevel int, subscriptionID string) bool {
	return userLevel >= b.MinLevel && r.Satisfies(subscriptionID, b.RequiredSubscription)
}

// AccessibleTariffs filters tariffs down to the ones the user may open.
func (r *Resolver) AccessibleTariffs(tariffs []catalog.Tariff, userLevel int, subscriptionID string) []catalog.Tariff {
	var out []catalog.Tariff
	for _, t := range tariffs {
		if r.IsAccessible(t, userLevel, subscriptionID) {
			out = append(out, t)
		}
	}
	return out
}

// QualifyingSubscriptions lists, in rank order, the subscriptions whose
// minimum level the user meets. The held subscription is always listed.
func (r *Resolver) QualifyingSubscriptions(userLevel int, heldID string) []catalog.Subscription {
	var out []catalog.Subscription
	for _, s := range r.subscriptions {
		if s.ID == heldID || userLevel >= s.MinLevel {
			out = append(out, s)
		}
	}
	return out
}

// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/yield-planner/internal/catalog"
	"github.com/iwvelando/yield-planner/pkg/constants"
)

// ValidateCatalog checks a catalog for entries that load fine but will behave
// surprisingly, and returns one warning per finding.
func ValidateCatalog(c catalog.Catalog) []string {
	var warnings []string

	warnings = append(warnings, duplicateIDs("subscription", len(c.Subscriptions), func(i int) string { return c.Subscriptions[i].ID })...)
	warnings = append(warnings, duplicateIDs("tariff", len(c.Tariffs), func(i int) string { return c.Tariffs[i].ID })...)
	warnings = append(warnings, duplicateIDs("booster", len(c.Boosters), func(i int) string { return c.Boosters[i].ID })...)

	for _, t := range c.Tariffs {
		if t.BaseMax > 0 && t.BaseMin > t.BaseMax {
			warnings = append(warnings, fmt.Sprintf("Tariff '%s' has baseMin above baseMax (%.2f > %.2f) - no deposit can be opened",
				t.ID, t.BaseMin, t.BaseMax))
		}
		if t.DurationDays > constants.MaxTariffDurationDays {
			warnings = append(warnings, fmt.Sprintf("Tariff '%s' lasts %d days - durations above %d days are capped",
				t.ID, t.DurationDays, constants.MaxTariffDurationDays))
		}
		if t.DailyRate == 0 {
			warnings = append(warnings, fmt.Sprintf("Tariff '%s' has a zero daily rate", t.ID))
		}
		if t.RequiredSubscription != "" && c.SubscriptionIndex(t.RequiredSubscription) < 0 {
			warnings = append(warnings, fmt.Sprintf("Tariff '%s' requires unknown subscription '%s' - the requirement has no effect",
				t.ID, t.RequiredSubscription))
		}
		if t.Limited && t.CapacitySlots == nil {
			warnings = append(warnings, fmt.Sprintf("Tariff '%s' is limited but has no capacity slots", t.ID))
		}
	}

	for _, b := range c.Boosters {
		if b.EffectValue() == 0 {
			warnings = append(warnings, fmt.Sprintf("Booster '%s' has no effect (kind '%s', value %.2f)",
				b.ID, b.Effect.Kind, b.Effect.Value))
		}
		if b.RequiredSubscription != "" && c.SubscriptionIndex(b.RequiredSubscription) < 0 {
			warnings = append(warnings, fmt.Sprintf("Booster '%s' requires unknown subscription '%s' - the requirement has no effect",
				b.ID, b.RequiredSubscription))
		}
		for _, id := range b.BlockedTariffIDs {
			if _, ok := c.Tariff(id); !ok {
				warnings = append(warnings, fmt.Sprintf("Booster '%s' blocks unknown tariff '%s'", b.ID, id))
			}
		}
	}

	pc := c.PricingControls
	if pc.MaxPrice > 0 && pc.MinPrice > pc.MaxPrice {
		warnings = append(warnings, fmt.Sprintf("Pricing controls have minPrice above maxPrice (%.2f > %.2f)", pc.MinPrice, pc.MaxPrice))
	}

	return warnings
}

func duplicateIDs(kind string, n int, id func(int) string) []string {
	var warnings []string
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		key := id(i)
		if seen[key] {
			warnings = append(warnings, fmt.Sprintf("Duplicate %s id '%s' - only the first entry is used", kind, key))
		}
		seen[key] = true
	}
	return warnings
}

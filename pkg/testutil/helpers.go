// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/yield-planner/internal/projection"
	"github.com/iwvelando/yield-planner/internal/yield"
)

// FindRow finds a computed deposit row by item id.
// Returns a pointer to the row if found, nil otherwise.
func FindRow(rows []yield.ItemRow, itemID string) *yield.ItemRow {
	for i := range rows {
		if rows[i].ItemID == itemID {
			return &rows[i]
		}
	}
	return nil
}

// FindOutcome finds a subscription projection by subscription id.
func FindOutcome(outcomes []projection.Outcome, subscriptionID string) *projection.Outcome {
	for i := range outcomes {
		if outcomes[i].SubscriptionID == subscriptionID {
			return &outcomes[i]
		}
	}
	return nil
}

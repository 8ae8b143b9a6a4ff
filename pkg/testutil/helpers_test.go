package testutil

import (
	"testing"

	"github.com/iwvelando/yield-planner/internal/projection"
	"github.com/iwvelando/yield-planner/internal/yield"
)

func TestFindRow(t *testing.T) {
	rows := []yield.ItemRow{
		{ItemID: "item-1", Amount: 1000},
		{ItemID: "item-2", Amount: 2000},
		{ItemID: "retail-1", Amount: 3000},
	}

	tests := []struct {
		name           string
		searchID       string
		expectFound    bool
		expectedAmount float64
	}{
		{
			name:           "Find first row",
			searchID:       "item-1",
			expectFound:    true,
			expectedAmount: 1000,
		},
		{
			name:           "Find segment row",
			searchID:       "retail-1",
			expectFound:    true,
			expectedAmount: 3000,
		},
		{
			name:        "Search for non-existent row",
			searchID:    "item-9",
			expectFound: false,
		},
		{
			name:        "Empty search id",
			searchID:    "",
			expectFound: false,
		},
		{
			name:        "Case sensitive search",
			searchID:    "ITEM-1",
			expectFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := FindRow(rows, tt.searchID)

			if !tt.expectFound {
				if row != nil {
					t.Errorf("FindRow() expected nil for '%s' but got %s", tt.searchID, row.ItemID)
				}
				return
			}
			if row == nil {
				t.Fatalf("FindRow() expected to find '%s' but got nil", tt.searchID)
			}
			if row.Amount != tt.expectedAmount {
				t.Errorf("FindRow() returned amount %v, expected %v", row.Amount, tt.expectedAmount)
			}
		})
	}
}

func TestFindRowReturnsPointerIntoSlice(t *testing.T) {
	rows := []yield.ItemRow{{ItemID: "a"}}

	FindRow(rows, "a").Amount = 42
	if rows[0].Amount != 42 {
		t.Errorf("FindRow() should point into the original slice")
	}
}

func TestFindRowNilRows(t *testing.T) {
	if row := FindRow(nil, "a"); row != nil {
		t.Errorf("FindRow() with nil rows should return nil, got %v", row)
	}
}

func TestFindOutcome(t *testing.T) {
	outcomes := []projection.Outcome{
		{SubscriptionID: "free", NoReinvest: 100},
		{SubscriptionID: "plus", NoReinvest: 120},
	}

	if o := FindOutcome(outcomes, "plus"); o == nil || o.NoReinvest != 120 {
		t.Errorf("FindOutcome(plus) = %+v", o)
	}
	if o := FindOutcome(outcomes, "pro"); o != nil {
		t.Errorf("FindOutcome(pro) should be nil, got %+v", o)
	}
}

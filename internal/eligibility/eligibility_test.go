package eligibility

import (
	"testing"

	"github.com/iwvelando/yield-planner/internal/catalog"
)

var tiers = []catalog.Subscription{
	{ID: "free", MinLevel: 0},
	{ID: "silver", MinLevel: 2},
	{ID: "gold", MinLevel: 5},
}

func TestIsAccessibleLevel(t *testing.T) {
	r := NewResolver(tiers)
	tariff := catalog.Tariff{ID: "t", MinLevel: 3, Access: catalog.AccessLevel}

	tests := []struct {
		name  string
		level int
		want  bool
	}{
		{"Level equal to minimum", 3, true},
		{"One below minimum", 2, false},
		{"Above minimum", 9, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.IsAccessible(tariff, tt.level, "free"); got != tt.want {
				t.Errorf("IsAccessible(level=%d) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}

	open := tariff
	open.Access = catalog.AccessOpen
	if !r.IsAccessible(open, 0, "free") {
		t.Errorf("open tariffs must ignore level")
	}
}

func TestSubscriptionRankOrdering(t *testing.T) {
	r := NewResolver(tiers)
	for i, held := range tiers {
		for j, required := range tiers {
			tariff := catalog.Tariff{Access: catalog.AccessOpen, RequiredSubscription: required.ID}
			got := r.IsAccessible(tariff, 0, held.ID)
			want := i >= j
			if got != want {
				t.Errorf("held %s required %s: got %v, want %v", held.ID, required.ID, got, want)
			}
		}
	}
}

func TestUnknownSubscriptionFailsRequirement(t *testing.T) {
	r := NewResolver(tiers)
	tariff := catalog.Tariff{Access: catalog.AccessOpen, RequiredSubscription: "free"}

	if r.Rank("platinum") != -1 {
		t.Errorf("Rank(unknown) = %d, want -1", r.Rank("platinum"))
	}
	if r.IsAccessible(tariff, 10, "platinum") {
		t.Errorf("unknown subscription must fail a requirement")
	}
	if !r.IsAccessible(catalog.Tariff{Access: catalog.AccessOpen}, 0, "platinum") {
		t.Errorf("no requirement is vacuously satisfied")
	}
}

func TestUnknownRequirementHasNoEffect(t *testing.T) {
	r := NewResolver(tiers)
	tariff := catalog.Tariff{Access: catalog.AccessOpen, RequiredSubscription: "platinum"}

	for _, held := range tiers {
		if !r.IsAccessible(tariff, 0, held.ID) {
			t.Errorf("held %s: a requirement on an unlisted tier should not restrict access", held.ID)
		}
	}
	if r.IsAccessible(tariff, 0, "") {
		t.Errorf("holding no subscription must still fail a requirement")
	}
}

func TestBoosterAccessibility(t *testing.T) {
	r := NewResolver(tiers)
	b := catalog.Booster{MinLevel: 2, RequiredSubscription: "silver"}

	if r.IsBoosterAccessible(b, 1, "gold") {
		t.Errorf("booster level gate not applied")
	}
	if r.IsBoosterAccessible(b, 2, "free") {
		t.Errorf("booster subscription gate not applied")
	}
	if !r.IsBoosterAccessible(b, 2, "gold") {
		t.Errorf("booster should be accessible")
	}
}

func TestFilters(t *testing.T) {
	r := NewResolver(tiers)
	tariffs := []catalog.Tariff{
		{ID: "a", MinLevel: 0},
		{ID: "b", MinLevel: 4},
		{ID: "c", Access: catalog.AccessOpen, RequiredSubscription: "gold"},
	}

	got := r.AccessibleTariffs(tariffs, 3, "silver")
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("AccessibleTariffs = %+v, want [a]", got)
	}

	subs := r.QualifyingSubscriptions(2, "")
	if len(subs) != 2 || subs[1].ID != "silver" {
		t.Errorf("QualifyingSubscriptions = %+v, want [free silver]", subs)
	}
	if held := r.QualifyingSubscriptions(0, "silver"); len(held) != 2 || held[1].ID != "silver" {
		t.Errorf("QualifyingSubscriptions should keep the held tier, got %+v", held)
	}
}

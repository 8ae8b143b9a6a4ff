// Package state holds the caller-owned account snapshot the engine is run
// against. Every change returns a new Account and leaves the old one intact;
// capacity, eligibility and stacking limits are enforced here rather than in
// the engine.
package state

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/iwvelando/yield-planner/internal/catalog"
	"github.com/iwvelando/yield-planner/internal/eligibility"
	"github.com/iwvelando/yield-planner/internal/engine"
	"github.com/iwvelando/yield-planner/internal/projection"
)

var (
	ErrUnknownTariff            = errors.New("unknown tariff")
	ErrUnknownBooster           = errors.New("unknown booster")
	ErrUnknownSubscription      = errors.New("unknown subscription")
	ErrUnknownItem              = errors.New("unknown portfolio item")
	ErrTariffInaccessible       = errors.New("tariff not accessible")
	ErrBoosterInaccessible      = errors.New("booster not accessible")
	ErrSubscriptionInaccessible = errors.New("subscription not accessible")
	ErrCapacityReached          = errors.New("tariff capacity reached")
	ErrBoosterLimitReached      = errors.New("booster limit reached")
	ErrDepositOutOfBounds       = errors.New("deposit out of bounds")
	ErrBoosterNotSelected       = errors.New("booster not selected")
)

// Account is an immutable view of one user's selections.
type Account struct {
	s engine.State
}

// New wraps an engine state. The portfolio and booster list are copied.
func New(s engine.State) Account {
	return Account{s: clone(s)}
}

// State returns a copy of the snapshot, ready for engine.Compute.
func (a Account) State() engine.State {
	return clone(a.s)
}

// AddDeposit opens a deposit on a tariff and returns the new item's id.
// Entry-fee programs accept a zero amount.
func (a Account) AddDeposit(tariffID string, amount float64) (Account, string, error) {
	t, ok := a.s.Catalog.Tariff(tariffID)
	if !ok {
		return a, "", fmt.Errorf("add deposit on %q: %w", tariffID, ErrUnknownTariff)
	}
	if !a.resolver().IsAccessible(t, a.s.UserLevel, a.s.SubscriptionID) {
		return a, "", fmt.Errorf("add deposit on %q: %w", tariffID, ErrTariffInaccessible)
	}
	if err := checkAmount(t, amount); err != nil {
		return a, "", fmt.Errorf("add deposit on %q: %w", tariffID, err)
	}
	if t.Limited && t.CapacitySlots != nil && a.s.Portfolio.CountByTariff(t.ID) >= *t.CapacitySlots {
		return a, "", fmt.Errorf("add deposit on %q (%d slots): %w", tariffID, *t.CapacitySlots, ErrCapacityReached)
	}

	next := a.State()
	id := uuid.NewString()
	next.Portfolio = append(next.Portfolio, catalog.PortfolioItem{ID: id, TariffID: t.ID, Amount: amount})
	return Account{s: next}, id, nil
}

// UpdateDeposit changes the amount of an existing deposit.
func (a Account) UpdateDeposit(itemID string, amount float64) (Account, error) {
	idx := a.itemIndex(itemID)
	if idx < 0 {
		return a, fmt.Errorf("update deposit %q: %w", itemID, ErrUnknownItem)
	}
	// A deposit whose tariff was removed can still be resized.
	if t, ok := a.s.Catalog.Tariff(a.s.Portfolio[idx].TariffID); ok {
		if err := checkAmount(t, amount); err != nil {
			return a, fmt.Errorf("update deposit %q: %w", itemID, err)
		}
	} else if amount < 0 {
		return a, fmt.Errorf("update deposit %q: %w", itemID, ErrDepositOutOfBounds)
	}

	next := a.State()
	next.Portfolio[idx].Amount = amount
	return Account{s: next}, nil
}

// RemoveDeposit closes a deposit.
func (a Account) RemoveDeposit(itemID string) (Account, error) {
	idx := a.itemIndex(itemID)
	if idx < 0 {
		return a, fmt.Errorf("remove deposit %q: %w", itemID, ErrUnknownItem)
	}
	next := a.State()
	next.Portfolio = append(next.Portfolio[:idx], next.Portfolio[idx+1:]...)
	return Account{s: next}, nil
}

// SelectBooster adds one more copy of a booster to the selection.
func (a Account) SelectBooster(boosterID string) (Account, error) {
	b, ok := a.s.Catalog.Booster(boosterID)
	if !ok {
		return a, fmt.Errorf("select booster %q: %w", boosterID, ErrUnknownBooster)
	}
	if !a.resolver().IsBoosterAccessible(b, a.s.UserLevel, a.s.SubscriptionID) {
		return a, fmt.Errorf("select booster %q: %w", boosterID, ErrBoosterInaccessible)
	}
	if a.BoosterCount(boosterID) >= b.Limit() {
		return a, fmt.Errorf("select booster %q (limit %d): %w", boosterID, b.Limit(), ErrBoosterLimitReached)
	}

	next := a.State()
	next.BoosterIDs = append(next.BoosterIDs, b.ID)
	return Account{s: next}, nil
}

// DeselectBooster drops the most recently selected copy of a booster.
func (a Account) DeselectBooster(boosterID string) (Account, error) {
	for i := len(a.s.BoosterIDs) - 1; i >= 0; i-- {
		if a.s.BoosterIDs[i] != boosterID {
			continue
		}
		next := a.State()
		next.BoosterIDs = append(next.BoosterIDs[:i], next.BoosterIDs[i+1:]...)
		return Account{s: next}, nil
	}
	return a, fmt.Errorf("deselect booster %q: %w", boosterID, ErrBoosterNotSelected)
}

// BoosterCount is the number of times a booster is selected.
func (a Account) BoosterCount(boosterID string) int {
	n := 0
	for _, id := range a.s.BoosterIDs {
		if id == boosterID {
			n++
		}
	}
	return n
}

// SetSubscription switches the active subscription. Existing deposits and
// boosters are kept even if the new tier would not unlock them.
func (a Account) SetSubscription(subscriptionID string) (Account, error) {
	sub, ok := a.s.Catalog.Subscription(subscriptionID)
	if !ok {
		return a, fmt.Errorf("set subscription %q: %w", subscriptionID, ErrUnknownSubscription)
	}
	if a.s.UserLevel < sub.MinLevel {
		return a, fmt.Errorf("set subscription %q (level %d < %d): %w", subscriptionID, a.s.UserLevel, sub.MinLevel, ErrSubscriptionInaccessible)
	}
	next := a.State()
	next.SubscriptionID = sub.ID
	return Account{s: next}, nil
}

// SetUserLevel changes the user's level.
func (a Account) SetUserLevel(level int) Account {
	next := a.State()
	next.UserLevel = level
	return Account{s: next}
}

// SetReinvest changes the projection mode.
func (a Account) SetReinvest(mode projection.ReinvestMode) Account {
	next := a.State()
	next.Reinvest = mode
	return Account{s: next}
}

func (a Account) resolver() *eligibility.Resolver {
	return eligibility.NewResolver(a.s.Catalog.Subscriptions)
}

func (a Account) itemIndex(itemID string) int {
	for i, item := range a.s.Portfolio {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func checkAmount(t catalog.Tariff, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("negative amount %.2f: %w", amount, ErrDepositOutOfBounds)
	}
	if amount == 0 && t.IsProgram() {
		return nil
	}
	if !t.AcceptsAmount(amount) {
		return fmt.Errorf("amount %.2f outside [%.2f, %.2f]: %w", amount, t.BaseMin, t.BaseMax, ErrDepositOutOfBounds)
	}
	return nil
}

func clone(s engine.State) engine.State {
	s.Portfolio = s.Portfolio.Clone()
	if s.BoosterIDs != nil {
		s.BoosterIDs = append([]string(nil), s.BoosterIDs...)
	}
	if s.Segments != nil {
		s.Segments = append([]catalog.InvestorSegment(nil), s.Segments...)
	}
	return s
}

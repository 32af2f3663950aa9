package ledger

import (
	"context"
	"errors"
	"fmt"

	"carbonledger/internal/core"
)

var (
	ErrInvalidEnergyType = errors.New("invalid energy type")
	ErrInvalidBudget     = errors.New("daily budget must be non-negative")
	ErrInvalidOccupants  = errors.New("occupants must be at least 1")
)

// UpdateBaseline recomputes one utility's baseline from a monthly bill
// amount and persists the full settings object. A monthly amount of zero
// disables the baseline; the enabled total is always recomputed from
// scratch afterwards.
func (l *Ledger) UpdateBaseline(ctx context.Context, typ core.EnergyType, monthlyAmount float64, daysInPeriod int) (core.EnergyBaselines, error) {
	if !typ.IsValid() {
		return core.EnergyBaselines{}, fmt.Errorf("%w: %s", ErrInvalidEnergyType, typ)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	baseline := core.ComputeBaseline(typ, monthlyAmount, daysInPeriod, l.now())
	l.settings.Baselines.Set(typ, baseline)
	l.persistSettings(ctx, "update baseline")

	return l.settings.Baselines, nil
}

// SetDailyBudget updates the configured daily budget goal and persists the
// settings. Already-materialized logs keep the budget captured at the time
// they were produced; synthesized logs pick up the new value on next read.
func (l *Ledger) SetDailyBudget(ctx context.Context, budgetKg float64) error {
	if budgetKg < 0 {
		return fmt.Errorf("%w, got %v", ErrInvalidBudget, budgetKg)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.settings.DailyBudgetKg = budgetKg
	l.persistSettings(ctx, "set daily budget")
	return nil
}

// SetOccupants updates the household size used by per-person energy views.
func (l *Ledger) SetOccupants(ctx context.Context, occupants int) error {
	if occupants < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidOccupants, occupants)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.settings.Occupants = occupants
	l.persistSettings(ctx, "set occupants")
	return nil
}

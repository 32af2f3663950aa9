package core

// DefaultDailyBudgetKg is the starting daily carbon budget for a fresh
// profile, roughly the per-capita level consistent with 2030 climate targets.
const DefaultDailyBudgetKg = 8.0

// UserSettings holds the configured daily budget, lifetime stats and the
// energy baselines. It is persisted as one atomic object: a settings write
// either lands whole or not at all.
type UserSettings struct {
	DailyBudgetKg      float64
	TotalScans         int64
	TotalCarbonTracked float64
	Baselines          EnergyBaselines
	Occupants          int
}

// DefaultSettings returns the settings for a profile that has never been
// persisted.
func DefaultSettings() UserSettings {
	return UserSettings{
		DailyBudgetKg: DefaultDailyBudgetKg,
		Occupants:     1,
	}
}

// RecordTracked folds a newly tracked activity into the lifetime stats.
func (s *UserSettings) RecordTracked(carbonKg float64) {
	s.TotalScans++
	s.TotalCarbonTracked += carbonKg
}

// ReleaseTracked rolls back a removed activity's contribution, clamped at a
// floor of zero so repeated or inconsistent removals can never drive the
// lifetime total negative.
func (s *UserSettings) ReleaseTracked(carbonKg float64) {
	s.TotalCarbonTracked -= carbonKg
	if s.TotalCarbonTracked < 0 {
		s.TotalCarbonTracked = 0
	}
}

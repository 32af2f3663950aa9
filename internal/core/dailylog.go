package core

import "time"

// DailyLog is the aggregate of all activities for one calendar date.
//
// Invariants: TotalCarbonKg == Σ Activities[i].CarbonKg and
// Σ CategoryTotals == TotalCarbonKg. Both hold because the log is only ever
// produced by BuildDailyLog, which recomputes every total from scratch.
type DailyLog struct {
	Date           string
	Activities     []Activity // newest first
	TotalCarbonKg  float64
	BudgetKg       float64
	CategoryTotals map[Category]float64
}

// BuildDailyLog assembles a log from its activity list. Totals are always
// fresh filter-then-sum passes over the full list, never incremental patches,
// so repeated mutations cannot drift.
func BuildDailyLog(date string, activities []Activity, budgetKg float64) DailyLog {
	log := DailyLog{
		Date:           date,
		Activities:     activities,
		BudgetKg:       budgetKg,
		CategoryTotals: make(map[Category]float64, len(Categories)),
	}
	for _, c := range Categories {
		log.CategoryTotals[c] = 0
	}
	for _, a := range activities {
		log.TotalCarbonKg += a.CarbonKg
		log.CategoryTotals[a.Category] += a.CarbonKg
	}
	return log
}

// EmptyDailyLog synthesizes the zero-valued log for a date with no recorded
// activities, seeded with the currently configured budget. Such logs are
// never persisted; they materialize on read.
func EmptyDailyLog(date string, budgetKg float64) DailyLog {
	return BuildDailyLog(date, nil, budgetKg)
}

// Clone returns a deep copy so callers can hold a log without racing the
// ledger's in-memory state.
func (l DailyLog) Clone() DailyLog {
	out := l
	if l.Activities != nil {
		out.Activities = make([]Activity, len(l.Activities))
		copy(out.Activities, l.Activities)
	}
	out.CategoryTotals = make(map[Category]float64, len(l.CategoryTotals))
	for c, v := range l.CategoryTotals {
		out.CategoryTotals[c] = v
	}
	return out
}

// FindActivity returns the activity with the given id, or ErrUnknownActivity.
func (l DailyLog) FindActivity(id string) (Activity, error) {
	for _, a := range l.Activities {
		if a.ID == id {
			return a, nil
		}
	}
	return Activity{}, ErrUnknownActivity
}

// WeekComparison is the week-over-week delta block of a WeeklySummary.
// Historical analytics are out of scope, so every delta is reported as zero;
// the type exists so consumers have a stable shape to render.
type WeekComparison struct {
	TotalDeltaKg   float64
	PercentChange  float64
	DaysUnderDelta int
}

// WeeklySummary is a derived seven-day rollup of the calendar week
// containing today. It is recomputed on every access and never persisted.
type WeeklySummary struct {
	WeekStart       time.Time
	DailyTotals     [7]float64 // Sunday through Saturday
	WeekTotal       float64
	CategoryTotals  map[Category]float64
	DaysUnderBudget int
	VsLastWeek      WeekComparison
}

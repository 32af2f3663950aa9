package ledger

import (
	"carbonledger/internal/core"
)

// LogForDate returns the log for a date, synthesizing a zero-valued log
// seeded with the current budget when the date has no recorded activities.
// Synthesized logs are never persisted; historical budgets are not tracked,
// so an empty past date shows the budget configured now, not the one
// configured back then.
func (l *Ledger) LogForDate(date string) core.DailyLog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.logForDateLocked(date)
}

func (l *Ledger) logForDateLocked(date string) core.DailyLog {
	if log, ok := l.logs[date]; ok {
		return log.Clone()
	}
	return core.EmptyDailyLog(date, l.settings.DailyBudgetKg)
}

// TodayLog returns the log for the current day.
func (l *Ledger) TodayLog() core.DailyLog {
	return l.LogForDate(l.Today())
}

// WeeklySummary rolls up the seven days of the calendar week containing
// today, Sunday-aligned, regardless of which date a consumer has selected
// for single-day views. It is recomputed from the current state on every
// call.
func (l *Ledger) WeeklySummary() core.WeeklySummary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := l.now()
	today := core.DateKey(now)
	weekStart := core.WeekStart(now)

	summary := core.WeeklySummary{
		WeekStart:      weekStart,
		CategoryTotals: make(map[core.Category]float64, len(core.Categories)),
	}
	for _, c := range core.Categories {
		summary.CategoryTotals[c] = 0
	}

	for i := 0; i < 7; i++ {
		date := core.DateKey(weekStart.AddDate(0, 0, i))
		log := l.logForDateLocked(date)

		summary.DailyTotals[i] = log.TotalCarbonKg
		summary.WeekTotal += log.TotalCarbonKg
		for c, v := range log.CategoryTotals {
			summary.CategoryTotals[c] += v
		}

		// Only days up to and including today count toward the
		// under-budget tally, and only when something was logged.
		if date <= today && log.TotalCarbonKg > 0 && log.TotalCarbonKg <= log.BudgetKg {
			summary.DaysUnderBudget++
		}
	}

	// VsLastWeek stays a zero-delta stub: historical week-over-week
	// analytics are out of scope.
	return summary
}

// TotalWithBaseline returns a date's total plus the continuous energy
// baseline. The baseline addend is identical for any date because it models
// an ongoing background emission rate, not a dated event.
func (l *Ledger) TotalWithBaseline(date string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.logForDateLocked(date).TotalCarbonKg + l.settings.Baselines.TotalDailyCarbonKg
}

// ScansForDate returns the scan-history entries recorded on a date. This
// list is independent of ledger aggregation.
func (l *Ledger) ScansForDate(date string) []core.ScanRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []core.ScanRecord
	for _, rec := range l.scans {
		if core.DateKey(rec.Timestamp) == date {
			out = append(out, rec)
		}
	}
	return out
}

// Settings returns a copy of the current user settings.
func (l *Ledger) Settings() core.UserSettings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.settings
}

// Baselines returns a copy of the current energy baselines.
func (l *Ledger) Baselines() core.EnergyBaselines {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.settings.Baselines
}

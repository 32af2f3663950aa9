package core

// Budget and progress calculations. Pure functions over a DailyLog: the same
// math applies whether the log belongs to today or any other selected date.

// RemainingBudget returns the budget left for the log's date, floored at zero.
func RemainingBudget(l DailyLog) float64 {
	if r := l.BudgetKg - l.TotalCarbonKg; r > 0 {
		return r
	}
	return 0
}

// IsOverBudget reports whether the log's total exceeds its budget.
func IsOverBudget(l DailyLog) bool {
	return l.TotalCarbonKg > l.BudgetKg
}

// BudgetProgress returns total/budget clamped to [0, 1]. A zero budget
// always yields 0 regardless of the total.
func BudgetProgress(l DailyLog) float64 {
	if l.BudgetKg <= 0 {
		return 0
	}
	p := l.TotalCarbonKg / l.BudgetKg
	if p > 1 {
		return 1
	}
	return p
}

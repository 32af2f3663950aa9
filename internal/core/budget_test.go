package core

import (
	"math"
	"testing"
)

func TestRemainingBudget(t *testing.T) {
	tests := []struct {
		name   string
		total  float64
		budget float64
		want   float64
	}{
		{name: "under budget", total: 1.5, budget: 8, want: 6.5},
		{name: "exactly at budget", total: 8, budget: 8, want: 0},
		{name: "over budget floors at zero", total: 9, budget: 8, want: 0},
		{name: "zero budget", total: 3, budget: 0, want: 0},
		{name: "nothing logged", total: 0, budget: 8, want: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := DailyLog{TotalCarbonKg: tt.total, BudgetKg: tt.budget}
			if got := RemainingBudget(log); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("RemainingBudget() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsOverBudget(t *testing.T) {
	tests := []struct {
		name   string
		total  float64
		budget float64
		want   bool
	}{
		{name: "under", total: 1.5, budget: 8, want: false},
		{name: "exactly at budget is not over", total: 8, budget: 8, want: false},
		{name: "over", total: 9, budget: 8, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := DailyLog{TotalCarbonKg: tt.total, BudgetKg: tt.budget}
			if got := IsOverBudget(log); got != tt.want {
				t.Errorf("IsOverBudget() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBudgetProgress(t *testing.T) {
	tests := []struct {
		name   string
		total  float64
		budget float64
		want   float64
	}{
		{name: "partial progress", total: 1.5, budget: 8, want: 0.1875},
		{name: "exactly one at budget", total: 8, budget: 8, want: 1},
		{name: "caps at one when over", total: 9, budget: 8, want: 1},
		{name: "zero budget yields zero regardless of total", total: 5, budget: 0, want: 0},
		{name: "negative budget treated as zero", total: 5, budget: -1, want: 0},
		{name: "empty day", total: 0, budget: 8, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := DailyLog{TotalCarbonKg: tt.total, BudgetKg: tt.budget}
			if got := BudgetProgress(log); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("BudgetProgress() = %v, want %v", got, tt.want)
			}
		})
	}
}

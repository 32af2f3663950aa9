package core

import (
	"math"
	"testing"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.DailyBudgetKg != DefaultDailyBudgetKg {
		t.Errorf("DailyBudgetKg = %v, want %v", s.DailyBudgetKg, DefaultDailyBudgetKg)
	}
	if s.Occupants != 1 {
		t.Errorf("Occupants = %v, want 1", s.Occupants)
	}
	if s.TotalScans != 0 || s.TotalCarbonTracked != 0 {
		t.Errorf("fresh profile has lifetime stats: scans=%d carbon=%v", s.TotalScans, s.TotalCarbonTracked)
	}
}

func TestUserSettings_RecordAndRelease(t *testing.T) {
	s := DefaultSettings()
	s.RecordTracked(2.5)
	s.RecordTracked(1.5)

	if s.TotalScans != 2 {
		t.Errorf("TotalScans = %d, want 2", s.TotalScans)
	}
	if math.Abs(s.TotalCarbonTracked-4.0) > 1e-9 {
		t.Errorf("TotalCarbonTracked = %v, want 4.0", s.TotalCarbonTracked)
	}

	s.ReleaseTracked(1.5)
	if math.Abs(s.TotalCarbonTracked-2.5) > 1e-9 {
		t.Errorf("TotalCarbonTracked after release = %v, want 2.5", s.TotalCarbonTracked)
	}
}

func TestUserSettings_ReleaseClampsAtZero(t *testing.T) {
	s := DefaultSettings()
	s.RecordTracked(1.0)
	s.ReleaseTracked(5.0)

	if s.TotalCarbonTracked != 0 {
		t.Errorf("TotalCarbonTracked = %v, want clamped to 0", s.TotalCarbonTracked)
	}
}

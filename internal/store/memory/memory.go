// Package memory provides an in-memory persistence adapter, used as the
// default backend for local runs and as the test double for the ledger.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"carbonledger/internal/core"
)

type Store struct {
	mu        sync.Mutex
	seq       int64
	now       func() time.Time
	byDate    map[string][]core.Activity // newest first
	budgets   map[string]float64         // budget captured when a date first received an activity
	snapshots map[string]core.DailyLog
	settings  *core.UserSettings
	scans     []core.ScanRecord
}

func New() *Store {
	return &Store{
		now:       time.Now,
		byDate:    make(map[string][]core.Activity),
		budgets:   make(map[string]float64),
		snapshots: make(map[string]core.DailyLog),
	}
}

// WithClock overrides the timestamp source, for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) generateID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *Store) AddActivity(_ context.Context, draft core.ActivityDraft, date string, budgetKg float64) (core.Activity, error) {
	if err := draft.Validate(); err != nil {
		return core.Activity{}, err
	}
	if date == "" {
		return core.Activity{}, core.ErrEmptyDate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	activity := core.Activity{
		ID:        s.generateID("act"),
		Timestamp: s.now(),
		Category:  draft.Category,
		Name:      draft.Name,
		CarbonKg:  draft.CarbonKg,
		Product:   draft.Product,
		Transport: draft.Transport,
		Energy:    draft.Energy,
	}
	if _, seen := s.byDate[date]; !seen {
		s.budgets[date] = budgetKg
	}
	s.byDate[date] = append([]core.Activity{activity}, s.byDate[date]...)
	return activity, nil
}

func (s *Store) RemoveActivity(_ context.Context, id, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byDate[date]
	for i, a := range list {
		if a.ID == id {
			s.byDate[date] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return core.ErrUnknownActivity
}

func (s *Store) AllDailyLogs(_ context.Context) (map[string]core.DailyLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]core.DailyLog, len(s.byDate))
	for date, list := range s.byDate {
		activities := make([]core.Activity, len(list))
		copy(activities, list)
		out[date] = core.BuildDailyLog(date, activities, s.budgets[date])
	}
	return out, nil
}

func (s *Store) DailyLog(_ context.Context, date string) (core.DailyLog, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.byDate[date]
	if !ok {
		return core.DailyLog{}, false, nil
	}
	activities := make([]core.Activity, len(list))
	copy(activities, list)
	return core.BuildDailyLog(date, activities, s.budgets[date]), true, nil
}

func (s *Store) SaveDailyLog(_ context.Context, date string, log core.DailyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[date] = log.Clone()
	return nil
}

// Snapshot returns the last materialized snapshot for a date, for tests.
func (s *Store) Snapshot(date string) (core.DailyLog, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log, ok := s.snapshots[date]
	return log, ok
}

func (s *Store) UserSettings(_ context.Context) (core.UserSettings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return core.UserSettings{}, false, nil
	}
	return *s.settings, true, nil
}

func (s *Store) SaveUserSettings(_ context.Context, settings core.UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := settings
	s.settings = &cp
	return nil
}

func (s *Store) ScanHistory(_ context.Context) ([]core.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ScanRecord, len(s.scans))
	copy(out, s.scans)
	return out, nil
}

func (s *Store) SaveScanRecord(_ context.Context, record core.ScanRecord) (core.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = s.generateID("scan")
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = s.now()
	}
	s.scans = append(s.scans, record)
	return record, nil
}

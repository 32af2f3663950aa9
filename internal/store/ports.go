// Package store defines the persistence ports consumed by the ledger.
//
// Implementations assign activity IDs and timestamps at creation time and
// are the source of truth; the ledger layers an in-memory view on top and
// only patches it after a write has been acknowledged.
package store

import (
	"context"

	"carbonledger/internal/core"
)

// ActivityStore persists per-date activity records and materialized
// daily-log snapshots.
type ActivityStore interface {
	// AddActivity assigns id and timestamp, persists the activity under
	// the given date and returns the stored record.
	AddActivity(ctx context.Context, draft core.ActivityDraft, date string, budgetKg float64) (core.Activity, error)

	// RemoveActivity deletes one activity from a date.
	RemoveActivity(ctx context.Context, id, date string) error

	// AllDailyLogs returns every persisted daily log keyed by date.
	AllDailyLogs(ctx context.Context) (map[string]core.DailyLog, error)

	// DailyLog returns the log for one date; ok is false only when the
	// date never received a write. A date whose activities were all
	// removed reads back with zero totals and its captured budget.
	DailyLog(ctx context.Context, date string) (core.DailyLog, bool, error)

	// SaveDailyLog writes a materialized snapshot for a date.
	SaveDailyLog(ctx context.Context, date string, log core.DailyLog) error
}

// SettingsStore persists the user settings as one atomic object.
type SettingsStore interface {
	// UserSettings returns the persisted settings; ok is false for a
	// fresh profile.
	UserSettings(ctx context.Context) (core.UserSettings, bool, error)

	SaveUserSettings(ctx context.Context, settings core.UserSettings) error
}

// ScanHistoryStore persists the append-only scan history.
type ScanHistoryStore interface {
	ScanHistory(ctx context.Context) ([]core.ScanRecord, error)

	// SaveScanRecord persists one scan, assigning id and timestamp when
	// the record carries none, and returns the stored record.
	SaveScanRecord(ctx context.Context, record core.ScanRecord) (core.ScanRecord, error)
}

// Store is the full persistence adapter contract.
type Store interface {
	ActivityStore
	SettingsStore
	ScanHistoryStore
}

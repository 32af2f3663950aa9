// Package worker materializes per-date daily-log snapshots. It reacts to
// activity change notifications and runs a scheduled full reconciliation so
// snapshots converge even when a notification was lost.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"carbonledger/internal/events"
	"carbonledger/internal/store"
)

type SnapshotWorker struct {
	store store.ActivityStore
}

func NewSnapshotWorker(st store.ActivityStore) *SnapshotWorker {
	return &SnapshotWorker{store: st}
}

// HandleActivityChange rebuilds the mutated date's snapshot. Both upserts
// and removals funnel into the same rebuild: snapshots are always derived
// from the activities table, never patched incrementally.
func (w *SnapshotWorker) HandleActivityChange(ctx context.Context, msg *events.ActivityMessage) error {
	slog.InfoContext(ctx, "Processing activity change",
		"kind", msg.Kind,
		"activity_id", msg.ActivityID,
		"date", msg.Date)

	return w.RebuildDate(ctx, msg.Date)
}

// RebuildDate recomputes one date's snapshot from its stored activities and
// writes it back. A date whose last activity was removed gets a zero-valued
// snapshot with the previously captured budget preserved. A date that never
// received a write is skipped: writing a snapshot there would seed the
// budget-capture row before the date's first activity.
func (w *SnapshotWorker) RebuildDate(ctx context.Context, date string) error {
	log, ok, err := w.store.DailyLog(ctx, date)
	if err != nil {
		return fmt.Errorf("load daily log for %s: %w", date, err)
	}
	if !ok {
		slog.DebugContext(ctx, "No ledger state for date, snapshot skipped", "date", date)
		return nil
	}

	if err := w.store.SaveDailyLog(ctx, date, log); err != nil {
		return fmt.Errorf("save snapshot for %s: %w", date, err)
	}

	slog.InfoContext(ctx, "Snapshot rebuilt",
		"date", date,
		"total_carbon_kg", log.TotalCarbonKg,
		"activities", len(log.Activities))
	return nil
}

// ReconcileAll rebuilds the snapshot of every date that has activities.
// Scheduled daily as a safety net behind the event-driven path.
func (w *SnapshotWorker) ReconcileAll(ctx context.Context) error {
	logs, err := w.store.AllDailyLogs(ctx)
	if err != nil {
		return fmt.Errorf("load all daily logs: %w", err)
	}

	var failed int
	for date, log := range logs {
		if err := w.store.SaveDailyLog(ctx, date, log); err != nil {
			slog.ErrorContext(ctx, "Failed to reconcile snapshot", "date", date, "error", err)
			failed++
		}
	}

	slog.InfoContext(ctx, "Snapshot reconciliation completed",
		"dates", len(logs), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("reconcile snapshots: %d of %d dates failed", failed, len(logs))
	}
	return nil
}

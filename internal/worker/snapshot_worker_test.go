package worker

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"carbonledger/internal/core"
	"carbonledger/internal/events"
	"carbonledger/internal/storage"
	"carbonledger/internal/store/memory"
)

func newStoreWithActivity(t *testing.T, date string, carbonKg float64) *memory.Store {
	t.Helper()
	st := memory.New().WithClock(func() time.Time {
		return time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	})
	if _, err := st.AddActivity(context.Background(), core.ActivityDraft{
		Category: core.CategoryFood, Name: "entry", CarbonKg: carbonKg,
	}, date, 8); err != nil {
		t.Fatal(err)
	}
	return st
}

func TestSnapshotWorker_RebuildDate(t *testing.T) {
	st := newStoreWithActivity(t, "2024-03-06", 2.5)
	w := NewSnapshotWorker(st)

	if err := w.RebuildDate(context.Background(), "2024-03-06"); err != nil {
		t.Fatalf("RebuildDate returned error: %v", err)
	}

	snap, ok := st.Snapshot("2024-03-06")
	if !ok {
		t.Fatal("no snapshot materialized")
	}
	if math.Abs(snap.TotalCarbonKg-2.5) > 1e-9 {
		t.Errorf("snapshot total = %v, want 2.5", snap.TotalCarbonKg)
	}
	if snap.BudgetKg != 8 {
		t.Errorf("snapshot budget = %v, want 8", snap.BudgetKg)
	}
}

func TestSnapshotWorker_RebuildDate_UnknownDateSkipsSnapshot(t *testing.T) {
	st := memory.New()
	w := NewSnapshotWorker(st)

	if err := w.RebuildDate(context.Background(), "2019-01-01"); err != nil {
		t.Fatalf("RebuildDate returned error: %v", err)
	}

	if _, ok := st.Snapshot("2019-01-01"); ok {
		t.Error("rebuild of a never-written date must not materialize a snapshot")
	}
}

func newSQLiteStore(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open sqlite repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSnapshotWorker_EarlyRebuildDoesNotPreemptBudgetCapture(t *testing.T) {
	repo := newSQLiteStore(t)
	w := NewSnapshotWorker(repo)
	ctx := context.Background()

	// The pending loop rebuilds today on a schedule, so on a fresh day a
	// rebuild can land before the first activity does.
	if err := w.RebuildDate(ctx, "2024-03-06"); err != nil {
		t.Fatalf("RebuildDate returned error: %v", err)
	}

	if _, err := repo.AddActivity(ctx, core.ActivityDraft{
		Category: core.CategoryFood, Name: "Lunch", CarbonKg: 1.5,
	}, "2024-03-06", 8); err != nil {
		t.Fatal(err)
	}

	log, ok, err := repo.DailyLog(ctx, "2024-03-06")
	if err != nil || !ok {
		t.Fatalf("DailyLog: ok=%v err=%v", ok, err)
	}
	if log.BudgetKg != 8 {
		t.Errorf("BudgetKg = %v, want the budget in force at first write (8)", log.BudgetKg)
	}
	if got := core.RemainingBudget(log); math.Abs(got-6.5) > 1e-9 {
		t.Errorf("RemainingBudget = %v, want 6.5", got)
	}
	if core.IsOverBudget(log) {
		t.Error("1.5 kg against an 8 kg budget must not read as over budget")
	}
}

func TestSnapshotWorker_RemovingLastActivityKeepsCapturedBudget(t *testing.T) {
	repo := newSQLiteStore(t)
	w := NewSnapshotWorker(repo)
	ctx := context.Background()

	a, err := repo.AddActivity(ctx, core.ActivityDraft{
		Category: core.CategoryFood, Name: "Lunch", CarbonKg: 1.5,
	}, "2024-03-06", 8)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.RebuildDate(ctx, "2024-03-06"); err != nil {
		t.Fatal(err)
	}

	if err := repo.RemoveActivity(ctx, a.ID, "2024-03-06"); err != nil {
		t.Fatal(err)
	}
	if err := w.RebuildDate(ctx, "2024-03-06"); err != nil {
		t.Fatal(err)
	}

	log, ok, err := repo.DailyLog(ctx, "2024-03-06")
	if err != nil || !ok {
		t.Fatalf("DailyLog after removal: ok=%v err=%v", ok, err)
	}
	if log.TotalCarbonKg != 0 || len(log.Activities) != 0 {
		t.Errorf("log not emptied: %+v", log)
	}
	if log.BudgetKg != 8 {
		t.Errorf("BudgetKg = %v, want the captured budget (8) after the rebuild", log.BudgetKg)
	}
}

func TestSnapshotWorker_HandleActivityChange(t *testing.T) {
	st := newStoreWithActivity(t, "2024-03-06", 1.5)
	w := NewSnapshotWorker(st)

	msg := events.NewActivityUpserted("act-1", "2024-03-06", "food", 1.5)
	if err := w.HandleActivityChange(context.Background(), msg); err != nil {
		t.Fatalf("HandleActivityChange returned error: %v", err)
	}

	if _, ok := st.Snapshot("2024-03-06"); !ok {
		t.Error("change notification did not materialize a snapshot")
	}
}

func TestSnapshotWorker_ReconcileAll(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	for _, d := range []string{"2024-03-04", "2024-03-05", "2024-03-06"} {
		if _, err := st.AddActivity(ctx, core.ActivityDraft{
			Category: core.CategoryTransport, Name: "entry", CarbonKg: 1,
		}, d, 8); err != nil {
			t.Fatal(err)
		}
	}

	w := NewSnapshotWorker(st)
	if err := w.ReconcileAll(ctx); err != nil {
		t.Fatalf("ReconcileAll returned error: %v", err)
	}

	for _, d := range []string{"2024-03-04", "2024-03-05", "2024-03-06"} {
		if _, ok := st.Snapshot(d); !ok {
			t.Errorf("no snapshot for %s after reconciliation", d)
		}
	}
}

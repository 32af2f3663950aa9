package memory

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"carbonledger/internal/core"
)

var testNow = time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	return New().WithClock(func() time.Time { return testNow })
}

func TestStore_AddActivity(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	first, err := st.AddActivity(ctx, core.ActivityDraft{
		Category: core.CategoryFood, Name: "Lunch", CarbonKg: 1.5,
	}, "2024-03-06", 8)
	if err != nil {
		t.Fatalf("AddActivity returned error: %v", err)
	}
	if first.ID == "" {
		t.Error("expected assigned id")
	}
	if !first.Timestamp.Equal(testNow) {
		t.Errorf("Timestamp = %v, want %v", first.Timestamp, testNow)
	}

	second, err := st.AddActivity(ctx, core.ActivityDraft{
		Category: core.CategoryTransport, Name: "Commute", CarbonKg: 4,
	}, "2024-03-06", 8)
	if err != nil {
		t.Fatal(err)
	}
	if second.ID == first.ID {
		t.Error("ids must be unique")
	}

	log, ok, err := st.DailyLog(ctx, "2024-03-06")
	if err != nil || !ok {
		t.Fatalf("DailyLog: ok=%v err=%v", ok, err)
	}
	if math.Abs(log.TotalCarbonKg-5.5) > 1e-9 {
		t.Errorf("TotalCarbonKg = %v, want 5.5", log.TotalCarbonKg)
	}
	// Newest first.
	if log.Activities[0].ID != second.ID {
		t.Errorf("first listed activity = %s, want most recent %s", log.Activities[0].ID, second.ID)
	}
}

func TestStore_AddActivity_Validation(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	if _, err := st.AddActivity(ctx, core.ActivityDraft{
		Category: "plastic", Name: "Thing",
	}, "2024-03-06", 8); !errors.Is(err, core.ErrInvalidCategory) {
		t.Errorf("error = %v, want ErrInvalidCategory", err)
	}
	if _, err := st.AddActivity(ctx, core.ActivityDraft{
		Category: core.CategoryFood, Name: "Lunch",
	}, "", 8); !errors.Is(err, core.ErrEmptyDate) {
		t.Errorf("error = %v, want ErrEmptyDate", err)
	}
}

func TestStore_BudgetCapturedAtFirstWrite(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	if _, err := st.AddActivity(ctx, core.ActivityDraft{
		Category: core.CategoryFood, Name: "Lunch", CarbonKg: 1,
	}, "2024-03-06", 8); err != nil {
		t.Fatal(err)
	}
	// Later writes carry a different budget; the first capture wins.
	if _, err := st.AddActivity(ctx, core.ActivityDraft{
		Category: core.CategoryFood, Name: "Dinner", CarbonKg: 2,
	}, "2024-03-06", 5); err != nil {
		t.Fatal(err)
	}

	log, _, err := st.DailyLog(ctx, "2024-03-06")
	if err != nil {
		t.Fatal(err)
	}
	if log.BudgetKg != 8 {
		t.Errorf("BudgetKg = %v, want the budget captured at first write (8)", log.BudgetKg)
	}
}

func TestStore_RemoveActivity(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	a, err := st.AddActivity(ctx, core.ActivityDraft{
		Category: core.CategoryFood, Name: "Lunch", CarbonKg: 1.5,
	}, "2024-03-06", 8)
	if err != nil {
		t.Fatal(err)
	}

	if err := st.RemoveActivity(ctx, a.ID, "2024-03-06"); err != nil {
		t.Fatalf("RemoveActivity returned error: %v", err)
	}

	log, ok, err := st.DailyLog(ctx, "2024-03-06")
	if err != nil || !ok {
		t.Fatalf("DailyLog after removal: ok=%v err=%v", ok, err)
	}
	if log.TotalCarbonKg != 0 || len(log.Activities) != 0 {
		t.Errorf("log not emptied: %+v", log)
	}

	if err := st.RemoveActivity(ctx, a.ID, "2024-03-06"); !errors.Is(err, core.ErrUnknownActivity) {
		t.Errorf("second removal error = %v, want ErrUnknownActivity", err)
	}
	if err := st.RemoveActivity(ctx, "x", "2019-01-01"); !errors.Is(err, core.ErrUnknownActivity) {
		t.Errorf("unknown date error = %v, want ErrUnknownActivity", err)
	}
}

func TestStore_AllDailyLogs(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	for _, d := range []string{"2024-03-05", "2024-03-06"} {
		if _, err := st.AddActivity(ctx, core.ActivityDraft{
			Category: core.CategoryFood, Name: "entry", CarbonKg: 1,
		}, d, 8); err != nil {
			t.Fatal(err)
		}
	}

	logs, err := st.AllDailyLogs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	for date, log := range logs {
		if log.Date != date {
			t.Errorf("log keyed %s carries date %s", date, log.Date)
		}
		if log.BudgetKg != 8 {
			t.Errorf("log %s BudgetKg = %v, want 8", date, log.BudgetKg)
		}
	}
}

func TestStore_DailyLog_UnknownDate(t *testing.T) {
	st := newTestStore()
	if _, ok, err := st.DailyLog(context.Background(), "2019-01-01"); err != nil || ok {
		t.Errorf("DailyLog(unknown) ok=%v err=%v, want ok=false err=nil", ok, err)
	}
}

func TestStore_Snapshots(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	log := core.BuildDailyLog("2024-03-06", nil, 8)
	if err := st.SaveDailyLog(ctx, "2024-03-06", log); err != nil {
		t.Fatal(err)
	}
	snap, ok := st.Snapshot("2024-03-06")
	if !ok {
		t.Fatal("snapshot not stored")
	}
	if snap.Date != "2024-03-06" || snap.BudgetKg != 8 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestStore_UserSettings(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	if _, ok, err := st.UserSettings(ctx); err != nil || ok {
		t.Errorf("fresh store UserSettings ok=%v err=%v, want ok=false", ok, err)
	}

	settings := core.DefaultSettings()
	settings.DailyBudgetKg = 6
	if err := st.SaveUserSettings(ctx, settings); err != nil {
		t.Fatal(err)
	}

	loaded, ok, err := st.UserSettings(ctx)
	if err != nil || !ok {
		t.Fatalf("UserSettings ok=%v err=%v", ok, err)
	}
	if loaded.DailyBudgetKg != 6 {
		t.Errorf("DailyBudgetKg = %v, want 6", loaded.DailyBudgetKg)
	}
}

func TestStore_ScanRecords(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	rec, err := st.SaveScanRecord(ctx, core.ScanRecord{
		Objects:       []core.ScannedObject{{Name: "Soap", CarbonKg: 1}},
		TotalCarbonKg: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID == "" {
		t.Error("expected assigned scan id")
	}
	if !rec.Timestamp.Equal(testNow) {
		t.Errorf("Timestamp = %v, want %v", rec.Timestamp, testNow)
	}

	history, err := st.ScanHistory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].ID != rec.ID {
		t.Errorf("unexpected history: %+v", history)
	}
}

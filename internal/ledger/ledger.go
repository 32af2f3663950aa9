// Package ledger implements the carbon ledger: per-date activity records,
// daily/weekly/category aggregates, the continuous energy baseline and
// budget-progress views.
//
// The Ledger is an explicit service object passed by reference to consumers.
// It layers an in-memory view over the persistence adapter: every mutation
// persists first and only patches memory once the write has been
// acknowledged, so a rejected write leaves the cached state untouched.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"carbonledger/internal/core"
	"carbonledger/internal/events"
	"carbonledger/internal/store"
)

// Ledger owns all ledger state. A single RWMutex serializes mutations, so
// two writes against the same date cannot interleave; reads take the read
// lock and return copies.
type Ledger struct {
	mu     sync.RWMutex
	store  store.Store
	events *events.Client // optional; nil disables change notifications
	now    func() time.Time

	loaded   bool
	logs     map[string]core.DailyLog
	settings core.UserSettings
	scans    []core.ScanRecord
}

// Option configures a Ledger at construction time.
type Option func(*Ledger)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithEvents attaches an AMQP client used to notify downstream consumers of
// activity changes. Publish failures are logged and never fail a mutation.
func WithEvents(client *events.Client) Option {
	return func(l *Ledger) { l.events = client }
}

// WithDefaultBudget seeds the fresh-profile daily budget from configuration.
// Persisted settings restored by Load take precedence.
func WithDefaultBudget(budgetKg float64) Option {
	return func(l *Ledger) { l.settings.DailyBudgetKg = budgetKg }
}

func New(st store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    st,
		now:      time.Now,
		logs:     make(map[string]core.DailyLog),
		settings: core.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load performs the initial bulk load: daily logs, settings and scan history
// are fetched in parallel. A failed fetch is logged and resolved to its
// default/empty value rather than leaving consumers stuck behind the loading
// gate.
func (l *Ledger) Load(ctx context.Context) {
	var (
		logs        map[string]core.DailyLog
		settings    core.UserSettings
		hasSettings bool
		scans       []core.ScanRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		logs, err = l.store.AllDailyLogs(gctx)
		if err != nil {
			return fmt.Errorf("load daily logs: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		settings, hasSettings, err = l.store.UserSettings(gctx)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		scans, err = l.store.ScanHistory(gctx)
		if err != nil {
			return fmt.Errorf("load scan history: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.ErrorContext(ctx, "Initial ledger load failed, starting from defaults", "error", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if logs != nil {
		l.logs = logs
	}
	if hasSettings {
		l.settings = settings
	}
	l.scans = scans
	l.loaded = true
}

// Loaded reports whether the initial bulk load has completed. Derived views
// are gated behind this single flag.
func (l *Ledger) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Today returns the canonical date key for the current day.
func (l *Ledger) Today() string {
	return core.DateKey(l.now())
}

// AddActivity persists a new activity for the given date (today when date is
// empty) and folds it into the in-memory log. If persistence rejects, no
// in-memory mutation occurs and the error propagates.
//
// Side effect: lifetime stats are updated and persisted. A failed settings
// write is logged but the in-memory stats are not rolled back; they converge
// on the next successful settings write.
func (l *Ledger) AddActivity(ctx context.Context, draft core.ActivityDraft, date string) (core.Activity, error) {
	if err := draft.Validate(); err != nil {
		return core.Activity{}, err
	}
	if date == "" {
		date = l.Today()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	activity, err := l.store.AddActivity(ctx, draft, date, l.settings.DailyBudgetKg)
	if err != nil {
		return core.Activity{}, fmt.Errorf("persist activity: %w", err)
	}

	l.applyAdd(date, activity)
	l.settings.RecordTracked(activity.CarbonKg)
	l.persistSettings(ctx, "record activity stats")
	l.notify(ctx, events.NewActivityUpserted(activity.ID, date, activity.Category.String(), activity.CarbonKg))

	slog.InfoContext(ctx, "Activity added",
		"id", activity.ID,
		"date", date,
		"category", activity.Category,
		"carbon_kg", activity.CarbonKg)

	return activity, nil
}

// RemoveActivity deletes an activity from a date. The activity's carbon
// weight is captured from the in-memory log before the delete is issued so
// the lifetime stats can be rolled back, floored at zero.
func (l *Ledger) RemoveActivity(ctx context.Context, id, date string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	log, ok := l.logs[date]
	if !ok {
		return core.ErrUnknownActivity
	}
	removed, err := log.FindActivity(id)
	if err != nil {
		return err
	}

	if err := l.store.RemoveActivity(ctx, id, date); err != nil {
		return fmt.Errorf("remove activity: %w", err)
	}

	l.applyRemove(date, id)
	l.settings.ReleaseTracked(removed.CarbonKg)
	l.persistSettings(ctx, "release activity stats")
	l.notify(ctx, events.NewActivityRemoved(id, date))

	slog.InfoContext(ctx, "Activity removed",
		"id", id,
		"date", date,
		"carbon_kg", removed.CarbonKg)

	return nil
}

// AddProductScan aggregates a whole list of scanned sub-items into exactly
// one product activity (carbon = Σ objects, quantity = count) and appends a
// ScanRecord to the separate scan history. The scan history is never summed
// into daily totals a second time.
func (l *Ledger) AddProductScan(ctx context.Context, objects []core.ScannedObject, date string) (core.Activity, error) {
	total := 0.0
	for _, o := range objects {
		total += o.CarbonKg
	}

	name := "Product scan"
	if len(objects) == 1 {
		name = objects[0].Name
	}

	activity, err := l.AddActivity(ctx, core.ActivityDraft{
		Category: core.CategoryProduct,
		Name:     name,
		CarbonKg: total,
		Product: &core.ProductDetails{
			Quantity: len(objects),
			Objects:  objects,
		},
	}, date)
	if err != nil {
		return core.Activity{}, err
	}

	record, err := l.store.SaveScanRecord(ctx, core.ScanRecord{
		Objects:       objects,
		TotalCarbonKg: total,
	})
	if err != nil {
		// The ledger entry already landed; the scan history is a
		// best-effort secondary list.
		slog.ErrorContext(ctx, "Failed to persist scan record", "error", err, "date", date)
		return activity, nil
	}

	l.mu.Lock()
	l.scans = append(l.scans, record)
	l.mu.Unlock()

	return activity, nil
}

// AddEnergyActivity logs an energy activity. Energy entries are never
// backdated: they always target today. The created activity's id is
// returned so caller-owned secondary stores can request deletion later.
func (l *Ledger) AddEnergyActivity(ctx context.Context, draft core.ActivityDraft) (string, error) {
	draft.Category = core.CategoryEnergy
	activity, err := l.AddActivity(ctx, draft, l.Today())
	if err != nil {
		return "", err
	}
	return activity.ID, nil
}

// applyAdd prepends the activity and rebuilds the date's log from scratch.
// Caller holds the write lock.
func (l *Ledger) applyAdd(date string, activity core.Activity) {
	prev, ok := l.logs[date]
	budget := l.settings.DailyBudgetKg
	if ok {
		budget = prev.BudgetKg
	}
	activities := append([]core.Activity{activity}, prev.Activities...)
	l.logs[date] = core.BuildDailyLog(date, activities, budget)
}

// applyRemove filters the activity out and rebuilds. Caller holds the write
// lock.
func (l *Ledger) applyRemove(date, id string) {
	prev := l.logs[date]
	activities := make([]core.Activity, 0, len(prev.Activities))
	for _, a := range prev.Activities {
		if a.ID != id {
			activities = append(activities, a)
		}
	}
	l.logs[date] = core.BuildDailyLog(date, activities, prev.BudgetKg)
}

// persistSettings writes the settings object as one unit. Caller holds the
// write lock.
func (l *Ledger) persistSettings(ctx context.Context, action string) {
	if err := l.store.SaveUserSettings(ctx, l.settings); err != nil {
		// Known gap: in-memory settings are not rolled back, so memory
		// and storage can diverge until the next successful write.
		slog.ErrorContext(ctx, "Failed to persist settings", "action", action, "error", err)
	}
}

func (l *Ledger) notify(ctx context.Context, msg *events.ActivityMessage) {
	if l.events == nil {
		return
	}
	if err := l.events.PublishActivityChange(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish activity change",
			"kind", msg.Kind, "activity_id", msg.ActivityID, "error", err)
	}
}

package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"carbonledger/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the SQLite-backed persistence adapter. It implements
// store.Store and is the source of truth the ledger's in-memory view is
// rebuilt from.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GenerateID returns a unique prefixed identifier for a new row.
func GenerateID(prefix string) string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}

// activityDetails is the JSON payload column of the activities table.
type activityDetails struct {
	Product   *core.ProductDetails   `json:"product,omitempty"`
	Transport *core.TransportDetails `json:"transport,omitempty"`
	Energy    *core.EnergyDetails    `json:"energy,omitempty"`
}

// AddActivity implements store.ActivityStore. The id and timestamp are
// assigned here; the stored record is returned to the caller. The date's
// daily_logs row is seeded on first write so the budget configured at that
// moment is captured.
func (r *SQLiteRepository) AddActivity(ctx context.Context, draft core.ActivityDraft, date string, budgetKg float64) (core.Activity, error) {
	if err := draft.Validate(); err != nil {
		return core.Activity{}, err
	}
	if date == "" {
		return core.Activity{}, core.ErrEmptyDate
	}

	details, err := json.Marshal(activityDetails{
		Product:   draft.Product,
		Transport: draft.Transport,
		Energy:    draft.Energy,
	})
	if err != nil {
		return core.Activity{}, fmt.Errorf("marshal activity details: %w", err)
	}

	activity := core.Activity{
		ID:        GenerateID("act"),
		Timestamp: time.Now().UTC(),
		Category:  draft.Category,
		Name:      draft.Name,
		CarbonKg:  draft.CarbonKg,
		Product:   draft.Product,
		Transport: draft.Transport,
		Energy:    draft.Energy,
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Activity{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO activities (id, date, created_at, category, name, carbon_kg, details)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		activity.ID, date, activity.Timestamp, activity.Category.String(),
		activity.Name, activity.CarbonKg, string(details))
	if err != nil {
		return core.Activity{}, fmt.Errorf("insert activity: %w", err)
	}

	// Capture the budget in force the first time this date receives an
	// activity; later writes leave it untouched.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO daily_logs (date, budget_kg) VALUES (?, ?)
		 ON CONFLICT(date) DO NOTHING`,
		date, budgetKg)
	if err != nil {
		return core.Activity{}, fmt.Errorf("seed daily log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Activity{}, fmt.Errorf("commit activity: %w", err)
	}

	slog.InfoContext(ctx, "Activity saved to SQLite",
		"id", activity.ID,
		"date", date,
		"category", activity.Category,
		"carbon_kg", activity.CarbonKg)

	return activity, nil
}

// RemoveActivity implements store.ActivityStore.
func (r *SQLiteRepository) RemoveActivity(ctx context.Context, id, date string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM activities WHERE id = ? AND date = ?`, id, date)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete activity rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrUnknownActivity
	}

	slog.InfoContext(ctx, "Activity deleted from SQLite", "id", id, "date", date)
	return nil
}

func (r *SQLiteRepository) scanActivities(rows *sql.Rows) (map[string][]core.Activity, error) {
	byDate := make(map[string][]core.Activity)
	for rows.Next() {
		var (
			a          core.Activity
			date       string
			category   string
			rawDetails string
		)
		if err := rows.Scan(&a.ID, &date, &a.Timestamp, &category, &a.Name, &a.CarbonKg, &rawDetails); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		a.Category = core.Category(category)

		var details activityDetails
		if err := json.Unmarshal([]byte(rawDetails), &details); err != nil {
			return nil, fmt.Errorf("unmarshal activity details (id=%s): %w", a.ID, err)
		}
		a.Product = details.Product
		a.Transport = details.Transport
		a.Energy = details.Energy

		byDate[date] = append(byDate[date], a)
	}
	return byDate, rows.Err()
}

func (r *SQLiteRepository) dateBudgets(ctx context.Context) (map[string]float64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT date, budget_kg FROM daily_logs`)
	if err != nil {
		return nil, fmt.Errorf("query date budgets: %w", err)
	}
	defer rows.Close()

	budgets := make(map[string]float64)
	for rows.Next() {
		var (
			date   string
			budget float64
		)
		if err := rows.Scan(&date, &budget); err != nil {
			return nil, fmt.Errorf("scan budget row: %w", err)
		}
		budgets[date] = budget
	}
	return budgets, rows.Err()
}

// AllDailyLogs implements store.ActivityStore. Logs are rebuilt from the
// activities table rather than trusting snapshots, so a stale snapshot can
// never leak into the ledger's view.
func (r *SQLiteRepository) AllDailyLogs(ctx context.Context) (map[string]core.DailyLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, created_at, category, name, carbon_kg, details
		 FROM activities ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	byDate, err := r.scanActivities(rows)
	if err != nil {
		return nil, err
	}

	budgets, err := r.dateBudgets(ctx)
	if err != nil {
		return nil, err
	}

	logs := make(map[string]core.DailyLog, len(byDate))
	for date, activities := range byDate {
		logs[date] = core.BuildDailyLog(date, activities, budgets[date])
	}
	return logs, nil
}

// DailyLog implements store.ActivityStore. ok is false only for dates that
// never received a write: a date whose activities were all removed still
// exists, with zero totals and the budget captured at its first write.
func (r *SQLiteRepository) DailyLog(ctx context.Context, date string) (core.DailyLog, bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, created_at, category, name, carbon_kg, details
		 FROM activities WHERE date = ? ORDER BY created_at DESC`, date)
	if err != nil {
		return core.DailyLog{}, false, fmt.Errorf("query activities for date: %w", err)
	}
	defer rows.Close()

	byDate, err := r.scanActivities(rows)
	if err != nil {
		return core.DailyLog{}, false, err
	}
	activities := byDate[date]

	var budget float64
	err = r.db.QueryRowContext(ctx,
		`SELECT budget_kg FROM daily_logs WHERE date = ?`, date).Scan(&budget)
	if errors.Is(err, sql.ErrNoRows) {
		if len(activities) == 0 {
			return core.DailyLog{}, false, nil
		}
	} else if err != nil {
		return core.DailyLog{}, false, fmt.Errorf("query date budget: %w", err)
	}

	return core.BuildDailyLog(date, activities, budget), true, nil
}

// SaveDailyLog implements store.ActivityStore: the snapshot worker writes
// materialized totals through here.
func (r *SQLiteRepository) SaveDailyLog(ctx context.Context, date string, log core.DailyLog) error {
	totals, err := json.Marshal(log.CategoryTotals)
	if err != nil {
		return fmt.Errorf("marshal category totals: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO daily_logs (date, total_carbon_kg, budget_kg, category_totals, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET
		   total_carbon_kg = excluded.total_carbon_kg,
		   budget_kg = excluded.budget_kg,
		   category_totals = excluded.category_totals,
		   updated_at = excluded.updated_at`,
		date, log.TotalCarbonKg, log.BudgetKg, string(totals), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert daily log: %w", err)
	}

	slog.InfoContext(ctx, "Daily log snapshot saved",
		"date", date, "total_carbon_kg", log.TotalCarbonKg)
	return nil
}

// UserSettings implements store.SettingsStore.
func (r *SQLiteRepository) UserSettings(ctx context.Context) (core.UserSettings, bool, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM user_settings WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserSettings{}, false, nil
	}
	if err != nil {
		return core.UserSettings{}, false, fmt.Errorf("query settings: %w", err)
	}

	var settings core.UserSettings
	if err := json.Unmarshal([]byte(payload), &settings); err != nil {
		return core.UserSettings{}, false, fmt.Errorf("unmarshal settings: %w", err)
	}
	return settings, true, nil
}

// SaveUserSettings implements store.SettingsStore. The whole object is
// written as one row so a settings update either lands whole or not at all.
func (r *SQLiteRepository) SaveUserSettings(ctx context.Context, settings core.UserSettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO user_settings (id, payload) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`,
		string(payload))
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// ScanHistory implements store.ScanHistoryStore.
func (r *SQLiteRepository) ScanHistory(ctx context.Context) ([]core.ScanRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, total_carbon_kg, objects
		 FROM scan_records ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query scan history: %w", err)
	}
	defer rows.Close()

	var records []core.ScanRecord
	for rows.Next() {
		var (
			rec        core.ScanRecord
			rawObjects string
		)
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.TotalCarbonKg, &rawObjects); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		if err := json.Unmarshal([]byte(rawObjects), &rec.Objects); err != nil {
			return nil, fmt.Errorf("unmarshal scan objects (id=%s): %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveScanRecord implements store.ScanHistoryStore.
func (r *SQLiteRepository) SaveScanRecord(ctx context.Context, record core.ScanRecord) (core.ScanRecord, error) {
	if record.ID == "" {
		record.ID = GenerateID("scan")
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	objects, err := json.Marshal(record.Objects)
	if err != nil {
		return core.ScanRecord{}, fmt.Errorf("marshal scan objects: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO scan_records (id, created_at, total_carbon_kg, objects)
		 VALUES (?, ?, ?, ?)`,
		record.ID, record.Timestamp, record.TotalCarbonKg, string(objects))
	if err != nil {
		return core.ScanRecord{}, fmt.Errorf("insert scan record: %w", err)
	}

	slog.InfoContext(ctx, "Scan record saved",
		"id", record.ID, "objects", len(record.Objects), "total_carbon_kg", record.TotalCarbonKg)
	return record, nil
}

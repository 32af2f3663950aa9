package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"carbonledger/internal/core"
)

type (
	scannedObjectJSON struct {
		ID          string  `json:"id,omitempty"`
		Name        string  `json:"name"`
		CarbonKg    float64 `json:"carbon_kg"`
		Severity    string  `json:"severity,omitempty"`
		Description string  `json:"description,omitempty"`
	}

	productDetailsJSON struct {
		Quantity int                 `json:"quantity"`
		Objects  []scannedObjectJSON `json:"objects"`
	}

	transportDetailsJSON struct {
		Mode        string  `json:"mode"`
		DistanceKm  float64 `json:"distance_km"`
		DurationMin int     `json:"duration_min"`
	}

	energyDetailsJSON struct {
		EnergyType string `json:"energy_type"`
		Period     string `json:"period,omitempty"`
		Estimated  bool   `json:"estimated"`
	}

	activityJSON struct {
		ID        string                `json:"id"`
		Timestamp time.Time             `json:"timestamp"`
		Category  string                `json:"category"`
		Name      string                `json:"name"`
		CarbonKg  float64               `json:"carbon_kg"`
		Product   *productDetailsJSON   `json:"product,omitempty"`
		Transport *transportDetailsJSON `json:"transport,omitempty"`
		Energy    *energyDetailsJSON    `json:"energy,omitempty"`
	}

	dailyLogResponse struct {
		Date              string             `json:"date"`
		Activities        []activityJSON     `json:"activities"`
		TotalCarbonKg     float64            `json:"total_carbon_kg"`
		BudgetKg          float64            `json:"budget_kg"`
		CategoryTotals    map[string]float64 `json:"category_totals"`
		RemainingBudget   float64            `json:"remaining_budget"`
		OverBudget        bool               `json:"over_budget"`
		BudgetProgress    float64            `json:"budget_progress"`
		TotalWithBaseline float64            `json:"total_with_baseline"`
	}

	weeklySummaryResponse struct {
		WeekStart       string             `json:"week_start"`
		DailyTotals     [7]float64         `json:"daily_totals"`
		WeekTotal       float64            `json:"week_total"`
		CategoryTotals  map[string]float64 `json:"category_totals"`
		DaysUnderBudget int                `json:"days_under_budget"`
		VsLastWeek      weekComparisonJSON `json:"vs_last_week"`
	}

	weekComparisonJSON struct {
		TotalDeltaKg   float64 `json:"total_delta_kg"`
		PercentChange  float64 `json:"percent_change"`
		DaysUnderDelta int     `json:"days_under_delta"`
	}

	baselineJSON struct {
		Enabled       bool      `json:"enabled"`
		MonthlyAmount float64   `json:"monthly_amount"`
		Unit          string    `json:"unit"`
		DailyAverage  float64   `json:"daily_average"`
		DailyCarbonKg float64   `json:"daily_carbon_kg"`
		LastUpdated   time.Time `json:"last_updated"`
	}

	baselinesResponse struct {
		Electricity        baselineJSON `json:"electricity"`
		NaturalGas         baselineJSON `json:"natural_gas"`
		HeatingOil         baselineJSON `json:"heating_oil"`
		TotalDailyCarbonKg float64      `json:"total_daily_carbon_kg"`
	}

	settingsResponse struct {
		DailyBudgetKg      float64 `json:"daily_budget_kg"`
		TotalScans         int64   `json:"total_scans"`
		TotalCarbonTracked float64 `json:"total_carbon_tracked"`
		Occupants          int     `json:"occupants"`
	}

	scanRecordJSON struct {
		ID            string              `json:"id"`
		Timestamp     time.Time           `json:"timestamp"`
		Objects       []scannedObjectJSON `json:"objects"`
		TotalCarbonKg float64             `json:"total_carbon_kg"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

func toScannedObjectsJSON(objects []core.ScannedObject) []scannedObjectJSON {
	out := make([]scannedObjectJSON, len(objects))
	for i, o := range objects {
		out[i] = scannedObjectJSON{
			ID:          o.ID,
			Name:        o.Name,
			CarbonKg:    o.CarbonKg,
			Severity:    string(o.Severity),
			Description: o.Description,
		}
	}
	return out
}

func toActivityJSON(a core.Activity) activityJSON {
	out := activityJSON{
		ID:        a.ID,
		Timestamp: a.Timestamp,
		Category:  a.Category.String(),
		Name:      a.Name,
		CarbonKg:  a.CarbonKg,
	}
	if a.Product != nil {
		out.Product = &productDetailsJSON{
			Quantity: a.Product.Quantity,
			Objects:  toScannedObjectsJSON(a.Product.Objects),
		}
	}
	if a.Transport != nil {
		out.Transport = &transportDetailsJSON{
			Mode:        a.Transport.Mode,
			DistanceKm:  a.Transport.DistanceKm,
			DurationMin: a.Transport.DurationMin,
		}
	}
	if a.Energy != nil {
		out.Energy = &energyDetailsJSON{
			EnergyType: string(a.Energy.EnergyType),
			Period:     a.Energy.Period,
			Estimated:  a.Energy.Estimated,
		}
	}
	return out
}

func categoryTotalsJSON(totals map[core.Category]float64) map[string]float64 {
	out := make(map[string]float64, len(totals))
	for c, v := range totals {
		out[c.String()] = v
	}
	return out
}

func toDailyLogResponse(log core.DailyLog, totalWithBaseline float64) dailyLogResponse {
	activities := make([]activityJSON, len(log.Activities))
	for i, a := range log.Activities {
		activities[i] = toActivityJSON(a)
	}
	return dailyLogResponse{
		Date:              log.Date,
		Activities:        activities,
		TotalCarbonKg:     log.TotalCarbonKg,
		BudgetKg:          log.BudgetKg,
		CategoryTotals:    categoryTotalsJSON(log.CategoryTotals),
		RemainingBudget:   core.RemainingBudget(log),
		OverBudget:        core.IsOverBudget(log),
		BudgetProgress:    core.BudgetProgress(log),
		TotalWithBaseline: totalWithBaseline,
	}
}

func toWeeklySummaryResponse(s core.WeeklySummary) weeklySummaryResponse {
	return weeklySummaryResponse{
		WeekStart:       core.DateKey(s.WeekStart),
		DailyTotals:     s.DailyTotals,
		WeekTotal:       s.WeekTotal,
		CategoryTotals:  categoryTotalsJSON(s.CategoryTotals),
		DaysUnderBudget: s.DaysUnderBudget,
		VsLastWeek: weekComparisonJSON{
			TotalDeltaKg:   s.VsLastWeek.TotalDeltaKg,
			PercentChange:  s.VsLastWeek.PercentChange,
			DaysUnderDelta: s.VsLastWeek.DaysUnderDelta,
		},
	}
}

func toBaselineJSON(b core.EnergyBaseline) baselineJSON {
	return baselineJSON{
		Enabled:       b.Enabled,
		MonthlyAmount: b.MonthlyAmount,
		Unit:          b.Unit,
		DailyAverage:  b.DailyAverage,
		DailyCarbonKg: b.DailyCarbonKg,
		LastUpdated:   b.LastUpdated,
	}
}

func toBaselinesResponse(b core.EnergyBaselines) baselinesResponse {
	return baselinesResponse{
		Electricity:        toBaselineJSON(b.Electricity),
		NaturalGas:         toBaselineJSON(b.NaturalGas),
		HeatingOil:         toBaselineJSON(b.HeatingOil),
		TotalDailyCarbonKg: b.TotalDailyCarbonKg,
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

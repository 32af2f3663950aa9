package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"carbonledger/internal/core"
	"carbonledger/internal/ledger"
)

type (
	addActivityRequest struct {
		Category  string                `json:"category"`
		Name      string                `json:"name"`
		CarbonKg  float64               `json:"carbon_kg"`
		Date      string                `json:"date,omitempty"`
		Transport *transportDetailsJSON `json:"transport,omitempty"`
		Energy    *energyDetailsJSON    `json:"energy,omitempty"`
	}

	addScanRequest struct {
		Date    string              `json:"date,omitempty"`
		Objects []scannedObjectJSON `json:"objects"`
	}

	updateBaselineRequest struct {
		MonthlyAmount float64 `json:"monthly_amount"`
		DaysInPeriod  int     `json:"days_in_period,omitempty"`
	}

	updateSettingsRequest struct {
		DailyBudgetKg *float64 `json:"daily_budget_kg,omitempty"`
		Occupants     *int     `json:"occupants,omitempty"`
	}

	createdResponse struct {
		ID   string `json:"id"`
		Date string `json:"date"`
	}
)

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func parseDateParam(w http.ResponseWriter, date string) bool {
	if _, err := core.ParseDateKey(date); err != nil {
		respondError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return false
	}
	return true
}

func (s *Server) dailyLogView(date string) dailyLogResponse {
	if cached, ok := s.logCache.Get(date); ok {
		return cached
	}
	resp := toDailyLogResponse(s.ledger.LogForDate(date), s.ledger.TotalWithBaseline(date))
	s.logCache.Set(date, resp)
	return resp
}

func (s *Server) handleTodayLog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.dailyLogView(s.ledger.Today()))
}

func (s *Server) handleLogForDate(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if !parseDateParam(w, date) {
		return
	}
	respondJSON(w, http.StatusOK, s.dailyLogView(date))
}

func (s *Server) handleWeeklySummary(w http.ResponseWriter, r *http.Request) {
	const key = "current"
	if cached, ok := s.weekCache.Get(key); ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}
	resp := toWeeklySummaryResponse(s.ledger.WeeklySummary())
	s.weekCache.Set(key, resp)
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if !parseDateParam(w, date) {
		return
	}
	log := s.ledger.LogForDate(date)
	respondJSON(w, http.StatusOK, struct {
		Date              string  `json:"date"`
		BudgetKg          float64 `json:"budget_kg"`
		TotalCarbonKg     float64 `json:"total_carbon_kg"`
		RemainingBudget   float64 `json:"remaining_budget"`
		OverBudget        bool    `json:"over_budget"`
		BudgetProgress    float64 `json:"budget_progress"`
		TotalWithBaseline float64 `json:"total_with_baseline"`
	}{
		Date:              date,
		BudgetKg:          log.BudgetKg,
		TotalCarbonKg:     log.TotalCarbonKg,
		RemainingBudget:   core.RemainingBudget(log),
		OverBudget:        core.IsOverBudget(log),
		BudgetProgress:    core.BudgetProgress(log),
		TotalWithBaseline: s.ledger.TotalWithBaseline(date),
	})
}

func (s *Server) handleAddActivity(w http.ResponseWriter, r *http.Request) {
	var req addActivityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Date != "" && !parseDateParam(w, req.Date) {
		return
	}

	draft := core.ActivityDraft{
		Category: core.Category(req.Category),
		Name:     req.Name,
		CarbonKg: req.CarbonKg,
	}
	if req.Transport != nil {
		draft.Transport = &core.TransportDetails{
			Mode:        req.Transport.Mode,
			DistanceKm:  req.Transport.DistanceKm,
			DurationMin: req.Transport.DurationMin,
		}
	}
	if req.Energy != nil {
		draft.Energy = &core.EnergyDetails{
			EnergyType: core.EnergyType(req.Energy.EnergyType),
			Period:     req.Energy.Period,
			Estimated:  req.Energy.Estimated,
		}
	}

	activity, err := s.ledger.AddActivity(r.Context(), draft, req.Date)
	if err != nil {
		s.respondMutationError(w, r, "add activity", err)
		return
	}

	date := req.Date
	if date == "" {
		date = s.ledger.Today()
	}
	s.invalidateDate(date)
	respondJSON(w, http.StatusCreated, createdResponse{ID: activity.ID, Date: date})
}

func (s *Server) handleRemoveActivity(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	date := r.URL.Query().Get("date")
	if !parseDateParam(w, date) {
		return
	}

	if err := s.ledger.RemoveActivity(r.Context(), id, date); err != nil {
		s.respondMutationError(w, r, "remove activity", err)
		return
	}

	s.invalidateDate(date)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddProductScan(w http.ResponseWriter, r *http.Request) {
	var req addScanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Date != "" && !parseDateParam(w, req.Date) {
		return
	}
	if len(req.Objects) == 0 {
		respondError(w, http.StatusUnprocessableEntity, "scan must contain at least one object")
		return
	}

	objects := make([]core.ScannedObject, len(req.Objects))
	for i, o := range req.Objects {
		objects[i] = core.ScannedObject{
			ID:          o.ID,
			Name:        o.Name,
			CarbonKg:    o.CarbonKg,
			Severity:    core.Severity(o.Severity),
			Description: o.Description,
		}
	}

	activity, err := s.ledger.AddProductScan(r.Context(), objects, req.Date)
	if err != nil {
		s.respondMutationError(w, r, "add product scan", err)
		return
	}

	date := req.Date
	if date == "" {
		date = s.ledger.Today()
	}
	s.invalidateDate(date)
	respondJSON(w, http.StatusCreated, createdResponse{ID: activity.ID, Date: date})
}

func (s *Server) handleScansForDate(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = s.ledger.Today()
	}
	if !parseDateParam(w, date) {
		return
	}

	records := s.ledger.ScansForDate(date)
	out := make([]scanRecordJSON, len(records))
	for i, rec := range records {
		out[i] = scanRecordJSON{
			ID:            rec.ID,
			Timestamp:     rec.Timestamp,
			Objects:       toScannedObjectsJSON(rec.Objects),
			TotalCarbonKg: rec.TotalCarbonKg,
		}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddEnergyActivity(w http.ResponseWriter, r *http.Request) {
	var req addActivityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	draft := core.ActivityDraft{
		Category: core.CategoryEnergy,
		Name:     req.Name,
		CarbonKg: req.CarbonKg,
	}
	if req.Energy != nil {
		draft.Energy = &core.EnergyDetails{
			EnergyType: core.EnergyType(req.Energy.EnergyType),
			Period:     req.Energy.Period,
			Estimated:  req.Energy.Estimated,
		}
	}

	id, err := s.ledger.AddEnergyActivity(r.Context(), draft)
	if err != nil {
		s.respondMutationError(w, r, "add energy activity", err)
		return
	}

	today := s.ledger.Today()
	s.invalidateDate(today)
	respondJSON(w, http.StatusCreated, createdResponse{ID: id, Date: today})
}

func (s *Server) handleGetBaselines(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, toBaselinesResponse(s.ledger.Baselines()))
}

func (s *Server) handleUpdateBaseline(w http.ResponseWriter, r *http.Request) {
	typ := core.EnergyType(r.PathValue("type"))
	var req updateBaselineRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	baselines, err := s.ledger.UpdateBaseline(r.Context(), typ, req.MonthlyAmount, req.DaysInPeriod)
	if err != nil {
		s.respondMutationError(w, r, "update baseline", err)
		return
	}

	// Baseline totals feed every with-baseline view.
	s.logCache.Flush()
	s.weekCache.Flush()
	respondJSON(w, http.StatusOK, toBaselinesResponse(baselines))
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	settings := s.ledger.Settings()
	respondJSON(w, http.StatusOK, settingsResponse{
		DailyBudgetKg:      settings.DailyBudgetKg,
		TotalScans:         settings.TotalScans,
		TotalCarbonTracked: settings.TotalCarbonTracked,
		Occupants:          settings.Occupants,
	})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.DailyBudgetKg != nil {
		if err := s.ledger.SetDailyBudget(r.Context(), *req.DailyBudgetKg); err != nil {
			s.respondMutationError(w, r, "set daily budget", err)
			return
		}
	}
	if req.Occupants != nil {
		if err := s.ledger.SetOccupants(r.Context(), *req.Occupants); err != nil {
			s.respondMutationError(w, r, "set occupants", err)
			return
		}
	}

	// Budget changes affect synthesized logs for every date.
	s.logCache.Flush()
	s.weekCache.Flush()
	s.handleGetSettings(w, r)
}

func (s *Server) respondMutationError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, core.ErrUnknownActivity):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidCategory),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyDate),
		errors.Is(err, ledger.ErrInvalidEnergyType),
		errors.Is(err, ledger.ErrInvalidBudget),
		errors.Is(err, ledger.ErrInvalidOccupants):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Mutation failed", "action", action, "error", err)
		respondError(w, http.StatusInternalServerError, "persistence failure")
	}
}

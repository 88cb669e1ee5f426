package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"prodstat/analytics"
	"prodstat/charting"
	"prodstat/config"
	"prodstat/database"
	"prodstat/etl"
	"prodstat/mart"
	"prodstat/reports"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	db          *database.DB
	repo        *database.Repository
	cfg         *config.Config
	capacity    *reports.CapacityService
	recompute   *reports.RecomputeService
	pareto      *reports.ParetoService
	charts      *reports.ChartService
	martBuilder *mart.Builder
	generator   *charting.Generator
}

func NewHandler(db *database.DB, repo *database.Repository, cfg *config.Config,
	capacity *reports.CapacityService, recompute *reports.RecomputeService,
	pareto *reports.ParetoService, charts *reports.ChartService,
	martBuilder *mart.Builder) *Handler {
	return &Handler{
		db:          db,
		repo:        repo,
		cfg:         cfg,
		capacity:    capacity,
		recompute:   recompute,
		pareto:      pareto,
		charts:      charts,
		martBuilder: martBuilder,
		generator:   charting.NewGenerator(),
	}
}

// HealthCheck reports database reachability and table counts.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Lake.Ping(); err != nil {
		respondError(w, http.StatusServiceUnavailable, "lake database health check failed")
		return
	}
	if err := h.db.App.Ping(); err != nil {
		respondError(w, http.StatusServiceUnavailable, "app database health check failed")
		return
	}

	stats := make(map[string]int64)
	for _, t := range []struct {
		name    string
		fromApp bool
	}{
		{"production_plans", false},
		{"downtime_events", false},
		{"rejection_events", false},
		{"loss_time_summaries", true},
		{"oee_records", true},
	} {
		db := h.db.Lake
		if t.fromApp {
			db = h.db.App
		}
		var count int64
		if err := db.QueryRow("SELECT COUNT(*) FROM " + t.name).Scan(&count); err != nil {
			stats[t.name] = 0
		} else {
			stats[t.name] = count
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"stats":  stats,
	})
}

// GetCapacity answers a capacity check for a plan slot.
// Query params: date, shift_id, sequence, cycle_time_sec, exclude_plan_id.
func (h *Handler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	shiftID, err := strconv.ParseInt(q.Get("shift_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid or missing shift_id")
		return
	}
	sequence, err := strconv.Atoi(q.Get("sequence"))
	if err != nil || sequence < 1 {
		respondError(w, http.StatusBadRequest, "invalid or missing sequence")
		return
	}
	date := q.Get("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		respondError(w, http.StatusBadRequest, "invalid or missing date (want YYYY-MM-DD)")
		return
	}

	req := reports.CapacityRequest{
		PlanDate:       date,
		ShiftID:        shiftID,
		TargetSequence: sequence,
	}
	if v := q.Get("cycle_time_sec"); v != "" {
		if req.CycleTimeSec, err = strconv.Atoi(v); err != nil {
			respondError(w, http.StatusBadRequest, "invalid cycle_time_sec")
			return
		}
	}
	if v := q.Get("exclude_plan_id"); v != "" {
		if req.ExcludePlanID, err = strconv.ParseInt(v, 10, 64); err != nil {
			respondError(w, http.StatusBadRequest, "invalid exclude_plan_id")
			return
		}
	}

	cap, err := h.capacity.AvailableTime(r.Context(), req)
	if err != nil {
		if reports.IsNotFound(err) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("capacity check failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, cap)
}

// RecomputePlan recomputes loss time and OEE for one plan synchronously.
func (h *Handler) RecomputePlan(w http.ResponseWriter, r *http.Request) {
	planID, err := strconv.ParseInt(mux.Vars(r)["planId"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid plan id")
		return
	}

	rec, err := h.recompute.RecomputePlan(r.Context(), planID)
	if err != nil {
		if reports.IsNotFound(err) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("recompute failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// RecomputeBatch queues recomputation of all closed plans matching the
// filter and returns a job id.
func (h *Handler) RecomputeBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		LineID    int64  `json:"line_id"`
		ShiftID   int64  `json:"shift_id"`
	}
	if r.Body != nil {
		// An empty body means "everything".
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	jobID, err := h.recompute.RecomputeClosedPlans(r.Context(), database.Filter{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		LineID:    req.LineID,
		ShiftID:   req.ShiftID,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to queue recompute: %v", err))
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": reports.JobPending,
	})
}

// GetRecomputeStatus reports progress of a batch job.
func (h *Handler) GetRecomputeStatus(w http.ResponseWriter, r *http.Request) {
	job, err := h.recompute.JobStatus(mux.Vars(r)["jobId"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// GetOEEReport returns the flat per-plan OEE table.
func (h *Handler) GetOEEReport(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.repo.OEEReportRows(r.Context(), f)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("report failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(rows),
		"rows":  rows,
	})
}

// GetDowntimePareto returns the ranked downtime categories.
func (h *Handler) GetDowntimePareto(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.pareto.DowntimePareto(r.Context(), f)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("pareto failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// GetRejectionPareto returns the ranked rejection criteria.
func (h *Handler) GetRejectionPareto(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.pareto.RejectionPareto(r.Context(), f)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("pareto failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// GetAchievementReport returns the achievement matrix as JSON.
func (h *Handler) GetAchievementReport(w http.ResponseWriter, r *http.Request) {
	h.respondBuckets(w, r, h.charts.AchievementBuckets)
}

// GetLossTimeReport returns downtime minutes per (date, shift) as JSON.
func (h *Handler) GetLossTimeReport(w http.ResponseWriter, r *http.Request) {
	h.respondBuckets(w, r, h.charts.LossTimeBuckets)
}

func (h *Handler) respondBuckets(w http.ResponseWriter, r *http.Request,
	fetch func(ctx context.Context, f database.Filter) (analytics.Buckets, error)) {
	f, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	buckets, err := fetch(r.Context(), f)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("report failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, buckets)
}

func (h *Handler) GetAchievementChart(w http.ResponseWriter, r *http.Request) {
	h.renderTrend(w, r, "Achievement Rate", "%", h.charts.AchievementBuckets)
}

func (h *Handler) GetOEEChart(w http.ResponseWriter, r *http.Request) {
	h.renderTrend(w, r, "OEE", "%", h.charts.OEEBuckets)
}

func (h *Handler) GetRejectionChart(w http.ResponseWriter, r *http.Request) {
	h.renderTrend(w, r, "Rejected Quantity", "pcs", h.charts.RejectionBuckets)
}

func (h *Handler) GetLossTimeChart(w http.ResponseWriter, r *http.Request) {
	h.renderTrend(w, r, "Loss Time", "minutes", h.charts.LossTimeBuckets)
}

// GetDowntimeParetoChart renders the downtime Pareto as a PNG bar chart.
func (h *Handler) GetDowntimeParetoChart(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.pareto.DowntimePareto(r.Context(), f)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("pareto failed: %v", err))
		return
	}

	png, err := h.generator.GeneratePareto("Downtime Pareto", "minutes", entries)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// IngestData pulls a window of history from the MES source.
func (h *Handler) IngestData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start_date (want YYYY-MM-DD)")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid end_date (want YYYY-MM-DD)")
		return
	}

	ingestor := etl.NewIngestor(h.cfg, h.repo)
	counts, err := ingestor.Ingest(r.Context(), start, end)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("ingestion failed: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "success",
		"records_inserted": counts,
	})
}

// SeedData generates a demo dataset.
func (h *Handler) SeedData(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.Seed.Enabled {
		respondError(w, http.StatusForbidden, "seeding is disabled by config")
		return
	}

	seeder := etl.NewSeeder(&h.cfg.Seed, h.repo)
	counts, err := seeder.Seed(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("seeding failed: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "success",
		"records_inserted": counts,
	})
}

// RefreshMart rebuilds plan_daily_stats.
func (h *Handler) RefreshMart(w http.ResponseWriter, r *http.Request) {
	if err := h.martBuilder.Refresh(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("mart refresh failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// GetMartStats summarizes the rollup.
func (h *Handler) GetMartStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.martBuilder.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("mart stats failed: %v", err))
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) renderTrend(w http.ResponseWriter, r *http.Request, title, yLabel string,
	fetch func(ctx context.Context, f database.Filter) (analytics.Buckets, error)) {
	f, err := parseFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	buckets, err := fetch(r.Context(), f)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("chart data failed: %v", err))
		return
	}

	png, err := h.generator.GenerateTrend(title, yLabel, buckets)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// parseFilter reads the common report query parameters.
func parseFilter(r *http.Request) (database.Filter, error) {
	q := r.URL.Query()
	f := database.Filter{
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
		Department: q.Get("department"),
	}

	if f.StartDate != "" {
		if _, err := time.Parse("2006-01-02", f.StartDate); err != nil {
			return f, fmt.Errorf("invalid start_date (want YYYY-MM-DD)")
		}
	}
	if f.EndDate != "" {
		if _, err := time.Parse("2006-01-02", f.EndDate); err != nil {
			return f, fmt.Errorf("invalid end_date (want YYYY-MM-DD)")
		}
	}

	for _, p := range []struct {
		name string
		dst  *int64
	}{
		{"plant_id", &f.PlantID},
		{"line_id", &f.LineID},
		{"shift_id", &f.ShiftID},
		{"machine_id", &f.MachineID},
	} {
		if v := q.Get(p.name); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return f, fmt.Errorf("invalid %s", p.name)
			}
			*p.dst = id
		}
	}
	return f, nil
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

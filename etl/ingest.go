package etl

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"prodstat/config"
	"prodstat/database"
)

// Ingestor pulls production history from the MES Postgres database into
// the lake. Each run covers a time window of plan dates; rows already in
// the lake for that window make the insert fail, so callers are expected
// to ingest disjoint windows (the scheduler advances a watermark).
type Ingestor struct {
	config *config.Config
	repo   *database.Repository
}

func NewIngestor(cfg *config.Config, repo *database.Repository) *Ingestor {
	return &Ingestor{config: cfg, repo: repo}
}

// Ingest copies plans and their events for plan dates in [start, end]
// from the MES source and returns per-table row counts.
func (in *Ingestor) Ingest(ctx context.Context, start, end time.Time) (map[string]int, error) {
	src, err := sql.Open("postgres", in.config.SourceDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open source database: %w", err)
	}
	defer src.Close()

	if err := src.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("source database unreachable: %w", err)
	}

	startDate := start.Format("2006-01-02")
	endDate := end.Format("2006-01-02")

	plans, err := in.fetchPlans(ctx, src, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return map[string]int{}, nil
	}
	if err := in.repo.InsertPlans(plans); err != nil {
		return nil, fmt.Errorf("failed to load plans: %w", err)
	}

	planIDs := make([]int64, 0, len(plans))
	for _, p := range plans {
		planIDs = append(planIDs, p.ID)
	}

	counts := map[string]int{"production_plans": len(plans)}

	downtime, err := in.fetchDowntime(ctx, src, planIDs)
	if err != nil {
		return nil, err
	}
	if err := in.repo.InsertDowntimeEvents(downtime); err != nil {
		return nil, fmt.Errorf("failed to load downtime events: %w", err)
	}
	counts["downtime_events"] = len(downtime)

	planned, err := in.fetchPlannedDowntime(ctx, src, planIDs)
	if err != nil {
		return nil, err
	}
	if err := in.repo.InsertPlannedDowntimeEvents(planned); err != nil {
		return nil, fmt.Errorf("failed to load planned downtime events: %w", err)
	}
	counts["planned_downtime_events"] = len(planned)

	rejections, err := in.fetchRejections(ctx, src, planIDs)
	if err != nil {
		return nil, err
	}
	if err := in.repo.InsertRejectionEvents(rejections); err != nil {
		return nil, fmt.Errorf("failed to load rejection events: %w", err)
	}
	counts["rejection_events"] = len(rejections)

	return counts, nil
}

func (in *Ingestor) fetchPlans(ctx context.Context, src *sql.DB, startDate, endDate string) ([]database.ProductionPlan, error) {
	rows, err := src.QueryContext(ctx, `
		SELECT id, plant_id, line_id, shift_id, plan_date, sequence, part_no,
		       cycle_time_sec, planned_qty, actual_qty, ng_qty, status,
		       started_at, completed_at
		FROM mes_production_plans
		WHERE plan_date BETWEEN $1 AND $2`, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query source plans: %w", err)
	}
	defer rows.Close()

	var plans []database.ProductionPlan
	for rows.Next() {
		var p database.ProductionPlan
		var planDate time.Time
		var status string
		err := rows.Scan(&p.ID, &p.PlantID, &p.LineID, &p.ShiftID, &planDate,
			&p.Sequence, &p.PartNo, &p.CycleTimeSec, &p.PlannedQty,
			&p.ActualQty, &p.NGQty, &status, &p.StartedAt, &p.CompletedAt)
		if err != nil {
			return nil, err
		}
		p.PlanDate = planDate.Format("2006-01-02")
		p.Status = database.PlanStatus(status)
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (in *Ingestor) fetchDowntime(ctx context.Context, src *sql.DB, planIDs []int64) ([]database.DowntimeEvent, error) {
	rows, err := src.QueryContext(ctx, `
		SELECT id, plan_id, kind, start_time, end_time, duration_sec, category_id, machine_id
		FROM mes_downtime_log
		WHERE plan_id = ANY($1)`, pq.Array(planIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query source downtime: %w", err)
	}
	defer rows.Close()

	var events []database.DowntimeEvent
	for rows.Next() {
		var e database.DowntimeEvent
		var kind string
		err := rows.Scan(&e.ID, &e.PlanID, &kind, &e.StartTime, &e.EndTime,
			&e.DurationSec, &e.CategoryID, &e.MachineID)
		if err != nil {
			return nil, err
		}
		e.Kind = database.DowntimeKind(kind)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (in *Ingestor) fetchPlannedDowntime(ctx context.Context, src *sql.DB, planIDs []int64) ([]database.PlannedDowntimeEvent, error) {
	rows, err := src.QueryContext(ctx, `
		SELECT id, plan_id, category_id, start_time, duration_sec, over_pdt_duration_sec
		FROM mes_planned_downtime
		WHERE plan_id = ANY($1)`, pq.Array(planIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query source planned downtime: %w", err)
	}
	defer rows.Close()

	var events []database.PlannedDowntimeEvent
	for rows.Next() {
		var e database.PlannedDowntimeEvent
		err := rows.Scan(&e.ID, &e.PlanID, &e.CategoryID, &e.StartTime,
			&e.DurationSec, &e.OverPDTDurationSec)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (in *Ingestor) fetchRejections(ctx context.Context, src *sql.DB, planIDs []int64) ([]database.RejectionEvent, error) {
	rows, err := src.QueryContext(ctx, `
		SELECT id, plan_id, occurred_at, qty, criteria_id
		FROM mes_rejection_log
		WHERE plan_id = ANY($1)`, pq.Array(planIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query source rejections: %w", err)
	}
	defer rows.Close()

	var events []database.RejectionEvent
	for rows.Next() {
		var e database.RejectionEvent
		if err := rows.Scan(&e.ID, &e.PlanID, &e.OccurredAt, &e.Qty, &e.CriteriaID); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

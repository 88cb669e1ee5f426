package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Filter narrows report queries. Zero values mean "no filter" for that
// dimension. Dates are inclusive plan_date bounds in YYYY-MM-DD form.
type Filter struct {
	StartDate  string
	EndDate    string
	PlantID    int64
	LineID     int64
	ShiftID    int64
	Department string
	MachineID  int64
}

func (f Filter) planPredicate() (string, []interface{}) {
	where := " WHERE p.deleted_at IS NULL"
	var args []interface{}

	if f.StartDate != "" {
		where += " AND p.plan_date >= ?"
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		where += " AND p.plan_date <= ?"
		args = append(args, f.EndDate)
	}
	if f.PlantID != 0 {
		where += " AND p.plant_id = ?"
		args = append(args, f.PlantID)
	}
	if f.LineID != 0 {
		where += " AND p.line_id = ?"
		args = append(args, f.LineID)
	}
	if f.ShiftID != 0 {
		where += " AND p.shift_id = ?"
		args = append(args, f.ShiftID)
	}
	return where, args
}

func scanPlans(rows *sql.Rows) ([]ProductionPlan, error) {
	var plans []ProductionPlan
	for rows.Next() {
		var p ProductionPlan
		var status string
		err := rows.Scan(&p.ID, &p.PlantID, &p.LineID, &p.ShiftID, &p.PlanDate,
			&p.Sequence, &p.PartNo, &p.CycleTimeSec, &p.PlannedQty, &p.ActualQty,
			&p.NGQty, &status, &p.StartedAt, &p.CompletedAt)
		if err != nil {
			return nil, err
		}
		p.Status = PlanStatus(status)
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

const planColumns = `p.id, p.plant_id, p.line_id, p.shift_id, p.plan_date,
	p.sequence, p.part_no, p.cycle_time_sec, p.planned_qty, p.actual_qty,
	p.ng_qty, p.status, p.started_at, p.completed_at`

func (r *Repository) PlanByID(ctx context.Context, id int64) (*ProductionPlan, error) {
	query := `SELECT ` + planColumns + ` FROM production_plans p
		WHERE p.id = ? AND p.deleted_at IS NULL`
	rows, err := r.db.Lake.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan %d: %w", id, err)
	}
	defer rows.Close()

	plans, err := scanPlans(rows)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, nil
	}
	return &plans[0], nil
}

// PlansForShiftDay returns the live plans competing for one shift's
// loading time, in allocation order. Canceled plans hold no capacity.
func (r *Repository) PlansForShiftDay(ctx context.Context, planDate string, lineID, shiftID int64) ([]ProductionPlan, error) {
	query := `SELECT ` + planColumns + ` FROM production_plans p
		WHERE p.plan_date = ? AND p.line_id = ? AND p.shift_id = ?
		  AND p.status != ? AND p.deleted_at IS NULL
		ORDER BY p.sequence ASC`
	rows, err := r.db.Lake.QueryContext(ctx, query, planDate, lineID, shiftID, string(PlanCanceled))
	if err != nil {
		return nil, fmt.Errorf("failed to query plans for %s: %w", planDate, err)
	}
	defer rows.Close()
	return scanPlans(rows)
}

// ClosedPlans returns the plans in scope for batch recomputation.
func (r *Repository) ClosedPlans(ctx context.Context, f Filter) ([]ProductionPlan, error) {
	where, args := f.planPredicate()
	query := `SELECT ` + planColumns + ` FROM production_plans p` + where +
		` AND p.status = ? ORDER BY p.plan_date ASC, p.sequence ASC`
	args = append(args, string(PlanClosed))

	rows, err := r.db.Lake.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed plans: %w", err)
	}
	defer rows.Close()
	return scanPlans(rows)
}

func (r *Repository) DowntimeByPlan(ctx context.Context, planID int64) ([]DowntimeEvent, error) {
	rows, err := r.db.Lake.QueryContext(ctx, `
		SELECT id, plan_id, kind, start_time, end_time, duration_sec, category_id, machine_id
		FROM downtime_events
		WHERE plan_id = ? AND deleted_at IS NULL`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query downtime for plan %d: %w", planID, err)
	}
	defer rows.Close()

	var events []DowntimeEvent
	for rows.Next() {
		var e DowntimeEvent
		var kind string
		err := rows.Scan(&e.ID, &e.PlanID, &kind, &e.StartTime, &e.EndTime,
			&e.DurationSec, &e.CategoryID, &e.MachineID)
		if err != nil {
			return nil, err
		}
		e.Kind = DowntimeKind(kind)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *Repository) PlannedDowntimeByPlan(ctx context.Context, planID int64) ([]PlannedDowntimeEvent, error) {
	rows, err := r.db.Lake.QueryContext(ctx, `
		SELECT id, plan_id, category_id, start_time, duration_sec, over_pdt_duration_sec
		FROM planned_downtime_events
		WHERE plan_id = ? AND deleted_at IS NULL`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query planned downtime for plan %d: %w", planID, err)
	}
	defer rows.Close()

	var events []PlannedDowntimeEvent
	for rows.Next() {
		var e PlannedDowntimeEvent
		err := rows.Scan(&e.ID, &e.PlanID, &e.CategoryID, &e.StartTime,
			&e.DurationSec, &e.OverPDTDurationSec)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// RejectionsByPlan returns the rejection events recorded against one plan.
func (r *Repository) RejectionsByPlan(ctx context.Context, planID int64) ([]RejectionEvent, error) {
	rows, err := r.db.Lake.QueryContext(ctx, `
		SELECT id, plan_id, occurred_at, qty, criteria_id
		FROM rejection_events
		WHERE plan_id = ? AND deleted_at IS NULL`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rejections for plan %d: %w", planID, err)
	}
	defer rows.Close()

	var events []RejectionEvent
	for rows.Next() {
		var e RejectionEvent
		if err := rows.Scan(&e.ID, &e.PlanID, &e.OccurredAt, &e.Qty, &e.CriteriaID); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DowntimeInRange joins downtime events against their plans in the lake
// and resolves category and shift metadata from the app db in Go. The
// department and machine filters apply here, not to the plan predicate.
func (r *Repository) DowntimeInRange(ctx context.Context, f Filter) ([]DowntimeEventDetail, error) {
	where, args := f.planPredicate()
	query := `
		SELECT e.id, e.plan_id, e.kind, e.start_time, e.end_time, e.duration_sec,
		       e.category_id, e.machine_id, p.plan_date, p.line_id, p.shift_id
		FROM downtime_events e
		JOIN production_plans p ON p.id = e.plan_id` + where +
		` AND e.deleted_at IS NULL`
	if f.MachineID != 0 {
		query += " AND e.machine_id = ?"
		args = append(args, f.MachineID)
	}

	rows, err := r.db.Lake.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query downtime events: %w", err)
	}
	defer rows.Close()

	var details []DowntimeEventDetail
	for rows.Next() {
		var d DowntimeEventDetail
		var kind string
		var shiftID int64
		err := rows.Scan(&d.ID, &d.PlanID, &kind, &d.StartTime, &d.EndTime,
			&d.DurationSec, &d.CategoryID, &d.MachineID, &d.PlanDate, &d.LineID, &shiftID)
		if err != nil {
			return nil, err
		}
		d.Kind = DowntimeKind(kind)
		d.ShiftID = shiftID
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cats, err := r.downtimeCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load downtime categories: %w", err)
	}
	numbers, err := r.shiftNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load shift numbers: %w", err)
	}

	out := details[:0]
	for _, d := range details {
		if c, ok := cats[d.CategoryID]; ok {
			d.CategoryName = c.Name
			d.CategoryKind = c.Kind
			d.Department = c.Department
		}
		if f.Department != "" && d.Department != f.Department {
			continue
		}
		d.ShiftNumber = numbers[d.ShiftID]
		out = append(out, d)
	}
	return out, nil
}

// RejectionsInRange is the rejection-side counterpart of DowntimeInRange.
func (r *Repository) RejectionsInRange(ctx context.Context, f Filter) ([]RejectionEventDetail, error) {
	where, args := f.planPredicate()
	query := `
		SELECT e.id, e.plan_id, e.occurred_at, e.qty, e.criteria_id,
		       p.plan_date, p.line_id, p.shift_id
		FROM rejection_events e
		JOIN production_plans p ON p.id = e.plan_id` + where +
		` AND e.deleted_at IS NULL`

	rows, err := r.db.Lake.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rejection events: %w", err)
	}
	defer rows.Close()

	var details []RejectionEventDetail
	for rows.Next() {
		var d RejectionEventDetail
		var shiftID int64
		err := rows.Scan(&d.ID, &d.PlanID, &d.OccurredAt, &d.Qty, &d.CriteriaID,
			&d.PlanDate, &d.LineID, &shiftID)
		if err != nil {
			return nil, err
		}
		d.ShiftID = shiftID
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	crit, err := r.rejectionCriteria(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rejection criteria: %w", err)
	}
	numbers, err := r.shiftNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load shift numbers: %w", err)
	}

	for i := range details {
		if c, ok := crit[details[i].CriteriaID]; ok {
			details[i].CriteriaName = c.Name
			details[i].Category = c.Category
		}
		details[i].ShiftNumber = numbers[details[i].ShiftID]
	}
	return details, nil
}

// OEEReportRows flattens closed plans with their stored OEE records into
// report rows. Plans without a computed record are skipped rather than
// shown with fabricated zeros.
func (r *Repository) OEEReportRows(ctx context.Context, f Filter) ([]OEEReportRow, error) {
	plans, err := r.ClosedPlans(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, nil
	}

	records := make(map[int64]OEERecord)
	rows, err := r.db.App.QueryContext(ctx,
		`SELECT plan_id, availability, performance, quality, oee, computed_at FROM oee_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to query oee records: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var rec OEERecord
		err := rows.Scan(&rec.PlanID, &rec.Availability, &rec.Performance,
			&rec.Quality, &rec.OEE, &rec.ComputedAt)
		if err != nil {
			return nil, err
		}
		records[rec.PlanID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	names, err := r.lineNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load line names: %w", err)
	}
	numbers, err := r.shiftNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load shift numbers: %w", err)
	}

	var out []OEEReportRow
	for _, p := range plans {
		rec, ok := records[p.ID]
		if !ok {
			continue
		}
		out = append(out, OEEReportRow{
			PlanID:       p.ID,
			PlanDate:     p.PlanDate,
			LineID:       p.LineID,
			LineName:     names[p.LineID],
			ShiftID:      p.ShiftID,
			ShiftNumber:  numbers[p.ShiftID],
			PartNo:       p.PartNo,
			PlannedQty:   p.PlannedQty,
			ActualQty:    p.ActualQty,
			NGQty:        p.NGQty,
			Availability: rec.Availability,
			Performance:  rec.Performance,
			Quality:      rec.Quality,
			OEE:          rec.OEE,
		})
	}
	return out, nil
}

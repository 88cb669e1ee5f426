package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Repository mediates all reads and writes for the analytics service.
// Event history lives in the lake, master data and derived rows in the
// app database; callers never see which is which.
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateSchema applies both schemas. Statements are executed one by one
// so a single failure points at the statement that caused it.
func (r *Repository) CreateSchema() error {
	exec := func(db *sql.DB, schema, name string) error {
		for _, stmt := range strings.Split(schema, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("%s schema error: %w\nstatement: %s", name, err, stmt)
			}
		}
		return nil
	}

	if err := exec(r.db.Lake, lakeSchema, "lake"); err != nil {
		return err
	}
	return exec(r.db.App, appSchema, "app")
}

// ---- master data (app db) ----

func (r *Repository) SaveLine(ctx context.Context, l Line) error {
	_, err := r.db.App.ExecContext(ctx,
		`INSERT OR REPLACE INTO lines (id, plant_id, name) VALUES (?, ?, ?)`,
		l.ID, l.PlantID, l.Name)
	return err
}

// SaveShift stores a shift. LoadingTimeSec must already be derived by
// the caller; the repository never computes it.
func (r *Repository) SaveShift(ctx context.Context, s Shift) error {
	_, err := r.db.App.ExecContext(ctx, `
		INSERT OR REPLACE INTO shifts (
			id, line_id, number, work_start, work_end,
			break1_start, break1_end, break2_start, break2_end,
			break3_start, break3_end, loading_time_sec
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.LineID, s.Number, s.WorkStart, s.WorkEnd,
		s.Break1Start, s.Break1End, s.Break2Start, s.Break2End,
		s.Break3Start, s.Break3End, s.LoadingTimeSec)
	return err
}

func (r *Repository) SaveDowntimeCategory(ctx context.Context, c DowntimeCategory) error {
	_, err := r.db.App.ExecContext(ctx, `
		INSERT OR REPLACE INTO downtime_categories (id, kind, name, default_duration_min, department)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, string(c.Kind), c.Name, c.DefaultDurationMin, c.Department)
	return err
}

func (r *Repository) SaveRejectionCriteria(ctx context.Context, c RejectionCriteria) error {
	_, err := r.db.App.ExecContext(ctx,
		`INSERT OR REPLACE INTO rejection_criteria (id, name, category) VALUES (?, ?, ?)`,
		c.ID, c.Name, c.Category)
	return err
}

// ShiftByID returns the shift or (nil, nil) when no live row exists.
// Soft-deleted shifts are invisible here like everywhere else.
func (r *Repository) ShiftByID(ctx context.Context, id int64) (*Shift, error) {
	var s Shift
	err := r.db.App.QueryRowContext(ctx, `
		SELECT id, line_id, number, work_start, work_end,
		       break1_start, break1_end, break2_start, break2_end,
		       break3_start, break3_end, loading_time_sec
		FROM shifts WHERE id = ? AND deleted_at IS NULL`, id).
		Scan(&s.ID, &s.LineID, &s.Number, &s.WorkStart, &s.WorkEnd,
			&s.Break1Start, &s.Break1End, &s.Break2Start, &s.Break2End,
			&s.Break3Start, &s.Break3End, &s.LoadingTimeSec)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query shift %d: %w", id, err)
	}
	return &s, nil
}

func (r *Repository) lineNames(ctx context.Context) (map[int64]string, error) {
	rows, err := r.db.App.QueryContext(ctx,
		`SELECT id, name FROM lines WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (r *Repository) shiftNumbers(ctx context.Context) (map[int64]int, error) {
	rows, err := r.db.App.QueryContext(ctx,
		`SELECT id, number FROM shifts WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	numbers := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		numbers[id] = n
	}
	return numbers, rows.Err()
}

func (r *Repository) downtimeCategories(ctx context.Context) (map[int64]DowntimeCategory, error) {
	rows, err := r.db.App.QueryContext(ctx, `
		SELECT id, kind, name, default_duration_min, department
		FROM downtime_categories WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := make(map[int64]DowntimeCategory)
	for rows.Next() {
		var c DowntimeCategory
		var kind string
		if err := rows.Scan(&c.ID, &kind, &c.Name, &c.DefaultDurationMin, &c.Department); err != nil {
			return nil, err
		}
		c.Kind = DowntimeKind(kind)
		cats[c.ID] = c
	}
	return cats, rows.Err()
}

func (r *Repository) rejectionCriteria(ctx context.Context) (map[int64]RejectionCriteria, error) {
	rows, err := r.db.App.QueryContext(ctx,
		`SELECT id, name, category FROM rejection_criteria WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	crit := make(map[int64]RejectionCriteria)
	for rows.Next() {
		var c RejectionCriteria
		if err := rows.Scan(&c.ID, &c.Name, &c.Category); err != nil {
			return nil, err
		}
		crit[c.ID] = c
	}
	return crit, rows.Err()
}

// ---- bulk inserts (lake) ----

// InsertPlans loads plan rows in one transaction. The lake's unique
// constraint on (plan_date, line_id, shift_id, sequence) rejects
// concurrent duplicates; that is the only locking the allocator needs.
func (r *Repository) InsertPlans(plans []ProductionPlan) error {
	if len(plans) == 0 {
		return nil
	}
	tx, err := r.db.Lake.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO production_plans (
			id, plant_id, line_id, shift_id, plan_date, sequence, part_no,
			cycle_time_sec, planned_qty, actual_qty, ng_qty, status,
			started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range plans {
		_, err := stmt.Exec(p.ID, p.PlantID, p.LineID, p.ShiftID, p.PlanDate,
			p.Sequence, p.PartNo, p.CycleTimeSec, p.PlannedQty, p.ActualQty,
			p.NGQty, string(p.Status), p.StartedAt, p.CompletedAt)
		if err != nil {
			return fmt.Errorf("failed to insert plan %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (r *Repository) InsertDowntimeEvents(events []DowntimeEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.Lake.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO downtime_events (id, plan_id, kind, start_time, end_time, duration_sec, category_id, machine_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		_, err := stmt.Exec(e.ID, e.PlanID, string(e.Kind), e.StartTime, e.EndTime,
			e.DurationSec, e.CategoryID, e.MachineID)
		if err != nil {
			return fmt.Errorf("failed to insert downtime event %d: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

func (r *Repository) InsertPlannedDowntimeEvents(events []PlannedDowntimeEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.Lake.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO planned_downtime_events (id, plan_id, category_id, start_time, duration_sec, over_pdt_duration_sec)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		_, err := stmt.Exec(e.ID, e.PlanID, e.CategoryID, e.StartTime,
			e.DurationSec, e.OverPDTDurationSec)
		if err != nil {
			return fmt.Errorf("failed to insert planned downtime event %d: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

func (r *Repository) InsertRejectionEvents(events []RejectionEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.Lake.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO rejection_events (id, plan_id, occurred_at, qty, criteria_id)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(e.ID, e.PlanID, e.OccurredAt, e.Qty, e.CriteriaID); err != nil {
			return fmt.Errorf("failed to insert rejection event %d: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// ---- derived rows (app db) ----

// UpsertLossTime writes the loss-time summary for a plan, replacing any
// previous computation. Keying on plan_id makes recomputation idempotent.
func (r *Repository) UpsertLossTime(ctx context.Context, s LossTimeSummary) error {
	_, err := r.db.App.ExecContext(ctx, `
		INSERT INTO loss_time_summaries (
			plan_id, plan_working_sec, actual_working_sec, pdt_sec, updt_sec,
			over_pdt_sec, small_stop_freq, computed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(plan_id) DO UPDATE SET
			plan_working_sec = excluded.plan_working_sec,
			actual_working_sec = excluded.actual_working_sec,
			pdt_sec = excluded.pdt_sec,
			updt_sec = excluded.updt_sec,
			over_pdt_sec = excluded.over_pdt_sec,
			small_stop_freq = excluded.small_stop_freq,
			computed_at = excluded.computed_at`,
		s.PlanID, s.PlanWorkingSec, s.ActualWorkingSec, s.PDTSec, s.UPDTSec,
		s.OverPDTSec, s.SmallStopFreq, s.ComputedAt)
	return err
}

// UpsertOEE writes the OEE record for a plan, same overwrite semantics
// as UpsertLossTime.
func (r *Repository) UpsertOEE(ctx context.Context, rec OEERecord) error {
	_, err := r.db.App.ExecContext(ctx, `
		INSERT INTO oee_records (plan_id, availability, performance, quality, oee, computed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(plan_id) DO UPDATE SET
			availability = excluded.availability,
			performance = excluded.performance,
			quality = excluded.quality,
			oee = excluded.oee,
			computed_at = excluded.computed_at`,
		rec.PlanID, rec.Availability, rec.Performance, rec.Quality, rec.OEE, rec.ComputedAt)
	return err
}

func (r *Repository) LossTimeByPlan(ctx context.Context, planID int64) (*LossTimeSummary, error) {
	var s LossTimeSummary
	err := r.db.App.QueryRowContext(ctx, `
		SELECT plan_id, plan_working_sec, actual_working_sec, pdt_sec, updt_sec,
		       over_pdt_sec, small_stop_freq, computed_at
		FROM loss_time_summaries WHERE plan_id = ?`, planID).
		Scan(&s.PlanID, &s.PlanWorkingSec, &s.ActualWorkingSec, &s.PDTSec,
			&s.UPDTSec, &s.OverPDTSec, &s.SmallStopFreq, &s.ComputedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query loss time for plan %d: %w", planID, err)
	}
	return &s, nil
}

func (r *Repository) OEEByPlan(ctx context.Context, planID int64) (*OEERecord, error) {
	var rec OEERecord
	err := r.db.App.QueryRowContext(ctx, `
		SELECT plan_id, availability, performance, quality, oee, computed_at
		FROM oee_records WHERE plan_id = ?`, planID).
		Scan(&rec.PlanID, &rec.Availability, &rec.Performance, &rec.Quality,
			&rec.OEE, &rec.ComputedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query oee for plan %d: %w", planID, err)
	}
	return &rec, nil
}

// ---- recompute jobs (app db) ----

// RecomputeJob tracks an async batch recomputation.
type RecomputeJob struct {
	JobID        string    `json:"job_id"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	TotalPlans   int       `json:"total_plans"`
	DonePlans    int       `json:"done_plans"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r *Repository) CreateRecomputeJob(jobID, status string) error {
	_, err := r.db.App.Exec(
		`INSERT INTO recompute_jobs (job_id, status, created_at, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`, jobID, status)
	return err
}

func (r *Repository) UpdateRecomputeJob(jobID, status, errMsg string, done, total int) error {
	_, err := r.db.App.Exec(`
		UPDATE recompute_jobs
		SET status = ?, error_message = ?, done_plans = ?, total_plans = ?, updated_at = CURRENT_TIMESTAMP
		WHERE job_id = ?`, status, errMsg, done, total, jobID)
	return err
}

func (r *Repository) RecomputeJobByID(jobID string) (*RecomputeJob, error) {
	var j RecomputeJob
	var errMsg sql.NullString
	err := r.db.App.QueryRow(`
		SELECT job_id, status, error_message, total_plans, done_plans, created_at, updated_at
		FROM recompute_jobs WHERE job_id = ?`, jobID).
		Scan(&j.JobID, &j.Status, &errMsg, &j.TotalPlans, &j.DonePlans, &j.CreatedAt, &j.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query recompute job %s: %w", jobID, err)
	}
	if errMsg.Valid {
		j.ErrorMessage = errMsg.String
	}
	return &j, nil
}

// CleanupOldData drops event history older than the retention window and
// recompute jobs older than 30 days.
func (r *Repository) CleanupOldData(retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays).Format("2006-01-02")

	if _, err := r.db.Lake.Exec(`DELETE FROM production_plans WHERE plan_date < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to delete old plans: %w", err)
	}
	for _, table := range []string{"downtime_events", "planned_downtime_events"} {
		q := fmt.Sprintf(`DELETE FROM %s WHERE plan_id NOT IN (SELECT id FROM production_plans)`, table)
		if _, err := r.db.Lake.Exec(q); err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	if _, err := r.db.Lake.Exec(`DELETE FROM rejection_events WHERE plan_id NOT IN (SELECT id FROM production_plans)`); err != nil {
		return fmt.Errorf("failed to clean rejection_events: %w", err)
	}

	_, err := r.db.App.Exec(`DELETE FROM recompute_jobs WHERE created_at < ?`,
		time.Now().AddDate(0, 0, -30))
	return err
}

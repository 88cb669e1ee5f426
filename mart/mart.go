package mart

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"prodstat/database"
)

// Builder maintains plan_daily_stats, a DuckDB rollup of the event
// history: one row per (plan_date, line_id, shift_id) with plan counts,
// quantity totals and downtime sums. Report queries that only need
// day-level numbers read this instead of scanning events.
type Builder struct {
	db *database.DB
}

func NewBuilder(db *database.DB) *Builder {
	return &Builder{db: db}
}

// Refresh rebuilds plan_daily_stats from scratch. The rollup is small
// enough that a full rebuild beats incremental maintenance.
func (b *Builder) Refresh(ctx context.Context) error {
	start := time.Now()

	query := `
		CREATE OR REPLACE TABLE plan_daily_stats AS
		WITH downtime AS (
			SELECT plan_id,
			       SUM(CASE WHEN kind = 'PDT' THEN duration_sec ELSE 0 END) AS pdt_sec,
			       SUM(CASE WHEN kind = 'UPDT' THEN duration_sec ELSE 0 END) AS updt_sec
			FROM downtime_events
			WHERE deleted_at IS NULL
			GROUP BY plan_id
		),
		scheduled AS (
			SELECT plan_id,
			       SUM(duration_sec) AS planned_pdt_sec,
			       SUM(over_pdt_duration_sec) AS over_pdt_sec
			FROM planned_downtime_events
			WHERE deleted_at IS NULL
			GROUP BY plan_id
		)
		SELECT
			p.plan_date,
			p.plant_id,
			p.line_id,
			p.shift_id,
			COUNT(*) AS plan_count,
			SUM(CASE WHEN p.status = 'CLOSED' THEN 1 ELSE 0 END) AS closed_count,
			SUM(p.planned_qty) AS planned_qty,
			SUM(p.actual_qty) AS actual_qty,
			SUM(p.ng_qty) AS ng_qty,
			COALESCE(SUM(d.pdt_sec + s.planned_pdt_sec), 0) AS pdt_sec,
			COALESCE(SUM(d.updt_sec + s.over_pdt_sec), 0) AS updt_sec,
			CURRENT_TIMESTAMP AS refreshed_at
		FROM production_plans p
		LEFT JOIN downtime d ON d.plan_id = p.id
		LEFT JOIN scheduled s ON s.plan_id = p.id
		WHERE p.deleted_at IS NULL AND p.status != 'CANCELED'
		GROUP BY p.plan_date, p.plant_id, p.line_id, p.shift_id;
	`
	if _, err := b.db.Lake.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to refresh plan_daily_stats: %w", err)
	}

	var rows int64
	if err := b.db.Lake.QueryRowContext(ctx, `SELECT COUNT(*) FROM plan_daily_stats`).Scan(&rows); err != nil {
		log.Printf("warning: failed to count plan_daily_stats rows: %v", err)
	}
	log.Printf("mart refresh completed in %v, %d rows", time.Since(start), rows)
	return nil
}

// Stats summarizes the current rollup for the status endpoint.
func (b *Builder) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalRows int64
	if err := b.db.Lake.QueryRowContext(ctx, `SELECT COUNT(*) FROM plan_daily_stats`).Scan(&totalRows); err != nil {
		return nil, fmt.Errorf("failed to query plan_daily_stats: %w", err)
	}
	stats["total_rows"] = totalRows

	var minDate, maxDate sql.NullString
	err := b.db.Lake.QueryRowContext(ctx,
		`SELECT MIN(plan_date), MAX(plan_date) FROM plan_daily_stats`).Scan(&minDate, &maxDate)
	if err != nil {
		return nil, err
	}
	if minDate.Valid {
		stats["min_date"] = minDate.String
	}
	if maxDate.Valid {
		stats["max_date"] = maxDate.String
	}

	var plannedQty, actualQty sql.NullInt64
	err = b.db.Lake.QueryRowContext(ctx,
		`SELECT SUM(planned_qty), SUM(actual_qty) FROM plan_daily_stats`).Scan(&plannedQty, &actualQty)
	if err != nil {
		return nil, err
	}
	stats["planned_qty"] = plannedQty.Int64
	stats["actual_qty"] = actualQty.Int64

	return stats, nil
}

package database

import "time"

// PlanStatus is the lifecycle state of a production plan.
// Plans are created OPEN, move to RUNNING on start and end in
// CLOSED or CANCELED.
type PlanStatus string

const (
	PlanOpen     PlanStatus = "OPEN"
	PlanRunning  PlanStatus = "RUNNING"
	PlanClosed   PlanStatus = "CLOSED"
	PlanCanceled PlanStatus = "CANCELED"
)

// DowntimeKind distinguishes planned (PDT) from unplanned (UPDT) stoppages.
type DowntimeKind string

const (
	DowntimePDT  DowntimeKind = "PDT"
	DowntimeUPDT DowntimeKind = "UPDT"
)

// Line is a production line inside a plant.
type Line struct {
	ID      int64  `json:"id"`
	PlantID int64  `json:"plant_id"`
	Name    string `json:"name"`
}

// Shift describes a working window on a line. Times of day are "HH:MM"
// strings; an empty string means "not set". A shift may cross midnight
// (work_end < work_start). LoadingTimeSec is derived once at create/update
// time and consumed read-only afterwards.
type Shift struct {
	ID          int64  `json:"id"`
	LineID      int64  `json:"line_id"`
	Number      int    `json:"number"`
	WorkStart   string `json:"work_start"`
	WorkEnd     string `json:"work_end"`
	Break1Start string `json:"break1_start"`
	Break1End   string `json:"break1_end"`
	Break2Start string `json:"break2_start"`
	Break2End   string `json:"break2_end"`
	Break3Start string `json:"break3_start"`
	Break3End   string `json:"break3_end"`

	LoadingTimeSec int `json:"loading_time_sec"`
}

// ProductionPlan is one sequenced run of a part on a line/shift/day.
// Sequence is unique per (plan_date, line_id, shift_id); the lake schema
// enforces this, the allocator itself takes it on trust.
type ProductionPlan struct {
	ID           int64      `json:"id"`
	PlantID      int64      `json:"plant_id"`
	LineID       int64      `json:"line_id"`
	ShiftID      int64      `json:"shift_id"`
	PlanDate     string     `json:"plan_date"` // "2006-01-02"
	Sequence     int        `json:"sequence"`
	PartNo       string     `json:"part_no"`
	CycleTimeSec int        `json:"cycle_time_sec"`
	PlannedQty   int        `json:"planned_qty"`
	ActualQty    int        `json:"actual_qty"`
	NGQty        int        `json:"ng_qty"`
	Status       PlanStatus `json:"status"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// DowntimeCategory is a tagged variant: PDT categories carry a default
// duration, UPDT categories carry the owning department. Exactly one of
// the two extra fields is meaningful, selected by Kind.
type DowntimeCategory struct {
	ID   int64        `json:"id"`
	Kind DowntimeKind `json:"kind"`
	Name string       `json:"name"`

	DefaultDurationMin int    `json:"default_duration_min,omitempty"` // PDT only
	Department         string `json:"department,omitempty"`           // UPDT only
}

// DowntimeEvent is a logged stoppage belonging to exactly one plan.
// CategoryID 0 means the category could not be resolved.
type DowntimeEvent struct {
	ID          int64        `json:"id"`
	PlanID      int64        `json:"plan_id"`
	Kind        DowntimeKind `json:"kind"`
	StartTime   time.Time    `json:"start_time"`
	EndTime     time.Time    `json:"end_time"`
	DurationSec int          `json:"duration_sec"`
	CategoryID  int64        `json:"category_id"`
	MachineID   int64        `json:"machine_id"`
}

// PlannedDowntimeEvent is a scheduled PDT occurrence. When the actual
// duration runs past the category default, the excess is recorded as
// OverPDTDurationSec and counts as unplanned loss.
type PlannedDowntimeEvent struct {
	ID                 int64     `json:"id"`
	PlanID             int64     `json:"plan_id"`
	CategoryID         int64     `json:"category_id"`
	StartTime          time.Time `json:"start_time"`
	DurationSec        int       `json:"duration_sec"`
	OverPDTDurationSec int       `json:"over_pdt_duration_sec"`
}

// RejectionEvent is a quantity of parts rejected against a criteria.
// The sum of event quantities for a plan need not match the plan's NGQty;
// aggregation only ever uses what was logged.
type RejectionEvent struct {
	ID         int64     `json:"id"`
	PlanID     int64     `json:"plan_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Qty        int       `json:"qty"`
	CriteriaID int64     `json:"criteria_id"`
}

// RejectionCriteria is a named rejection cause grouped under a category.
type RejectionCriteria struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// LossTimeSummary is the persisted output of the loss-time decomposition,
// one row per closed plan, overwritten on recompute.
type LossTimeSummary struct {
	PlanID           int64     `json:"plan_id"`
	PlanWorkingSec   int       `json:"plan_working_sec"`
	ActualWorkingSec int       `json:"actual_working_sec"`
	PDTSec           int       `json:"pdt_sec"`
	UPDTSec          int       `json:"updt_sec"`
	OverPDTSec       int       `json:"over_pdt_sec"`
	SmallStopFreq    int       `json:"small_stop_freq"`
	ComputedAt       time.Time `json:"computed_at"`
}

// OEERecord is the persisted OEE result, one row per closed plan,
// overwritten on recompute. All values are percentages in [0,100].
type OEERecord struct {
	PlanID       int64     `json:"plan_id"`
	Availability float64   `json:"availability"`
	Performance  float64   `json:"performance"`
	Quality      float64   `json:"quality"`
	OEE          float64   `json:"oee"`
	ComputedAt   time.Time `json:"computed_at"`
}

// DowntimeEventDetail is a downtime event with its category and plan
// context already resolved, as report queries return it.
type DowntimeEventDetail struct {
	DowntimeEvent
	CategoryName string       `json:"category_name"`
	CategoryKind DowntimeKind `json:"category_kind"`
	Department   string       `json:"department,omitempty"`
	PlanDate     string       `json:"plan_date"`
	LineID       int64        `json:"line_id"`
	ShiftID      int64        `json:"shift_id"`
	ShiftNumber  int          `json:"shift_number"`
}

// RejectionEventDetail is a rejection event with criteria and plan
// context resolved.
type RejectionEventDetail struct {
	RejectionEvent
	CriteriaName string `json:"criteria_name"`
	Category     string `json:"category"`
	PlanDate     string `json:"plan_date"`
	LineID       int64  `json:"line_id"`
	ShiftID      int64  `json:"shift_id"`
	ShiftNumber  int    `json:"shift_number"`
}

// OEEReportRow is a flat table row for the OEE report: plan facts plus
// the derived loss-time and OEE values, joins already resolved.
type OEEReportRow struct {
	PlanID       int64   `json:"plan_id"`
	PlanDate     string  `json:"plan_date"`
	LineID       int64   `json:"line_id"`
	LineName     string  `json:"line_name"`
	ShiftID      int64   `json:"shift_id"`
	ShiftNumber  int     `json:"shift_number"`
	PartNo       string  `json:"part_no"`
	PlannedQty   int     `json:"planned_qty"`
	ActualQty    int     `json:"actual_qty"`
	NGQty        int     `json:"ng_qty"`
	Availability float64 `json:"availability"`
	Performance  float64 `json:"performance"`
	Quality      float64 `json:"quality"`
	OEE          float64 `json:"oee"`
}

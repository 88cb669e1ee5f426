package reports

import (
	"context"
	"errors"
	"fmt"

	"prodstat/database"
)

// NotFoundError signals that a referenced entity has no live row. The
// services return it instead of inventing defaults: a capacity check
// against a missing shift is a caller error, not a zero-budget shift.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func notFound(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: fmt.Sprintf("%d", id)}
}

// The services talk to storage through these narrow views so tests can
// substitute fakes without a database. *database.Repository satisfies
// all of them.

type ShiftStore interface {
	ShiftByID(ctx context.Context, id int64) (*database.Shift, error)
}

type PlanStore interface {
	PlanByID(ctx context.Context, id int64) (*database.ProductionPlan, error)
	PlansForShiftDay(ctx context.Context, planDate string, lineID, shiftID int64) ([]database.ProductionPlan, error)
	ClosedPlans(ctx context.Context, f database.Filter) ([]database.ProductionPlan, error)
	OEEReportRows(ctx context.Context, f database.Filter) ([]database.OEEReportRow, error)
}

type DowntimeStore interface {
	DowntimeByPlan(ctx context.Context, planID int64) ([]database.DowntimeEvent, error)
	PlannedDowntimeByPlan(ctx context.Context, planID int64) ([]database.PlannedDowntimeEvent, error)
	DowntimeInRange(ctx context.Context, f database.Filter) ([]database.DowntimeEventDetail, error)
}

type RejectionStore interface {
	RejectionsInRange(ctx context.Context, f database.Filter) ([]database.RejectionEventDetail, error)
}

type SummaryStore interface {
	UpsertLossTime(ctx context.Context, s database.LossTimeSummary) error
	UpsertOEE(ctx context.Context, rec database.OEERecord) error
	CreateRecomputeJob(jobID, status string) error
	UpdateRecomputeJob(jobID, status, errMsg string, done, total int) error
	RecomputeJobByID(jobID string) (*database.RecomputeJob, error)
}
